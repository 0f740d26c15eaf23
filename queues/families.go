package queues

import (
	"vkframes/optional"
)

// FamilyIndices holds the indexes of Vulkan queue families needed by the programs.
type FamilyIndices struct {

	// Graphics is the index of the graphics queue family.
	Graphics optional.Optional[uint32]

	// Present is the index of the queue family used for presenting to the drawing
	// surface.
	Present optional.Optional[uint32]
}

// IsComplete returns true if all families have been set.
func (f *FamilyIndices) IsComplete() bool {
	return f.Graphics.HasValue() && f.Present.HasValue()
}

// SameFamily reports whether graphics and presentation use one queue family.
// It is only meaningful for complete indices.
func (f *FamilyIndices) SameFamily() bool {
	return f.Graphics.Get() == f.Present.Get()
}

// Unique returns the distinct family indexes in the order graphics, present.
// Devices get one queue create info per entry.
func (f *FamilyIndices) Unique() []uint32 {
	var out []uint32
	if f.Graphics.HasValue() {
		out = append(out, f.Graphics.Get())
	}
	if f.Present.HasValue() && (len(out) == 0 || out[0] != f.Present.Get()) {
		out = append(out, f.Present.Get())
	}
	return out
}

// Family is what the selection logic needs to know about one queue family of a
// physical device.
type Family struct {
	Graphics bool
	Present  bool
}

// FindFamilies walks the queue families in order and records the last graphics
// and present capable family seen before both are found.
func FindFamilies(families []Family) FamilyIndices {
	indices := FamilyIndices{}

	for i, family := range families {
		if family.Graphics {
			indices.Graphics.Set(uint32(i))
		}

		if family.Present {
			indices.Present.Set(uint32(i))
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices
}
