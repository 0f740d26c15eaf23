// Package device picks the physical device the renderer runs on and creates
// the logical device with its graphics and present queues.
package device

import (
	vk "github.com/vulkan-go/vulkan"

	"vkframes/capability"
	"vkframes/queues"
	"vkframes/swapchain"
)

// Features are the optional device features the renderer relies on.
type Features struct {
	SamplerAnisotropy bool
}

// Candidate is everything selection needs to know about a physical device.
type Candidate struct {
	Handle vk.PhysicalDevice
	Name   string
	Type   vk.PhysicalDeviceType

	Families   queues.FamilyIndices
	Extensions []string

	// Support is only queried when the swapchain extension is available.
	Support swapchain.SupportDetails

	Features      Features
	MaxAnisotropy float32
}

// Requirements is what a device must offer to be usable.
type Requirements struct {
	Extensions []string
	Features   Features
}

// DefaultRequirements returns the requirements of the renderer: the swapchain
// extension and anisotropic sampling.
func DefaultRequirements() Requirements {
	return Requirements{
		Extensions: capability.DeviceExtensions,
		Features: Features{
			SamplerAnisotropy: true,
		},
	}
}

// Unsuitable lists the reasons c fails r. An empty result means the device is
// suitable.
func (r Requirements) Unsuitable(c Candidate) []string {
	var reasons []string

	extensionsSupported := true
	if name, missing := capability.Missing(r.Extensions, c.Extensions); missing {
		extensionsSupported = false
		reasons = append(reasons, "missing extension "+name)
	}

	if !extensionsSupported || !c.Support.Adequate() {
		reasons = append(reasons, "inadequate swap chain support")
	}

	if r.Features.SamplerAnisotropy && !c.Features.SamplerAnisotropy {
		reasons = append(reasons, "no sampler anisotropy")
	}

	if !c.Families.IsComplete() {
		reasons = append(reasons, "incomplete queue families")
	}

	return reasons
}

// IsSuitable reports whether c supports the required extensions, has at least
// one surface format and present mode, supports the required features and has
// graphics and present queue families.
func (r Requirements) IsSuitable(c Candidate) bool {
	return len(r.Unsuitable(c)) == 0
}

// PickFirst returns the first suitable candidate in enumeration order.
func PickFirst(candidates []Candidate, r Requirements) (Candidate, bool) {
	for _, c := range candidates {
		if r.IsSuitable(c) {
			return c, true
		}
	}
	return Candidate{}, false
}
