package upload

import (
	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
)

// DepthFormats are the depth attachment formats tried in order of preference.
var DepthFormats = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
}

// ChooseFormat returns the first candidate whose properties, as reported by
// lookup, contain all features for the given tiling.
func ChooseFormat(
	candidates []vk.Format,
	tiling vk.ImageTiling,
	features vk.FormatFeatureFlags,
	lookup func(vk.Format) vk.FormatProperties,
) (vk.Format, bool) {
	for _, format := range candidates {
		props := lookup(format)

		switch tiling {
		case vk.ImageTilingLinear:
			if props.LinearTilingFeatures&features == features {
				return format, true
			}
		case vk.ImageTilingOptimal:
			if props.OptimalTilingFeatures&features == features {
				return format, true
			}
		}
	}

	return vk.FormatUndefined, false
}

// FindDepthFormat picks the depth attachment format for the physical device.
func FindDepthFormat(device vk.PhysicalDevice) (vk.Format, error) {
	lookup := func(format vk.Format) vk.FormatProperties {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(device, format, &props)
		props.Deref()
		return props
	}

	format, ok := ChooseFormat(
		DepthFormats,
		vk.ImageTilingOptimal,
		vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit),
		lookup,
	)
	if !ok {
		return vk.FormatUndefined, apperr.New(apperr.ResourceCreationFailed,
			"failed to find supported depth format")
	}

	return format, nil
}

// HasStencil reports whether a depth format carries a stencil component.
func HasStencil(format vk.Format) bool {
	return format == vk.FormatD32SfloatS8Uint || format == vk.FormatD24UnormS8Uint
}
