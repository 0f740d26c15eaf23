// Package upload moves host data into device memory: buffer and image
// allocation, staging copies, one-shot command submission, image layout
// transitions and mipmap generation.
package upload

import (
	"math/bits"

	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
)

// FindMemoryType returns the first memory type index whose bit is set in
// typeFilter and whose property flags contain every flag in properties.
// memoryTypes holds the property flags of each memory type of the device, in
// device order.
func FindMemoryType(
	memoryTypes []vk.MemoryPropertyFlags,
	typeFilter uint32,
	properties vk.MemoryPropertyFlags,
) (uint32, error) {
	for i, flags := range memoryTypes {
		if typeFilter&(1<<uint32(i)) == 0 {
			continue
		}

		if flags&properties != properties {
			continue
		}

		return uint32(i), nil
	}

	return 0, apperr.New(apperr.ResourceCreationFailed,
		"failed to find suitable memory type (filter %#x, properties %#x)",
		typeFilter, properties)
}

// MemoryTypes reads the property flags of every memory type of device.
func MemoryTypes(device vk.PhysicalDevice) []vk.MemoryPropertyFlags {
	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(device, &memProperties)
	memProperties.Deref()

	types := make([]vk.MemoryPropertyFlags, 0, memProperties.MemoryTypeCount)
	for i := uint32(0); i < memProperties.MemoryTypeCount; i++ {
		memType := memProperties.MemoryTypes[i]
		memType.Deref()

		types = append(types, memType.PropertyFlags)
	}

	return types
}

// MipLevels returns the number of levels in a full mip chain for an image of
// the given size: floor(log2(max(width, height))) + 1.
func MipLevels(width, height uint32) uint32 {
	largest := max(width, height)
	if largest == 0 {
		return 1
	}
	return uint32(bits.Len32(largest))
}

// MipChain returns the extent of every level of a mip chain starting at
// width x height. Each level halves the previous one, never going below 1.
func MipChain(width, height, levels uint32) []vk.Extent2D {
	chain := make([]vk.Extent2D, 0, levels)
	for i := uint32(0); i < levels; i++ {
		chain = append(chain, vk.Extent2D{Width: width, Height: height})
		width = halve(width)
		height = halve(height)
	}
	return chain
}

func halve(v uint32) uint32 {
	if v > 1 {
		return v / 2
	}
	return 1
}
