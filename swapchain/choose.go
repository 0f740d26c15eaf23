package swapchain

import (
	"cmp"
	"math"

	vk "github.com/vulkan-go/vulkan"

	"vkframes/queues"
)

// ChooseSurfaceFormat prefers 8 bit BGRA sRGB in the sRGB non-linear color
// space and falls back to the first available format.
func ChooseSurfaceFormat(availableFormats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range availableFormats {
		if format.Format == vk.FormatB8g8r8a8Srgb &&
			format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}

	if len(availableFormats) == 0 {
		return vk.SurfaceFormat{}
	}
	return availableFormats[0]
}

// ChoosePresentMode returns mailbox when it is available and preferred. FIFO
// is always supported and is the fallback.
func ChoosePresentMode(available []vk.PresentMode, preferMailbox bool) vk.PresentMode {
	if !preferMailbox {
		return vk.PresentModeFifo
	}

	for _, mode := range available {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}

	return vk.PresentModeFifo
}

// ChooseExtent returns the surface's current extent unless the platform
// reports it as undefined, in which case the framebuffer size in pixels is
// used, clamped to the supported extent range.
func ChooseExtent(capabilities vk.SurfaceCapabilities, fbWidth, fbHeight int) vk.Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent
	}

	actualExtent := vk.Extent2D{
		Width:  uint32(max(fbWidth, 0)),
		Height: uint32(max(fbHeight, 0)),
	}

	actualExtent.Width = clamp(
		actualExtent.Width,
		capabilities.MinImageExtent.Width,
		capabilities.MaxImageExtent.Width,
	)

	actualExtent.Height = clamp(
		actualExtent.Height,
		capabilities.MinImageExtent.Height,
		capabilities.MaxImageExtent.Height,
	)

	return actualExtent
}

// ImageCount is one more than the minimum image count, capped by the maximum.
// A maximum of zero means there is no limit.
func ImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

// SharingFor returns the image sharing mode for swapchain images. Images are
// shared concurrently between the graphics and present families when they
// differ, the family list is nil otherwise.
func SharingFor(indices queues.FamilyIndices) (vk.SharingMode, []uint32) {
	if indices.SameFamily() {
		return vk.SharingModeExclusive, nil
	}

	return vk.SharingModeConcurrent, []uint32{
		indices.Graphics.Get(),
		indices.Present.Get(),
	}
}

func clamp[T cmp.Ordered](val, min, max T) T {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
