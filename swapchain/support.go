// Package swapchain owns the presentation side of the renderer: the swapchain,
// its image views, the depth buffer and one framebuffer per swapchain image.
// All of them are created together, destroyed together and replaced as one
// unit whenever the surface becomes out of date.
package swapchain

import (
	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
)

// SupportDetails is what a surface supports on a physical device.
type SupportDetails struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// Adequate reports whether a swapchain can be created at all: at least one
// surface format and one present mode.
func (s SupportDetails) Adequate() bool {
	return len(s.Formats) > 0 && len(s.PresentModes) > 0
}

// QuerySupport reads the surface capabilities, formats and present modes of
// device for surface.
func QuerySupport(device vk.PhysicalDevice, surface vk.Surface) (SupportDetails, error) {
	details := SupportDetails{}

	var capabilities vk.SurfaceCapabilities
	res := vk.GetPhysicalDeviceSurfaceCapabilities(device, surface, &capabilities)
	if err := apperr.Vk(res, "failed to query device surface capabilities"); err != nil {
		return details, err
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()

	details.Capabilities = capabilities

	var formatCount uint32
	res = vk.GetPhysicalDeviceSurfaceFormats(device, surface, &formatCount, nil)
	if err := apperr.Vk(res, "failed to query device surface formats"); err != nil {
		return details, err
	}

	if formatCount != 0 {
		formats := make([]vk.SurfaceFormat, formatCount)
		res = vk.GetPhysicalDeviceSurfaceFormats(device, surface, &formatCount, formats)
		if err := apperr.Vk(res, "failed to read device surface formats"); err != nil {
			return details, err
		}
		for _, format := range formats[:formatCount] {
			format.Deref()
			details.Formats = append(details.Formats, format)
		}
	}

	var presentModeCount uint32
	res = vk.GetPhysicalDeviceSurfacePresentModes(device, surface, &presentModeCount, nil)
	if err := apperr.Vk(res, "failed to query device surface present modes"); err != nil {
		return details, err
	}

	if presentModeCount != 0 {
		presentModes := make([]vk.PresentMode, presentModeCount)
		res = vk.GetPhysicalDeviceSurfacePresentModes(
			device, surface, &presentModeCount, presentModes,
		)
		if err := apperr.Vk(res, "failed to read device surface present modes"); err != nil {
			return details, err
		}
		details.PresentModes = presentModes[:presentModeCount]
	}

	return details, nil
}
