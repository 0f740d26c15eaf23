// Package capability negotiates Vulkan instance extensions, validation layers
// and device extensions against what the platform reports as supported.
package capability

import (
	"strings"

	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
)

// ValidationLayers is the list of layers required when the -debug flag is set.
var ValidationLayers = []string{
	"VK_LAYER_KHRONOS_validation",
}

// DeviceExtensions is the list of device extensions required by the renderer.
var DeviceExtensions = []string{
	vk.KhrSwapchainExtensionName,
}

// Missing returns the first name from required which is not present in
// available. Names are compared exactly, ignoring a trailing NUL which Vulkan
// strings passed through the bindings may carry.
func Missing(required, available []string) (string, bool) {
	supported := make(map[string]struct{}, len(available))
	for _, name := range available {
		supported[trimNul(name)] = struct{}{}
	}

	for _, name := range required {
		if _, ok := supported[trimNul(name)]; !ok {
			return trimNul(name), true
		}
	}

	return "", false
}

// NullTerminated returns a copy of names where each entry ends with a NUL
// byte, as expected by the enabled extension and layer fields of vulkan-go
// create infos.
func NullTerminated(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, trimNul(name)+"\x00")
	}
	return out
}

// InstanceExtensions lists the instance extensions supported by the platform.
func InstanceExtensions() ([]string, error) {
	var count uint32
	res := vk.EnumerateInstanceExtensionProperties("", &count, nil)
	if res != vk.Success {
		return nil, apperr.Wrap(vk.Error(res), apperr.ListExtensionsFailed,
			"Vulkan instance extension enumeration failed")
	}

	properties := make([]vk.ExtensionProperties, count)
	res = vk.EnumerateInstanceExtensionProperties("", &count, properties)
	if res != vk.Success {
		return nil, apperr.Wrap(vk.Error(res), apperr.ListExtensionsFailed,
			"Vulkan instance extension enumeration failed")
	}

	names := make([]string, 0, count)
	for _, ext := range properties[:count] {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}

	return names, nil
}

// InstanceLayers lists the instance layers available on the platform.
func InstanceLayers() ([]string, error) {
	var count uint32
	res := vk.EnumerateInstanceLayerProperties(&count, nil)
	if res != vk.Success {
		return nil, apperr.Wrap(vk.Error(res), apperr.ListValidationLayersFailed,
			"Vulkan instance layer enumeration failed")
	}

	properties := make([]vk.LayerProperties, count)
	res = vk.EnumerateInstanceLayerProperties(&count, properties)
	if res != vk.Success {
		return nil, apperr.Wrap(vk.Error(res), apperr.ListValidationLayersFailed,
			"Vulkan instance layer enumeration failed")
	}

	names := make([]string, 0, count)
	for _, layer := range properties[:count] {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}

	return names, nil
}

// DeviceExtensionNames lists the extensions supported by a physical device.
func DeviceExtensionNames(device vk.PhysicalDevice) ([]string, error) {
	var count uint32
	res := vk.EnumerateDeviceExtensionProperties(device, "", &count, nil)
	if err := apperr.Vk(res, "enumerating device extension properties count"); err != nil {
		return nil, err
	}

	properties := make([]vk.ExtensionProperties, count)
	res = vk.EnumerateDeviceExtensionProperties(device, "", &count, properties)
	if err := apperr.Vk(res, "enumerating device extension properties"); err != nil {
		return nil, err
	}

	names := make([]string, 0, count)
	for _, ext := range properties[:count] {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}

	return names, nil
}

// CheckInstanceExtensions fails with ExtensionNotSupported naming the first
// required extension the platform does not support.
func CheckInstanceExtensions(required []string) error {
	available, err := InstanceExtensions()
	if err != nil {
		return err
	}

	if name, missing := Missing(required, available); missing {
		return apperr.New(apperr.ExtensionNotSupported,
			"required Vulkan extension %s is not supported", name)
	}

	return nil
}

// CheckValidationLayers fails with LayerNotSupported naming the first required
// layer which is not available.
func CheckValidationLayers(required []string) error {
	available, err := InstanceLayers()
	if err != nil {
		return err
	}

	if name, missing := Missing(required, available); missing {
		return apperr.New(apperr.LayerNotSupported,
			"required Vulkan validation layer %s is not supported", name)
	}

	return nil
}

func trimNul(name string) string {
	return strings.TrimRight(name, "\x00")
}
