package device

import (
	"log/slog"

	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
	"vkframes/capability"
	"vkframes/queues"
	"vkframes/swapchain"
)

// Enumerate lists the physical devices of instance. Having none is an error.
func Enumerate(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	res := vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)
	if res != vk.Success {
		return nil, apperr.Wrap(vk.Error(res), apperr.NoVulkanDevice,
			"failed to get the number of physical devices")
	}
	if deviceCount == 0 {
		return nil, apperr.New(apperr.NoVulkanDevice, "failed to find GPUs with Vulkan support")
	}

	pDevices := make([]vk.PhysicalDevice, deviceCount)
	res = vk.EnumeratePhysicalDevices(instance, &deviceCount, pDevices)
	if res != vk.Success {
		return nil, apperr.Wrap(vk.Error(res), apperr.NoVulkanDevice,
			"failed to enumerate the physical devices")
	}

	return pDevices[:deviceCount], nil
}

// QueueFamilies reports for every queue family of device whether it supports
// graphics and presentation to surface.
func QueueFamilies(device vk.PhysicalDevice, surface vk.Surface, logger *slog.Logger) []queues.Family {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)

	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	families := make([]queues.Family, 0, queueFamilyCount)
	for i, family := range queueFamilies[:queueFamilyCount] {
		family.Deref()

		f := queues.Family{
			Graphics: family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
		}

		var hasPresent vk.Bool32
		res := vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), surface, &hasPresent)
		if res != vk.Success {
			logger.Warn("error querying surface support",
				"queue_family", i,
				"error", vk.Error(res),
			)
		} else {
			f.Present = hasPresent.B()
		}

		families = append(families, f)
	}

	return families
}

// Inspect gathers the selection data of device for surface.
func Inspect(device vk.PhysicalDevice, surface vk.Surface, logger *slog.Logger) Candidate {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(device, &properties)
	properties.Deref()
	properties.Limits.Deref()

	c := Candidate{
		Handle:        device,
		Name:          vk.ToString(properties.DeviceName[:]),
		Type:          properties.DeviceType,
		Families:      queues.FindFamilies(QueueFamilies(device, surface, logger)),
		MaxAnisotropy: properties.Limits.MaxSamplerAnisotropy,
	}

	extensions, err := capability.DeviceExtensionNames(device)
	if err != nil {
		logger.Warn("enumerating device extensions", "device", c.Name, "error", err)
	}
	c.Extensions = extensions

	if _, missing := capability.Missing(capability.DeviceExtensions, extensions); !missing {
		support, err := swapchain.QuerySupport(device, surface)
		if err != nil {
			logger.Warn("querying swap chain support", "device", c.Name, "error", err)
		}
		c.Support = support
	}

	var supportedFeatures vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(device, &supportedFeatures)
	supportedFeatures.Deref()

	c.Features.SamplerAnisotropy = supportedFeatures.SamplerAnisotropy.B()

	return c
}

// Select returns the first physical device of instance which satisfies r.
func Select(
	instance vk.Instance,
	surface vk.Surface,
	r Requirements,
	logger *slog.Logger,
) (Candidate, error) {
	devices, err := Enumerate(instance)
	if err != nil {
		return Candidate{}, err
	}

	candidates := make([]Candidate, 0, len(devices))
	for _, device := range devices {
		c := Inspect(device, surface, logger)
		logger.Debug("available device",
			"name", c.Name,
			"type", c.Type,
			"suitable", r.IsSuitable(c),
			"reasons", r.Unsuitable(c),
		)
		candidates = append(candidates, c)
	}

	selected, ok := PickFirst(candidates, r)
	if !ok {
		return Candidate{}, apperr.New(apperr.NoSuitableDevice,
			"failed to find a suitable GPU among %d devices", len(candidates))
	}

	logger.Info("selected device", "name", selected.Name, "type", selected.Type)
	return selected, nil
}
