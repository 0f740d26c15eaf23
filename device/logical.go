package device

import (
	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
	"vkframes/capability"
	"vkframes/queues"
)

// Logical is a logical device together with the queues the renderer uses.
type Logical struct {
	Handle   vk.Device
	Families queues.FamilyIndices

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue
}

// QueueCreateInfos returns one queue create info per distinct family.
func QueueCreateInfos(indices queues.FamilyIndices) []vk.DeviceQueueCreateInfo {
	queueCreateInfos := []vk.DeviceQueueCreateInfo{}

	for _, familyIndex := range indices.Unique() {
		queueCreateInfos = append(
			queueCreateInfos,
			vk.DeviceQueueCreateInfo{
				SType:            vk.StructureTypeDeviceQueueCreateInfo,
				QueueFamilyIndex: familyIndex,
				QueueCount:       1,
				PQueuePriorities: []float32{1.0},
			},
		)
	}

	return queueCreateInfos
}

// CreateLogical creates a logical device for c which enables r's extensions
// and features. Validation layers are only set for older implementations
// which still look at device layers.
func CreateLogical(c Candidate, r Requirements, layers []string) (*Logical, error) {
	if !c.Families.IsComplete() {
		return nil, apperr.New(apperr.DeviceCreationFailed,
			"device %s does not have all the queues required by the program", c.Name)
	}

	queueCreateInfos := QueueCreateInfos(c.Families)

	deviceFeatures := []vk.PhysicalDeviceFeatures{{}}
	if r.Features.SamplerAnisotropy {
		deviceFeatures[0].SamplerAnisotropy = vk.True
	}

	extensions := capability.NullTerminated(r.Extensions)

	createInfo := vk.DeviceCreateInfo{
		SType:            vk.StructureTypeDeviceCreateInfo,
		PEnabledFeatures: deviceFeatures,

		PQueueCreateInfos:    queueCreateInfos,
		QueueCreateInfoCount: uint32(len(queueCreateInfos)),

		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	if len(layers) > 0 {
		enabledLayers := capability.NullTerminated(layers)
		createInfo.PpEnabledLayerNames = enabledLayers
		createInfo.EnabledLayerCount = uint32(len(enabledLayers))
	}

	var device vk.Device
	res := vk.CreateDevice(c.Handle, &createInfo, nil, &device)
	if res != vk.Success {
		return nil, apperr.Wrap(vk.Error(res), apperr.DeviceCreationFailed,
			"failed to create logical device")
	}

	logical := &Logical{
		Handle:   device,
		Families: c.Families,
	}

	var graphicsQueue vk.Queue
	vk.GetDeviceQueue(device, c.Families.Graphics.Get(), 0, &graphicsQueue)
	logical.GraphicsQueue = graphicsQueue

	var presentQueue vk.Queue
	vk.GetDeviceQueue(device, c.Families.Present.Get(), 0, &presentQueue)
	logical.PresentQueue = presentQueue

	return logical, nil
}

// WaitIdle blocks until the device finished all submitted work.
func (l *Logical) WaitIdle() error {
	return apperr.Vk(vk.DeviceWaitIdle(l.Handle), "failed to wait for device idle")
}

// Destroy destroys the logical device. Its queues go with it.
func (l *Logical) Destroy() {
	if l.Handle != vk.Device(vk.NullHandle) {
		vk.DestroyDevice(l.Handle, nil)
		l.Handle = vk.Device(vk.NullHandle)
	}
}
