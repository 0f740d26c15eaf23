package device_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	vk "github.com/vulkan-go/vulkan"

	"vkframes/device"
	"vkframes/optional"
	"vkframes/queues"
	"vkframes/swapchain"
)

func suitableCandidate(name string) device.Candidate {
	return device.Candidate{
		Name: name,
		Families: queues.FamilyIndices{
			Graphics: optional.Of[uint32](0),
			Present:  optional.Of[uint32](1),
		},
		Extensions: []string{"VK_KHR_maintenance1", vk.KhrSwapchainExtensionName},
		Support: swapchain.SupportDetails{
			Formats:      []vk.SurfaceFormat{{Format: vk.FormatB8g8r8a8Srgb}},
			PresentModes: []vk.PresentMode{vk.PresentModeFifo},
		},
		Features: device.Features{SamplerAnisotropy: true},
	}
}

var _ = Describe("Requirements", func() {
	var (
		req       device.Requirements
		candidate device.Candidate
	)

	BeforeEach(func() {
		req = device.DefaultRequirements()
		candidate = suitableCandidate("gpu")
	})

	It("accepts a device meeting every requirement", func() {
		Expect(req.IsSuitable(candidate)).To(BeTrue())
		Expect(req.Unsuitable(candidate)).To(BeEmpty())
	})

	It("rejects a device without the swapchain extension", func() {
		candidate.Extensions = []string{"VK_KHR_maintenance1"}
		Expect(req.IsSuitable(candidate)).To(BeFalse())
		Expect(req.Unsuitable(candidate)).To(ContainElement("missing extension " + vk.KhrSwapchainExtensionName))
	})

	It("rejects a device without surface formats", func() {
		candidate.Support.Formats = nil
		Expect(req.IsSuitable(candidate)).To(BeFalse())
		Expect(req.Unsuitable(candidate)).To(Equal([]string{"inadequate swap chain support"}))
	})

	It("rejects a device without present modes", func() {
		candidate.Support.PresentModes = nil
		Expect(req.IsSuitable(candidate)).To(BeFalse())
	})

	It("rejects a device without anisotropic sampling", func() {
		candidate.Features.SamplerAnisotropy = false
		Expect(req.IsSuitable(candidate)).To(BeFalse())
		Expect(req.Unsuitable(candidate)).To(Equal([]string{"no sampler anisotropy"}))
	})

	It("ignores features which are not required", func() {
		candidate.Features.SamplerAnisotropy = false
		req.Features.SamplerAnisotropy = false
		Expect(req.IsSuitable(candidate)).To(BeTrue())
	})

	It("rejects a device without a present family", func() {
		candidate.Families.Present.Clear()
		Expect(req.IsSuitable(candidate)).To(BeFalse())
		Expect(req.Unsuitable(candidate)).To(Equal([]string{"incomplete queue families"}))
	})

	It("rejects a device without a graphics family", func() {
		candidate.Families = queues.FamilyIndices{Present: optional.Of[uint32](0)}
		Expect(req.IsSuitable(candidate)).To(BeFalse())
	})

	It("matches extension names exactly", func() {
		candidate.Extensions = []string{vk.KhrSwapchainExtensionName + "_extra"}
		Expect(req.IsSuitable(candidate)).To(BeFalse())
	})
})

var _ = Describe("PickFirst", func() {
	req := device.DefaultRequirements()

	It("takes the first suitable device in enumeration order", func() {
		broken := suitableCandidate("integrated")
		broken.Support.PresentModes = nil

		first := suitableCandidate("first")
		first.Type = vk.PhysicalDeviceTypeIntegratedGpu

		second := suitableCandidate("second")
		second.Type = vk.PhysicalDeviceTypeDiscreteGpu

		picked, ok := device.PickFirst([]device.Candidate{broken, first, second}, req)
		Expect(ok).To(BeTrue())
		Expect(picked.Name).To(Equal("first"))
	})

	It("reports when no device qualifies", func() {
		broken := suitableCandidate("broken")
		broken.Extensions = nil

		_, ok := device.PickFirst([]device.Candidate{broken}, req)
		Expect(ok).To(BeFalse())

		_, ok = device.PickFirst(nil, req)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("QueueCreateInfos", func() {
	It("creates one queue per distinct family", func() {
		shared := queues.FamilyIndices{Graphics: optional.Of[uint32](2), Present: optional.Of[uint32](2)}
		infos := device.QueueCreateInfos(shared)
		Expect(infos).To(HaveLen(1))
		Expect(infos[0].QueueFamilyIndex).To(Equal(uint32(2)))

		split := queues.FamilyIndices{Graphics: optional.Of[uint32](0), Present: optional.Of[uint32](1)}
		infos = device.QueueCreateInfos(split)
		Expect(infos).To(HaveLen(2))
		Expect(infos[1].QueueFamilyIndex).To(Equal(uint32(1)))
	})
})
