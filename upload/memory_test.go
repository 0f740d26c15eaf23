package upload_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
	"vkframes/upload"
)

var (
	deviceLocal  = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	hostVisible  = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
	hostCoherent = vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)
)

var _ = Describe("FindMemoryType", func() {
	memoryTypes := []vk.MemoryPropertyFlags{
		deviceLocal,
		hostVisible,
		hostVisible | hostCoherent,
		deviceLocal | hostVisible | hostCoherent,
	}

	It("picks the first type allowed by the filter with all properties", func() {
		index, err := upload.FindMemoryType(memoryTypes, 0b1111, hostVisible|hostCoherent)
		Expect(err).NotTo(HaveOccurred())
		Expect(index).To(Equal(uint32(2)))
	})

	It("accepts supersets of the requested properties", func() {
		index, err := upload.FindMemoryType(memoryTypes, 0b1000, deviceLocal)
		Expect(err).NotTo(HaveOccurred())
		Expect(index).To(Equal(uint32(3)))
	})

	It("skips types excluded by the filter", func() {
		index, err := upload.FindMemoryType(memoryTypes, 0b1110, deviceLocal)
		Expect(err).NotTo(HaveOccurred())
		Expect(index).To(Equal(uint32(3)))
	})

	It("fails when nothing matches", func() {
		_, err := upload.FindMemoryType(memoryTypes, 0b0001, hostVisible)
		Expect(err).To(HaveOccurred())
		Expect(apperr.KindOf(err)).To(Equal(apperr.ResourceCreationFailed))
	})
})

var _ = Describe("mip levels", func() {
	DescribeTable("MipLevels",
		func(width, height, expected int) {
			Expect(upload.MipLevels(uint32(width), uint32(height))).To(Equal(uint32(expected)))
		},
		Entry("512x256", 512, 256, 10),
		Entry("1x1", 1, 1, 1),
		Entry("non power of two", 1000, 3, 10),
		Entry("tall image", 2, 1024, 11),
	)

	It("halves every level down to 1x1", func() {
		chain := upload.MipChain(8, 2, upload.MipLevels(8, 2))
		Expect(chain).To(Equal([]vk.Extent2D{
			{Width: 8, Height: 2},
			{Width: 4, Height: 1},
			{Width: 2, Height: 1},
			{Width: 1, Height: 1},
		}))
	})

	It("plans one blit per level after the base", func() {
		blits := upload.MipBlits(4, 4, 3)
		Expect(blits).To(Equal([]upload.Blit{
			{Level: 1, Src: vk.Extent2D{Width: 4, Height: 4}, Dst: vk.Extent2D{Width: 2, Height: 2}},
			{Level: 2, Src: vk.Extent2D{Width: 2, Height: 2}, Dst: vk.Extent2D{Width: 1, Height: 1}},
		}))
		Expect(upload.MipBlits(1, 1, 1)).To(BeEmpty())
	})
})

var _ = Describe("format support", func() {
	It("requires linear filtering for optimal tiling", func() {
		props := vk.FormatProperties{
			LinearTilingFeatures: vk.FormatFeatureFlags(vk.FormatFeatureSampledImageFilterLinearBit),
		}
		Expect(upload.SupportsLinearBlit(props)).To(BeFalse())

		props.OptimalTilingFeatures = vk.FormatFeatureFlags(vk.FormatFeatureSampledImageFilterLinearBit)
		Expect(upload.SupportsLinearBlit(props)).To(BeTrue())
	})
})

var _ = Describe("TransitionFor", func() {
	It("knows the upload transitions", func() {
		t, ok := upload.TransitionFor(vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
		Expect(ok).To(BeTrue())
		Expect(t.DstAccess).To(Equal(vk.AccessFlags(vk.AccessTransferWriteBit)))
		Expect(t.SrcStage).To(Equal(vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)))

		t, ok = upload.TransitionFor(vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
		Expect(ok).To(BeTrue())
		Expect(t.DstStage).To(Equal(vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)))
	})

	It("rejects anything else", func() {
		_, ok := upload.TransitionFor(vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutUndefined)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("ChooseFormat", func() {
	depthBit := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)

	lookup := func(supported map[vk.Format]vk.FormatProperties) func(vk.Format) vk.FormatProperties {
		return func(format vk.Format) vk.FormatProperties {
			return supported[format]
		}
	}

	It("prefers earlier candidates", func() {
		format, ok := upload.ChooseFormat(upload.DepthFormats, vk.ImageTilingOptimal, depthBit,
			lookup(map[vk.Format]vk.FormatProperties{
				vk.FormatD32Sfloat:      {OptimalTilingFeatures: depthBit},
				vk.FormatD24UnormS8Uint: {OptimalTilingFeatures: depthBit},
			}))
		Expect(ok).To(BeTrue())
		Expect(format).To(Equal(vk.FormatD32Sfloat))
		Expect(upload.HasStencil(format)).To(BeFalse())
	})

	It("looks at the requested tiling only", func() {
		format, ok := upload.ChooseFormat(upload.DepthFormats, vk.ImageTilingOptimal, depthBit,
			lookup(map[vk.Format]vk.FormatProperties{
				vk.FormatD32Sfloat:      {LinearTilingFeatures: depthBit},
				vk.FormatD24UnormS8Uint: {OptimalTilingFeatures: depthBit},
			}))
		Expect(ok).To(BeTrue())
		Expect(format).To(Equal(vk.FormatD24UnormS8Uint))
		Expect(upload.HasStencil(format)).To(BeTrue())
	})

	It("reports when no candidate fits", func() {
		_, ok := upload.ChooseFormat(upload.DepthFormats, vk.ImageTilingOptimal, depthBit,
			lookup(nil))
		Expect(ok).To(BeFalse())
	})
})
