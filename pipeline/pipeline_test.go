package pipeline_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	vk "github.com/vulkan-go/vulkan"

	"vkframes/pipeline"
)

var _ = Describe("fixed function state", func() {
	It("culls back faces with counter-clockwise front faces", func() {
		rasterizer := pipeline.Rasterization()
		Expect(rasterizer.CullMode).To(Equal(vk.CullModeFlags(vk.CullModeBackBit)))
		Expect(rasterizer.FrontFace).To(Equal(vk.FrontFaceCounterClockwise))
		Expect(rasterizer.PolygonMode).To(Equal(vk.PolygonModeFill))
	})

	It("tests and writes depth with less", func() {
		depth := pipeline.DepthStencil()
		Expect(depth.DepthTestEnable).To(Equal(vk.Bool32(vk.True)))
		Expect(depth.DepthWriteEnable).To(Equal(vk.Bool32(vk.True)))
		Expect(depth.DepthCompareOp).To(Equal(vk.CompareOpLess))
	})

	It("draws triangle lists with one sample and no blending", func() {
		Expect(pipeline.InputAssembly().Topology).To(Equal(vk.PrimitiveTopologyTriangleList))
		Expect(pipeline.Multisampling().RasterizationSamples).To(Equal(vk.SampleCount1Bit))
		Expect(pipeline.ColorBlendAttachment().BlendEnable).To(Equal(vk.Bool32(vk.False)))
	})

	It("keeps viewport and scissor dynamic", func() {
		Expect(pipeline.DynamicStates()).To(ConsistOf(
			vk.DynamicStateViewport,
			vk.DynamicStateScissor,
		))
	})
})

var _ = Describe("render pass attachments", func() {
	It("presents the color attachment and discards depth", func() {
		attachments := pipeline.Attachments(vk.FormatB8g8r8a8Srgb, vk.FormatD32Sfloat)
		Expect(attachments).To(HaveLen(2))

		Expect(attachments[0].Format).To(Equal(vk.FormatB8g8r8a8Srgb))
		Expect(attachments[0].FinalLayout).To(Equal(vk.ImageLayoutPresentSrc))
		Expect(attachments[0].StoreOp).To(Equal(vk.AttachmentStoreOpStore))

		Expect(attachments[1].Format).To(Equal(vk.FormatD32Sfloat))
		Expect(attachments[1].FinalLayout).To(Equal(vk.ImageLayoutDepthStencilAttachmentOptimal))
		Expect(attachments[1].StoreOp).To(Equal(vk.AttachmentStoreOpDontCare))
	})
})

var _ = Describe("descriptors", func() {
	It("binds the uniforms to the vertex stage and the sampler to the fragment stage", func() {
		bindings := pipeline.DescriptorBindings()
		Expect(bindings).To(HaveLen(2))

		Expect(bindings[0].Binding).To(Equal(uint32(pipeline.UniformBinding)))
		Expect(bindings[0].DescriptorType).To(Equal(vk.DescriptorTypeUniformBuffer))
		Expect(bindings[0].StageFlags).To(Equal(vk.ShaderStageFlags(vk.ShaderStageVertexBit)))

		Expect(bindings[1].Binding).To(Equal(uint32(pipeline.SamplerBinding)))
		Expect(bindings[1].DescriptorType).To(Equal(vk.DescriptorTypeCombinedImageSampler))
		Expect(bindings[1].StageFlags).To(Equal(vk.ShaderStageFlags(vk.ShaderStageFragmentBit)))
	})

	It("sizes the pool for one set per frame", func() {
		sizes := pipeline.PoolSizes(2)
		Expect(sizes).To(HaveLen(2))
		for _, size := range sizes {
			Expect(size.DescriptorCount).To(Equal(uint32(2)))
		}
	})
})
