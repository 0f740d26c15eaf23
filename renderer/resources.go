package renderer

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
	"vkframes/frame"
	"vkframes/pipeline"
	"vkframes/unsafer"
	"vkframes/upload"
)

// slot holds the resources of one frame in flight.
type slot struct {
	commandBuffer vk.CommandBuffer

	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore
	inFlight       vk.Fence

	uniforms       upload.Buffer
	uniformsMapped unsafe.Pointer

	descriptorSet vk.DescriptorSet
}

func (r *Renderer) createCommandPool() error {
	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: r.device.Families.Graphics.Get(),
	}

	var commandPool vk.CommandPool
	res := vk.CreateCommandPool(r.device.Handle, &poolInfo, nil, &commandPool)
	if err := apperr.Vk(res, "failed to create command pool"); err != nil {
		return err
	}
	r.commandPool = commandPool

	r.cleanup.push("command pool", func() {
		vk.DestroyCommandPool(r.device.Handle, r.commandPool, nil)
	})

	r.uploader = upload.NewUploader(
		r.device.Handle,
		r.physical.Handle,
		r.device.GraphicsQueue,
		r.commandPool,
	)
	return nil
}

func (r *Renderer) createTexture() error {
	tex := r.assets.texture

	img, err := r.uploader.UploadTexture(tex.Pix, tex.Width, tex.Height, vk.FormatR8g8b8a8Srgb)
	if err != nil {
		return err
	}
	r.texture = img
	r.cleanup.push("texture image", func() {
		r.texture.Destroy(r.device.Handle)
	})

	view, err := r.uploader.CreateImageView(
		img.Handle,
		img.Format,
		vk.ImageAspectFlags(vk.ImageAspectColorBit),
		img.MipLevels,
	)
	if err != nil {
		return errors.Wrap(err, "creating texture image view")
	}
	r.textureView = view
	r.cleanup.push("texture image view", func() {
		vk.DestroyImageView(r.device.Handle, r.textureView, nil)
	})

	return r.createTextureSampler()
}

// samplerInfo samples with linear filtering over every mip level using the
// given anisotropy.
func samplerInfo(maxAnisotropy float32, mipLevels uint32) vk.SamplerCreateInfo {
	return vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.True,
		MaxAnisotropy:           maxAnisotropy,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		MipLodBias:              0,
		MinLod:                  0,
		MaxLod:                  float32(mipLevels),
	}
}

func (r *Renderer) createTextureSampler() error {
	info := samplerInfo(r.physical.MaxAnisotropy, r.texture.MipLevels)

	var sampler vk.Sampler
	res := vk.CreateSampler(r.device.Handle, &info, nil, &sampler)
	if err := apperr.Vk(res, "failed to create sampler"); err != nil {
		return err
	}
	r.sampler = sampler

	r.cleanup.push("texture sampler", func() {
		vk.DestroySampler(r.device.Handle, r.sampler, nil)
	})
	return nil
}

func (r *Renderer) createGeometryBuffers() error {
	m := r.assets.mesh

	vertices, err := r.uploader.StageBuffer(
		unsafer.SliceToBytes(m.Vertices),
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit),
	)
	if err != nil {
		return errors.Wrap(err, "creating vertex buffer")
	}
	r.vertices = vertices
	r.cleanup.push("vertex buffer", func() {
		r.vertices.Destroy(r.device.Handle)
	})

	indices, err := r.uploader.StageBuffer(
		unsafer.SliceToBytes(m.Indices),
		vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit),
	)
	if err != nil {
		return errors.Wrap(err, "creating index buffer")
	}
	r.indices = indices
	r.indexCount = uint32(len(m.Indices))
	r.cleanup.push("index buffer", func() {
		r.indices.Destroy(r.device.Handle)
	})

	return nil
}

// createUniformBuffers creates one host visible uniform buffer per slot. The
// buffers stay mapped until they are destroyed.
func (r *Renderer) createUniformBuffers() error {
	bufferSize := vk.DeviceSize(unsafe.Sizeof(frame.UniformBufferObject{}))

	for i := range r.slots {
		buf, err := r.uploader.CreateBuffer(
			bufferSize,
			vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|
				vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
		)
		if err != nil {
			return errors.Wrapf(err, "creating buffer[%d]", i)
		}

		s := &r.slots[i]
		s.uniforms = buf
		r.cleanup.push("uniform buffer", func() {
			s.uniforms.Destroy(r.device.Handle)
		})

		var pData unsafe.Pointer
		res := vk.MapMemory(r.device.Handle, buf.Memory, 0, bufferSize, 0, &pData)
		if err := apperr.Vk(res, "failed to map uniform buffer"); err != nil {
			return err
		}
		s.uniformsMapped = pData
	}

	return nil
}

func (r *Renderer) createDescriptorSetLayout() error {
	layout, err := pipeline.CreateDescriptorSetLayout(r.device.Handle)
	if err != nil {
		return err
	}
	r.setLayout = layout

	r.cleanup.push("descriptor set layout", func() {
		vk.DestroyDescriptorSetLayout(r.device.Handle, r.setLayout, nil)
	})
	return nil
}

func (r *Renderer) createDescriptorPool() error {
	sets := uint32(len(r.slots))
	poolSizes := pipeline.PoolSizes(sets)

	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
		MaxSets:       sets,
	}

	var descriptorPool vk.DescriptorPool
	res := vk.CreateDescriptorPool(r.device.Handle, &poolInfo, nil, &descriptorPool)
	if err := apperr.Vk(res, "failed to create descriptor pool"); err != nil {
		return err
	}
	r.descriptorPool = descriptorPool

	r.cleanup.push("descriptor pool", func() {
		vk.DestroyDescriptorPool(r.device.Handle, r.descriptorPool, nil)
	})
	return nil
}

// createDescriptorSets points the set of every slot at its uniform buffer and
// at the texture.
func (r *Renderer) createDescriptorSets() error {
	layouts := make([]vk.DescriptorSetLayout, len(r.slots))
	for i := range layouts {
		layouts[i] = r.setLayout
	}

	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     r.descriptorPool,
		DescriptorSetCount: uint32(len(layouts)),
		PSetLayouts:        layouts,
	}

	descriptorSets := make([]vk.DescriptorSet, len(layouts))
	res := vk.AllocateDescriptorSets(r.device.Handle, &allocInfo, &descriptorSets[0])
	if err := apperr.Vk(res, "failed to allocate descriptor set"); err != nil {
		return err
	}

	for i := range r.slots {
		s := &r.slots[i]
		s.descriptorSet = descriptorSets[i]

		bufferInfo := vk.DescriptorBufferInfo{
			Buffer: s.uniforms.Handle,
			Offset: 0,
			Range:  vk.DeviceSize(vk.WholeSize),
		}

		imageInfo := vk.DescriptorImageInfo{
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			ImageView:   r.textureView,
			Sampler:     r.sampler,
		}

		descriptorWrites := []vk.WriteDescriptorSet{
			{
				SType:           vk.StructureTypeWriteDescriptorSet,
				DstSet:          s.descriptorSet,
				DstBinding:      pipeline.UniformBinding,
				DstArrayElement: 0,
				DescriptorType:  vk.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,
				PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
			},
			{
				SType:           vk.StructureTypeWriteDescriptorSet,
				DstSet:          s.descriptorSet,
				DstBinding:      pipeline.SamplerBinding,
				DstArrayElement: 0,
				DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
				DescriptorCount: 1,
				PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
			},
		}

		vk.UpdateDescriptorSets(
			r.device.Handle,
			uint32(len(descriptorWrites)),
			descriptorWrites,
			0,
			nil,
		)
	}

	return nil
}

func (r *Renderer) createCommandBuffers() error {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        r.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(len(r.slots)),
	}

	commandBuffers := make([]vk.CommandBuffer, len(r.slots))
	res := vk.AllocateCommandBuffers(r.device.Handle, &allocInfo, commandBuffers)
	if err := apperr.Vk(res, "failed to allocate command buffer"); err != nil {
		return err
	}

	for i := range r.slots {
		r.slots[i].commandBuffer = commandBuffers[i]
	}

	// Freed together with the command pool.
	return nil
}

// createSyncObjects creates the semaphores and the fence of every slot. The
// fences start signaled so that the first wait of each slot returns at once.
func (r *Renderer) createSyncObjects() error {
	semaphoreInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}

	device := r.device.Handle
	for i := range r.slots {
		s := &r.slots[i]

		res := vk.CreateSemaphore(device, &semaphoreInfo, nil, &s.imageAvailable)
		if err := apperr.Vk(res, "failed to create image available semaphore"); err != nil {
			return err
		}
		r.cleanup.push("image available semaphore", func() {
			vk.DestroySemaphore(device, s.imageAvailable, nil)
		})

		res = vk.CreateSemaphore(device, &semaphoreInfo, nil, &s.renderFinished)
		if err := apperr.Vk(res, "failed to create render finished semaphore"); err != nil {
			return err
		}
		r.cleanup.push("render finished semaphore", func() {
			vk.DestroySemaphore(device, s.renderFinished, nil)
		})

		res = vk.CreateFence(device, &fenceInfo, nil, &s.inFlight)
		if err := apperr.Vk(res, "failed to create in flight fence"); err != nil {
			return err
		}
		r.cleanup.push("in flight fence", func() {
			vk.DestroyFence(device, s.inFlight, nil)
		})
	}

	return nil
}
