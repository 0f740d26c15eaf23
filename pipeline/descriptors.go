package pipeline

import (
	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
)

// Descriptor bindings shared with the shaders.
const (
	UniformBinding = 0
	SamplerBinding = 1
)

// DescriptorBindings returns the uniform buffer binding read by the vertex
// stage and the combined image sampler binding read by the fragment stage.
func DescriptorBindings() []vk.DescriptorSetLayoutBinding {
	uboLayoutBinding := vk.DescriptorSetLayoutBinding{
		Binding:            UniformBinding,
		DescriptorType:     vk.DescriptorTypeUniformBuffer,
		DescriptorCount:    1,
		StageFlags:         vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		PImmutableSamplers: nil,
	}

	samplerLayoutBinding := vk.DescriptorSetLayoutBinding{
		Binding:            SamplerBinding,
		DescriptorCount:    1,
		DescriptorType:     vk.DescriptorTypeCombinedImageSampler,
		PImmutableSamplers: nil,
		StageFlags:         vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
	}

	return []vk.DescriptorSetLayoutBinding{
		uboLayoutBinding,
		samplerLayoutBinding,
	}
}

// CreateDescriptorSetLayout creates the layout described by DescriptorBindings.
func CreateDescriptorSetLayout(device vk.Device) (vk.DescriptorSetLayout, error) {
	bindings := DescriptorBindings()

	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}

	var descriptorSetLayout vk.DescriptorSetLayout
	res := vk.CreateDescriptorSetLayout(device, &layoutInfo, nil, &descriptorSetLayout)
	if err := apperr.Vk(res, "creating descriptor set layout"); err != nil {
		return vk.NullDescriptorSetLayout, err
	}

	return descriptorSetLayout, nil
}

// PoolSizes returns the descriptor pool sizes needed for one descriptor set
// per frame slot.
func PoolSizes(sets uint32) []vk.DescriptorPoolSize {
	return []vk.DescriptorPoolSize{
		{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: sets,
		},
		{
			Type:            vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: sets,
		},
	}
}
