package pipeline

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
	"vkframes/mesh"
	"vkframes/unsafer"
)

// Config is the input of Build.
type Config struct {
	RenderPass vk.RenderPass
	SetLayout  vk.DescriptorSetLayout

	// VertexCode and FragmentCode are SPIR-V modules.
	VertexCode   []byte
	FragmentCode []byte
}

// Pipeline is a graphics pipeline and its layout.
type Pipeline struct {
	Layout vk.PipelineLayout
	Handle vk.Pipeline
}

// Destroy releases the pipeline and its layout.
func (p *Pipeline) Destroy(device vk.Device) {
	if p.Handle != vk.NullPipeline {
		vk.DestroyPipeline(device, p.Handle, nil)
		p.Handle = vk.NullPipeline
	}
	if p.Layout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(device, p.Layout, nil)
		p.Layout = vk.NullPipelineLayout
	}
}

// DynamicStates are set while recording each frame so that the pipeline
// survives swapchain recreation.
func DynamicStates() []vk.DynamicState {
	return []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
}

// InputAssembly draws triangle lists.
func InputAssembly() vk.PipelineInputAssemblyStateCreateInfo {
	return vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}
}

// Rasterization fills polygons and culls back faces, counter-clockwise
// winding being the front.
func Rasterization() vk.PipelineRasterizationStateCreateInfo {
	return vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1,
		CullMode:                vk.CullModeFlags(vk.CullModeBackBit),
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
	}
}

// Multisampling uses a single sample per pixel.
func Multisampling() vk.PipelineMultisampleStateCreateInfo {
	return vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}
}

// DepthStencil enables depth testing and writing with the less comparison.
func DepthStencil() vk.PipelineDepthStencilStateCreateInfo {
	return vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vk.True,
		DepthWriteEnable:      vk.True,
		DepthCompareOp:        vk.CompareOpLess,
		DepthBoundsTestEnable: vk.False,
		MinDepthBounds:        0,
		MaxDepthBounds:        1,
		StencilTestEnable:     vk.False,
	}
}

// ColorBlendAttachment writes all channels with blending disabled.
func ColorBlendAttachment() vk.PipelineColorBlendAttachmentState {
	return vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(
			vk.ColorComponentRBit |
				vk.ColorComponentGBit |
				vk.ColorComponentBBit |
				vk.ColorComponentABit,
		),
		BlendEnable:         vk.False,
		SrcColorBlendFactor: vk.BlendFactorOne,
		DstColorBlendFactor: vk.BlendFactorZero,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorZero,
		AlphaBlendOp:        vk.BlendOpAdd,
	}
}

// Build creates the pipeline layout and the graphics pipeline. The shader
// modules only live for the duration of the call.
func Build(device vk.Device, cfg Config) (*Pipeline, error) {
	vertexShaderModule, err := createShaderModule(device, cfg.VertexCode)
	if err != nil {
		return nil, errors.Wrap(err, "creating vertex shader module")
	}
	defer vk.DestroyShaderModule(device, vertexShaderModule, nil)

	fragmentShaderModule, err := createShaderModule(device, cfg.FragmentCode)
	if err != nil {
		return nil, errors.Wrap(err, "creating fragment shader module")
	}
	defer vk.DestroyShaderModule(device, fragmentShaderModule, nil)

	shaderStages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: vertexShaderModule,
			PName:  "main\x00",
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: fragmentShaderModule,
			PName:  "main\x00",
		},
	}

	bindingDescription := mesh.BindingDescription()
	attributeDescriptions := mesh.AttributeDescriptions()

	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,

		VertexBindingDescriptionCount: 1,
		PVertexBindingDescriptions:    []vk.VertexInputBindingDescription{bindingDescription},

		VertexAttributeDescriptionCount: uint32(len(attributeDescriptions)),
		PVertexAttributeDescriptions:    attributeDescriptions[:],
	}

	inputAssembly := InputAssembly()

	dynamicStates := DynamicStates()
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	// Viewport and scissor are dynamic, only their counts matter here.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	rasterizer := Rasterization()
	multisampling := Multisampling()
	depthStencil := DepthStencil()

	colorBlending := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments: []vk.PipelineColorBlendAttachmentState{
			ColorBlendAttachment(),
		},
	}

	pipelineLayoutInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{cfg.SetLayout},
	}

	p := &Pipeline{}

	res := vk.CreatePipelineLayout(device, &pipelineLayoutInfo, nil, &p.Layout)
	if err := apperr.Vk(res, "failed to create pipeline layout"); err != nil {
		return nil, err
	}

	pipelineInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(shaderStages)),
		PStages:             shaderStages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlending,
		PDynamicState:       &dynamicState,
		Layout:              p.Layout,
		RenderPass:          cfg.RenderPass,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	res = vk.CreateGraphicsPipelines(
		device,
		vk.PipelineCache(vk.NullHandle),
		1,
		[]vk.GraphicsPipelineCreateInfo{pipelineInfo},
		nil,
		pipelines,
	)
	if err := apperr.Vk(res, "failed to create graphics pipeline"); err != nil {
		p.Destroy(device)
		return nil, err
	}
	p.Handle = pipelines[0]

	return p, nil
}

func createShaderModule(device vk.Device, code []byte) (vk.ShaderModule, error) {
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    unsafer.SliceBytesToUint32(code),
	}

	var shaderModule vk.ShaderModule
	res := vk.CreateShaderModule(device, &createInfo, nil, &shaderModule)
	if err := apperr.Vk(res, "failed to create shader module"); err != nil {
		return vk.NullShaderModule, err
	}

	return shaderModule, nil
}
