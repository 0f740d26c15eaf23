package upload

import (
	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
)

// Transition holds the access masks and pipeline stages of a layout change.
type Transition struct {
	SrcAccess vk.AccessFlags
	DstAccess vk.AccessFlags
	SrcStage  vk.PipelineStageFlags
	DstStage  vk.PipelineStageFlags
}

// TransitionFor returns the synchronization scope for moving an image from
// oldLayout to newLayout. Only the transitions used by texture uploads are
// known; anything else reports false.
func TransitionFor(oldLayout, newLayout vk.ImageLayout) (Transition, bool) {
	switch {
	case oldLayout == vk.ImageLayoutUndefined &&
		newLayout == vk.ImageLayoutTransferDstOptimal:
		return Transition{
			SrcAccess: 0,
			DstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			DstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		}, true

	case oldLayout == vk.ImageLayoutTransferDstOptimal &&
		newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		return Transition{
			SrcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			DstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
			SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			DstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		}, true
	}

	return Transition{}, false
}

// TransitionLayout moves every mip level of image from oldLayout to newLayout.
// An unknown transition is a fatal error.
func (u *Uploader) TransitionLayout(
	image vk.Image,
	oldLayout vk.ImageLayout,
	newLayout vk.ImageLayout,
	mipLevels uint32,
) error {
	transition, ok := TransitionFor(oldLayout, newLayout)
	if !ok {
		return apperr.Unrecoverable("unsupported layout transition from %d to %d",
			oldLayout, newLayout)
	}

	return u.OneShot(func(commandBuffer vk.CommandBuffer) error {
		barrier := vk.ImageMemoryBarrier{
			SType:               vk.StructureTypeImageMemoryBarrier,
			OldLayout:           oldLayout,
			NewLayout:           newLayout,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               image,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     mipLevels,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			SrcAccessMask: transition.SrcAccess,
			DstAccessMask: transition.DstAccess,
		}

		vk.CmdPipelineBarrier(
			commandBuffer,
			transition.SrcStage, transition.DstStage,
			0,
			0, nil,
			0, nil,
			1, []vk.ImageMemoryBarrier{barrier},
		)
		return nil
	})
}
