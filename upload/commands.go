package upload

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
)

// OneShot allocates a primary command buffer, lets record fill it, submits it
// to the uploader queue and waits for the queue to go idle. The command buffer
// is freed in every case.
func (u *Uploader) OneShot(record func(commandBuffer vk.CommandBuffer) error) error {
	commandBuffer, err := u.beginSingleTimeCommands()
	if err != nil {
		return errors.Wrap(err, "failed to begin single time commands")
	}

	commandBuffers := []vk.CommandBuffer{commandBuffer}
	defer vk.FreeCommandBuffers(u.device, u.pool, 1, commandBuffers)

	if err := record(commandBuffer); err != nil {
		vk.EndCommandBuffer(commandBuffer)
		return err
	}

	return u.endSingleTimeCommands(commandBuffers)
}

func (u *Uploader) beginSingleTimeCommands() (vk.CommandBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              vk.CommandBufferLevelPrimary,
		CommandPool:        u.pool,
		CommandBufferCount: 1,
	}

	commandBuffers := make([]vk.CommandBuffer, 1)
	res := vk.AllocateCommandBuffers(u.device, &allocInfo, commandBuffers)
	if err := apperr.Vk(res, "failed to allocate command buffer"); err != nil {
		return nil, err
	}
	commandBuffer := commandBuffers[0]

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}

	res = vk.BeginCommandBuffer(commandBuffer, &beginInfo)
	if err := apperr.Vk(res, "failed to begin command buffer"); err != nil {
		vk.FreeCommandBuffers(u.device, u.pool, 1, commandBuffers)
		return nil, err
	}

	return commandBuffer, nil
}

func (u *Uploader) endSingleTimeCommands(commandBuffers []vk.CommandBuffer) error {
	res := vk.EndCommandBuffer(commandBuffers[0])
	if err := apperr.Vk(res, "failed end command buffer"); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    commandBuffers,
	}

	res = vk.QueueSubmit(u.queue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence)
	if err := apperr.Vk(res, "failed to submit to graphics queue"); err != nil {
		return err
	}

	res = vk.QueueWaitIdle(u.queue)
	return apperr.Vk(res, "failed to wait on graphics queue idle")
}
