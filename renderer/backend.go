package renderer

import (
	"fmt"
	"math"

	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
	"vkframes/frame"
	"vkframes/unsafer"
)

// acquireStatus maps the result of vkAcquireNextImageKHR. Results other than
// success, suboptimal and out of date are fatal errors.
func acquireStatus(res vk.Result) (frame.AcquireStatus, error) {
	switch res {
	case vk.Success:
		return frame.AcquireSuccess, nil
	case vk.Suboptimal:
		return frame.AcquireSuboptimal, nil
	case vk.ErrorOutOfDate:
		return frame.AcquireOutOfDate, nil
	}
	return frame.AcquireSuccess, apperr.VkFatal(res, "failed to acquire swap chain image")
}

// presentStatus maps the result of vkQueuePresentKHR.
func presentStatus(res vk.Result) (frame.PresentStatus, error) {
	switch res {
	case vk.Success:
		return frame.PresentSuccess, nil
	case vk.Suboptimal:
		return frame.PresentSuboptimal, nil
	case vk.ErrorOutOfDate:
		return frame.PresentOutOfDate, nil
	}
	return frame.PresentSuccess, apperr.VkFatal(res, "failed to present swap chain image")
}

// framebufferFor returns the framebuffer of the swapchain image the
// presentation engine handed out. The index always comes from the current
// swapchain, anything else is a bug.
func framebufferFor(framebuffers []vk.Framebuffer, imageIndex uint32) vk.Framebuffer {
	apperr.Assert(int(imageIndex) < len(framebuffers),
		"imageIndex < len(framebuffers)",
		fmt.Sprintf("image index %d out of range of %d framebuffers", imageIndex, len(framebuffers)))
	return framebuffers[imageIndex]
}

// backend runs the steps of the frame scheduler on the renderer's device.
type backend struct {
	r *Renderer
}

var _ frame.Backend = (*backend)(nil)

func (b *backend) WaitForSlot(slot uint32) error {
	fences := []vk.Fence{b.r.slots[slot].inFlight}
	res := vk.WaitForFences(b.r.device.Handle, 1, fences, vk.True, math.MaxUint64)
	return apperr.VkFatal(res, "vkWaitForFences")
}

func (b *backend) AcquireImage(slot uint32) (uint32, frame.AcquireStatus, error) {
	var imageIndex uint32
	res := vk.AcquireNextImage(
		b.r.device.Handle,
		b.r.swapchain.Bundle().Handle,
		math.MaxUint64,
		b.r.slots[slot].imageAvailable,
		vk.Fence(vk.NullHandle),
		&imageIndex,
	)

	status, err := acquireStatus(res)
	if err != nil {
		return 0, status, err
	}
	if status == frame.AcquireOutOfDate {
		b.r.swapchain.Invalidate()
	}
	return imageIndex, status, nil
}

func (b *backend) UpdateUniforms(slot uint32, ubo *frame.UniformBufferObject) error {
	vk.Memcopy(b.r.slots[slot].uniformsMapped, unsafer.StructToBytes(ubo))
	return nil
}

func (b *backend) ResetSlot(slot uint32) error {
	s := b.r.slots[slot]

	res := vk.ResetFences(b.r.device.Handle, 1, []vk.Fence{s.inFlight})
	if err := apperr.Vk(res, "vkResetFences"); err != nil {
		return err
	}

	res = vk.ResetCommandBuffer(s.commandBuffer, 0)
	return apperr.Vk(res, "vkResetCommandBuffer")
}

func (b *backend) Record(slot uint32, imageIndex uint32) error {
	r := b.r
	s := r.slots[slot]
	bundle := r.swapchain.Bundle()
	framebuffer := framebufferFor(bundle.Framebuffers, imageIndex)

	commandBuffer := s.commandBuffer

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: 0,
	}

	res := vk.BeginCommandBuffer(commandBuffer, &beginInfo)
	if err := apperr.Vk(res, "cannot add begin command to the buffer"); err != nil {
		return err
	}

	var clearValues [2]vk.ClearValue

	clearValues[0].SetColor([]float32{0, 0, 0, 1})
	clearValues[1].SetDepthStencil(1, 0)

	renderPassInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  r.renderPass,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{
				X: 0,
				Y: 0,
			},
			Extent: bundle.Extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues[:],
	}

	vk.CmdBeginRenderPass(commandBuffer, &renderPassInfo, vk.SubpassContentsInline)
	vk.CmdBindPipeline(commandBuffer, vk.PipelineBindPointGraphics, r.pipeline.Handle)

	vertexBuffers := []vk.Buffer{r.vertices.Handle}
	offsets := []vk.DeviceSize{0}
	vk.CmdBindVertexBuffers(commandBuffer, 0, 1, vertexBuffers, offsets)

	vk.CmdBindIndexBuffer(commandBuffer, r.indices.Handle, 0, vk.IndexTypeUint32)

	viewport := vk.Viewport{
		X: 0, Y: 0,
		Width:    float32(bundle.Extent.Width),
		Height:   float32(bundle.Extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	vk.CmdSetViewport(commandBuffer, 0, 1, []vk.Viewport{viewport})

	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: bundle.Extent,
	}
	vk.CmdSetScissor(commandBuffer, 0, 1, []vk.Rect2D{scissor})

	vk.CmdBindDescriptorSets(
		commandBuffer,
		vk.PipelineBindPointGraphics,
		r.pipeline.Layout,
		0,
		1,
		[]vk.DescriptorSet{s.descriptorSet},
		0,
		nil,
	)

	vk.CmdDrawIndexed(commandBuffer, r.indexCount, 1, 0, 0, 0)
	vk.CmdEndRenderPass(commandBuffer)

	return apperr.Vk(vk.EndCommandBuffer(commandBuffer), "recording commands to buffer failed")
}

func (b *backend) Submit(slot uint32) error {
	s := b.r.slots[slot]

	signalSemaphores := []vk.Semaphore{s.renderFinished}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{s.imageAvailable},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{s.commandBuffer},
		PSignalSemaphores:    signalSemaphores,
		SignalSemaphoreCount: uint32(len(signalSemaphores)),
	}

	res := vk.QueueSubmit(
		b.r.device.GraphicsQueue,
		1,
		[]vk.SubmitInfo{submitInfo},
		s.inFlight,
	)
	return apperr.VkFatal(res, "vkQueueSubmit")
}

func (b *backend) Present(slot uint32, imageIndex uint32) (frame.PresentStatus, error) {
	signalSemaphores := []vk.Semaphore{b.r.slots[slot].renderFinished}
	swapChains := []vk.Swapchain{b.r.swapchain.Bundle().Handle}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(signalSemaphores)),
		PWaitSemaphores:    signalSemaphores,
		SwapchainCount:     uint32(len(swapChains)),
		PSwapchains:        swapChains,
		PImageIndices:      []uint32{imageIndex},
	}

	status, err := presentStatus(vk.QueuePresent(b.r.device.PresentQueue, &presentInfo))
	if err != nil {
		return status, err
	}
	if status != frame.PresentSuccess {
		b.r.swapchain.Invalidate()
	}
	return status, nil
}

func (b *backend) RecreateSwapchain() error {
	return b.r.swapchain.Recreate()
}

func (b *backend) Extent() vk.Extent2D {
	return b.r.swapchain.Extent()
}
