package swapchain

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
	"vkframes/upload"
)

type vulkanLifecycle struct {
	cfg Config
}

func (l *vulkanLifecycle) waitIdle() error {
	return apperr.Vk(vk.DeviceWaitIdle(l.cfg.Device), "failed to wait for device idle")
}

func (l *vulkanLifecycle) query() (SupportDetails, error) {
	return QuerySupport(l.cfg.Physical, l.cfg.Surface)
}

func (l *vulkanLifecycle) build(support SupportDetails, width, height int) (*Bundle, error) {
	b := &Bundle{
		Format:      ChooseSurfaceFormat(support.Formats),
		PresentMode: ChoosePresentMode(support.PresentModes, l.cfg.PreferMailbox),
		Extent:      ChooseExtent(support.Capabilities, width, height),
	}

	err := assemble(b, l.destroy,
		func(b *Bundle) error { return l.createSwapChain(b, support.Capabilities) },
		l.createImageViews,
		l.createDepthResources,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// assemble runs the creation steps in order. When one fails whatever the
// earlier steps (or the failing one) left in b is released with destroy.
func assemble(b *Bundle, destroy func(*Bundle), steps ...func(*Bundle) error) error {
	for _, step := range steps {
		if err := step(b); err != nil {
			destroy(b)
			return err
		}
	}
	return nil
}

func (l *vulkanLifecycle) createSwapChain(b *Bundle, capabilities vk.SurfaceCapabilities) error {
	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          l.cfg.Surface,
		MinImageCount:    ImageCount(capabilities),
		ImageColorSpace:  b.Format.ColorSpace,
		ImageFormat:      b.Format.Format,
		ImageExtent:      b.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      b.PresentMode,
		Clipped:          vk.True,
	}

	sharingMode, families := SharingFor(l.cfg.Families)
	createInfo.ImageSharingMode = sharingMode
	if len(families) > 0 {
		createInfo.QueueFamilyIndexCount = uint32(len(families))
		createInfo.PQueueFamilyIndices = families
	}

	var swapChain vk.Swapchain
	res := vk.CreateSwapchain(l.cfg.Device, &createInfo, nil, &swapChain)
	if err := apperr.Vk(res, "failed to create swap chain"); err != nil {
		return err
	}
	b.Handle = swapChain

	var imagesCount uint32
	res = vk.GetSwapchainImages(l.cfg.Device, b.Handle, &imagesCount, nil)
	if err := apperr.Vk(res, "failed to get swap chain images count"); err != nil {
		return err
	}

	images := make([]vk.Image, imagesCount)
	res = vk.GetSwapchainImages(l.cfg.Device, b.Handle, &imagesCount, images)
	if err := apperr.Vk(res, "failed to get swap chain images"); err != nil {
		return err
	}

	b.Images = images[:imagesCount]
	return nil
}

func (l *vulkanLifecycle) createImageViews(b *Bundle) error {
	for i, swapChainImage := range b.Images {
		imageView, err := upload.CreateImageView(
			l.cfg.Device,
			swapChainImage,
			b.Format.Format,
			vk.ImageAspectFlags(vk.ImageAspectColorBit),
			1,
		)
		if err != nil {
			return errors.Wrapf(err, "image view %d", i)
		}

		b.Views = append(b.Views, imageView)
	}

	return nil
}

func (l *vulkanLifecycle) createDepthResources(b *Bundle) error {
	depth, err := l.cfg.Uploader.CreateImage(upload.ImageSpec{
		Width:      b.Extent.Width,
		Height:     b.Extent.Height,
		MipLevels:  1,
		Format:     l.cfg.DepthFormat,
		Tiling:     vk.ImageTilingOptimal,
		Usage:      vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		Properties: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
	})
	if err != nil {
		return errors.Wrap(err, "creating depth image")
	}
	b.Depth = depth

	depthView, err := upload.CreateImageView(
		l.cfg.Device,
		depth.Handle,
		l.cfg.DepthFormat,
		vk.ImageAspectFlags(vk.ImageAspectDepthBit),
		1,
	)
	if err != nil {
		return errors.Wrap(err, "creating depth image view")
	}
	b.DepthView = depthView

	return nil
}

func (l *vulkanLifecycle) framebuffers(b *Bundle, renderPass vk.RenderPass) error {
	for i, imageView := range b.Views {
		attachments := []vk.ImageView{
			imageView,
			b.DepthView,
		}

		framebufferInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      renderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           b.Extent.Width,
			Height:          b.Extent.Height,
			Layers:          1,
		}

		var frameBuffer vk.Framebuffer
		res := vk.CreateFramebuffer(l.cfg.Device, &framebufferInfo, nil, &frameBuffer)
		if err := apperr.Vk(res, "failed to create frame buffer"); err != nil {
			return errors.Wrapf(err, "framebuffer %d", i)
		}

		b.Framebuffers = append(b.Framebuffers, frameBuffer)
	}

	return nil
}

// destroy releases b in order: depth view, depth image and memory,
// framebuffers, image views and finally the swapchain.
func (l *vulkanLifecycle) destroy(b *Bundle) {
	if b == nil {
		return
	}
	device := l.cfg.Device

	if b.DepthView != vk.NullImageView {
		vk.DestroyImageView(device, b.DepthView, nil)
		b.DepthView = vk.NullImageView
	}
	b.Depth.Destroy(device)

	for _, frameBuffer := range b.Framebuffers {
		vk.DestroyFramebuffer(device, frameBuffer, nil)
	}
	b.Framebuffers = nil

	for _, imageView := range b.Views {
		vk.DestroyImageView(device, imageView, nil)
	}
	b.Views = nil

	if b.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(device, b.Handle, nil)
		b.Handle = vk.NullSwapchain
	}
	b.Images = nil
}
