package upload

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
)

// Buffer is a Vulkan buffer together with the memory bound to it.
type Buffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
}

// Destroy releases the buffer and its memory. It is safe to call on a zero
// Buffer.
func (b *Buffer) Destroy(device vk.Device) {
	if b.Handle != vk.NullBuffer {
		vk.DestroyBuffer(device, b.Handle, nil)
		b.Handle = vk.NullBuffer
	}
	if b.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(device, b.Memory, nil)
		b.Memory = vk.NullDeviceMemory
	}
}

// Image is a Vulkan image together with the memory bound to it.
type Image struct {
	Handle    vk.Image
	Memory    vk.DeviceMemory
	Format    vk.Format
	Width     uint32
	Height    uint32
	MipLevels uint32
}

// Destroy releases the image and its memory. It is safe to call on a zero
// Image.
func (i *Image) Destroy(device vk.Device) {
	if i.Handle != vk.NullImage {
		vk.DestroyImage(device, i.Handle, nil)
		i.Handle = vk.NullImage
	}
	if i.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(device, i.Memory, nil)
		i.Memory = vk.NullDeviceMemory
	}
}

// ImageSpec describes an image to be created by Uploader.CreateImage.
type ImageSpec struct {
	Width      uint32
	Height     uint32
	MipLevels  uint32
	Format     vk.Format
	Tiling     vk.ImageTiling
	Usage      vk.ImageUsageFlags
	Properties vk.MemoryPropertyFlags
}

// Uploader allocates device resources and copies data into them using
// one-shot command buffers submitted to a single queue.
type Uploader struct {
	device vk.Device
	queue  vk.Queue
	pool   vk.CommandPool

	memoryTypes []vk.MemoryPropertyFlags

	// formatProperties looks up what the physical device supports for a format.
	formatProperties func(vk.Format) vk.FormatProperties
}

// NewUploader returns an Uploader. The command pool must belong to the family
// of queue.
func NewUploader(
	device vk.Device,
	physical vk.PhysicalDevice,
	queue vk.Queue,
	pool vk.CommandPool,
) *Uploader {
	return &Uploader{
		device:      device,
		queue:       queue,
		pool:        pool,
		memoryTypes: MemoryTypes(physical),

		formatProperties: func(format vk.Format) vk.FormatProperties {
			var props vk.FormatProperties
			vk.GetPhysicalDeviceFormatProperties(physical, format, &props)
			props.Deref()
			return props
		},
	}
}

// CreateBuffer creates a buffer and binds newly allocated memory with the
// requested properties to it.
func (u *Uploader) CreateBuffer(
	size vk.DeviceSize,
	usage vk.BufferUsageFlags,
	properties vk.MemoryPropertyFlags,
) (Buffer, error) {
	buf := Buffer{Size: size}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	res := vk.CreateBuffer(u.device, &bufferInfo, nil, &buf.Handle)
	if err := apperr.Vk(res, "failed to create buffer"); err != nil {
		return Buffer{}, err
	}

	var memRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(u.device, buf.Handle, &memRequirements)
	memRequirements.Deref()

	memory, err := u.allocate(memRequirements, properties)
	if err != nil {
		buf.Destroy(u.device)
		return Buffer{}, errors.Wrap(err, "allocating buffer memory")
	}
	buf.Memory = memory

	res = vk.BindBufferMemory(u.device, buf.Handle, buf.Memory, 0)
	if err := apperr.Vk(res, "failed to bind buffer memory"); err != nil {
		buf.Destroy(u.device)
		return Buffer{}, err
	}

	return buf, nil
}

// CreateHostBuffer creates a host visible and coherent buffer and copies data
// into it.
func (u *Uploader) CreateHostBuffer(data []byte, usage vk.BufferUsageFlags) (Buffer, error) {
	buf, err := u.CreateBuffer(
		vk.DeviceSize(len(data)),
		usage,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
	)
	if err != nil {
		return Buffer{}, err
	}

	var pData unsafe.Pointer
	res := vk.MapMemory(u.device, buf.Memory, 0, buf.Size, 0, &pData)
	if err := apperr.Vk(res, "failed to map buffer memory"); err != nil {
		buf.Destroy(u.device)
		return Buffer{}, err
	}
	vk.Memcopy(pData, data)
	vk.UnmapMemory(u.device, buf.Memory)

	return buf, nil
}

// StageBuffer creates a device local buffer with the given usage and fills it
// with data through a temporary staging buffer.
func (u *Uploader) StageBuffer(data []byte, usage vk.BufferUsageFlags) (Buffer, error) {
	if len(data) == 0 {
		return Buffer{}, apperr.New(apperr.ResourceCreationFailed,
			"cannot create an empty device local buffer")
	}

	staging, err := u.CreateHostBuffer(data, vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit))
	if err != nil {
		return Buffer{}, errors.Wrap(err, "creating the staging buffer")
	}
	defer staging.Destroy(u.device)

	buf, err := u.CreateBuffer(
		staging.Size,
		vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)|usage,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
	)
	if err != nil {
		return Buffer{}, errors.Wrap(err, "creating the device local buffer")
	}

	if err := u.CopyBuffer(staging.Handle, buf.Handle, staging.Size); err != nil {
		buf.Destroy(u.device)
		return Buffer{}, errors.Wrap(err, "copying the staging buffer")
	}

	return buf, nil
}

// CopyBuffer copies size bytes from src to dst.
func (u *Uploader) CopyBuffer(src, dst vk.Buffer, size vk.DeviceSize) error {
	return u.OneShot(func(commandBuffer vk.CommandBuffer) error {
		copyRegion := vk.BufferCopy{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		}

		vk.CmdCopyBuffer(commandBuffer, src, dst, 1, []vk.BufferCopy{copyRegion})
		return nil
	})
}

// CreateImage creates a 2D image and binds newly allocated memory to it.
func (u *Uploader) CreateImage(spec ImageSpec) (Image, error) {
	if spec.MipLevels == 0 {
		spec.MipLevels = 1
	}

	img := Image{
		Format:    spec.Format,
		Width:     spec.Width,
		Height:    spec.Height,
		MipLevels: spec.MipLevels,
	}

	imageInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  spec.Width,
			Height: spec.Height,
			Depth:  1,
		},
		MipLevels:     spec.MipLevels,
		ArrayLayers:   1,
		Format:        spec.Format,
		Tiling:        spec.Tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         spec.Usage,
		SharingMode:   vk.SharingModeExclusive,
		Samples:       vk.SampleCount1Bit,
	}

	res := vk.CreateImage(u.device, &imageInfo, nil, &img.Handle)
	if err := apperr.Vk(res, "failed to create an image"); err != nil {
		return Image{}, err
	}

	var memRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(u.device, img.Handle, &memRequirements)
	memRequirements.Deref()

	memory, err := u.allocate(memRequirements, spec.Properties)
	if err != nil {
		img.Destroy(u.device)
		return Image{}, errors.Wrap(err, "allocating image memory")
	}
	img.Memory = memory

	res = vk.BindImageMemory(u.device, img.Handle, img.Memory, 0)
	if err := apperr.Vk(res, "failed to bind image memory"); err != nil {
		img.Destroy(u.device)
		return Image{}, err
	}

	return img, nil
}

// CreateImageView creates a 2D view over mipLevels levels of image.
func (u *Uploader) CreateImageView(
	image vk.Image,
	format vk.Format,
	aspectFlags vk.ImageAspectFlags,
	mipLevels uint32,
) (vk.ImageView, error) {
	return CreateImageView(u.device, image, format, aspectFlags, mipLevels)
}

// CreateImageView creates a 2D view over mipLevels levels of image.
func CreateImageView(
	device vk.Device,
	image vk.Image,
	format vk.Format,
	aspectFlags vk.ImageAspectFlags,
	mipLevels uint32,
) (vk.ImageView, error) {
	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspectFlags,
			BaseMipLevel:   0,
			LevelCount:     mipLevels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var imageView vk.ImageView
	res := vk.CreateImageView(device, &createInfo, nil, &imageView)
	if err := apperr.Vk(res, "failed to create image view"); err != nil {
		return vk.NullImageView, err
	}

	return imageView, nil
}

// CopyBufferToImage copies tightly packed pixels from buffer into the first
// mip level of image, which must be in the transfer destination layout.
func (u *Uploader) CopyBufferToImage(buffer vk.Buffer, image vk.Image, width, height uint32) error {
	return u.OneShot(func(commandBuffer vk.CommandBuffer) error {
		region := vk.BufferImageCopy{
			BufferOffset:      0,
			BufferRowLength:   0,
			BufferImageHeight: 0,

			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:       0,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},

			ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
			ImageExtent: vk.Extent3D{
				Width:  width,
				Height: height,
				Depth:  1,
			},
		}

		vk.CmdCopyBufferToImage(
			commandBuffer,
			buffer,
			image,
			vk.ImageLayoutTransferDstOptimal,
			1,
			[]vk.BufferImageCopy{region},
		)
		return nil
	})
}

func (u *Uploader) allocate(
	requirements vk.MemoryRequirements,
	properties vk.MemoryPropertyFlags,
) (vk.DeviceMemory, error) {
	memTypeIndex, err := FindMemoryType(u.memoryTypes, requirements.MemoryTypeBits, properties)
	if err != nil {
		return vk.NullDeviceMemory, err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memTypeIndex,
	}

	var memory vk.DeviceMemory
	res := vk.AllocateMemory(u.device, &allocInfo, nil, &memory)
	if err := apperr.Vk(res, "failed to allocate device memory"); err != nil {
		return vk.NullDeviceMemory, err
	}

	return memory, nil
}
