package upload

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
)

// Blit is one step of mipmap generation: level Level-1 with extent Src is
// downsampled into level Level with extent Dst.
type Blit struct {
	Level uint32
	Src   vk.Extent2D
	Dst   vk.Extent2D
}

// MipBlits lists the blits which fill levels 1 to levels-1 from the base level.
func MipBlits(width, height, levels uint32) []Blit {
	chain := MipChain(width, height, levels)

	var blits []Blit
	for level := uint32(1); level < levels; level++ {
		blits = append(blits, Blit{
			Level: level,
			Src:   chain[level-1],
			Dst:   chain[level],
		})
	}
	return blits
}

// SupportsLinearBlit reports whether optimally tiled images of a format with
// these properties can be the source of a linearly filtered blit.
func SupportsLinearBlit(props vk.FormatProperties) bool {
	feature := vk.FormatFeatureFlags(vk.FormatFeatureSampledImageFilterLinearBit)
	return props.OptimalTilingFeatures&feature != 0
}

// GenerateMipmaps fills every mip level of image from level 0 by repeated
// linear blits. The image must be in the transfer destination layout for all
// levels. Afterwards every level is in the shader read only layout.
//
// Missing linear blit support for the format is a fatal error.
func (u *Uploader) GenerateMipmaps(img Image) error {
	if err := u.checkLinearBlit(img.Format); err != nil {
		return err
	}

	return u.OneShot(func(commandBuffer vk.CommandBuffer) error {
		barrier := vk.ImageMemoryBarrier{
			SType:               vk.StructureTypeImageMemoryBarrier,
			Image:               img.Handle,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseArrayLayer: 0,
				LayerCount:     1,
				LevelCount:     1,
			},
		}

		for _, blit := range MipBlits(img.Width, img.Height, img.MipLevels) {
			barrier.SubresourceRange.BaseMipLevel = blit.Level - 1
			barrier.OldLayout = vk.ImageLayoutTransferDstOptimal
			barrier.NewLayout = vk.ImageLayoutTransferSrcOptimal
			barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
			barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferReadBit)

			vk.CmdPipelineBarrier(
				commandBuffer,
				vk.PipelineStageFlags(vk.PipelineStageTransferBit),
				vk.PipelineStageFlags(vk.PipelineStageTransferBit),
				0,
				0, nil,
				0, nil,
				1, []vk.ImageMemoryBarrier{barrier},
			)

			region := vk.ImageBlit{
				SrcSubresource: vk.ImageSubresourceLayers{
					AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
					MipLevel:       blit.Level - 1,
					BaseArrayLayer: 0,
					LayerCount:     1,
				},
				SrcOffsets: [2]vk.Offset3D{
					{X: 0, Y: 0, Z: 0},
					{X: int32(blit.Src.Width), Y: int32(blit.Src.Height), Z: 1},
				},
				DstSubresource: vk.ImageSubresourceLayers{
					AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
					MipLevel:       blit.Level,
					BaseArrayLayer: 0,
					LayerCount:     1,
				},
				DstOffsets: [2]vk.Offset3D{
					{X: 0, Y: 0, Z: 0},
					{X: int32(blit.Dst.Width), Y: int32(blit.Dst.Height), Z: 1},
				},
			}

			vk.CmdBlitImage(
				commandBuffer,
				img.Handle, vk.ImageLayoutTransferSrcOptimal,
				img.Handle, vk.ImageLayoutTransferDstOptimal,
				1, []vk.ImageBlit{region},
				vk.FilterLinear,
			)

			barrier.OldLayout = vk.ImageLayoutTransferSrcOptimal
			barrier.NewLayout = vk.ImageLayoutShaderReadOnlyOptimal
			barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferReadBit)
			barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)

			vk.CmdPipelineBarrier(
				commandBuffer,
				vk.PipelineStageFlags(vk.PipelineStageTransferBit),
				vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
				0,
				0, nil,
				0, nil,
				1, []vk.ImageMemoryBarrier{barrier},
			)
		}

		// The last level was only ever written to.
		barrier.SubresourceRange.BaseMipLevel = img.MipLevels - 1
		barrier.OldLayout = vk.ImageLayoutTransferDstOptimal
		barrier.NewLayout = vk.ImageLayoutShaderReadOnlyOptimal
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)

		vk.CmdPipelineBarrier(
			commandBuffer,
			vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			0,
			0, nil,
			0, nil,
			1, []vk.ImageMemoryBarrier{barrier},
		)

		return nil
	})
}

func (u *Uploader) checkLinearBlit(format vk.Format) error {
	if !SupportsLinearBlit(u.formatProperties(format)) {
		return apperr.Unrecoverable("texture image format %d does not support linear blitting",
			format)
	}
	return nil
}

// UploadTexture creates a sampled, device local image with a full mip chain
// from tightly packed RGBA8 pixels.
func (u *Uploader) UploadTexture(pixels []byte, width, height uint32, format vk.Format) (Image, error) {
	if want := int(width) * int(height) * 4; len(pixels) != want {
		return Image{}, apperr.New(apperr.ResourceCreationFailed,
			"texture has %d bytes of pixel data, expected %d", len(pixels), want)
	}

	// Mipmaps are generated on the GPU, so bail out before allocating anything.
	if err := u.checkLinearBlit(format); err != nil {
		return Image{}, err
	}

	staging, err := u.CreateHostBuffer(pixels, vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit))
	if err != nil {
		return Image{}, errors.Wrap(err, "failed to create texture staging buffer")
	}
	defer staging.Destroy(u.device)

	img, err := u.CreateImage(ImageSpec{
		Width:     width,
		Height:    height,
		MipLevels: MipLevels(width, height),
		Format:    format,
		Tiling:    vk.ImageTilingOptimal,
		Usage: vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit) |
			vk.ImageUsageFlags(vk.ImageUsageTransferDstBit) |
			vk.ImageUsageFlags(vk.ImageUsageSampledBit),
		Properties: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
	})
	if err != nil {
		return Image{}, errors.Wrap(err, "failed to create Vulkan image")
	}

	err = u.TransitionLayout(
		img.Handle,
		vk.ImageLayoutUndefined,
		vk.ImageLayoutTransferDstOptimal,
		img.MipLevels,
	)
	if err != nil {
		img.Destroy(u.device)
		return Image{}, errors.Wrap(err, "transition image layout")
	}

	if err := u.CopyBufferToImage(staging.Handle, img.Handle, width, height); err != nil {
		img.Destroy(u.device)
		return Image{}, errors.Wrap(err, "copying buffer to image")
	}

	if err := u.GenerateMipmaps(img); err != nil {
		img.Destroy(u.device)
		return Image{}, errors.Wrap(err, "generating mipmaps")
	}

	return img, nil
}
