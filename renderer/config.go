// Package renderer owns every Vulkan object of the program and drives the
// frame scheduler with them.
package renderer

import (
	"io/fs"

	"github.com/cockroachdb/errors"

	"vkframes/frame"
	"vkframes/models"
	"vkframes/textures"
)

// Config describes the window and the assets to render.
type Config struct {
	Width  int
	Height int
	Title  string

	// Assets holds the shaders, the model and the texture.
	Assets      fs.FS
	ModelPath   string
	TexturePath string

	// Debug enables the validation layers and routes their messages to the
	// logger.
	Debug bool

	// VSync forces FIFO presentation. Otherwise mailbox is used when the
	// surface supports it.
	VSync bool

	// FramesInFlight is the number of frames recorded ahead of the GPU. It
	// must be a power of two.
	FramesInFlight uint32
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	return Config{
		Width:          1024,
		Height:         768,
		Title:          "Vulkan Tutorial: Frames in flight",
		ModelPath:      models.DefaultPath,
		TexturePath:    textures.DefaultPath,
		FramesInFlight: frame.DefaultFramesInFlight,
	}
}

// Validate reports the first problem with c.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Newf("window size %dx%d is not positive", c.Width, c.Height)
	}

	if c.Assets == nil {
		return errors.New("no assets directory")
	}

	if c.ModelPath == "" || c.TexturePath == "" {
		return errors.New("model and texture paths are required")
	}

	frames := c.FramesInFlight
	if frames == 0 || frames&(frames-1) != 0 {
		return errors.Newf("frames in flight must be a power of two, got %d", frames)
	}

	return nil
}
