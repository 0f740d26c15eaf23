// Package textures decodes texture images into tightly packed RGBA8 pixels.
package textures

import (
	"image"
	"io"
	"io/fs"

	// Used for decoding textures
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/cockroachdb/errors"
	"golang.org/x/image/draw"

	"vkframes/apperr"
)

// DefaultPath is the texture used when no other is configured, relative to
// the assets directory.
const DefaultPath = "textures/viking_room.png"

// RGBA is a decoded texture.
type RGBA struct {
	Pix    []byte
	Width  uint32
	Height uint32

	// Format is the name of the decoder which read the image.
	Format string
}

// Decode reads an image in any registered format and converts it to RGBA8.
func Decode(r io.Reader) (RGBA, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return RGBA{}, errors.Wrap(err, "failed to decode texture image")
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return RGBA{}, errors.New("texture image is empty")
	}

	return RGBA{
		Pix:    ToRGBA(img).Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Format: format,
	}, nil
}

// ToRGBA returns img as an *image.RGBA whose origin is at zero and whose rows
// are not padded. Images already in that shape are returned as they are.
func ToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()

	if rgba, ok := img.(*image.RGBA); ok &&
		bounds.Min == (image.Point{}) &&
		rgba.Stride == bounds.Dx()*4 {
		return rgba
	}

	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

// Load reads the texture at path.
func Load(fsys fs.FS, path string) (RGBA, error) {
	fh, err := fsys.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return RGBA{}, apperr.Wrap(err, apperr.AssetNotFound, "texture %s not found", path)
	} else if err != nil {
		return RGBA{}, apperr.Wrap(err, apperr.AssetDecodeFailed, "failed to open texture file")
	}
	defer fh.Close()

	tex, err := Decode(fh)
	if err != nil {
		return RGBA{}, apperr.Wrap(err, apperr.AssetDecodeFailed, "texture %s", path)
	}

	return tex, nil
}
