// Package shaders loads the compiled SPIR-V shaders of the renderer. The GLSL
// sources live next to this file. Run `go generate` in order to compile them
// again.
package shaders

import (
	"encoding/binary"
	"io/fs"

	"github.com/cockroachdb/errors"

	"vkframes/apperr"
)

//go:generate ./compile.sh

// Paths of the compiled shaders relative to the assets directory.
const (
	VertexPath   = "shaders/vert.spv"
	FragmentPath = "shaders/frag.spv"
)

// Magic is the first word of every SPIR-V module.
const Magic uint32 = 0x07230203

// Validate checks that code looks like a SPIR-V module: a non-empty sequence
// of 32 bit words starting with the magic number.
func Validate(code []byte) error {
	if len(code) < 4 || len(code)%4 != 0 {
		return errors.Newf("SPIR-V code size %d is not a positive multiple of 4", len(code))
	}

	if magic := binary.LittleEndian.Uint32(code); magic != Magic {
		return errors.Newf("bad SPIR-V magic number %#08x", magic)
	}

	return nil
}

// Load reads and validates the shader at path.
func Load(fsys fs.FS, path string) ([]byte, error) {
	code, err := fs.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.Wrap(err, apperr.AssetNotFound, "shader %s not found", path)
	} else if err != nil {
		return nil, apperr.Wrap(err, apperr.AssetDecodeFailed, "reading shader %s", path)
	}

	if err := Validate(code); err != nil {
		return nil, apperr.Wrap(err, apperr.AssetDecodeFailed, "shader %s", path)
	}

	return code, nil
}
