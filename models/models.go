// Package models loads Wavefront OBJ models into indexed meshes.
package models

import (
	"io"
	"io/fs"

	"github.com/cockroachdb/errors"
	"github.com/mokiat/go-data-front/decoder/obj"
	"github.com/xlab/linmath"

	"vkframes/apperr"
	"vkframes/mesh"
)

// DefaultPath is the model drawn when no other is configured, relative to the
// assets directory.
const DefaultPath = "models/viking_room.obj"

// Decode reads an OBJ model. Polygons are split into triangle fans, vertices
// are white and texture coordinates are flipped vertically to match Vulkan's
// top-left image origin.
func Decode(r io.Reader) (mesh.Mesh, error) {
	decoder := obj.NewDecoder(obj.DefaultLimits())

	model, err := decoder.Decode(r)
	if err != nil {
		return mesh.Mesh{}, errors.Wrap(err, "decoding OBJ model")
	}

	b := mesh.NewBuilder()

	for _, object := range model.Objects {
		for _, objMesh := range object.Meshes {
			for _, face := range objMesh.Faces {
				refs := face.References
				for i := 2; i < len(refs); i++ {
					b.Add(toVertex(model, refs[0]))
					b.Add(toVertex(model, refs[i-1]))
					b.Add(toVertex(model, refs[i]))
				}
			}
		}
	}

	if len(b.Indices) == 0 {
		return mesh.Mesh{}, errors.New("model has no triangles")
	}

	return b.Mesh(), nil
}

func toVertex(model *obj.Model, ref obj.Reference) mesh.Vertex {
	position := model.GetVertexFromReference(ref)

	v := mesh.Vertex{
		Pos: linmath.Vec3{
			float32(position.X),
			float32(position.Y),
			float32(position.Z),
		},
		Color: linmath.Vec3{1, 1, 1},
	}

	if ref.HasTexCoord() {
		texCoord := model.GetTexCoordFromReference(ref)
		v.TexCoord = linmath.Vec2{
			float32(texCoord.U),
			1 - float32(texCoord.V),
		}
	}

	return v
}

// Load reads the model at path.
func Load(fsys fs.FS, path string) (mesh.Mesh, error) {
	fh, err := fsys.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return mesh.Mesh{}, apperr.Wrap(err, apperr.AssetNotFound, "model %s not found", path)
	} else if err != nil {
		return mesh.Mesh{}, apperr.Wrap(err, apperr.AssetDecodeFailed, "failed to open model file")
	}
	defer fh.Close()

	m, err := Decode(fh)
	if err != nil {
		return mesh.Mesh{}, apperr.Wrap(err, apperr.AssetDecodeFailed, "model %s", path)
	}

	return m, nil
}
