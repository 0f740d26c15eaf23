package renderer

import (
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"vkframes/mesh"
	"vkframes/models"
	"vkframes/shaders"
	"vkframes/textures"
)

// assets is everything read from disk before any GPU resource is created.
type assets struct {
	texture textures.RGBA
	mesh    mesh.Mesh

	vertexShader   []byte
	fragmentShader []byte
}

// loadAssets decodes the texture, the model and both shaders concurrently.
// The first failure is returned.
func loadAssets(cfg Config, logger *slog.Logger) (*assets, error) {
	started := time.Now()
	a := &assets{}

	var g errgroup.Group

	g.Go(func() error {
		texture, err := textures.Load(cfg.Assets, cfg.TexturePath)
		if err != nil {
			return err
		}
		a.texture = texture
		return nil
	})

	g.Go(func() error {
		m, err := models.Load(cfg.Assets, cfg.ModelPath)
		if err != nil {
			return err
		}
		a.mesh = m
		return nil
	})

	g.Go(func() error {
		code, err := shaders.Load(cfg.Assets, shaders.VertexPath)
		if err != nil {
			return err
		}
		a.vertexShader = code
		return nil
	})

	g.Go(func() error {
		code, err := shaders.Load(cfg.Assets, shaders.FragmentPath)
		if err != nil {
			return err
		}
		a.fragmentShader = code
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("assets loaded",
		"took", time.Since(started),
		"vertices", len(a.mesh.Vertices),
		"indices", len(a.mesh.Indices),
		"texture", a.texture.Format,
		"texture_width", a.texture.Width,
		"texture_height", a.texture.Height,
	)

	return a, nil
}
