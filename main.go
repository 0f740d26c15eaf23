package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"vkframes/apperr"
	"vkframes/logging"
	"vkframes/renderer"
)

func init() {
	// This is needed to arrange that main() runs on main thread.
	// See documentation for functions that are only allowed to be called
	// from the main thread.
	runtime.LockOSThread()

	defaults := renderer.DefaultConfig()

	flag.BoolVar(&args.debug, "debug", false, "Enable Vulkan validation layers")
	flag.IntVar(&args.width, "width", defaults.Width, "Initial window width")
	flag.IntVar(&args.height, "height", defaults.Height, "Initial window height")
	flag.StringVar(&args.title, "title", defaults.Title, "Window title")
	flag.StringVar(&args.assets, "assets", ".", "Directory with the shaders, models and textures")
	flag.StringVar(&args.model, "model", defaults.ModelPath, "OBJ model, relative to -assets")
	flag.StringVar(&args.texture, "texture", defaults.TexturePath, "Texture image, relative to -assets")
	flag.BoolVar(&args.vsync, "vsync", false, "Always use FIFO presentation")
	flag.UintVar(&args.frames, "frames", uint(defaults.FramesInFlight),
		"Frames in flight, a power of two")
}

var args struct {
	debug   bool
	width   int
	height  int
	title   string
	assets  string
	model   string
	texture string
	vsync   bool
	frames  uint
}

func main() {
	flag.Parse()

	logger := logging.New(os.Stderr, args.debug)

	cfg := renderer.Config{
		Width:          args.width,
		Height:         args.height,
		Title:          args.title,
		Assets:         os.DirFS(args.assets),
		ModelPath:      args.model,
		TexturePath:    args.texture,
		Debug:          args.debug,
		VSync:          args.vsync,
		FramesInFlight: uint32(args.frames),
	}

	app, err := renderer.New(cfg, logger)
	if err != nil {
		if apperr.IsFatal(err) {
			apperr.Fatal(err)
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}

	err = app.Run()
	app.Close()

	if err != nil {
		apperr.Fatal(err)
	}
}
