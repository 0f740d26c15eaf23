// Package window wraps the GLFW window the renderer presents to.
package window

import (
	"log/slog"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
)

// Config describes the window to open.
type Config struct {
	Width  int
	Height int
	Title  string

	Logger *slog.Logger
}

// Window is a resizable GLFW window without a client API.
type Window struct {
	handle *glfw.Window
	logger *slog.Logger

	onResize func(width, height int)
}

// Init initializes GLFW and checks that it found a Vulkan loader. It must be
// called from the main thread.
func Init(logger *slog.Logger) error {
	if err := glfw.Init(); err != nil {
		ReportError(logger, err)
		return apperr.Wrap(err, apperr.WindowInitFailed, "glfw.Init")
	}

	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return apperr.New(apperr.WindowInitFailed, "GLFW Vulkan loader not found")
	}

	return nil
}

// Terminate releases every GLFW resource.
func Terminate() {
	glfw.Terminate()
}

// InstanceProcAddr returns vkGetInstanceProcAddr as found by GLFW.
func InstanceProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// New opens a window. Init must have been called.
func New(cfg Config) (*Window, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	handle, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		ReportError(cfg.Logger, err)
		return nil, apperr.Wrap(err, apperr.WindowCreationFailed, "creating window")
	}

	w := &Window{
		handle: handle,
		logger: cfg.Logger,
	}
	handle.SetFramebufferSizeCallback(w.frameBufferResizeCallback)

	return w, nil
}

// OnResize registers fn to be called whenever the framebuffer changes size.
func (w *Window) OnResize(fn func(width, height int)) {
	w.onResize = fn
}

func (w *Window) frameBufferResizeCallback(_ *glfw.Window, width int, height int) {
	w.logger.Debug("framebuffer resized", "width", width, "height", height)
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

// FramebufferSize returns the framebuffer size in pixels.
func (w *Window) FramebufferSize() (int, int) {
	return w.handle.GetFramebufferSize()
}

// WaitEvents sleeps until at least one event arrives and processes it.
func (w *Window) WaitEvents() {
	glfw.WaitEvents()
}

// PollEvents processes pending events without blocking.
func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// ShouldClose reports whether the user asked to close the window.
func (w *Window) ShouldClose() bool {
	return w.handle.ShouldClose()
}

// RequiredInstanceExtensions lists the instance extensions GLFW needs to
// create surfaces.
func (w *Window) RequiredInstanceExtensions() []string {
	return w.handle.GetRequiredInstanceExtensions()
}

// CreateSurface creates a presentation surface for the window.
func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surfacePtr, err := w.handle.CreateWindowSurface(instance, nil)
	if err != nil {
		ReportError(w.logger, err)
		return vk.NullSurface, apperr.Wrap(err, apperr.SurfaceCreationFailed,
			"cannot create surface within GLFW window")
	}

	return vk.SurfaceFromPointer(surfacePtr), nil
}

// Destroy closes the window.
func (w *Window) Destroy() {
	w.handle.Destroy()
}

// ReportError logs GLFW errors with their code and description. Other errors
// are logged as they are.
func ReportError(logger *slog.Logger, err error) {
	if err == nil {
		return
	}

	var glfwErr *glfw.Error
	if errors.As(err, &glfwErr) {
		logger.Error("GLFW error", "code", glfwErr.Code, "description", glfwErr.Desc)
		return
	}

	logger.Error("GLFW error", "error", err)
}
