package swapchain

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
	"vkframes/queues"
	"vkframes/upload"
)

// State of the presentation resources.
type State int

const (
	// Valid means the bundle matches the surface and may be rendered to.
	Valid State = iota

	// Invalidated means the surface changed and the bundle must be rebuilt
	// before the next frame is acquired.
	Invalidated
)

func (s State) String() string {
	switch s {
	case Valid:
		return "Valid"
	case Invalidated:
		return "Invalidated"
	}
	return "Unknown"
}

// Window is the part of the platform window the manager needs.
type Window interface {
	// FramebufferSize returns the framebuffer size in pixels.
	FramebufferSize() (width, height int)

	// WaitEvents blocks until at least one window event was processed.
	WaitEvents()
}

// Bundle is the set of presentation resources which live and die together.
type Bundle struct {
	Handle      vk.Swapchain
	Format      vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D

	// Images are owned by the presentation engine.
	Images []vk.Image
	Views  []vk.ImageView

	Depth     upload.Image
	DepthView vk.ImageView

	Framebuffers []vk.Framebuffer
}

// Config holds everything the manager needs to build bundles.
type Config struct {
	Physical vk.PhysicalDevice
	Device   vk.Device
	Surface  vk.Surface
	Families queues.FamilyIndices

	Window   Window
	Uploader *upload.Uploader

	// DepthFormat is the format of the depth attachment.
	DepthFormat vk.Format

	// PreferMailbox selects mailbox presentation when available. Otherwise
	// presentation is always FIFO.
	PreferMailbox bool

	Logger *slog.Logger
}

// lifecycle is the device side of bundle management.
type lifecycle interface {
	waitIdle() error
	query() (SupportDetails, error)
	build(support SupportDetails, width, height int) (*Bundle, error)
	framebuffers(b *Bundle, renderPass vk.RenderPass) error
	destroy(b *Bundle)
}

// Manager owns the current Bundle and implements the recreation protocol.
type Manager struct {
	window Window
	logger *slog.Logger
	life   lifecycle

	bundle        *Bundle
	renderPass    vk.RenderPass
	hasRenderPass bool
	state         State
	recreated     int
}

// New creates the swapchain, its image views and the depth buffer.
// Framebuffers are created once a render pass is attached.
func New(cfg Config) (*Manager, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	m := &Manager{
		window: cfg.Window,
		logger: cfg.Logger,
		life:   &vulkanLifecycle{cfg: cfg},
		state:  Invalidated,
	}

	support, err := m.life.query()
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ResourceCreationFailed,
			"querying swap chain support")
	}

	if !support.Adequate() {
		return nil, apperr.New(apperr.ResourceCreationFailed,
			"surface has no formats or present modes")
	}

	width, height := cfg.Window.FramebufferSize()
	bundle, err := m.life.build(support, width, height)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ResourceCreationFailed,
			"failed to create swap chain")
	}

	m.bundle = bundle
	m.state = Valid
	m.logCreated("swap chain created")

	return m, nil
}

// AttachRenderPass creates one framebuffer per swapchain image for
// renderPass. Later bundles get their framebuffers during recreation.
func (m *Manager) AttachRenderPass(renderPass vk.RenderPass) error {
	m.renderPass = renderPass
	m.hasRenderPass = true
	if err := m.life.framebuffers(m.bundle, renderPass); err != nil {
		return apperr.Wrap(err, apperr.ResourceCreationFailed,
			"failed to create framebuffers")
	}
	return nil
}

// Bundle returns the current presentation resources.
func (m *Manager) Bundle() *Bundle {
	return m.bundle
}

// Extent returns the extent of the current swapchain images.
func (m *Manager) Extent() vk.Extent2D {
	if m.bundle == nil {
		return vk.Extent2D{}
	}
	return m.bundle.Extent
}

// State returns whether the bundle may be used for rendering.
func (m *Manager) State() State {
	return m.state
}

// Recreations returns how many times the bundle has been rebuilt.
func (m *Manager) Recreations() int {
	return m.recreated
}

// Invalidate marks the bundle as out of date.
func (m *Manager) Invalidate() {
	m.state = Invalidated
}

// Recreate rebuilds the bundle. It blocks while the framebuffer has a zero
// area, waits for the device to be idle, destroys the old bundle and builds a
// new one from freshly queried surface support.
//
// A failure leaves the manager without a bundle and is fatal.
func (m *Manager) Recreate() error {
	m.state = Invalidated

	width, height := WaitForFramebuffer(m.window)

	if err := m.life.waitIdle(); err != nil {
		return errors.NewAssertionErrorWithWrappedErrf(err, "waiting for device idle")
	}

	m.life.destroy(m.bundle)
	m.bundle = nil

	support, err := m.life.query()
	if err != nil {
		return errors.NewAssertionErrorWithWrappedErrf(err, "querying swap chain support")
	}

	bundle, err := m.life.build(support, width, height)
	if err != nil {
		return errors.NewAssertionErrorWithWrappedErrf(err, "recreating swap chain")
	}

	if m.hasRenderPass {
		if err := m.life.framebuffers(bundle, m.renderPass); err != nil {
			m.life.destroy(bundle)
			return errors.NewAssertionErrorWithWrappedErrf(err, "recreating framebuffers")
		}
	}

	m.bundle = bundle
	m.state = Valid
	m.recreated++
	m.logCreated("swap chain recreated")

	return nil
}

// Destroy releases the current bundle.
func (m *Manager) Destroy() {
	m.life.destroy(m.bundle)
	m.bundle = nil
	m.state = Invalidated
}

func (m *Manager) logCreated(msg string) {
	m.logger.Info(msg,
		"width", m.bundle.Extent.Width,
		"height", m.bundle.Extent.Height,
		"images", len(m.bundle.Images),
		"format", m.bundle.Format.Format,
		"present_mode", m.bundle.PresentMode,
	)
}

// WaitForFramebuffer blocks processing window events for as long as the
// framebuffer has a zero area, which is the case while the window is
// minimized. It returns the final size.
func WaitForFramebuffer(w Window) (int, int) {
	width, height := w.FramebufferSize()
	for width == 0 || height == 0 {
		w.WaitEvents()
		width, height = w.FramebufferSize()
	}
	return width, height
}
