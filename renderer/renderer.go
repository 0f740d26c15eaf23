package renderer

import (
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
	"vkframes/device"
	"vkframes/frame"
	"vkframes/logging"
	"vkframes/pipeline"
	"vkframes/swapchain"
	"vkframes/upload"
	"vkframes/window"
)

// Renderer owns the window and every Vulkan object created for it. Objects are
// destroyed in the reverse order of their creation.
type Renderer struct {
	cfg    Config
	logger *slog.Logger

	cleanup cleanupStack
	assets  *assets

	window   *window.Window
	instance *Instance
	surface  vk.Surface

	physical device.Candidate
	device   *device.Logical

	commandPool vk.CommandPool
	uploader    *upload.Uploader

	depthFormat vk.Format
	swapchain   *swapchain.Manager
	renderPass  vk.RenderPass

	setLayout vk.DescriptorSetLayout
	pipeline  *pipeline.Pipeline

	texture     upload.Image
	textureView vk.ImageView
	sampler     vk.Sampler

	vertices   upload.Buffer
	indices    upload.Buffer
	indexCount uint32

	descriptorPool vk.DescriptorPool
	slots          []slot

	scheduler *frame.Scheduler
}

// New opens the window and initializes Vulkan. Whatever was created before a
// failure is released again.
func New(cfg Config, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	r := &Renderer{
		cfg:    cfg,
		logger: logger,
		slots:  make([]slot, cfg.FramesInFlight),
	}
	r.cleanup.logger = logger

	if err := r.init(); err != nil {
		r.cleanup.run()
		return nil, err
	}

	return r, nil
}

func (r *Renderer) init() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"loadAssets", r.loadAssets},
		{"initWindow", r.initWindow},
		{"createInstance", r.createInstance},
		{"createSurface", r.createSurface},
		{"pickPhysicalDevice", r.pickPhysicalDevice},
		{"createLogicalDevice", r.createLogicalDevice},
		{"createCommandPool", r.createCommandPool},
		{"createSwapChain", r.createSwapChain},
		{"createRenderPass", r.createRenderPass},
		{"createDescriptorSetLayout", r.createDescriptorSetLayout},
		{"createGraphicsPipeline", r.createGraphicsPipeline},
		{"createTexture", r.createTexture},
		{"createGeometryBuffers", r.createGeometryBuffers},
		{"createUniformBuffers", r.createUniformBuffers},
		{"createDescriptorPool", r.createDescriptorPool},
		{"createDescriptorSets", r.createDescriptorSets},
		{"createCommandBuffers", r.createCommandBuffers},
		{"createSyncObjects", r.createSyncObjects},
		{"createScheduler", r.createScheduler},
	}

	for _, step := range steps {
		started := time.Now()
		if err := step.fn(); err != nil {
			return initError(step.name, err)
		}
		logging.Step(r.logger, step.name, started)
	}

	return nil
}

// initError names the failed step. Errors which do not carry a kind yet are
// resource creation failures.
func initError(step string, err error) error {
	if apperr.KindOf(err) == apperr.Unknown && !apperr.IsFatal(err) {
		return apperr.Wrap(err, apperr.ResourceCreationFailed, "%s", step)
	}
	return errors.Wrap(err, step)
}

func (r *Renderer) loadAssets() error {
	a, err := loadAssets(r.cfg, r.logger)
	if err != nil {
		return err
	}
	r.assets = a
	return nil
}

func (r *Renderer) initWindow() error {
	if err := window.Init(r.logger); err != nil {
		return err
	}
	r.cleanup.push("glfw", window.Terminate)

	win, err := window.New(window.Config{
		Width:  r.cfg.Width,
		Height: r.cfg.Height,
		Title:  r.cfg.Title,
		Logger: r.logger,
	})
	if err != nil {
		return err
	}
	r.window = win
	r.cleanup.push("window", r.window.Destroy)

	return nil
}

func (r *Renderer) createInstance() error {
	inst, err := NewInstance(r.cfg.Title, r.cfg.Debug, r.window, r.logger)
	if err != nil {
		return err
	}
	r.instance = inst
	r.cleanup.push("instance", r.instance.Destroy)

	return nil
}

func (r *Renderer) createSurface() error {
	surface, err := r.window.CreateSurface(r.instance.Handle)
	if err != nil {
		return err
	}
	r.surface = surface

	r.cleanup.push("surface", func() {
		vk.DestroySurface(r.instance.Handle, r.surface, nil)
	})
	return nil
}

func (r *Renderer) pickPhysicalDevice() error {
	selected, err := device.Select(
		r.instance.Handle,
		r.surface,
		device.DefaultRequirements(),
		r.logger,
	)
	if err != nil {
		return err
	}
	r.physical = selected

	return nil
}

func (r *Renderer) createLogicalDevice() error {
	logical, err := device.CreateLogical(r.physical, device.DefaultRequirements(), r.instance.Layers)
	if err != nil {
		return err
	}
	r.device = logical
	r.cleanup.push("device", r.device.Destroy)

	return nil
}

func (r *Renderer) createSwapChain() error {
	depthFormat, err := upload.FindDepthFormat(r.physical.Handle)
	if err != nil {
		return err
	}
	r.depthFormat = depthFormat

	manager, err := swapchain.New(swapchain.Config{
		Physical:      r.physical.Handle,
		Device:        r.device.Handle,
		Surface:       r.surface,
		Families:      r.device.Families,
		Window:        r.window,
		Uploader:      r.uploader,
		DepthFormat:   r.depthFormat,
		PreferMailbox: !r.cfg.VSync,
		Logger:        r.logger,
	})
	if err != nil {
		return err
	}
	r.swapchain = manager
	r.cleanup.push("swap chain", r.swapchain.Destroy)

	return nil
}

func (r *Renderer) createRenderPass() error {
	format := r.swapchain.Bundle().Format.Format

	renderPass, err := pipeline.CreateRenderPass(r.device.Handle, format, r.depthFormat)
	if err != nil {
		return err
	}
	r.renderPass = renderPass

	r.cleanup.push("render pass", func() {
		vk.DestroyRenderPass(r.device.Handle, r.renderPass, nil)
	})

	return r.swapchain.AttachRenderPass(r.renderPass)
}

func (r *Renderer) createGraphicsPipeline() error {
	p, err := pipeline.Build(r.device.Handle, pipeline.Config{
		RenderPass:   r.renderPass,
		SetLayout:    r.setLayout,
		VertexCode:   r.assets.vertexShader,
		FragmentCode: r.assets.fragmentShader,
	})
	if err != nil {
		return err
	}
	r.pipeline = p

	r.cleanup.push("graphics pipeline", func() {
		r.pipeline.Destroy(r.device.Handle)
	})
	return nil
}

func (r *Renderer) createScheduler() error {
	scheduler, err := frame.NewScheduler(
		&backend{r: r},
		uint32(len(r.slots)),
		frame.NewClock(),
		r.logger,
	)
	if err != nil {
		return err
	}
	r.scheduler = scheduler

	r.window.OnResize(func(width, height int) {
		r.scheduler.NotifyResized()
	})

	// Nothing may be destroyed while the GPU still uses it.
	r.cleanup.push("pending frames", func() {
		if err := r.device.WaitIdle(); err != nil {
			r.logger.Error("waiting for the device before cleanup", "error", err)
		}
	})

	return nil
}

// Run draws frames until the window is closed. Returned errors belong to the
// fatal tier.
func (r *Renderer) Run() error {
	r.logger.Info("main loop", "frames_in_flight", r.scheduler.Frames())

	for !r.window.ShouldClose() {
		if _, err := r.scheduler.DrawFrame(); err != nil {
			return errors.Wrap(err, "error drawing a frame")
		}

		r.window.PollEvents()
	}

	if err := r.device.WaitIdle(); err != nil {
		return errors.NewAssertionErrorWithWrappedErrf(err, "waiting for device idle")
	}

	r.logger.Info("main loop done", "swap_chain_recreations", r.swapchain.Recreations())
	return nil
}

// Close destroys everything New created.
func (r *Renderer) Close() {
	r.cleanup.run()
}
