package frame

import (
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DefaultFramesInFlight is how many frames the CPU may record ahead of the GPU.
const DefaultFramesInFlight = 2

// statsInterval is how often frame statistics are logged.
const statsInterval = 5 * time.Second

// Backend executes the GPU side of each step of a frame. Slot is always
// smaller than the number of frames in flight.
type Backend interface {
	// WaitForSlot blocks until the GPU signaled the fence of slot.
	WaitForSlot(slot uint32) error

	// AcquireImage requests the next swapchain image, signaling the image
	// available semaphore of slot once it is ready.
	AcquireImage(slot uint32) (uint32, AcquireStatus, error)

	// UpdateUniforms copies ubo into the mapped uniform buffer of slot.
	UpdateUniforms(slot uint32, ubo *UniformBufferObject) error

	// ResetSlot resets the fence and the command buffer of slot.
	ResetSlot(slot uint32) error

	// Record fills the command buffer of slot with the draw commands for the
	// swapchain image.
	Record(slot uint32, image uint32) error

	// Submit queues the command buffer of slot. The submission waits for the
	// image available semaphore, signals the render finished semaphore and
	// the fence of slot.
	Submit(slot uint32) error

	// Present queues the image for presentation once the render finished
	// semaphore of slot is signaled.
	Present(slot uint32, image uint32) (PresentStatus, error)

	// RecreateSwapchain rebuilds every resource which depends on the surface.
	RecreateSwapchain() error

	// Extent is the size of the current swapchain images.
	Extent() vk.Extent2D
}

// Scheduler runs frames round-robin over a fixed number of slots.
type Scheduler struct {
	backend Backend
	clock   *Clock
	logger  *slog.Logger

	mask    uint32
	current uint32
	states  []SlotState

	resized bool

	framesSinceStats int
	lastStats        time.Duration
}

// NewScheduler returns a scheduler with frames slots. frames must be a power
// of two.
func NewScheduler(backend Backend, frames uint32, clock *Clock, logger *slog.Logger) (*Scheduler, error) {
	if frames == 0 || frames&(frames-1) != 0 {
		return nil, errors.Newf("frames in flight must be a power of two, got %d", frames)
	}

	if clock == nil {
		clock = NewClock()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		backend:   backend,
		clock:     clock,
		logger:    logger,
		mask:      frames - 1,
		states:    make([]SlotState, frames),
		lastStats: clock.Elapsed(),
	}, nil
}

// Frames returns the number of slots.
func (s *Scheduler) Frames() uint32 {
	return uint32(len(s.states))
}

// Current returns the slot the next frame will use.
func (s *Scheduler) Current() uint32 {
	return s.current
}

// State returns the state of slot.
func (s *Scheduler) State(slot uint32) SlotState {
	return s.states[slot]
}

// NotifyResized makes the next presented frame recreate the swapchain. It is
// meant to be called from the window's framebuffer size callback.
func (s *Scheduler) NotifyResized() {
	s.resized = true
}

// DrawFrame renders one frame using the current slot.
//
// An out of date swapchain while acquiring recreates the swapchain and
// returns Skipped without touching the slot. Errors are fatal.
func (s *Scheduler) DrawFrame() (Result, error) {
	slot := s.current

	if err := s.backend.WaitForSlot(slot); err != nil {
		return Presented, errors.NewAssertionErrorWithWrappedErrf(err,
			"waiting for frame slot %d", slot)
	}
	s.states[slot] = Idle

	imageIndex, acquired, err := s.backend.AcquireImage(slot)
	if err != nil {
		return Presented, errors.NewAssertionErrorWithWrappedErrf(err,
			"failed to acquire swap chain image")
	}

	switch acquired {
	case AcquireOutOfDate:
		s.logger.Debug("swap chain out of date on acquire", "slot", slot)
		return Skipped, s.recreate()
	case AcquireSuboptimal:
		s.logger.Debug("swap chain suboptimal on acquire", "slot", slot, "image", imageIndex)
	}

	ubo := NewUniforms(s.clock.Elapsed(), s.backend.Extent())
	if err := s.backend.UpdateUniforms(slot, &ubo); err != nil {
		return Presented, errors.NewAssertionErrorWithWrappedErrf(err,
			"updating uniforms of slot %d", slot)
	}

	// Only reset the fence if we are submitting work.
	if err := s.backend.ResetSlot(slot); err != nil {
		return Presented, errors.NewAssertionErrorWithWrappedErrf(err,
			"resetting frame slot %d", slot)
	}

	s.states[slot] = Recording
	if err := s.backend.Record(slot, imageIndex); err != nil {
		return Presented, errors.NewAssertionErrorWithWrappedErrf(err,
			"recording command buffer")
	}

	if err := s.backend.Submit(slot); err != nil {
		return Presented, errors.NewAssertionErrorWithWrappedErrf(err,
			"queue submit error")
	}
	s.states[slot] = Submitted

	presented, err := s.backend.Present(slot, imageIndex)
	if err != nil {
		return Presented, errors.NewAssertionErrorWithWrappedErrf(err,
			"failed to present swap chain image")
	}

	if presented != PresentSuccess || s.resized {
		s.logger.Debug("recreating swap chain after present",
			"status", presented,
			"resized", s.resized,
		)
		if err := s.recreate(); err != nil {
			return Presented, err
		}
	}

	s.current = (s.current + 1) & s.mask
	s.countFrame()

	return Presented, nil
}

// recreate rebuilds the swapchain. Any pending resize is covered by it.
func (s *Scheduler) recreate() error {
	s.resized = false
	if err := s.backend.RecreateSwapchain(); err != nil {
		if !errors.HasAssertionFailure(err) {
			err = errors.NewAssertionErrorWithWrappedErrf(err, "recreating swap chain")
		}
		return err
	}
	return nil
}

func (s *Scheduler) countFrame() {
	s.framesSinceStats++

	now := s.clock.Elapsed()
	elapsed := now - s.lastStats
	if elapsed < statsInterval {
		return
	}

	s.logger.Debug("frame stats",
		"frames", s.framesSinceStats,
		"fps", float64(s.framesSinceStats)/elapsed.Seconds(),
	)
	s.framesSinceStats = 0
	s.lastStats = now
}
