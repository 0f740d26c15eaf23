package frame

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
	"vkframes/logging"
)

type fakeBackend struct {
	calls []string

	acquire  []AcquireStatus
	present  []PresentStatus
	images   uint32
	nextImg  uint32
	waitErr  error
	submitFn func(slot uint32) error

	// onRecord lets specs look at the scheduler while a slot is recording.
	onRecord func(slot uint32)

	uniforms []UniformBufferObject
}

func (b *fakeBackend) WaitForSlot(slot uint32) error {
	b.calls = append(b.calls, fmt.Sprintf("wait %d", slot))
	return b.waitErr
}

func (b *fakeBackend) AcquireImage(slot uint32) (uint32, AcquireStatus, error) {
	b.calls = append(b.calls, fmt.Sprintf("acquire %d", slot))

	status := AcquireSuccess
	if len(b.acquire) > 0 {
		status, b.acquire = b.acquire[0], b.acquire[1:]
	}

	image := b.nextImg
	if b.images > 0 {
		b.nextImg = (b.nextImg + 1) % b.images
	}
	return image, status, nil
}

func (b *fakeBackend) UpdateUniforms(slot uint32, ubo *UniformBufferObject) error {
	b.calls = append(b.calls, fmt.Sprintf("update %d", slot))
	b.uniforms = append(b.uniforms, *ubo)
	return nil
}

func (b *fakeBackend) ResetSlot(slot uint32) error {
	b.calls = append(b.calls, fmt.Sprintf("reset %d", slot))
	return nil
}

func (b *fakeBackend) Record(slot uint32, image uint32) error {
	b.calls = append(b.calls, fmt.Sprintf("record %d image %d", slot, image))
	if b.onRecord != nil {
		b.onRecord(slot)
	}
	return nil
}

func (b *fakeBackend) Submit(slot uint32) error {
	b.calls = append(b.calls, fmt.Sprintf("submit %d", slot))
	if b.submitFn != nil {
		return b.submitFn(slot)
	}
	return nil
}

func (b *fakeBackend) Present(slot uint32, image uint32) (PresentStatus, error) {
	b.calls = append(b.calls, fmt.Sprintf("present %d image %d", slot, image))

	status := PresentSuccess
	if len(b.present) > 0 {
		status, b.present = b.present[0], b.present[1:]
	}
	return status, nil
}

func (b *fakeBackend) RecreateSwapchain() error {
	b.calls = append(b.calls, "recreate")
	return nil
}

func (b *fakeBackend) Extent() vk.Extent2D {
	return vk.Extent2D{Width: 800, Height: 600}
}

func (b *fakeBackend) submitted() []string {
	var out []string
	for _, call := range b.calls {
		var slot int
		if _, err := fmt.Sscanf(call, "submit %d", &slot); err == nil {
			out = append(out, call)
		}
	}
	return out
}

type fakeTime struct {
	now time.Duration
}

func (t *fakeTime) Now() time.Duration {
	return t.now
}

var _ = Describe("Scheduler", func() {
	var (
		backend *fakeBackend
		clock   *fakeTime
		s       *Scheduler
	)

	BeforeEach(func() {
		backend = &fakeBackend{images: 3}
		clock = &fakeTime{}

		var err error
		s, err = NewScheduler(backend, DefaultFramesInFlight, newClock(clock.Now), logging.Discard())
		Expect(err).NotTo(HaveOccurred())
	})

	It("cycles through the slots", func() {
		var slots []uint32
		for i := 0; i < 5; i++ {
			slots = append(slots, s.Current())
			Expect(s.DrawFrame()).To(Equal(Presented))
		}

		Expect(slots).To(Equal([]uint32{0, 1, 0, 1, 0}))
		Expect(backend.submitted()).To(Equal([]string{
			"submit 0", "submit 1", "submit 0", "submit 1", "submit 0",
		}))
	})

	It("runs the steps of a frame in order", func() {
		Expect(s.DrawFrame()).To(Equal(Presented))

		Expect(backend.calls).To(Equal([]string{
			"wait 0",
			"acquire 0",
			"update 0",
			"reset 0",
			"record 0 image 0",
			"submit 0",
			"present 0 image 0",
		}))
		Expect(s.State(0)).To(Equal(Submitted))
		Expect(s.State(1)).To(Equal(Idle))
	})

	It("marks the slot as recording while commands are recorded", func() {
		var during SlotState
		backend.onRecord = func(slot uint32) {
			during = s.State(slot)
		}

		Expect(s.DrawFrame()).To(Equal(Presented))
		Expect(during).To(Equal(Recording))
	})

	It("recreates the swapchain and skips the frame when acquire is out of date", func() {
		backend.acquire = []AcquireStatus{AcquireOutOfDate}

		Expect(s.DrawFrame()).To(Equal(Skipped))

		Expect(backend.calls).To(Equal([]string{
			"wait 0",
			"acquire 0",
			"recreate",
		}))
		Expect(s.Current()).To(Equal(uint32(0)))
		Expect(s.State(0)).To(Equal(Idle))

		Expect(s.DrawFrame()).To(Equal(Presented))
		Expect(backend.submitted()).To(Equal([]string{"submit 0"}))
	})

	It("keeps going with a suboptimal image", func() {
		backend.acquire = []AcquireStatus{AcquireSuboptimal}

		Expect(s.DrawFrame()).To(Equal(Presented))

		Expect(backend.calls).NotTo(ContainElement("recreate"))
		Expect(backend.calls).To(ContainElement("present 0 image 0"))
		Expect(s.Current()).To(Equal(uint32(1)))
	})

	DescribeTable("recreates after presenting",
		func(status PresentStatus) {
			backend.present = []PresentStatus{status}

			Expect(s.DrawFrame()).To(Equal(Presented))

			Expect(backend.calls[len(backend.calls)-2:]).To(Equal([]string{
				"present 0 image 0",
				"recreate",
			}))
			Expect(s.Current()).To(Equal(uint32(1)))
		},
		Entry("when out of date", PresentOutOfDate),
		Entry("when suboptimal", PresentSuboptimal),
	)

	It("recreates once after a resize", func() {
		s.NotifyResized()

		Expect(s.DrawFrame()).To(Equal(Presented))
		Expect(s.DrawFrame()).To(Equal(Presented))

		recreations := 0
		for _, call := range backend.calls {
			if call == "recreate" {
				recreations++
			}
		}
		Expect(recreations).To(Equal(1))
	})

	It("does not recreate again for a resize handled on acquire", func() {
		s.NotifyResized()
		backend.acquire = []AcquireStatus{AcquireOutOfDate}

		Expect(s.DrawFrame()).To(Equal(Skipped))
		Expect(s.DrawFrame()).To(Equal(Presented))

		Expect(backend.calls).To(Equal([]string{
			"wait 0",
			"acquire 0",
			"recreate",
			"wait 0",
			"acquire 0",
			"update 0",
			"reset 0",
			"record 0 image 1",
			"submit 0",
			"present 0 image 1",
		}))
	})

	It("treats a failed fence wait as fatal", func() {
		backend.waitErr = vk.Error(vk.ErrorDeviceLost)

		_, err := s.DrawFrame()
		Expect(err).To(HaveOccurred())
		Expect(apperr.IsFatal(err)).To(BeTrue())
		Expect(backend.calls).To(Equal([]string{"wait 0"}))
	})

	It("treats a failed submit as fatal", func() {
		backend.submitFn = func(uint32) error {
			return errors.New("queue submit failed")
		}

		_, err := s.DrawFrame()
		Expect(apperr.IsFatal(err)).To(BeTrue())
		Expect(s.Current()).To(Equal(uint32(0)))
	})

	It("animates the model over time", func() {
		Expect(s.DrawFrame()).To(Equal(Presented))
		clock.now = time.Second
		Expect(s.DrawFrame()).To(Equal(Presented))

		Expect(backend.uniforms).To(HaveLen(2))
		Expect(backend.uniforms[0].Model).NotTo(Equal(backend.uniforms[1].Model))
		Expect(backend.uniforms[0].View).To(Equal(backend.uniforms[1].View))
	})
})

var _ = Describe("NewScheduler", func() {
	It("only accepts powers of two", func() {
		for _, frames := range []uint32{1, 2, 4, 8} {
			_, err := NewScheduler(&fakeBackend{}, frames, nil, logging.Discard())
			Expect(err).NotTo(HaveOccurred())
		}

		for _, frames := range []uint32{0, 3, 6} {
			_, err := NewScheduler(&fakeBackend{}, frames, nil, logging.Discard())
			Expect(err).To(HaveOccurred())
		}
	})

	It("wraps around with four slots", func() {
		s, err := NewScheduler(&fakeBackend{}, 4, nil, logging.Discard())
		Expect(err).NotTo(HaveOccurred())

		var slots []uint32
		for i := 0; i < 6; i++ {
			slots = append(slots, s.Current())
			_, err := s.DrawFrame()
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(slots).To(Equal([]uint32{0, 1, 2, 3, 0, 1}))
	})
})

var _ = Describe("NewUniforms", func() {
	It("starts with an unrotated model", func() {
		var identity UniformBufferObject
		identity.Model.Identity()

		ubo := NewUniforms(0, vk.Extent2D{Width: 800, Height: 600})
		Expect(ubo.Model).To(Equal(identity.Model))
	})

	It("flips the Y axis of the projection", func() {
		ubo := NewUniforms(0, vk.Extent2D{Width: 800, Height: 600})
		Expect(ubo.Proj[1][1]).To(BeNumerically("<", 0))
	})

	It("survives a zero height", func() {
		ubo := NewUniforms(0, vk.Extent2D{Width: 800})
		Expect(ubo.Proj[0][0]).To(BeNumerically(">", 0))
	})
})
