package swapchain

import (
	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("assemble", func() {
	var (
		ran       []string
		destroyed []*Bundle
	)

	destroy := func(b *Bundle) {
		destroyed = append(destroyed, b)
	}

	step := func(name string, err error) func(*Bundle) error {
		return func(*Bundle) error {
			ran = append(ran, name)
			return err
		}
	}

	BeforeEach(func() {
		ran = nil
		destroyed = nil
	})

	It("runs every step and keeps the bundle", func() {
		b := &Bundle{}
		err := assemble(b, destroy, step("swapchain", nil), step("views", nil), step("depth", nil))

		Expect(err).NotTo(HaveOccurred())
		Expect(ran).To(Equal([]string{"swapchain", "views", "depth"}))
		Expect(destroyed).To(BeEmpty())
	})

	It("releases a swapchain whose images could not be listed", func() {
		b := &Bundle{}
		createSwapChain := step("swapchain", errors.New("failed to get swap chain images"))

		err := assemble(b, destroy, createSwapChain, step("views", nil))

		Expect(err).To(MatchError(ContainSubstring("swap chain images")))
		Expect(ran).To(Equal([]string{"swapchain"}))
		Expect(destroyed).To(Equal([]*Bundle{b}))
	})

	It("stops at the first failing step", func() {
		b := &Bundle{}
		err := assemble(b, destroy, step("swapchain", nil), step("views", errors.New("boom")), step("depth", nil))

		Expect(err).To(MatchError("boom"))
		Expect(ran).To(Equal([]string{"swapchain", "views"}))
		Expect(destroyed).To(HaveLen(1))
	})
})
