package apperr

import (
	"bytes"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	vk "github.com/vulkan-go/vulkan"
)

var _ = Describe("Error", func() {
	It("carries its kind through wrapping", func() {
		err := New(ExtensionNotSupported, "required Vulkan extension %s is not supported", "VK_KHR_surface")
		wrapped := fmt.Errorf("createInstance: %w", errors.Wrap(err, "initVulkan"))

		Expect(KindOf(wrapped)).To(Equal(ExtensionNotSupported))
		Expect(wrapped.Error()).To(ContainSubstring("VK_KHR_surface is not supported"))
	})

	It("reports Unknown for foreign errors", func() {
		Expect(KindOf(errors.New("boom"))).To(Equal(Unknown))
		Expect(KindOf(nil)).To(Equal(Unknown))
	})

	It("includes the cause in the message", func() {
		err := Wrap(errors.New("no such file"), AssetNotFound, "reading %s", "vert.spv")
		Expect(err.Error()).To(Equal("reading vert.spv: no such file"))
		Expect(Wrap(nil, AssetNotFound, "ignored")).To(BeNil())
	})

	It("names kinds", func() {
		Expect(NoSuitableDevice.String()).To(Equal("NoSuitableDevice"))
		Expect(Kind(999).String()).To(Equal("Kind(999)"))
	})
})

var _ = Describe("Vulkan results", func() {
	It("maps success to nil", func() {
		Expect(Vk(vk.Success, "vkCreateFence")).To(Succeed())
		Expect(VkFatal(vk.Success, "vkQueueSubmit")).To(Succeed())
	})

	It("marks loop failures as fatal", func() {
		err := VkFatal(vk.ErrorDeviceLost, "vkQueueSubmit")
		Expect(IsFatal(err)).To(BeTrue())
		Expect(IsFatal(Vk(vk.ErrorDeviceLost, "vkCreateFence"))).To(BeFalse())
	})

	It("stays fatal when wrapped", func() {
		err := errors.Wrap(VkFatal(vk.ErrorDeviceLost, "vkQueueSubmit"), "drawing a frame")
		Expect(IsFatal(err)).To(BeTrue())
	})
})

var _ = Describe("fatal path", func() {
	var (
		out      *bytes.Buffer
		exitCode int
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		exitCode = -1
		stderr = out
		exit = func(code int) { exitCode = code }
	})

	AfterEach(func() {
		stderr = os.Stderr
		exit = os.Exit
	})

	It("prints the error and exits with 1", func() {
		Fatal(Unrecoverable("unsupported layout transition"))
		Expect(exitCode).To(Equal(1))
		Expect(out.String()).To(ContainSubstring("unsupported layout transition"))
	})

	It("reports failed assertions with expression and message", func() {
		Assert(1+1 == 3, "1+1 == 3", "arithmetic is broken")
		Expect(exitCode).To(Equal(1))
		Expect(out.String()).To(ContainSubstring("[EXPR]: 1+1 == 3"))
		Expect(out.String()).To(ContainSubstring("[MSG]: arithmetic is broken"))
		Expect(out.String()).To(ContainSubstring("apperr_test.go"))
	})

	It("does nothing for a holding assertion", func() {
		Assert(true, "true", "never printed")
		Expect(exitCode).To(Equal(-1))
		Expect(out.Len()).To(BeZero())
	})
})
