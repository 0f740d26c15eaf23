package renderer

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"testing/fstest"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
	"vkframes/frame"
	"vkframes/logging"
	"vkframes/shaders"
)

const quadOBJ = `o quad
v -0.5 -0.5 0.0
v 0.5 -0.5 0.0
v 0.5 0.5 0.0
v -0.5 0.5 0.0
vt 0.0 0.0
vt 1.0 0.0
vt 1.0 1.0
vt 0.0 1.0
f 1/1 2/2 3/3 4/4
`

func spirv() []byte {
	code := make([]byte, 8)
	binary.LittleEndian.PutUint32(code, shaders.Magic)
	return code
}

func pngTexture(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	buf := &bytes.Buffer{}
	Expect(png.Encode(buf, img)).To(Succeed())
	return buf.Bytes()
}

func assetsFS() fstest.MapFS {
	return fstest.MapFS{
		"models/viking_room.obj":   {Data: []byte(quadOBJ)},
		"textures/viking_room.png": {Data: pngTexture(4, 2)},
		shaders.VertexPath:         {Data: spirv()},
		shaders.FragmentPath:       {Data: spirv()},
	}
}

var _ = Describe("Config", func() {
	var cfg Config

	BeforeEach(func() {
		cfg = DefaultConfig()
		cfg.Assets = assetsFS()
	})

	It("accepts the defaults", func() {
		Expect(cfg.Validate()).To(Succeed())
	})

	DescribeTable("rejects",
		func(change func(*Config)) {
			change(&cfg)
			Expect(cfg.Validate()).NotTo(Succeed())
		},
		Entry("a zero width", func(c *Config) { c.Width = 0 }),
		Entry("a negative height", func(c *Config) { c.Height = -1 }),
		Entry("missing assets", func(c *Config) { c.Assets = nil }),
		Entry("a missing model", func(c *Config) { c.ModelPath = "" }),
		Entry("zero frames in flight", func(c *Config) { c.FramesInFlight = 0 }),
		Entry("three frames in flight", func(c *Config) { c.FramesInFlight = 3 }),
	)
})

var _ = Describe("cleanupStack", func() {
	It("runs in reverse order exactly once", func() {
		var order []string
		stack := &cleanupStack{logger: logging.Discard()}
		for _, name := range []string{"instance", "surface", "device"} {
			name := name
			stack.push(name, func() { order = append(order, name) })
		}
		Expect(stack.len()).To(Equal(3))

		stack.run()
		stack.run()

		Expect(order).To(Equal([]string{"device", "surface", "instance"}))
		Expect(stack.len()).To(BeZero())
	})
})

var _ = Describe("instanceExtensions", func() {
	window := []string{"VK_KHR_surface", "VK_KHR_xcb_surface"}

	It("uses the window system extensions", func() {
		Expect(instanceExtensions(window, false)).To(Equal(window))
	})

	It("adds debug report when debugging", func() {
		extensions := instanceExtensions(window, true)
		Expect(extensions).To(HaveLen(3))
		Expect(extensions[2]).To(Equal(vk.ExtDebugReportExtensionName))
		Expect(window).To(HaveLen(2))
	})
})

var _ = Describe("swapchain results", func() {
	DescribeTable("acquire",
		func(res vk.Result, want frame.AcquireStatus) {
			status, err := acquireStatus(res)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(want))
		},
		Entry("success", vk.Success, frame.AcquireSuccess),
		Entry("suboptimal", vk.Suboptimal, frame.AcquireSuboptimal),
		Entry("out of date", vk.ErrorOutOfDate, frame.AcquireOutOfDate),
	)

	DescribeTable("present",
		func(res vk.Result, want frame.PresentStatus) {
			status, err := presentStatus(res)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(want))
		},
		Entry("success", vk.Success, frame.PresentSuccess),
		Entry("suboptimal", vk.Suboptimal, frame.PresentSuboptimal),
		Entry("out of date", vk.ErrorOutOfDate, frame.PresentOutOfDate),
	)

	It("reports other results as fatal errors", func() {
		_, err := acquireStatus(vk.ErrorDeviceLost)
		Expect(err).To(HaveOccurred())
		Expect(apperr.IsFatal(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("failed to acquire swap chain image"))

		_, err = presentStatus(vk.ErrorSurfaceLost)
		Expect(err).To(HaveOccurred())
		Expect(apperr.IsFatal(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("failed to present swap chain image"))
	})
})

var _ = Describe("framebufferFor", func() {
	It("picks the framebuffer of the acquired image", func() {
		framebuffers := make([]vk.Framebuffer, 3)
		Expect(framebufferFor(framebuffers, 2)).To(Equal(framebuffers[2]))
		Expect(framebufferFor(framebuffers, 0)).To(Equal(framebuffers[0]))
	})
})

var _ = Describe("samplerInfo", func() {
	It("covers every mip level with the device anisotropy", func() {
		info := samplerInfo(16, 10)
		Expect(info.AnisotropyEnable).To(Equal(vk.Bool32(vk.True)))
		Expect(info.MaxAnisotropy).To(Equal(float32(16)))
		Expect(info.MinLod).To(BeZero())
		Expect(info.MaxLod).To(Equal(float32(10)))
	})
})

var _ = Describe("initError", func() {
	It("keeps the kind of typed errors", func() {
		err := initError("pickPhysicalDevice", apperr.New(apperr.NoSuitableDevice, "no GPU"))
		Expect(apperr.KindOf(err)).To(Equal(apperr.NoSuitableDevice))
		Expect(err.Error()).To(ContainSubstring("pickPhysicalDevice"))
	})

	It("turns other errors into resource creation failures", func() {
		err := initError("createRenderPass", apperr.Vk(vk.ErrorOutOfDeviceMemory, "vkCreateRenderPass"))
		Expect(apperr.KindOf(err)).To(Equal(apperr.ResourceCreationFailed))
	})

	It("leaves fatal errors alone", func() {
		err := initError("createTexture", apperr.Unrecoverable("no linear blit"))
		Expect(apperr.IsFatal(err)).To(BeTrue())
		Expect(apperr.KindOf(err)).To(Equal(apperr.Unknown))
	})
})

var _ = Describe("loadAssets", func() {
	It("decodes everything", func() {
		cfg := DefaultConfig()
		cfg.Assets = assetsFS()

		a, err := loadAssets(cfg, logging.Discard())
		Expect(err).NotTo(HaveOccurred())

		Expect(a.texture.Width).To(Equal(uint32(4)))
		Expect(a.texture.Height).To(Equal(uint32(2)))
		Expect(a.texture.Pix).To(HaveLen(4 * 2 * 4))
		Expect(a.mesh.Indices).To(Equal([]uint32{0, 1, 2, 0, 2, 3}))
		Expect(a.vertexShader).To(Equal(spirv()))
		Expect(a.fragmentShader).To(Equal(spirv()))
	})

	It("reports missing files", func() {
		fsys := assetsFS()
		delete(fsys, shaders.FragmentPath)

		cfg := DefaultConfig()
		cfg.Assets = fsys

		_, err := loadAssets(cfg, logging.Discard())
		Expect(apperr.KindOf(err)).To(Equal(apperr.AssetNotFound))
	})

	It("reports undecodable textures", func() {
		fsys := assetsFS()
		fsys["textures/viking_room.png"] = &fstest.MapFile{Data: []byte("not an image")}

		cfg := DefaultConfig()
		cfg.Assets = fsys

		_, err := loadAssets(cfg, logging.Discard())
		Expect(err).To(HaveOccurred())
		Expect(apperr.KindOf(err)).To(Equal(apperr.AssetDecodeFailed))
	})
})
