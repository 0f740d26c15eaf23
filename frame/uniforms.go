package frame

import (
	"math"
	"time"

	"github.com/loov/hrtime"
	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/linmath"
)

// UniformBufferObject is the per-frame data read by the vertex shader. Each
// matrix is 64 bytes so the members keep the 16 byte alignment of std140.
type UniformBufferObject struct {
	Model linmath.Mat4x4
	View  linmath.Mat4x4
	Proj  linmath.Mat4x4
}

// RotationSpeed is how fast the model spins around the Z axis, in radians
// per second.
const RotationSpeed = math.Pi / 2

// NewUniforms computes the uniforms for a frame rendered elapsed time after
// start into an image of the given extent.
func NewUniforms(elapsed time.Duration, extent vk.Extent2D) UniformBufferObject {
	ubo := UniformBufferObject{}

	ubo.Model.Identity()
	ubo.Model.RotateZ(&ubo.Model, float32(elapsed.Seconds()*RotationSpeed))

	ubo.View.LookAt(
		&linmath.Vec3{2, 2, 2},
		&linmath.Vec3{0, 0, 0},
		&linmath.Vec3{0, 0, 1},
	)

	aspect := float32(1)
	if extent.Height > 0 {
		aspect = float32(extent.Width) / float32(extent.Height)
	}
	ubo.Proj.Perspective(float32(math.Pi/4), aspect, 0.1, 10)

	// Vulkan's clip space Y axis points down.
	ubo.Proj[1][1] *= -1

	return ubo
}

// Clock measures time since the start of rendering.
type Clock struct {
	start time.Duration
	now   func() time.Duration
}

// NewClock returns a Clock started now, backed by the high resolution timer.
func NewClock() *Clock {
	return newClock(hrtime.Now)
}

func newClock(now func() time.Duration) *Clock {
	return &Clock{start: now(), now: now}
}

// Elapsed returns the time since the clock was started.
func (c *Clock) Elapsed() time.Duration {
	return c.now() - c.start
}
