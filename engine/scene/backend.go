package scene

import (
	"errors"
	"time"

	"minemap/engine/mat4"
)

var (
	ErrNotSetUp = errors.New("scene: renderer is not set up")
	ErrStopped  = errors.New("scene: renderer stopped")
)

// Color is a flat RGBA colour with channels conventionally in [0,1].
type Color struct {
	R, G, B, A float32
}

func RGBA(r, g, b, a float32) Color { return Color{R: r, G: g, B: b, A: a} }

// Program names the two shader stages handed to the backend at setup.
type Program struct {
	Vertex   string
	Fragment string
}

// Backend is the rendering capability the renderer drives. It receives the
// static cube geometry once and then, per draw call, a combined matrix and a
// flat colour.
type Backend interface {
	// Link compiles and links the program. It is called once at setup.
	Link(p Program) error
	// Upload stores a triangle list (three vertices per triangle).
	Upload(vertices []mat4.Vec3) error
	// Size reports the current drawing surface size in pixels.
	Size() (w, h int)
	Clear(c Color)
	EnableDepth()
	// Draw rasterizes the uploaded geometry transformed by mvp.
	Draw(mvp mat4.Mat4, c Color) error
}

// Scheduler runs fn on the next host frame with the host's monotonic frame
// timestamp. Each call schedules exactly one invocation.
type Scheduler interface {
	RequestFrame(fn func(now time.Duration))
}
