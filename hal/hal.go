package hal

import (
	"errors"
	"time"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var ErrNotImplemented = errors.New("not implemented")

// Surface is the RGBA pixel buffer the viewer renders into. Rows are tightly
// packed (stride = 4*width) in image.RGBA order.
type Surface interface {
	Size() (w, h int)
	Pixels() []byte
}

// KeyCode is a minimal key identifier.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
	KeySpace
	KeyW
	KeyA
	KeyS
	KeyD
	KeyR
	KeyF1
	KeyF2
	KeyF3
)

// KeyEvent is a keyboard event.
type KeyEvent struct {
	Code  KeyCode
	Press bool
}

// MouseMotion is a relative pointer movement in pixels.
type MouseMotion struct {
	DX, DY float32
}

// Input provides keyboard and pointer events (best-effort on each platform).
//
// Pointer motion is only reported while the pointer is captured.
type Input interface {
	Keyboard() <-chan KeyEvent
	Mouse() <-chan MouseMotion
	RequestCapture()
	ReleaseCapture()
	Captured() bool
}

// Frames runs callbacks on the next host frame with the host's monotonic
// timestamp. Each request fires exactly once.
type Frames interface {
	RequestFrame(fn func(now time.Duration))
}

// HAL provides the only contact point between the viewer and the outside world.
type HAL interface {
	Logger() Logger
	Surface() Surface
	Input() Input
	Frames() Frames
}
