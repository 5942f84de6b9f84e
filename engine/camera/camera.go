// Package camera owns the first-person pose and integrates it from input.
//
// A Controller is created once per viewer session and is mutated only by the
// frame loop owner: key and mouse events are applied as they are drained, then
// Step integrates movement for the elapsed frame time.
package camera

import (
	"github.com/chewxy/math32"

	"minemap/engine/mat4"
	"minemap/hal"
)

const (
	// DefaultSpeed is the movement speed in world units per second.
	DefaultSpeed = 5
	// DefaultSensitivity is the look rate in radians per pixel of mouse motion.
	DefaultSensitivity = 0.002
	// MaxPitch bounds pitch in both directions.
	MaxPitch = math32.Pi / 2
)

// Pose is the camera position plus yaw (about +Y) and pitch (about +X), in
// radians.
type Pose struct {
	Position mat4.Vec3
	Yaw      float32
	Pitch    float32
}

// Bindings maps the four movement directions to keys.
type Bindings struct {
	Forward hal.KeyCode
	Back    hal.KeyCode
	Left    hal.KeyCode
	Right   hal.KeyCode
}

func DefaultBindings() Bindings {
	return Bindings{Forward: hal.KeyW, Back: hal.KeyS, Left: hal.KeyA, Right: hal.KeyD}
}

// Controller accumulates the pose from key state, mouse motion and elapsed time.
type Controller struct {
	Speed       float32
	Sensitivity float32
	Bindings    Bindings

	// Captured reports whether relative mouse motion should steer the view.
	// A nil predicate means never.
	Captured func() bool

	start   Pose
	pose    Pose
	pressed map[hal.KeyCode]bool
}

// New returns a controller at start with default speed, sensitivity and WASD
// bindings.
func New(start Pose) *Controller {
	start.Pitch = clampPitch(start.Pitch)
	return &Controller{
		Speed:       DefaultSpeed,
		Sensitivity: DefaultSensitivity,
		Bindings:    DefaultBindings(),
		start:       start,
		pose:        start,
		pressed:     make(map[hal.KeyCode]bool),
	}
}

func (c *Controller) Pose() Pose { return c.pose }

// SetPose replaces the pose; pitch is clamped.
func (c *Controller) SetPose(p Pose) {
	p.Pitch = clampPitch(p.Pitch)
	c.pose = p
}

// Reset returns to the starting pose and releases all keys.
func (c *Controller) Reset() {
	c.pose = c.start
	clear(c.pressed)
}

// HandleKey records a press or release. The last event for a key wins.
func (c *Controller) HandleKey(code hal.KeyCode, pressed bool) {
	if pressed {
		c.pressed[code] = true
		return
	}
	delete(c.pressed, code)
}

func (c *Controller) Pressed(code hal.KeyCode) bool { return c.pressed[code] }

// HandleMouseMotion turns the view by a relative mouse delta in pixels. Motion
// is ignored unless the pointer is captured.
func (c *Controller) HandleMouseMotion(dx, dy float32) {
	if c.Captured == nil || !c.Captured() {
		return
	}
	c.pose.Yaw -= dx * c.Sensitivity
	c.pose.Pitch = clampPitch(c.pose.Pitch - dy*c.Sensitivity)
}

// Step moves the camera for delta seconds of held movement keys. Each held key
// contributes its full speed, so diagonal movement is faster than straight.
func (c *Controller) Step(delta float32) {
	if !(delta > 0) || math32.IsInf(delta, 1) {
		return
	}
	speed := delta * c.Speed
	fwd := Forward(c.pose.Yaw)
	right := Right(c.pose.Yaw)

	var move mat4.Vec3
	if c.pressed[c.Bindings.Forward] {
		move = move.Add(fwd)
	}
	if c.pressed[c.Bindings.Back] {
		move = move.Sub(fwd)
	}
	if c.pressed[c.Bindings.Right] {
		move = move.Add(right)
	}
	if c.pressed[c.Bindings.Left] {
		move = move.Sub(right)
	}
	c.pose.Position = c.pose.Position.Add(move.Mul(speed))
}

// View returns the view matrix: RotateX(pitch), then RotateY(yaw), then the
// translation by the negated position.
func (c *Controller) View() mat4.Mat4 {
	return ViewMatrix(c.pose)
}

func ViewMatrix(p Pose) mat4.Mat4 {
	m := mat4.RotateX(mat4.Identity(), p.Pitch)
	m = mat4.RotateY(m, p.Yaw)
	return mat4.Translate(m, p.Position.Neg())
}

// Forward is the horizontal direction the view faces for yaw.
func Forward(yaw float32) mat4.Vec3 {
	s, c := math32.Sincos(yaw)
	return mat4.V3(s, 0, -c)
}

// Right is the horizontal strafe direction for yaw.
func Right(yaw float32) mat4.Vec3 {
	s, c := math32.Sincos(yaw)
	return mat4.V3(c, 0, s)
}

func clampPitch(p float32) float32 {
	if p > MaxPitch {
		return MaxPitch
	}
	if p < -MaxPitch {
		return -MaxPitch
	}
	if p != p {
		return 0
	}
	return p
}
