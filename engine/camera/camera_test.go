package camera

import (
	"math/rand/v2"
	"testing"

	"github.com/chewxy/math32"

	"minemap/engine/mat4"
	"minemap/hal"
)

func near(a, b float32) bool { return math32.Abs(a-b) < 1e-4 }

func captured() bool { return true }

func TestPitchAlwaysClamped(t *testing.T) {
	c := New(Pose{})
	c.Captured = captured
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 5000; i++ {
		dx := float32(rng.NormFloat64() * 400)
		dy := float32(rng.NormFloat64() * 400)
		c.HandleMouseMotion(dx, dy)
		p := c.Pose().Pitch
		if p < -MaxPitch || p > MaxPitch {
			t.Fatalf("step %d: pitch %v out of range", i, p)
		}
	}

	c.HandleMouseMotion(0, -1e9)
	if c.Pose().Pitch != MaxPitch {
		t.Fatalf("pitch = %v, want %v", c.Pose().Pitch, MaxPitch)
	}
	c.HandleMouseMotion(0, 1e9)
	if c.Pose().Pitch != -MaxPitch {
		t.Fatalf("pitch = %v, want %v", c.Pose().Pitch, -MaxPitch)
	}
}

func TestMouseIgnoredWhenNotCaptured(t *testing.T) {
	c := New(Pose{})
	c.HandleMouseMotion(100, 100)
	if c.Pose() != (Pose{}) {
		t.Fatalf("pose changed without capture: %+v", c.Pose())
	}

	c.Captured = func() bool { return false }
	c.HandleMouseMotion(100, 100)
	if c.Pose() != (Pose{}) {
		t.Fatalf("pose changed without capture: %+v", c.Pose())
	}
}

func TestMouseSigns(t *testing.T) {
	c := New(Pose{})
	c.Captured = captured
	c.HandleMouseMotion(10, 20)
	p := c.Pose()
	if !near(p.Yaw, -10*DefaultSensitivity) || !near(p.Pitch, -20*DefaultSensitivity) {
		t.Fatalf("pose = %+v", p)
	}
}

func TestZeroDeltaDoesNotMove(t *testing.T) {
	start := Pose{Position: mat4.V3(1, 2, 3), Yaw: 0.7}
	c := New(start)
	for _, k := range []hal.KeyCode{hal.KeyW, hal.KeyA, hal.KeyS, hal.KeyD} {
		c.HandleKey(k, true)
	}
	c.HandleKey(hal.KeyW, true)

	c.Step(0)
	c.Step(-1)
	c.Step(math32.NaN())
	if c.Pose() != start {
		t.Fatalf("pose moved: %+v", c.Pose())
	}
}

func TestForwardMovesAlongView(t *testing.T) {
	c := New(Pose{Yaw: 0.6, Pitch: 0.2})
	c.HandleKey(hal.KeyW, true)
	c.Step(0.5)

	want := Forward(0.6).Mul(0.5 * DefaultSpeed)
	got := c.Pose().Position
	if !near(got.X, want.X) || !near(got.Y, 0) || !near(got.Z, want.Z) {
		t.Fatalf("position = %+v, want %+v", got, want)
	}

	// A point one unit ahead (horizontally) must sit straight ahead in view
	// space once pitch is removed.
	flat := New(Pose{Yaw: 0.6})
	ahead := mat4.MulVec4(flat.View(), mat4.Vec4{X: Forward(0.6).X, Z: Forward(0.6).Z, W: 1})
	if !near(ahead.X, 0) || !near(ahead.Y, 0) || !near(ahead.Z, -1) {
		t.Fatalf("forward point in view space = %+v", ahead)
	}
	side := mat4.MulVec4(flat.View(), mat4.Vec4{X: Right(0.6).X, Z: Right(0.6).Z, W: 1})
	if !near(side.X, 1) || !near(side.Z, 0) {
		t.Fatalf("right point in view space = %+v", side)
	}
}

func TestDiagonalIsNotNormalized(t *testing.T) {
	c := New(Pose{})
	c.HandleKey(hal.KeyW, true)
	c.HandleKey(hal.KeyD, true)
	c.Step(1)

	l := mat4.Len(c.Pose().Position)
	if !near(l, DefaultSpeed*math32.Sqrt2) {
		t.Fatalf("diagonal distance = %v", l)
	}
}

func TestOpposingKeysCancel(t *testing.T) {
	c := New(Pose{})
	c.HandleKey(hal.KeyW, true)
	c.HandleKey(hal.KeyS, true)
	c.Step(1)
	if mat4.Len(c.Pose().Position) > 1e-5 {
		t.Fatalf("opposing keys moved camera to %+v", c.Pose().Position)
	}
}

func TestKeyEventsIdempotent(t *testing.T) {
	c := New(Pose{})
	c.HandleKey(hal.KeyW, true)
	c.HandleKey(hal.KeyW, true)
	c.HandleKey(hal.KeyW, false)
	if c.Pressed(hal.KeyW) {
		t.Fatalf("release after repeated press should win")
	}
	c.HandleKey(hal.KeyW, false)
	if c.Pressed(hal.KeyW) {
		t.Fatalf("repeated release changed state")
	}
}

func TestReset(t *testing.T) {
	start := Pose{Position: mat4.V3(0, 2, 10)}
	c := New(start)
	c.Captured = captured
	c.HandleKey(hal.KeyD, true)
	c.HandleMouseMotion(50, 50)
	c.Step(1)
	c.Reset()
	if c.Pose() != start || c.Pressed(hal.KeyD) {
		t.Fatalf("reset left pose %+v pressed=%v", c.Pose(), c.Pressed(hal.KeyD))
	}
}

func TestViewTranslatesByNegatedPosition(t *testing.T) {
	v := ViewMatrix(Pose{Position: mat4.V3(1, 2, 3)})
	if got := v.Position(); got != mat4.V3(-1, -2, -3) {
		t.Fatalf("view translation = %+v", got)
	}
}
