// Package scene owns the viewer's draw loop.
//
// A Renderer holds the cube set, the projection and the camera controller, and
// drives an opaque Backend once per host frame. The loop is cooperative: each
// frame runs to completion on the loop owner and then asks the Scheduler for
// the next one, so all camera and cube-set mutation happens in one place.
// Work from other goroutines (an async chunk load, input callbacks) is handed
// over with Post and runs at the top of the next frame.
package scene

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"minemap/engine/camera"
	"minemap/engine/mat4"
)

// Options configure projection and clearing.
type Options struct {
	FOVY       float32 // radians
	Near       float32
	Far        float32
	ClearColor Color
	Program    Program
}

// DefaultOptions matches the viewer's stock camera.
func DefaultOptions() Options {
	return Options{
		FOVY:       45 * (3.14159265 / 180),
		Near:       0.1,
		Far:        200,
		ClearColor: Color{R: 0.53, G: 0.74, B: 0.92, A: 1},
	}
}

// Stats describe the most recent frame.
type Stats struct {
	Frames uint64
	Cubes  int
	Draws  int
	Delta  float32 // seconds
	Width  int
	Height int
}

// Renderer draws the cube set every frame.
type Renderer struct {
	// BeforeFrame runs on the loop owner after posted work and before the camera
	// integrates delta. The viewer drains input here.
	BeforeFrame func(delta float32)
	// AfterDraw runs after the cube draw calls of a frame.
	AfterDraw func(Stats)
	// OnStop runs once when the loop stops; err is nil after Stop.
	OnStop func(err error)

	backend Backend
	cam     *camera.Controller
	opts    Options

	mu    sync.Mutex
	queue []func()

	cubes  []Cube
	proj   mat4.Mat4
	aspect float32

	ready   bool
	started bool
	stopped atomic.Bool
	sched   Scheduler

	last    time.Duration
	hasLast bool

	err   error
	stats Stats
}

// NewRenderer returns a renderer for backend and cam. Call Setup before Start.
func NewRenderer(backend Backend, cam *camera.Controller, opts Options) *Renderer {
	return &Renderer{backend: backend, cam: cam, opts: opts}
}

// Setup links the program, uploads the cube geometry and computes the
// projection. A renderer whose setup failed never starts.
func (r *Renderer) Setup() error {
	if r.backend == nil {
		return fmt.Errorf("%w: no backend", ErrNotSetUp)
	}
	if err := r.backend.Link(r.opts.Program); err != nil {
		return fmt.Errorf("scene: link program: %w", err)
	}
	if err := r.backend.Upload(CubeMesh()); err != nil {
		return fmt.Errorf("scene: upload cube: %w", err)
	}
	r.updateProjection()
	r.ready = true
	return nil
}

// Start requests the first frame from s.
func (r *Renderer) Start(s Scheduler) error {
	if !r.ready {
		return ErrNotSetUp
	}
	if r.stopped.Load() {
		return ErrStopped
	}
	if r.started {
		return nil
	}
	r.started = true
	r.sched = s
	s.RequestFrame(r.tick)
	return nil
}

// Stop ends the loop. The flag is checked at the top of each frame, so at most
// the frame already scheduled is skipped. Safe from any goroutine.
func (r *Renderer) Stop() {
	r.stopped.Store(true)
}

func (r *Renderer) Running() bool { return r.started && !r.stopped.Load() }

// Err returns the error that stopped the loop, if any.
func (r *Renderer) Err() error { return r.err }

// Post queues fn to run on the loop owner before the next frame. Safe from any
// goroutine.
func (r *Renderer) Post(fn func()) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.queue = append(r.queue, fn)
	r.mu.Unlock()
}

// SetCubes replaces the cube set. Call it from the loop owner (or via Post).
func (r *Renderer) SetCubes(cubes []Cube) {
	r.cubes = cubes
	r.stats.Cubes = len(cubes)
}

func (r *Renderer) Cubes() []Cube { return r.cubes }

func (r *Renderer) Stats() Stats { return r.stats }

func (r *Renderer) Projection() mat4.Mat4 { return r.proj }

func (r *Renderer) Camera() *camera.Controller { return r.cam }

func (r *Renderer) tick(now time.Duration) {
	if r.stopped.Load() {
		r.finish(nil)
		return
	}
	if err := r.Frame(now); err != nil {
		r.stopped.Store(true)
		r.finish(err)
		return
	}
	r.sched.RequestFrame(r.tick)
}

func (r *Renderer) finish(err error) {
	if r.err == nil {
		r.err = err
	}
	if r.OnStop != nil {
		fn := r.OnStop
		r.OnStop = nil
		fn(err)
	}
}

// Frame renders one frame for the host timestamp now. The first frame uses a
// zero delta, as does any frame whose timestamp does not advance.
func (r *Renderer) Frame(now time.Duration) error {
	if !r.ready {
		return ErrNotSetUp
	}

	var delta float32
	if r.hasLast && now > r.last {
		delta = float32((now - r.last).Seconds())
	}
	r.last, r.hasLast = now, true

	r.drain()
	if r.BeforeFrame != nil {
		r.BeforeFrame(delta)
	}
	if r.cam != nil {
		r.cam.Step(delta)
	}

	w, h := r.backend.Size()
	r.updateProjection()

	r.backend.Clear(r.opts.ClearColor)
	r.backend.EnableDepth()

	draws := 0
	if w > 0 && h > 0 {
		view := mat4.Identity()
		if r.cam != nil {
			view = r.cam.View()
		}
		pv := mat4.Mul(r.proj, view)
		for _, c := range r.cubes {
			model := mat4.Translate(mat4.Identity(), c.Pos)
			if err := r.backend.Draw(mat4.Mul(pv, model), c.Color); err != nil {
				return fmt.Errorf("scene: draw cube %d: %w", draws, err)
			}
			draws++
		}
	}

	r.stats.Frames++
	r.stats.Cubes = len(r.cubes)
	r.stats.Draws = draws
	r.stats.Delta = delta
	r.stats.Width, r.stats.Height = w, h
	if r.AfterDraw != nil {
		r.AfterDraw(r.stats)
	}
	return nil
}

func (r *Renderer) drain() {
	r.mu.Lock()
	q := r.queue
	r.queue = nil
	r.mu.Unlock()
	for _, fn := range q {
		fn()
	}
}

// updateProjection recomputes the projection when the surface aspect changed.
func (r *Renderer) updateProjection() {
	w, h := r.backend.Size()
	if w <= 0 || h <= 0 {
		return
	}
	aspect := float32(w) / float32(h)
	if r.ready && aspect == r.aspect {
		return
	}
	r.aspect = aspect
	r.proj = mat4.Perspective(r.opts.FOVY, aspect, r.opts.Near, r.opts.Far)
}
