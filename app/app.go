// Package app wires the viewer together: the software backend over the host
// surface, the camera, the scene renderer, the HUD and the chunk load.
package app

import (
	"context"
	"fmt"

	"minemap/engine/camera"
	"minemap/engine/chunk"
	"minemap/engine/hud"
	"minemap/engine/mat4"
	"minemap/engine/raster"
	"minemap/engine/scene"
	"minemap/hal"
	"minemap/internal/buildinfo"
	"minemap/internal/config"
)

// App is one viewer session.
type App struct {
	cfg config.Config
	log hal.Logger

	in   hal.Input
	surf hal.Surface
	tgt  raster.RGBATarget

	rast     *raster.Rasterizer
	cam      *camera.Controller
	renderer *scene.Renderer

	console *hud.Console
	status  *hud.Status
	fps     hud.FPS

	showStatus  bool
	showConsole bool
	load        string
	cancelLoad  context.CancelFunc

	failed *failure
}

// New builds the viewer on h and starts its frame loop. When setup fails the
// error is logged and returned along with an App that only shows the failure;
// the host keeps running.
func New(h hal.HAL, cfg config.Config) (*App, error) {
	a := &App{
		cfg:         cfg,
		in:          h.Input(),
		surf:        h.Surface(),
		console:     hud.NewConsole(cfg.HUD.ConsoleLines),
		status:      hud.NewStatus(),
		showStatus:  cfg.HUD.Status,
		showConsole: cfg.HUD.Console,
	}
	a.log = hal.MultiLogger(h.Logger(), a.console)
	hal.Logf(a.log, "app: %s", buildinfo.String())

	start := cfg.Camera.Start
	a.cam = camera.New(camera.Pose{
		Position: mat4.V3(start.X, start.Y, start.Z),
		Yaw:      start.Yaw,
		Pitch:    start.Pitch,
	})
	a.cam.Speed = cfg.Camera.Speed
	a.cam.Sensitivity = cfg.Camera.Sensitivity
	if a.in != nil {
		a.cam.Captured = a.in.Captured
	}

	a.rast = raster.New(a.target)
	if cfg.Render.Wireframe {
		a.rast.Mode = raster.RenderWireframe
	}

	cc := cfg.Render.ClearColor
	a.renderer = scene.NewRenderer(a.rast, a.cam, scene.Options{
		FOVY:       cfg.Camera.FOVRadians(),
		Near:       cfg.Camera.Near,
		Far:        cfg.Camera.Far,
		ClearColor: scene.RGBA(cc[0], cc[1], cc[2], cc[3]),
		Program:    scene.Program{Vertex: raster.StageMVP, Fragment: cfg.Render.Fragment},
	})
	a.renderer.BeforeFrame = a.beforeFrame
	a.renderer.AfterDraw = a.afterDraw
	a.renderer.OnStop = a.onStop
	a.renderer.SetCubes(scene.DemoGrid(cfg.Render.GridSize, cfg.Render.GridSpacing))

	if err := a.renderer.Setup(); err != nil {
		a.fail("renderer setup failed", err, nil)
		return a, err
	}
	frames := recoveringFrames{Frames: h.Frames(), onPanic: a.onPanic}
	if err := a.renderer.Start(frames); err != nil {
		a.fail("renderer did not start", err, nil)
		return a, err
	}
	hal.Logf(a.log, "scene: %d cubes, program %s/%s", len(a.renderer.Cubes()), raster.StageMVP, cfg.Render.Fragment)

	if src := cfg.Chunk.Source; src != "" {
		if err := a.Load(src); err != nil {
			hal.Logf(a.log, "chunk: %v", err)
		}
	}
	return a, nil
}

// Step runs once per host tick. It only repaints the failure screen; the
// renderer drives itself through frame requests.
func (a *App) Step() error {
	if a.failed != nil {
		a.failed.draw(a.surfaceTarget())
	}
	return nil
}

// Close stops the frame loop and abandons any chunk load in flight.
func (a *App) Close() {
	if a.cancelLoad != nil {
		a.cancelLoad()
	}
	a.renderer.Stop()
}

func (a *App) Renderer() *scene.Renderer  { return a.renderer }
func (a *App) Camera() *camera.Controller { return a.cam }
func (a *App) Console() *hud.Console      { return a.console }

// Load fetches a chunk in the background and swaps it in as the cube set when
// it arrives. A failed load is logged and the current cubes stay.
func (a *App) Load(source string) error {
	comp, err := chunk.ParseCompression(a.cfg.Chunk.Compression)
	if err != nil {
		return err
	}
	loader := chunk.NewLoader(chunk.SchemeFetcher{File: chunk.FileFetcher{Root: a.cfg.Chunk.Root}})
	loader.Compression = comp
	loader.MaxBytes = a.cfg.Chunk.MaxBytes

	if a.cancelLoad != nil {
		a.cancelLoad()
	}
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if t := a.cfg.Chunk.Timeout; t > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), t)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	a.cancelLoad = cancel
	a.load = "loading"
	hal.Logf(a.log, "chunk: loading %s (%s)", source, comp)

	go func() {
		defer cancel()
		blocks, err := loader.Load(ctx, source)
		a.renderer.Post(func() {
			if err != nil {
				a.load = "failed"
				hal.Logf(a.log, "chunk: load %s: %v", source, err)
				return
			}
			a.renderer.SetCubes(scene.CubesFromBlocks(blocks))
			a.load = fmt.Sprintf("%d blocks", len(blocks))
			hal.Logf(a.log, "chunk: loaded %d blocks from %s", len(blocks), source)
		})
	}()
	return nil
}

func (a *App) beforeFrame(delta float32) {
	a.fps.Add(delta)
	if a.in == nil {
		return
	}
	keys, mouse := a.in.Keyboard(), a.in.Mouse()
	for {
		select {
		case ev := <-keys:
			a.handleKey(ev)
		case m := <-mouse:
			a.cam.HandleMouseMotion(m.DX, m.DY)
		default:
			return
		}
	}
}

func (a *App) handleKey(ev hal.KeyEvent) {
	a.cam.HandleKey(ev.Code, ev.Press)
	if !ev.Press {
		return
	}
	switch ev.Code {
	case hal.KeyF1:
		a.showStatus = !a.showStatus
	case hal.KeyF2:
		if a.rast.Mode == raster.RenderWireframe {
			a.rast.Mode = raster.RenderSolid
		} else {
			a.rast.Mode = raster.RenderWireframe
		}
	case hal.KeyF3:
		a.showConsole = !a.showConsole
	case hal.KeyR:
		a.cam.Reset()
		hal.Logf(a.log, "camera: reset")
	case hal.KeyEscape:
		a.in.ReleaseCapture()
	}
}

func (a *App) afterDraw(st scene.Stats) {
	t := a.surfaceTarget()
	if t == nil {
		return
	}
	if a.showStatus {
		captured := a.in != nil && a.in.Captured()
		a.status.Draw(t, hud.StatusLines(hud.Info{
			Pose:     a.cam.Pose(),
			Stats:    st,
			FPS:      a.fps.Rate(),
			Load:     a.load,
			Captured: captured,
		}))
	}
	if a.showConsole {
		a.console.Draw(t)
	}
}

func (a *App) onStop(err error) {
	if err != nil {
		a.fail("renderer stopped", err, nil)
		return
	}
	hal.Logf(a.log, "scene: stopped after %d frames", a.renderer.Stats().Frames)
}

func (a *App) onPanic(v any, stack []byte) {
	a.renderer.Stop()
	a.fail("frame panicked", panicError(v), stack)
}

func (a *App) fail(title string, err error, stack []byte) {
	a.failed = newFailure(title, err, stack)
	a.failed.log(a.log)
	a.failed.draw(a.surfaceTarget())
}

// surfaceTarget points the cached RGBA target at the current surface buffer.
func (a *App) surfaceTarget() *raster.RGBATarget {
	if a.surf == nil {
		return nil
	}
	w, h := a.surf.Size()
	pix := a.surf.Pixels()
	if w <= 0 || h <= 0 || len(pix) < w*h*4 {
		return nil
	}
	a.tgt = raster.RGBATarget{Pix: pix, Stride: w * 4, W: w, H: h}
	return &a.tgt
}

func (a *App) target() raster.Target {
	if t := a.surfaceTarget(); t != nil {
		return t
	}
	return nil
}
