//go:build cgo

package hal

import (
	"os"

	"minemap/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunWindow starts a desktop window that presents the surface and forwards
// keyboard and pointer input. It blocks until the window closes or step fails.
func RunWindow(cfg WindowConfig, newApp func(HAL) func() error) error {
	cfg = cfg.withDefaults()
	h := newHost(cfg.Width/cfg.Scale, cfg.Height/cfg.Scale, os.Stderr)
	step := newApp(h)

	g := &hostGame{h: h, step: step, scale: cfg.Scale}
	title := cfg.Title
	if title == "" {
		title = "minemap"
	}
	ebiten.SetWindowTitle(title + " (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.TPS)
	return ebiten.RunGame(g)
}

type hostGame struct {
	h     *hostHAL
	step  func() error
	scale int
}

func (g *hostGame) Update() error {
	g.h.in.poll()
	if g.step != nil {
		if err := g.step(); err != nil {
			return err
		}
	}
	g.h.frames.fire(g.h.frames.since())
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	s := g.h.surf
	w, h := s.Size()
	b := screen.Bounds()
	// A resize between Update and Draw leaves a stale frame; skip it.
	if b.Dx() != w || b.Dy() != h || w == 0 || h == 0 {
		return
	}
	screen.WritePixels(s.Pixels())
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := outsideWidth/g.scale, outsideHeight/g.scale
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	g.h.surf.resize(w, h)
	return w, h
}
