package hud

import (
	"fmt"
	"image"
	"image/color"

	"minemap/engine/camera"
	"minemap/engine/raster"
	"minemap/engine/scene"

	"github.com/chewxy/math32"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

const (
	lineHeight = 10
	lineOffset = 8
	padding    = 3
)

var (
	textColor  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	panelColor = color.RGBA{A: 0x90}
)

// Info is everything the status block shows.
type Info struct {
	Pose     camera.Pose
	Stats    scene.Stats
	FPS      float32
	Load     string
	Captured bool
}

// StatusLines formats info as the status block's text.
func StatusLines(info Info) []string {
	p := info.Pose
	lines := []string{
		fmt.Sprintf("pos %.1f %.1f %.1f", p.Position.X, p.Position.Y, p.Position.Z),
		fmt.Sprintf("yaw %.0f pitch %.0f", degrees(p.Yaw), degrees(p.Pitch)),
		fmt.Sprintf("cubes %d  fps %.0f", info.Stats.Cubes, info.FPS),
	}
	if info.Load != "" {
		lines = append(lines, "chunk "+info.Load)
	}
	if !info.Captured {
		lines = append(lines, "click to look, esc to release")
	}
	return lines
}

func degrees(rad float32) float32 {
	d := math32.Mod(rad*180/math32.Pi, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// Status draws text lines in a dark panel at the top-left of the target.
type Status struct {
	Font tinyfont.Fonter
}

func NewStatus() *Status {
	return &Status{Font: &proggy.TinySZ8pt7b}
}

func (s *Status) Draw(t *raster.RGBATarget, lines []string) {
	if t == nil || len(lines) == 0 {
		return
	}
	w := 0
	for _, l := range lines {
		_, lw := tinyfont.LineWidth(s.Font, l)
		w = max(w, int(lw))
	}
	h := len(lines)*lineHeight + 2*padding
	d := NewDisplay(t, image.Rect(0, 0, w+2*padding, h))
	dw, dh := d.Size()
	_ = d.FillRectangle(0, 0, dw, dh, panelColor)
	for i, l := range lines {
		tinyfont.WriteLine(d, s.Font, padding, int16(padding+i*lineHeight+lineOffset), l, textColor)
	}
}

// FPS is an exponentially smoothed frame rate.
type FPS struct {
	rate float32
}

func (f *FPS) Add(delta float32) {
	if !(delta > 0) {
		return
	}
	inst := 1 / delta
	if f.rate == 0 {
		f.rate = inst
		return
	}
	f.rate += (inst - f.rate) * 0.1
}

func (f *FPS) Rate() float32 { return f.rate }
