package hud

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"testing"

	"minemap/engine/camera"
	"minemap/engine/mat4"
	"minemap/engine/raster"
	"minemap/engine/scene"

	"github.com/chewxy/math32"
)

func TestDisplayClipsToRegion(t *testing.T) {
	tgt := raster.NewRGBATarget(10, 10)
	d := NewDisplay(tgt, image.Rect(2, 3, 6, 5))
	if w, h := d.Size(); w != 4 || h != 2 {
		t.Fatalf("size %dx%d", w, h)
	}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	d.SetPixel(0, 0, white)
	d.SetPixel(4, 0, white)
	d.SetPixel(-1, 1, white)
	if tgt.At(2, 3) != raster.RGB(255, 255, 255) {
		t.Fatalf("origin pixel not written")
	}
	if tgt.At(6, 3) != (raster.Color{}) || tgt.At(1, 4) != (raster.Color{}) {
		t.Fatalf("write escaped the region")
	}

	_ = d.FillRectangle(-5, -5, 100, 100, color.RGBA{R: 9, A: 255})
	n := 0
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if tgt.At(x, y).R == 9 {
				n++
			}
		}
	}
	if n != 8 {
		t.Fatalf("fill touched %d pixels, want 8", n)
	}
}

func TestDisplayScrollUp(t *testing.T) {
	tgt := raster.NewRGBATarget(3, 4)
	d := NewDisplay(tgt, image.Rect(0, 0, 3, 4))
	for y := 0; y < 4; y++ {
		_ = d.FillRectangle(0, int16(y), 3, 1, color.RGBA{R: uint8(10 * (y + 1)), A: 255})
	}
	bg := color.RGBA{B: 7, A: 255}
	if err := d.ScrollUp(1, bg); err != nil {
		t.Fatalf("ScrollUp: %v", err)
	}
	for y, want := range []uint8{20, 30, 40} {
		if got := tgt.At(1, y).R; got != want {
			t.Fatalf("row %d R=%d, want %d", y, got, want)
		}
	}
	if tgt.At(1, 3) != raster.RGB(0, 0, 7) {
		t.Fatalf("exposed row = %+v", tgt.At(1, 3))
	}
}

func TestConsoleKeepsNewestLines(t *testing.T) {
	c := NewConsole(3)
	for i := 0; i < 5; i++ {
		c.WriteLineString(fmt.Sprintf("line %d", i))
	}
	c.WriteLineBytes([]byte("esc\x1b[31m"))
	got := c.Lines()
	want := []string{"line 3", "line 4", "esc [31m"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("lines = %q", got)
	}
	if tail := c.Tail(2); len(tail) != 2 || tail[1] != "esc [31m" {
		t.Fatalf("tail = %q", tail)
	}
	if c.Tail(0) != nil {
		t.Fatalf("Tail(0) should be nil")
	}
}

func TestConsoleDrawsAtBottom(t *testing.T) {
	tgt := raster.NewRGBATarget(200, 120)
	tgt.Clear(raster.RGB(200, 0, 0))
	c := NewConsole(0)
	c.WriteLineString("chunk: loaded 12 blocks")
	c.Draw(tgt)

	if tgt.At(5, 2) != raster.RGB(200, 0, 0) {
		t.Fatalf("console drew over the top of the frame")
	}
	changed := 0
	for y := 120 - c.Rows*lineHeight; y < 120; y++ {
		for x := 0; x < 200; x++ {
			if tgt.At(x, y) != raster.RGB(200, 0, 0) {
				changed++
			}
		}
	}
	if changed == 0 {
		t.Fatalf("console drew nothing")
	}
}

func TestStatusLines(t *testing.T) {
	info := Info{
		Pose:  camera.Pose{Position: mat4.V3(1, 2.3, -3), Yaw: -math32.Pi / 2},
		Stats: scene.Stats{Cubes: 64},
		FPS:   59.6,
		Load:  "ok",
	}
	lines := StatusLines(info)
	joined := strings.Join(lines, "\n")
	for _, want := range []string{"pos 1.0 2.3 -3.0", "yaw 270 pitch 0", "cubes 64  fps 60", "chunk ok", "click to look"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in\n%s", want, joined)
		}
	}
	info.Captured = true
	if strings.Contains(strings.Join(StatusLines(info), "\n"), "click") {
		t.Fatalf("capture hint shown while captured")
	}
}

func TestStatusDrawsPanel(t *testing.T) {
	tgt := raster.NewRGBATarget(160, 100)
	tgt.Clear(raster.RGB(255, 255, 255))
	NewStatus().Draw(tgt, []string{"pos 0 0 0"})
	if tgt.At(0, 0) == raster.RGB(255, 255, 255) {
		t.Fatalf("panel not drawn")
	}
	if tgt.At(159, 99) != raster.RGB(255, 255, 255) {
		t.Fatalf("panel spilled to the far corner")
	}
}

func TestFPSSmoothing(t *testing.T) {
	var f FPS
	f.Add(0)
	if f.Rate() != 0 {
		t.Fatalf("zero delta counted")
	}
	f.Add(1.0 / 50)
	if r := f.Rate(); r < 49.9 || r > 50.1 {
		t.Fatalf("rate = %v", r)
	}
	for i := 0; i < 200; i++ {
		f.Add(1.0 / 100)
	}
	if r := f.Rate(); r < 99 || r > 101 {
		t.Fatalf("rate = %v", r)
	}
}
