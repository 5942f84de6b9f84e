// Package hud draws the viewer's overlay: a status block and an on-screen log
// console. Text goes through tinyfont and tinyterm, which only need a
// drivers.Displayer, so Display adapts a region of the RGBA render target to
// that interface.
package hud

import (
	"image"
	"image/color"

	"minemap/engine/raster"

	"tinygo.org/x/drivers"
)

// Display is a drivers.Displayer (and tinyterm.Displayer) over a rectangle of
// an RGBA target. Coordinates are relative to the rectangle's origin and
// clipped to it.
type Display struct {
	t *raster.RGBATarget
	r image.Rectangle
}

// NewDisplay returns a display over r, clipped to the target bounds.
func NewDisplay(t *raster.RGBATarget, r image.Rectangle) *Display {
	if t == nil {
		return &Display{}
	}
	return &Display{t: t, r: r.Intersect(image.Rect(0, 0, t.W, t.H))}
}

func (d *Display) Size() (x, y int16) {
	return int16(d.r.Dx()), int16(d.r.Dy())
}

func (d *Display) SetPixel(x, y int16, c color.RGBA) {
	if d.t == nil || int(x) < 0 || int(y) < 0 || int(x) >= d.r.Dx() || int(y) >= d.r.Dy() {
		return
	}
	d.t.SetPixel(d.r.Min.X+int(x), d.r.Min.Y+int(y), raster.RGBA(c.R, c.G, c.B, c.A))
}

// Display is a no-op; the target is presented by the host after the frame.
func (d *Display) Display() error { return nil }

func (d *Display) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	if d.t == nil {
		return nil
	}
	rect := image.Rect(int(x), int(y), int(x)+int(width), int(y)+int(height)).
		Add(d.r.Min).Intersect(d.r)
	if rect.Empty() {
		return nil
	}
	col := raster.RGBA(c.R, c.G, c.B, c.A)
	for py := rect.Min.Y; py < rect.Max.Y; py++ {
		for px := rect.Min.X; px < rect.Max.X; px++ {
			d.t.SetPixel(px, py, col)
		}
	}
	return nil
}

// ScrollUp shifts the region up by lines pixels and clears the exposed rows.
// tinyterm uses it for software scrolling.
func (d *Display) ScrollUp(lines int16, bg color.RGBA) error {
	if d.t == nil || lines <= 0 {
		return nil
	}
	w, h := d.r.Dx(), d.r.Dy()
	n := int(lines)
	if n >= h {
		return d.FillRectangle(0, 0, int16(w), int16(h), bg)
	}
	rowBytes := w * 4
	for y := d.r.Min.Y; y < d.r.Max.Y-n; y++ {
		dst := y*d.t.Stride + d.r.Min.X*4
		src := (y+n)*d.t.Stride + d.r.Min.X*4
		copy(d.t.Pix[dst:dst+rowBytes], d.t.Pix[src:src+rowBytes])
	}
	return d.FillRectangle(0, int16(h-n), int16(w), int16(n), bg)
}

func (d *Display) SetScroll(line int16) {}

func (d *Display) SetRotation(rotation drivers.Rotation) error { return nil }

var _ drivers.Displayer = (*Display)(nil)
