package raster

// Target is a minimal pixel target for software rendering.
//
// Implementations should clip out-of-bounds coordinates.
type Target interface {
	Size() (w, h int)
	SetPixel(x, y int, c Color)
	Clear(c Color)
}

// RGBATarget renders into an 8-bit RGBA buffer (image.RGBA layout).
type RGBATarget struct {
	Pix    []byte
	Stride int // bytes per row
	W      int
	H      int
}

// NewRGBATarget allocates a w×h target.
func NewRGBATarget(w, h int) *RGBATarget {
	return &RGBATarget{Pix: make([]byte, w*h*4), Stride: w * 4, W: w, H: h}
}

func (t *RGBATarget) Size() (w, h int) { return t.W, t.H }

func (t *RGBATarget) Clear(c Color) {
	if t == nil || t.Stride <= 0 || t.W <= 0 || t.H <= 0 {
		return
	}
	for y := 0; y < t.H; y++ {
		row := y * t.Stride
		for x := 0; x < t.W; x++ {
			off := row + x*4
			if off+3 >= len(t.Pix) {
				return
			}
			t.Pix[off] = c.R
			t.Pix[off+1] = c.G
			t.Pix[off+2] = c.B
			t.Pix[off+3] = 0xFF
		}
	}
}

func (t *RGBATarget) SetPixel(x, y int, c Color) {
	if t == nil || x < 0 || y < 0 || x >= t.W || y >= t.H {
		return
	}
	off := y*t.Stride + x*4
	if off < 0 || off+3 >= len(t.Pix) {
		return
	}
	if c.A == 0xFF {
		t.Pix[off] = c.R
		t.Pix[off+1] = c.G
		t.Pix[off+2] = c.B
		t.Pix[off+3] = 0xFF
		return
	}
	a := uint32(c.A)
	blend := func(dst, src uint8) uint8 {
		return uint8((uint32(src)*a + uint32(dst)*(255-a)) / 255)
	}
	t.Pix[off] = blend(t.Pix[off], c.R)
	t.Pix[off+1] = blend(t.Pix[off+1], c.G)
	t.Pix[off+2] = blend(t.Pix[off+2], c.B)
	t.Pix[off+3] = 0xFF
}

// At returns the colour stored at (x, y).
func (t *RGBATarget) At(x, y int) Color {
	if t == nil || x < 0 || y < 0 || x >= t.W || y >= t.H {
		return Color{}
	}
	off := y*t.Stride + x*4
	return Color{R: t.Pix[off], G: t.Pix[off+1], B: t.Pix[off+2], A: t.Pix[off+3]}
}

// RenderMode selects the rasterization mode.
type RenderMode uint8

const (
	RenderSolid RenderMode = iota
	RenderWireframe
)
