// Package raster is the viewer's software rendering backend.
//
// Pipeline (fixed):
//
//	Vertices → MVP transform → near-plane rejection → NDC → Rasterization → Target.
//
// A Rasterizer implements scene.Backend. It keeps the uploaded triangle list and
// per-triangle normals, a depth buffer sized to the current target, and draws
// each call with one flat colour. Shader stages are resolved by name from the
// built-in set (see Link); there is no GPU involved.
package raster

import (
	"errors"
	"fmt"

	"minemap/engine/mat4"
	"minemap/engine/scene"
)

var (
	ErrUnknownStage = errors.New("raster: unknown shader stage")
	ErrBadMesh      = errors.New("raster: vertex count must be a positive multiple of 3")
	ErrNotReady     = errors.New("raster: program or geometry missing")
	ErrNoTarget     = errors.New("raster: no target")
)

// Built-in shader stage names.
const (
	StageMVP     = "mvp"
	StageFlat    = "flat"
	StageLambert = "lambert"
)

// DefaultProgram is the program the viewer links at setup.
var DefaultProgram = scene.Program{Vertex: StageMVP, Fragment: StageLambert}

// Rasterizer renders into the Target returned by its source on each Clear.
//
// Create it once and reuse it to avoid allocations.
type Rasterizer struct {
	Mode RenderMode

	// LightDir points from the light towards the scene.
	LightDir mat4.Vec3
	Ambient  float32

	source func() Target
	target Target

	linked   bool
	lambert  bool
	verts    []mat4.Vec3
	normals  []mat4.Vec3
	depth    bool
	depthBuf []float32

	draws     int
	triangles int
}

// New returns a rasterizer that draws into whatever source returns at the start
// of each frame. The source may return a different target (e.g. after a window
// resize) every time.
func New(source func() Target) *Rasterizer {
	return &Rasterizer{
		Mode:     RenderSolid,
		LightDir: mat4.Normalize(mat4.V3(-0.4, -1, -0.3)),
		Ambient:  0.35,
		source:   source,
	}
}

// Link resolves the program's stages against the built-in set.
func (r *Rasterizer) Link(p scene.Program) error {
	if p.Vertex != StageMVP {
		return fmt.Errorf("%w: vertex %q", ErrUnknownStage, p.Vertex)
	}
	switch p.Fragment {
	case StageFlat:
		r.lambert = false
	case StageLambert:
		r.lambert = true
	default:
		return fmt.Errorf("%w: fragment %q", ErrUnknownStage, p.Fragment)
	}
	r.linked = true
	return nil
}

func (r *Rasterizer) Upload(vertices []mat4.Vec3) error {
	if len(vertices) == 0 || len(vertices)%3 != 0 {
		return ErrBadMesh
	}
	r.verts = append(r.verts[:0], vertices...)
	r.normals = r.normals[:0]
	for i := 0; i < len(r.verts); i += 3 {
		r.normals = append(r.normals, triangleNormal(r.verts[i], r.verts[i+1], r.verts[i+2]))
	}
	return nil
}

// Size reports the size of the target the next Clear will pick up.
func (r *Rasterizer) Size() (w, h int) {
	t := r.target
	if r.source != nil {
		t = r.source()
	}
	if t == nil {
		return 0, 0
	}
	return t.Size()
}

func (r *Rasterizer) current() Target {
	if r.target != nil {
		return r.target
	}
	if r.source == nil {
		return nil
	}
	return r.source()
}

// Clear starts a frame: it picks up the current target, clears it, and resets
// the depth buffer if depth testing is on.
func (r *Rasterizer) Clear(c scene.Color) {
	r.target = nil
	if r.source != nil {
		r.target = r.source()
	}
	r.draws, r.triangles = 0, 0
	if r.target == nil {
		return
	}
	r.target.Clear(FromScene(c))
	if r.depth {
		r.resizeDepth()
		r.clearDepth()
	}
}

// EnableDepth turns on depth testing for the rest of the frame and later frames.
func (r *Rasterizer) EnableDepth() {
	if r.depth {
		return
	}
	r.depth = true
	r.resizeDepth()
	r.clearDepth()
}

// DisableDepth turns depth testing off and releases the buffer.
func (r *Rasterizer) DisableDepth() {
	r.depth = false
	r.depthBuf = nil
}

func (r *Rasterizer) resizeDepth() {
	w, h := r.Size()
	if w <= 0 || h <= 0 {
		r.depthBuf = r.depthBuf[:0]
		return
	}
	if cap(r.depthBuf) < w*h {
		r.depthBuf = make([]float32, w*h)
	} else {
		r.depthBuf = r.depthBuf[:w*h]
	}
}

func (r *Rasterizer) clearDepth() {
	for i := range r.depthBuf {
		r.depthBuf[i] = 1e9
	}
}

// Stats returns the draw calls and triangles rasterized since the last Clear.
func (r *Rasterizer) Stats() (draws, triangles int) { return r.draws, r.triangles }

// Draw rasterizes the uploaded geometry with the given transform and colour.
func (r *Rasterizer) Draw(mvp mat4.Mat4, c scene.Color) error {
	if !r.linked || len(r.verts) == 0 {
		return ErrNotReady
	}
	t := r.current()
	if t == nil {
		return ErrNoTarget
	}
	w, h := t.Size()
	if w <= 0 || h <= 0 {
		return nil
	}
	r.draws++

	base := FromScene(c)
	for i := 0; i+2 < len(r.verts); i += 3 {
		p0 := mat4.MulVec4(mvp, vec4(r.verts[i]))
		p1 := mat4.MulVec4(mvp, vec4(r.verts[i+1]))
		p2 := mat4.MulVec4(mvp, vec4(r.verts[i+2]))

		// Trivial clip: drop triangles touching or behind the eye plane.
		if p0.W <= wEpsilon || p1.W <= wEpsilon || p2.W <= wEpsilon {
			continue
		}

		ndc0 := clipToNDC(p0)
		ndc1 := clipToNDC(p1)
		ndc2 := clipToNDC(p2)

		x0, y0 := ndcToScreen(ndc0, w, h)
		x1, y1 := ndcToScreen(ndc1, w, h)
		x2, y2 := ndcToScreen(ndc2, w, h)

		col := base
		if r.lambert {
			col = base.MulScalar(r.intensity(r.normals[i/3]))
		}

		r.triangles++
		switch r.Mode {
		case RenderWireframe:
			r.drawLine(t, x0, y0, x1, y1, col)
			r.drawLine(t, x1, y1, x2, y2, col)
			r.drawLine(t, x2, y2, x0, y0, col)
		default:
			r.fillTriangle(t, w, h, x0, y0, ndc0.Z, x1, y1, ndc1.Z, x2, y2, ndc2.Z, col)
		}
	}
	return nil
}

const wEpsilon = 1e-5

func vec4(v mat4.Vec3) mat4.Vec4 { return mat4.Vec4{X: v.X, Y: v.Y, Z: v.Z, W: 1} }

type ndcPoint struct {
	X, Y, Z float32
}

func clipToNDC(p mat4.Vec4) ndcPoint {
	invW := 1 / p.W
	return ndcPoint{X: p.X * invW, Y: p.Y * invW, Z: p.Z * invW}
}

func ndcToScreen(p ndcPoint, w, h int) (x, y int) {
	sx := (p.X*0.5 + 0.5) * float32(w-1)
	sy := (1 - (p.Y*0.5 + 0.5)) * float32(h-1)
	return int(clampF32(sx, -screenLimit, screenLimit) + 0.5), int(clampF32(sy, -screenLimit, screenLimit) + 0.5)
}

// screenLimit keeps projected coordinates of near-plane vertices inside int range.
const screenLimit = 1 << 20

func triangleNormal(a, b, c mat4.Vec3) mat4.Vec3 {
	return mat4.Normalize(mat4.Cross(b.Sub(a), c.Sub(a)))
}

func (r *Rasterizer) intensity(n mat4.Vec3) float32 {
	amb := clampF32(r.Ambient, 0, 1)
	ld := mat4.Normalize(r.LightDir)
	if ld == (mat4.Vec3{}) {
		return amb
	}
	d := mat4.Dot(n, ld.Neg())
	if d < 0 {
		d = 0
	}
	return clampF32(amb+d*(1-amb), 0, 1)
}

func (r *Rasterizer) depthTest(w int, x, y int, z float32) bool {
	if !r.depth || r.depthBuf == nil {
		return true
	}
	if x < 0 || y < 0 || x >= w {
		return false
	}
	idx := y*w + x
	if idx < 0 || idx >= len(r.depthBuf) {
		return false
	}
	// NDC z is in [-1,1]. Map to [0,1].
	d := z*0.5 + 0.5
	if d < 0 || d > 1 {
		return false
	}
	if d >= r.depthBuf[idx] {
		return false
	}
	r.depthBuf[idx] = d
	return true
}

func (r *Rasterizer) drawLine(t Target, x0, y0, x1, y1 int, c Color) {
	w, h := t.Size()
	// Skip lines entirely off one side of the target.
	if (x0 < 0 && x1 < 0) || (y0 < 0 && y1 < 0) || (x0 >= w && x1 >= w) || (y0 >= h && y1 >= h) {
		return
	}
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for steps := 0; steps <= 4*(w+h); steps++ {
		t.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (r *Rasterizer) fillTriangle(t Target, w, h int, x0, y0 int, z0 float32, x1, y1 int, z1 float32, x2, y2 int, z2 float32, c Color) {
	minX, maxX := min3(x0, x1, x2), max3(x0, x1, x2)
	minY, maxY := min3(y0, y1, y2), max3(y0, y1, y2)
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX >= w {
		maxX = w - 1
	}
	if maxY >= h {
		maxY = h - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	area := edgeFn(x0, y0, x1, y1, x2, y2)
	if area == 0 {
		return
	}
	// Accept either winding; the depth buffer resolves visibility.
	if area < 0 {
		x1, y1, z1, x2, y2, z2 = x2, y2, z2, x1, y1, z1
		area = -area
	}
	invArea := 1.0 / float32(area)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			w0 := edgeFn(x1, y1, x2, y2, x, y)
			w1 := edgeFn(x2, y2, x0, y0, x, y)
			w2 := edgeFn(x0, y0, x1, y1, x, y)
			if (w0 | w1 | w2) < 0 {
				continue
			}
			z := (float32(w0)*z0 + float32(w1)*z1 + float32(w2)*z2) * invArea
			if !r.depthTest(w, x, y, z) {
				continue
			}
			t.SetPixel(x, y, c)
		}
	}
}

func edgeFn(x0, y0, x1, y1, x, y int) int {
	return (x-x0)*(y1-y0) - (y-y0)*(x1-x0)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func min3(a, b, c int) int {
	if a > b {
		a = b
	}
	if a > c {
		a = c
	}
	return a
}

func max3(a, b, c int) int {
	if a < b {
		a = b
	}
	if a < c {
		a = c
	}
	return a
}

func clampF32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
