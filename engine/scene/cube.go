package scene

import (
	"minemap/engine/chunk"
	"minemap/engine/mat4"
)

// CubeVertexCount is the size of the static cube triangle list.
const CubeVertexCount = 36

// DefaultCubeColor is the colour used for cubes that carry none.
var DefaultCubeColor = Color{R: 0x4a / 255.0, G: 0xde / 255.0, B: 0x80 / 255.0, A: 1}

// Cube is one entry of the cube set: a grid position and a flat colour.
type Cube struct {
	Pos   mat4.Vec3
	Color Color
}

type cubeFace struct {
	n, u, v mat4.Vec3 // u × v = n
}

var cubeFaces = [6]cubeFace{
	{n: mat4.V3(1, 0, 0), u: mat4.V3(0, 0, -1), v: mat4.V3(0, 1, 0)},
	{n: mat4.V3(-1, 0, 0), u: mat4.V3(0, 0, 1), v: mat4.V3(0, 1, 0)},
	{n: mat4.V3(0, 1, 0), u: mat4.V3(1, 0, 0), v: mat4.V3(0, 0, -1)},
	{n: mat4.V3(0, -1, 0), u: mat4.V3(1, 0, 0), v: mat4.V3(0, 0, 1)},
	{n: mat4.V3(0, 0, 1), u: mat4.V3(1, 0, 0), v: mat4.V3(0, 1, 0)},
	{n: mat4.V3(0, 0, -1), u: mat4.V3(-1, 0, 0), v: mat4.V3(0, 1, 0)},
}

// CubeMesh returns the unit cube centred on the origin as 12 triangles wound
// counter-clockwise when seen from outside.
func CubeMesh() []mat4.Vec3 {
	out := make([]mat4.Vec3, 0, CubeVertexCount)
	for _, f := range cubeFaces {
		c := f.n.Mul(0.5)
		u := f.u.Mul(0.5)
		v := f.v.Mul(0.5)
		q := [4]mat4.Vec3{
			c.Sub(u).Sub(v),
			c.Add(u).Sub(v),
			c.Add(u).Add(v),
			c.Sub(u).Add(v),
		}
		out = append(out, q[0], q[1], q[2], q[0], q[2], q[3])
	}
	return out
}

// DemoGrid returns an n×n floor of cubes on y=0 centred on the origin.
func DemoGrid(n int, spacing float32) []Cube {
	if n <= 0 {
		return nil
	}
	off := float32(n-1) * spacing / 2
	cubes := make([]Cube, 0, n*n)
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			cubes = append(cubes, Cube{
				Pos:   mat4.V3(float32(x)*spacing-off, 0, float32(z)*spacing-off),
				Color: DefaultCubeColor,
			})
		}
	}
	return cubes
}

// CubesFromBlocks maps decoded blocks to cubes, keeping file order.
func CubesFromBlocks(blocks []chunk.Block) []Cube {
	cubes := make([]Cube, len(blocks))
	for i, b := range blocks {
		cubes[i] = Cube{
			Pos:   mat4.V3(b.Pos[0], b.Pos[1], b.Pos[2]),
			Color: Color{R: b.Color[0], G: b.Color[1], B: b.Color[2], A: b.Color[3]},
		}
	}
	return cubes
}
