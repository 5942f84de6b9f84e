// Package mat4 is the transform library used by the viewer: column-major 4x4
// float32 matrices and the handful of operations the model → view → projection
// chain needs.
//
// Layout matches the conventional OpenGL one, m[col*4+row], with the translation
// in elements 12..14. All functions take and return values; a Mat4 is an array, so
// there is no output aliasing to reason about.
package mat4

import "github.com/chewxy/math32"

// Mat4 is a column-major 4x4 matrix.
type Mat4 [16]float32

// Identity returns the 4x4 identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns the product a·b. Applied to a column vector the result applies b
// first and then a, so a full chain reads Mul(proj, Mul(view, model)).
func Mul(a, b Mat4) Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			out[col*4+row] =
				a[0*4+row]*b[col*4+0] +
					a[1*4+row]*b[col*4+1] +
					a[2*4+row]*b[col*4+2] +
					a[3*4+row]*b[col*4+3]
		}
	}
	return out
}

func MulVec4(m Mat4, v Vec4) Vec4 {
	return Vec4{
		X: m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		Y: m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		Z: m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		W: m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// Translate returns a with a translation by v applied in a's local space (a·T(v)).
//
// Only the last column changes, so this skips the full product.
func Translate(a Mat4, v Vec3) Mat4 {
	a[12] = a[0]*v.X + a[4]*v.Y + a[8]*v.Z + a[12]
	a[13] = a[1]*v.X + a[5]*v.Y + a[9]*v.Z + a[13]
	a[14] = a[2]*v.X + a[6]*v.Y + a[10]*v.Z + a[14]
	a[15] = a[3]*v.X + a[7]*v.Y + a[11]*v.Z + a[15]
	return a
}

// RotateX returns a·Rx(rad), a right-handed rotation about the local X axis.
func RotateX(a Mat4, rad float32) Mat4 {
	s, c := math32.Sincos(rad)
	a10, a11, a12, a13 := a[4], a[5], a[6], a[7]
	a20, a21, a22, a23 := a[8], a[9], a[10], a[11]

	a[4] = a10*c + a20*s
	a[5] = a11*c + a21*s
	a[6] = a12*c + a22*s
	a[7] = a13*c + a23*s
	a[8] = a20*c - a10*s
	a[9] = a21*c - a11*s
	a[10] = a22*c - a12*s
	a[11] = a23*c - a13*s
	return a
}

// RotateY returns a·Ry(rad), a right-handed rotation about the local Y axis.
func RotateY(a Mat4, rad float32) Mat4 {
	s, c := math32.Sincos(rad)
	a00, a01, a02, a03 := a[0], a[1], a[2], a[3]
	a20, a21, a22, a23 := a[8], a[9], a[10], a[11]

	a[0] = a00*c - a20*s
	a[1] = a01*c - a21*s
	a[2] = a02*c - a22*s
	a[3] = a03*c - a23*s
	a[8] = a00*s + a20*c
	a[9] = a01*s + a21*c
	a[10] = a02*s + a22*c
	a[11] = a03*s + a23*c
	return a
}

// Perspective returns a symmetric OpenGL-style perspective projection.
//
// near and far must be positive with near < far. Nothing is validated: other
// inputs produce a degenerate matrix rather than an error.
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := 1 / math32.Tan(fovY/2)
	nf := 1 / (near - far)
	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, -1,
		0, 0, 2 * far * near * nf, 0,
	}
}

// Position returns the translation part of m.
func (m Mat4) Position() Vec3 { return Vec3{X: m[12], Y: m[13], Z: m[14]} }
