package mat4

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-5

func near(a, b float32) bool { return math32.Abs(a-b) <= eps }

func assertMatches(t *testing.T, got Mat4, want mgl32.Mat4) {
	t.Helper()
	for i := range got {
		if !near(got[i], want[i]) {
			t.Fatalf("element %d: got %v want %v\ngot  %v\nwant %v", i, got[i], want[i], got, want)
		}
	}
}

func TestIdentityExact(t *testing.T) {
	want := [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	if got := Identity(); [16]float32(got) != want {
		t.Fatalf("identity mismatch: %v", got)
	}
}

func TestMulIdentityTranslate(t *testing.T) {
	b := Translate(Identity(), V3(1, 2, 3))
	out := Mul(Identity(), b)
	if !near(out[12], 1) || !near(out[13], 2) || !near(out[14], 3) {
		t.Fatalf("translation = %v, want (1,2,3)", out.Position())
	}
	if Mul(b, Identity()) != b {
		t.Fatalf("a*identity mismatch")
	}
}

func TestRotateYQuarterTurn(t *testing.T) {
	m := RotateY(Identity(), math32.Pi/2)
	if !near(m[0], 0) {
		t.Fatalf("m[0] = %v, want 0", m[0])
	}
	if !near(m[8], 1) {
		t.Fatalf("m[8] = %v, want 1", m[8])
	}
}

func TestAgainstMathGL(t *testing.T) {
	base := Translate(RotateX(Identity(), 0.3), V3(-2, 5, 0.5))
	baseGL := mgl32.HomogRotate3DX(0.3).Mul4(mgl32.Translate3D(-2, 5, 0.5))
	assertMatches(t, base, baseGL)

	for _, rad := range []float32{-2.1, -0.4, 0, 0.7, 3.9} {
		assertMatches(t, RotateX(base, rad), baseGL.Mul4(mgl32.HomogRotate3DX(rad)))
		assertMatches(t, RotateY(base, rad), baseGL.Mul4(mgl32.HomogRotate3DY(rad)))
	}

	assertMatches(t, Translate(base, V3(4, -1, 9)), baseGL.Mul4(mgl32.Translate3D(4, -1, 9)))

	proj := Perspective(1.2, 16.0/9.0, 0.1, 250)
	projGL := mgl32.Perspective(1.2, 16.0/9.0, 0.1, 250)
	assertMatches(t, proj, projGL)

	assertMatches(t, Mul(proj, base), projGL.Mul4(baseGL))
}

func TestMulOrderAppliesRightFirst(t *testing.T) {
	// Rotate a point that was first moved along +X: translation happens in the
	// rotated frame only when the rotation is on the left.
	rot := RotateY(Identity(), math32.Pi/2)
	tr := Translate(Identity(), V3(1, 0, 0))

	p := MulVec4(Mul(rot, tr), Vec4{W: 1})
	if !near(p.X, 0) || !near(p.Z, -1) {
		t.Fatalf("rot·tr moved origin to %+v, want (0,0,-1)", p)
	}

	q := MulVec4(Mul(tr, rot), Vec4{W: 1})
	if !near(q.X, 1) || !near(q.Z, 0) {
		t.Fatalf("tr·rot moved origin to %+v, want (1,0,0)", q)
	}
}

func TestPerspectiveMapsNearFar(t *testing.T) {
	proj := Perspective(math32.Pi/2, 1, 1, 10)

	n := MulVec4(proj, Vec4{Z: -1, W: 1})
	if !near(n.Z/n.W, -1) {
		t.Fatalf("near plane ndc z = %v, want -1", n.Z/n.W)
	}
	f := MulVec4(proj, Vec4{Z: -10, W: 1})
	if !near(f.Z/f.W, 1) {
		t.Fatalf("far plane ndc z = %v, want 1", f.Z/f.W)
	}
}

func TestPerspectiveDoesNotValidate(t *testing.T) {
	m := Perspective(1, 1, 5, 5)
	if !math32.IsInf(m[10], 0) && !math32.IsNaN(m[10]) {
		t.Fatalf("degenerate near==far should yield a non-finite term, got %v", m[10])
	}
}

func TestNormalizeZero(t *testing.T) {
	if got := Normalize(Vec3{}); got != (Vec3{}) {
		t.Fatalf("Normalize(0) = %v", got)
	}
	if got := Len(Normalize(V3(3, 4, 0))); !near(got, 1) {
		t.Fatalf("len = %v", got)
	}
}
