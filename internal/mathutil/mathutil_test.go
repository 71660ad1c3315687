package mathutil

import (
	"math"
	"testing"
)

const tol = 1e-12

func TestEulerOrder(t *testing.T) {
	rx, ry, rz := 0.3, -1.2, 2.0
	want := Mat3Mul(RotZ(rz), Mat3Mul(RotY(ry), RotX(rx)))
	if !EulerOrder("XYZ", Vec3{rx, ry, rz}).ApproxEqual(want, tol) {
		t.Fatal("EulerOrder(XYZ) differs from Rz·Ry·Rx")
	}
	zyx := Mat3Mul(RotX(rx), Mat3Mul(RotY(ry), RotZ(rz)))
	if !EulerOrder("ZYX", Vec3{rx, ry, rz}).ApproxEqual(zyx, tol) {
		t.Fatal("EulerOrder(ZYX) differs from Rx·Ry·Rz")
	}

	// A single axis gives the plain axis rotation.
	if !EulerOrder("XYZ", Vec3{0, 0, 1.5}).ApproxEqual(RotZ(1.5), tol) {
		t.Fatal("EulerOrder with only rz differs from RotZ")
	}
}

func TestMat3Inverse(t *testing.T) {
	m := Mat3Mul(RotX(0.4), Mat3Diag(2, 3, 0.5))
	if !Mat3Mul(m, m.Inverse()).ApproxEqual(Mat3Identity(), 1e-9) {
		t.Fatal("m × m⁻¹ is not identity")
	}
	r := RotY(1.1)
	if !r.Inverse().ApproxEqual(r.Transpose(), 1e-9) {
		t.Fatal("rotation inverse differs from its transpose")
	}
}

func TestRotationAngle(t *testing.T) {
	for _, a := range []float64{0, 0.5, math.Pi / 2, 3} {
		if got := RotZ(a).RotationAngle(); math.Abs(got-a) > 1e-9 {
			t.Errorf("angle of Rz(%v) = %v", a, got)
		}
	}
}

func TestZUpToYUp(t *testing.T) {
	up := ZUpToYUp.MulVec3(Vec3{0, 0, 1})
	if !up.ApproxEqual(Vec3{0, 1, 0}, tol) {
		t.Fatalf("Z-up maps to %v, want +Y", up)
	}
}
