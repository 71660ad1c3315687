package mathutil

import "math"

// RotX returns a 3×3 rotation matrix around the X axis. Angle in radians.
func RotX(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
}

// RotY returns a 3×3 rotation matrix around the Y axis.
func RotY(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	}
}

// RotZ returns a 3×3 rotation matrix around the Z axis.
func RotZ(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

// EulerOrder returns the rotation for angles applied about static axes in the given
// order, e.g. "XYZ" is Rz(rz) × Ry(ry) × Rx(rx). Angles in radians, indexed by axis.
// Unknown letters are ignored.
func EulerOrder(order string, angles Vec3) Mat3 {
	m := Mat3Identity()
	for _, axis := range order {
		var r Mat3
		switch axis {
		case 'X', 'x':
			r = RotX(angles[0])
		case 'Y', 'y':
			r = RotY(angles[1])
		case 'Z', 'z':
			r = RotZ(angles[2])
		default:
			continue
		}
		m = Mat3Mul(r, m)
	}
	return m
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(r float64) float64 {
	return r * 180 / math.Pi
}
