package skeleton

import "mocap-retarget/internal/mathutil"

// DOF is a bit mask of the local axes a joint may rotate about.
type DOF uint8

const (
	DOFX DOF = 1 << iota
	DOFY
	DOFZ

	DOFNone DOF = 0
	DOFAll      = DOFX | DOFY | DOFZ
)

// Has reports whether rotation about axis (0=X, 1=Y, 2=Z) is allowed.
func (d DOF) Has(axis int) bool {
	return d&(1<<axis) != 0
}

// Count returns the number of free axes.
func (d DOF) Count() int {
	n := 0
	for a := 0; a < 3; a++ {
		if d.Has(a) {
			n++
		}
	}
	return n
}

// Limit is a [min, max] range in degrees for one axis.
type Limit [2]float64

// Definition is one joint record supplied by a skeleton loader.
type Definition struct {
	Name   string
	Parent string // empty for the root
	Offset mathutil.Vec3

	// Axis is the joint's local axis frame. The zero value means identity.
	Axis   mathutil.Mat3
	DOF    DOF
	Limits [3]Limit
}

// Joint is one node of a Tree. Structural fields are fixed at Build time;
// Local, World and Coordinate are rewritten by every forward kinematics pass.
type Joint struct {
	Name     string
	Index    int
	Parent   int // -1 for the root
	Children []int

	Offset    mathutil.Vec3
	Direction mathutil.Vec3
	Length    float64
	Axis      mathutil.Mat3
	AxisInv   mathutil.Mat3
	DOF       DOF
	Limits    [3]Limit

	Local      mathutil.Mat3
	World      mathutil.Mat3
	Coordinate mathutil.Vec3
}

// IsRoot reports whether the joint has no parent.
func (j *Joint) IsRoot() bool {
	return j.Parent < 0
}

// LocalFromEuler converts static-axis XYZ Euler angles (radians), expressed in the
// joint's own axis frame, to a local rotation: Axis × E × Axis⁻¹.
func (j *Joint) LocalFromEuler(rad mathutil.Vec3) mathutil.Mat3 {
	e := mathutil.EulerOrder("XYZ", rad)
	return mathutil.Mat3Mul(mathutil.Mat3Mul(j.Axis, e), j.AxisInv)
}

// InLimits reports whether every free axis of deg lies inside the joint's limits.
// Axes whose limit is the zero range are treated as unbounded.
func (j *Joint) InLimits(deg mathutil.Vec3) bool {
	for a := 0; a < 3; a++ {
		if !j.DOF.Has(a) {
			continue
		}
		lm := j.Limits[a]
		if lm[0] == 0 && lm[1] == 0 {
			continue
		}
		if deg[a] < lm[0] || deg[a] > lm[1] {
			return false
		}
	}
	return true
}
