package skeleton

import (
	"fmt"

	"mocap-retarget/internal/mathutil"
)

// Pose is one frame of local rotations keyed by joint name, plus the root translation.
// motion.Sample satisfies it.
type Pose interface {
	Rotation(name string) (mathutil.Mat3, bool)
	Translation() mathutil.Vec3
}

// ApplyPose copies the pose's local rotations into the tree and recomputes every
// world transform top-down. The pose is checked for coverage before anything is
// written, so a failed call leaves the previous pose intact.
func (t *Tree) ApplyPose(p Pose) error {
	for i := range t.joints {
		if _, ok := p.Rotation(t.joints[i].Name); !ok {
			return fmt.Errorf("skeleton: pose has no rotation for joint %q: %w",
				t.joints[i].Name, ErrMissingSample)
		}
	}
	for i := range t.joints {
		t.joints[i].Local, _ = p.Rotation(t.joints[i].Name)
	}
	t.rootTranslation = p.Translation()
	t.evaluate()
	return nil
}

// SetRoot replaces only the root's local rotation and translation and re-runs the
// pass. Descendants keep their current local rotations.
func (t *Tree) SetRoot(rot mathutil.Mat3, translation mathutil.Vec3) {
	t.joints[0].Local = rot
	t.rootTranslation = translation
	t.evaluate()
}

// evaluate is the forward kinematics pass. Arena order guarantees a parent's world
// transform is written before any child reads it.
//
// Composition order is parent-then-local: World = Parent.World × Local.
func (t *Tree) evaluate() {
	root := &t.joints[0]
	root.World = root.Local
	root.Coordinate = root.Offset.Add(t.rootTranslation)

	for i := 1; i < len(t.joints); i++ {
		j := &t.joints[i]
		p := &t.joints[j.Parent]
		j.World = mathutil.Mat3Mul(p.World, j.Local)
		switch t.convention {
		case BoneEnd:
			j.Coordinate = p.Coordinate.Add(j.World.MulVec3(j.Offset))
		default:
			j.Coordinate = p.Coordinate.Add(p.World.MulVec3(j.Offset))
		}
	}
}
