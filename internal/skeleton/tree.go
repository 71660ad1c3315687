package skeleton

import (
	"fmt"

	"mocap-retarget/internal/mathutil"
)

// Convention selects which world rotation carries a joint's rest offset.
type Convention int

const (
	// JointOrigin places a joint at parent coordinate + parent world rotation × offset.
	JointOrigin Convention = iota

	// BoneEnd places a joint at parent coordinate + own world rotation × offset,
	// i.e. the coordinate is the tip of the joint's own bone (ASF bones).
	BoneEnd
)

func (c Convention) String() string {
	switch c {
	case JointOrigin:
		return "joint-origin"
	case BoneEnd:
		return "bone-end"
	}
	return fmt.Sprintf("Convention(%d)", int(c))
}

// Tree is an index-based arena of joints with exactly one root.
// Joints are stored parent-before-child, so a single forward scan is a valid
// top-down traversal. The node count never changes after Build.
type Tree struct {
	joints     []Joint
	byName     map[string]int
	convention Convention

	rootTranslation mathutil.Vec3
}

// Bone is a parent/child adjacency pair, by joint index.
type Bone struct {
	Parent int
	Child  int
}

// Build validates defs and links them into a tree. Joints are reordered into a
// depth-first preorder from the root; siblings keep their definition order.
// The returned tree is in rest pose.
func Build(defs []Definition, conv Convention) (*Tree, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("skeleton: empty definition: %w", ErrMalformedSkeleton)
	}

	pos := make(map[string]int, len(defs))
	root := -1
	for i, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("skeleton: joint %d has no name: %w", i, ErrMalformedSkeleton)
		}
		if _, dup := pos[d.Name]; dup {
			return nil, fmt.Errorf("skeleton: duplicate joint %q: %w", d.Name, ErrMalformedSkeleton)
		}
		pos[d.Name] = i
		if d.Parent == "" {
			if root >= 0 {
				return nil, fmt.Errorf("skeleton: second root %q (first %q): %w",
					d.Name, defs[root].Name, ErrMalformedSkeleton)
			}
			root = i
		}
	}
	if root < 0 {
		return nil, fmt.Errorf("skeleton: no root joint: %w", ErrMalformedSkeleton)
	}

	children := make([][]int, len(defs))
	for i, d := range defs {
		if d.Parent == "" {
			continue
		}
		p, ok := pos[d.Parent]
		if !ok {
			return nil, fmt.Errorf("skeleton: joint %q references undefined parent %q: %w",
				d.Name, d.Parent, ErrMalformedSkeleton)
		}
		children[p] = append(children[p], i)
	}

	// Preorder walk; anything not reached hangs off a cycle.
	order := make([]int, 0, len(defs))
	stack := []int{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, n)
		kids := children[n]
		for k := len(kids) - 1; k >= 0; k-- {
			stack = append(stack, kids[k])
		}
	}
	if len(order) != len(defs) {
		for i, d := range defs {
			if !contains(order, i) {
				return nil, fmt.Errorf("skeleton: joint %q is not reachable from root %q: %w",
					d.Name, defs[root].Name, ErrMalformedSkeleton)
			}
		}
	}

	t := &Tree{
		joints:     make([]Joint, len(defs)),
		byName:     make(map[string]int, len(defs)),
		convention: conv,
	}
	for idx, src := range order {
		d := defs[src]
		axis := d.Axis
		if axis == (mathutil.Mat3{}) {
			axis = mathutil.Mat3Identity()
		}
		parent := -1
		if d.Parent != "" {
			parent = t.byName[d.Parent]
		}
		t.joints[idx] = Joint{
			Name:      d.Name,
			Index:     idx,
			Parent:    parent,
			Offset:    d.Offset,
			Direction: d.Offset.Normalize(),
			Length:    d.Offset.Len(),
			Axis:      axis,
			AxisInv:   axis.Inverse(),
			DOF:       d.DOF,
			Limits:    d.Limits,
		}
		t.byName[d.Name] = idx
		if parent >= 0 {
			t.joints[parent].Children = append(t.joints[parent].Children, idx)
		}
	}

	t.ResetPose()
	return t, nil
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// ResetPose sets every local rotation to identity, clears the root translation and
// recomputes world transforms from the offsets alone.
func (t *Tree) ResetPose() {
	for i := range t.joints {
		t.joints[i].Local = mathutil.Mat3Identity()
	}
	t.rootTranslation = mathutil.Vec3{}
	t.evaluate()
}

// Clone returns an independent copy that shares no mutable state with t.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		joints:          make([]Joint, len(t.joints)),
		byName:          t.byName, // read-only after Build
		convention:      t.convention,
		rootTranslation: t.rootTranslation,
	}
	copy(c.joints, t.joints)
	for i := range c.joints {
		c.joints[i].Children = append([]int(nil), t.joints[i].Children...)
	}
	return c
}

// Len returns the number of joints.
func (t *Tree) Len() int { return len(t.joints) }

// Convention returns the offset convention the tree was built with.
func (t *Tree) Convention() Convention { return t.convention }

// Root returns the root joint. It is always index 0.
func (t *Tree) Root() *Joint { return &t.joints[0] }

// Joint returns the joint at index i. Callers must treat it as read-only.
func (t *Tree) Joint(i int) *Joint { return &t.joints[i] }

// Joints returns the arena in parent-before-child order. Callers must treat it as read-only.
func (t *Tree) Joints() []Joint { return t.joints }

// Lookup returns the joint with the given name.
func (t *Tree) Lookup(name string) (*Joint, bool) {
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return &t.joints[i], true
}

// Names returns joint names in arena order.
func (t *Tree) Names() []string {
	names := make([]string, len(t.joints))
	for i := range t.joints {
		names[i] = t.joints[i].Name
	}
	return names
}

// RootTranslation returns the translation applied to the root by the last pass.
func (t *Tree) RootTranslation() mathutil.Vec3 { return t.rootTranslation }

// Coordinates returns a copy of every joint's world coordinate, in arena order.
func (t *Tree) Coordinates() []mathutil.Vec3 {
	out := make([]mathutil.Vec3, len(t.joints))
	for i := range t.joints {
		out[i] = t.joints[i].Coordinate
	}
	return out
}

// Bones returns every parent/child adjacency in arena order of the child.
func (t *Tree) Bones() []Bone {
	out := make([]Bone, 0, len(t.joints)-1)
	for i := 1; i < len(t.joints); i++ {
		out = append(out, Bone{Parent: t.joints[i].Parent, Child: i})
	}
	return out
}
