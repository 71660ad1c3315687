package skeleton

import (
	"errors"
	"math"
	"testing"

	"mocap-retarget/internal/mathutil"
)

const tol = 1e-9

// chainDefs is root → a → b → c, each offset one unit along +X.
func chainDefs() []Definition {
	x := mathutil.Vec3{1, 0, 0}
	return []Definition{
		{Name: "root"},
		{Name: "a", Parent: "root", Offset: x},
		{Name: "b", Parent: "a", Offset: x},
		{Name: "c", Parent: "b", Offset: x},
	}
}

func mustBuild(t *testing.T, defs []Definition, conv Convention) *Tree {
	t.Helper()
	tree, err := Build(defs, conv)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tree
}

type pose struct {
	rot   map[string]mathutil.Mat3
	trans mathutil.Vec3
}

func (p pose) Rotation(name string) (mathutil.Mat3, bool) {
	r, ok := p.rot[name]
	return r, ok
}

func (p pose) Translation() mathutil.Vec3 { return p.trans }

func identityPose(tree *Tree) pose {
	p := pose{rot: map[string]mathutil.Mat3{}}
	for _, n := range tree.Names() {
		p.rot[n] = mathutil.Mat3Identity()
	}
	return p
}

func assertCoord(t *testing.T, tree *Tree, name string, want mathutil.Vec3) {
	t.Helper()
	j, ok := tree.Lookup(name)
	if !ok {
		t.Fatalf("joint %q not found", name)
	}
	if !j.Coordinate.ApproxEqual(want, tol) {
		t.Fatalf("%s: coordinate = %v, want %v", name, j.Coordinate, want)
	}
}

func TestBuildRejectsMalformed(t *testing.T) {
	x := mathutil.Vec3{1, 0, 0}
	tests := []struct {
		name string
		defs []Definition
	}{
		{"empty", nil},
		{"two roots", []Definition{{Name: "r1"}, {Name: "r2"}}},
		{"undefined parent", []Definition{{Name: "root"}, {Name: "a", Parent: "ghost", Offset: x}}},
		{"duplicate name", []Definition{{Name: "root"}, {Name: "a", Parent: "root"}, {Name: "a", Parent: "root"}}},
		{"cycle", []Definition{{Name: "root"}, {Name: "a", Parent: "b"}, {Name: "b", Parent: "a"}}},
		{"no root", []Definition{{Name: "a", Parent: "b"}, {Name: "b", Parent: "a"}}},
		{"unnamed", []Definition{{Name: "root"}, {Parent: "root"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.defs, JointOrigin)
			if !errors.Is(err, ErrMalformedSkeleton) {
				t.Fatalf("err = %v, want ErrMalformedSkeleton", err)
			}
		})
	}
}

func TestBuildOrdersParentsFirst(t *testing.T) {
	defs := []Definition{
		{Name: "c", Parent: "b"},
		{Name: "b", Parent: "a"},
		{Name: "root"},
		{Name: "a", Parent: "root"},
		{Name: "d", Parent: "root"},
	}
	tree := mustBuild(t, defs, JointOrigin)

	if tree.Root().Name != "root" {
		t.Fatalf("root = %q, want root", tree.Root().Name)
	}
	for i, j := range tree.Joints() {
		if j.Index != i {
			t.Fatalf("joint %q: Index = %d, stored at %d", j.Name, j.Index, i)
		}
		if !j.IsRoot() && j.Parent >= i {
			t.Fatalf("joint %q stored at %d before its parent %d", j.Name, i, j.Parent)
		}
	}
	if got := len(tree.Bones()); got != 4 {
		t.Fatalf("Bones() = %d, want 4", got)
	}
	root := tree.Root()
	if len(root.Children) != 2 {
		t.Fatalf("root children = %v, want 2", root.Children)
	}
}

func TestRestPose(t *testing.T) {
	tree := mustBuild(t, chainDefs(), JointOrigin)
	assertCoord(t, tree, "root", mathutil.Vec3{0, 0, 0})
	assertCoord(t, tree, "a", mathutil.Vec3{1, 0, 0})
	assertCoord(t, tree, "b", mathutil.Vec3{2, 0, 0})
	assertCoord(t, tree, "c", mathutil.Vec3{3, 0, 0})

	// Idempotent.
	before := tree.Coordinates()
	tree.ResetPose()
	tree.ResetPose()
	for i, c := range tree.Coordinates() {
		if c != before[i] {
			t.Fatalf("joint %d moved after ResetPose: %v → %v", i, before[i], c)
		}
	}
}

func TestApplyPoseChain(t *testing.T) {
	tree := mustBuild(t, chainDefs(), JointOrigin)
	quarter := mathutil.RotZ(math.Pi / 2)

	p := identityPose(tree)
	p.rot["root"] = quarter
	if err := tree.ApplyPose(p); err != nil {
		t.Fatalf("ApplyPose: %v", err)
	}
	assertCoord(t, tree, "a", mathutil.Vec3{0, 1, 0})
	assertCoord(t, tree, "b", mathutil.Vec3{0, 2, 0})
	assertCoord(t, tree, "c", mathutil.Vec3{0, 3, 0})

	// A second quarter turn at a swings b and c around a.
	p.rot["a"] = quarter
	if err := tree.ApplyPose(p); err != nil {
		t.Fatalf("ApplyPose: %v", err)
	}
	assertCoord(t, tree, "a", mathutil.Vec3{0, 1, 0})
	assertCoord(t, tree, "b", mathutil.Vec3{-1, 1, 0})
	assertCoord(t, tree, "c", mathutil.Vec3{-2, 1, 0})

	a, _ := tree.Lookup("a")
	if !a.World.ApproxEqual(mathutil.RotZ(math.Pi), tol) {
		t.Fatalf("a world = %v, want Rz(180°)", a.World)
	}
}

func TestApplyPoseRootTranslation(t *testing.T) {
	defs := chainDefs()
	defs[0].Offset = mathutil.Vec3{0, 5, 0}
	tree := mustBuild(t, defs, JointOrigin)

	p := identityPose(tree)
	p.trans = mathutil.Vec3{1, 2, 3}
	if err := tree.ApplyPose(p); err != nil {
		t.Fatalf("ApplyPose: %v", err)
	}
	assertCoord(t, tree, "root", mathutil.Vec3{1, 7, 3})
	assertCoord(t, tree, "c", mathutil.Vec3{4, 7, 3})
	if tree.RootTranslation() != p.trans {
		t.Fatalf("RootTranslation = %v, want %v", tree.RootTranslation(), p.trans)
	}
}

func TestApplyPoseBoneEnd(t *testing.T) {
	tree := mustBuild(t, chainDefs(), BoneEnd)
	quarter := mathutil.RotZ(math.Pi / 2)

	p := identityPose(tree)
	p.rot["a"] = quarter
	if err := tree.ApplyPose(p); err != nil {
		t.Fatalf("ApplyPose: %v", err)
	}
	// a's own rotation now carries a's bone.
	assertCoord(t, tree, "a", mathutil.Vec3{0, 1, 0})
	assertCoord(t, tree, "b", mathutil.Vec3{0, 2, 0})
	assertCoord(t, tree, "c", mathutil.Vec3{0, 3, 0})
}

func TestApplyPoseMissingSample(t *testing.T) {
	tree := mustBuild(t, chainDefs(), JointOrigin)
	p := identityPose(tree)
	p.rot["root"] = mathutil.RotZ(math.Pi / 2)
	if err := tree.ApplyPose(p); err != nil {
		t.Fatalf("ApplyPose: %v", err)
	}
	before := tree.Coordinates()

	bad := identityPose(tree)
	delete(bad.rot, "b")
	err := tree.ApplyPose(bad)
	if !errors.Is(err, ErrMissingSample) {
		t.Fatalf("err = %v, want ErrMissingSample", err)
	}
	for i, c := range tree.Coordinates() {
		if c != before[i] {
			t.Fatalf("joint %d changed by failed ApplyPose: %v → %v", i, before[i], c)
		}
	}
}

func TestApplyPoseDeterministic(t *testing.T) {
	tree := mustBuild(t, chainDefs(), JointOrigin)
	p := identityPose(tree)
	p.rot["a"] = mathutil.RotY(0.3)
	p.rot["b"] = mathutil.RotX(-1.1)
	p.trans = mathutil.Vec3{0.5, 0, -2}

	if err := tree.ApplyPose(p); err != nil {
		t.Fatalf("ApplyPose: %v", err)
	}
	first := tree.Coordinates()

	// Evaluate something else in between; the result must not depend on it.
	other := identityPose(tree)
	other.rot["root"] = mathutil.RotX(2)
	if err := tree.ApplyPose(other); err != nil {
		t.Fatalf("ApplyPose: %v", err)
	}
	if err := tree.ApplyPose(p); err != nil {
		t.Fatalf("ApplyPose: %v", err)
	}
	for i, c := range tree.Coordinates() {
		if c != first[i] {
			t.Fatalf("joint %d: %v, first evaluation %v", i, c, first[i])
		}
	}
}

func TestSetRootKeepsDescendants(t *testing.T) {
	tree := mustBuild(t, chainDefs(), JointOrigin)
	p := identityPose(tree)
	p.rot["a"] = mathutil.RotZ(math.Pi / 2)
	if err := tree.ApplyPose(p); err != nil {
		t.Fatalf("ApplyPose: %v", err)
	}

	tree.SetRoot(mathutil.Mat3Identity(), mathutil.Vec3{0, 0, 10})
	assertCoord(t, tree, "a", mathutil.Vec3{1, 0, 10})
	assertCoord(t, tree, "b", mathutil.Vec3{1, 1, 10})
}

func TestCloneIsIndependent(t *testing.T) {
	tree := mustBuild(t, chainDefs(), JointOrigin)
	clone := tree.Clone()

	p := identityPose(clone)
	p.rot["root"] = mathutil.RotZ(math.Pi / 2)
	if err := clone.ApplyPose(p); err != nil {
		t.Fatalf("ApplyPose: %v", err)
	}
	assertCoord(t, tree, "c", mathutil.Vec3{3, 0, 0})
	assertCoord(t, clone, "c", mathutil.Vec3{0, 3, 0})

	clone.Joint(0).Children[0] = 99
	if tree.Root().Children[0] == 99 {
		t.Fatal("clone shares child slices with the original")
	}
}

func TestInLimits(t *testing.T) {
	j := Joint{DOF: DOFX | DOFZ, Limits: [3]Limit{{-10, 10}, {-1, 1}, {}}}
	if !j.InLimits(mathutil.Vec3{5, 45, 1000}) {
		t.Fatal("Y is not a free axis and Z is unbounded; want in limits")
	}
	if j.InLimits(mathutil.Vec3{11, 0, 0}) {
		t.Fatal("X=11 outside [-10, 10]; want out of limits")
	}
	if DOFAll.Count() != 3 || (DOFX | DOFZ).Count() != 2 || DOFNone.Count() != 0 {
		t.Fatal("DOF.Count")
	}
}
