// Package bodymodel loads the joint skeleton of a parametric body model.
//
// The mesh and its deformation are not handled here: only the rest-pose joint
// positions and the kinematic tree, which is all the retargeting needs.
package bodymodel

import (
	"encoding/json"
	"fmt"
	"os"

	"mocap-retarget/internal/mathutil"
	"mocap-retarget/internal/skeleton"
)

// SMPLJointNames lists the 24 SMPL joints in model order.
var SMPLJointNames = []string{
	"pelvis", "left_hip", "right_hip", "spine1", "left_knee", "right_knee",
	"spine2", "left_ankle", "right_ankle", "spine3", "left_foot", "right_foot",
	"neck", "left_collar", "right_collar", "head", "left_shoulder", "right_shoulder",
	"left_elbow", "right_elbow", "left_wrist", "right_wrist", "left_hand", "right_hand",
}

// SMPLParents is the SMPL kinematic tree: parent index per joint, -1 for the root.
var SMPLParents = []int{
	-1, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 9, 9, 12, 13, 14, 16, 17, 18, 19, 20, 21,
}

// JointSpec is one joint of a body model file. Parent may be given by name or,
// when ParentIndex is set, by index into the file's joint list.
type JointSpec struct {
	Name        string     `json:"name"`
	Parent      string     `json:"parent,omitempty"`
	ParentIndex *int       `json:"parent_index,omitempty"`
	Position    [3]float64 `json:"position"`
}

// File is the JSON layout of a body model skeleton: rest-pose joint positions
// in world space, as produced by the model's joint regressor.
type File struct {
	Name   string      `json:"name"`
	Joints []JointSpec `json:"joints"`
}

// Load reads a body model skeleton file and builds its tree.
func Load(path string) (*skeleton.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bodymodel: read %s: %w", path, err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("bodymodel: parse %s: %w", path, err)
	}
	t, err := f.Build()
	if err != nil {
		return nil, fmt.Errorf("bodymodel: %s: %w", path, err)
	}
	return t, nil
}

// FromPositions pairs SMPL joint names and parents with regressed rest positions.
func FromPositions(positions []mathutil.Vec3) (File, error) {
	if len(positions) != len(SMPLJointNames) {
		return File{}, fmt.Errorf("bodymodel: %d positions, SMPL has %d joints: %w",
			len(positions), len(SMPLJointNames), skeleton.ErrMalformedSkeleton)
	}
	f := File{Name: "smpl", Joints: make([]JointSpec, len(positions))}
	for i, p := range positions {
		f.Joints[i] = JointSpec{Name: SMPLJointNames[i], Position: p}
		if SMPLParents[i] >= 0 {
			f.Joints[i].Parent = SMPLJointNames[SMPLParents[i]]
		}
	}
	return f, nil
}

// Definitions converts world rest positions into parent-relative offsets.
// The root's offset is its own rest position.
func (f File) Definitions() ([]skeleton.Definition, error) {
	index := make(map[string]int, len(f.Joints))
	for i, j := range f.Joints {
		index[j.Name] = i
	}
	defs := make([]skeleton.Definition, len(f.Joints))
	for i, j := range f.Joints {
		parent := j.Parent
		if j.ParentIndex != nil && *j.ParentIndex >= 0 {
			pi := *j.ParentIndex
			if pi >= len(f.Joints) {
				return nil, fmt.Errorf("bodymodel: joint %q parent index %d out of range: %w",
					j.Name, pi, skeleton.ErrMalformedSkeleton)
			}
			parent = f.Joints[pi].Name
		}
		pos := mathutil.Vec3(j.Position)
		offset := pos
		if parent != "" {
			pi, ok := index[parent]
			if !ok {
				return nil, fmt.Errorf("bodymodel: joint %q references undefined parent %q: %w",
					j.Name, parent, skeleton.ErrMalformedSkeleton)
			}
			offset = pos.Sub(mathutil.Vec3(f.Joints[pi].Position))
		}
		defs[i] = skeleton.Definition{
			Name:   j.Name,
			Parent: parent,
			Offset: offset,
			DOF:    skeleton.DOFAll,
		}
	}
	return defs, nil
}

// Build constructs a JointOrigin tree from the file.
func (f File) Build() (*skeleton.Tree, error) {
	defs, err := f.Definitions()
	if err != nil {
		return nil, err
	}
	return skeleton.Build(defs, skeleton.JointOrigin)
}
