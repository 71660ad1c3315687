package retarget

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrAlignmentUnavailable reports that the joints needed for retargeting are
// missing from one of the skeletons, or too few to fit an alignment.
var ErrAlignmentUnavailable = errors.New("alignment unavailable")

// Pair names corresponding joints in the source and target skeletons.
type Pair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Mapping configures how a source skeleton drives a target skeleton.
type Mapping struct {
	// Reference is the source joint whose world orientation and position steer
	// the target root each frame.
	Reference string `json:"reference"`

	// Pairs are rest-pose correspondences used once to fit the static alignment.
	// At least three non-collinear pairs are needed.
	Pairs []Pair `json:"pairs"`

	// UpAxis is "y" (default) or "z" for Z-up source data.
	UpAxis string `json:"up_axis,omitempty"`

	// Scale overrides the fitted source-to-target scale when positive.
	Scale float64 `json:"scale,omitempty"`
}

// ASFToSMPL maps the CMU ASF bone names onto the 24-joint SMPL skeleton.
// ASF coordinates are bone tips, so each pair uses the ASF bone that ends
// at the SMPL joint.
func ASFToSMPL() Mapping {
	return Mapping{
		Reference: "root",
		Pairs: []Pair{
			{Source: "lhipjoint", Target: "left_hip"},
			{Source: "rhipjoint", Target: "right_hip"},
			{Source: "lfemur", Target: "left_knee"},
			{Source: "rfemur", Target: "right_knee"},
			{Source: "ltibia", Target: "left_ankle"},
			{Source: "rtibia", Target: "right_ankle"},
			{Source: "lowerneck", Target: "neck"},
			{Source: "upperneck", Target: "head"},
			{Source: "lclavicle", Target: "left_shoulder"},
			{Source: "rclavicle", Target: "right_shoulder"},
			{Source: "lhumerus", Target: "left_elbow"},
			{Source: "rhumerus", Target: "right_elbow"},
			{Source: "lradius", Target: "left_wrist"},
			{Source: "rradius", Target: "right_wrist"},
		},
	}
}

// LoadMapping reads a mapping from a JSON file.
func LoadMapping(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Mapping{}, fmt.Errorf("retarget: read %s: %w", path, err)
	}
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return Mapping{}, fmt.Errorf("retarget: parse %s: %w", path, err)
	}
	return m, nil
}
