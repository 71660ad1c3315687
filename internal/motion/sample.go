package motion

import "mocap-retarget/internal/mathutil"

// Sample is one frame of motion: a local rotation per joint name, plus the
// translation carried by the root.
type Sample struct {
	Rotations       map[string]mathutil.Mat3
	RootTranslation mathutil.Vec3
}

// NewSample returns an empty sample ready for Set calls.
func NewSample(n int) Sample {
	return Sample{Rotations: make(map[string]mathutil.Mat3, n)}
}

// Set stores the local rotation for a joint.
func (s Sample) Set(name string, rot mathutil.Mat3) {
	s.Rotations[name] = rot
}

// Rotation returns the local rotation for a joint.
func (s Sample) Rotation(name string) (mathutil.Mat3, bool) {
	r, ok := s.Rotations[name]
	return r, ok
}

// Translation returns the root translation.
func (s Sample) Translation() mathutil.Vec3 {
	return s.RootTranslation
}

// Identity returns a sample with identity rotations for every name and no translation.
func Identity(names []string) Sample {
	s := NewSample(len(names))
	for _, n := range names {
		s.Set(n, mathutil.Mat3Identity())
	}
	return s
}
