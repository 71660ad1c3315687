package motion

import (
	"errors"
	"fmt"

	"mocap-retarget/internal/skeleton"
)

// ErrEmptyMotion is returned when a store would hold no frames.
var ErrEmptyMotion = errors.New("motion: no frames")

// Store is an immutable, ordered sequence of pose samples.
type Store struct {
	frames []Sample
}

// NewStore takes ownership of frames. At least one frame is required.
func NewStore(frames []Sample) (*Store, error) {
	if len(frames) == 0 {
		return nil, ErrEmptyMotion
	}
	return &Store{frames: frames}, nil
}

// Len returns the frame count (always ≥ 1).
func (s *Store) Len() int { return len(s.frames) }

// Frame returns frame i. The index is wrapped into range.
func (s *Store) Frame(i int) Sample {
	return s.frames[Wrap(i, len(s.frames))]
}

// Validate checks that every frame supplies a rotation for every joint of tree.
func (s *Store) Validate(tree *skeleton.Tree) error {
	for fi, f := range s.frames {
		for _, j := range tree.Joints() {
			if _, ok := f.Rotations[j.Name]; !ok {
				return fmt.Errorf("motion: frame %d has no rotation for joint %q: %w",
					fi, j.Name, skeleton.ErrMissingSample)
			}
		}
	}
	return nil
}
