package skeleton

import "errors"

var (
	// ErrMalformedSkeleton reports a structural violation in a skeleton definition:
	// missing parent, zero or several roots, duplicate names, or unreachable joints.
	ErrMalformedSkeleton = errors.New("malformed skeleton")

	// ErrMissingSample reports a pose sample that does not cover a joint of the tree.
	ErrMissingSample = errors.New("missing sample")
)
