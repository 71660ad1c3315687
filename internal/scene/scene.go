// Package scene loads everything a playback session needs and hands out
// independent players over it.
package scene

import (
	"fmt"

	"mocap-retarget/internal/asf"
	"mocap-retarget/internal/bodymodel"
	"mocap-retarget/internal/motion"
	"mocap-retarget/internal/playback"
	"mocap-retarget/internal/retarget"
	"mocap-retarget/internal/skeleton"
)

// Paths names the input files of a scene. An empty Mapping selects retarget.ASFToSMPL.
type Paths struct {
	ASF            string
	AMC            string
	TargetSkeleton string
	Mapping        string
	LengthScale    float64
}

// Scene holds the loaded, validated inputs. Its trees are templates in rest pose
// and are never evaluated directly; each player gets clones.
type Scene struct {
	ASF    *asf.Skeleton
	Source *skeleton.Tree
	Target *skeleton.Tree
	Motion *motion.Store
	Mapper *retarget.Mapper
}

// Load reads and validates all inputs. Every structural error surfaces here,
// before any tick runs.
func Load(p Paths) (*Scene, error) {
	scale := p.LengthScale
	if scale <= 0 {
		scale = 1
	}

	sk, err := asf.Load(p.ASF)
	if err != nil {
		return nil, err
	}
	source, err := sk.Build(scale)
	if err != nil {
		return nil, fmt.Errorf("scene: %s: %w", p.ASF, err)
	}
	store, err := asf.LoadMotion(p.AMC, sk, source, scale)
	if err != nil {
		return nil, err
	}

	target, err := bodymodel.Load(p.TargetSkeleton)
	if err != nil {
		return nil, err
	}

	mapping := retarget.ASFToSMPL()
	if p.Mapping != "" {
		if mapping, err = retarget.LoadMapping(p.Mapping); err != nil {
			return nil, err
		}
	}

	return New(sk, source, target, store, mapping)
}

// New assembles a scene from already-built parts and calibrates the mapper.
func New(sk *asf.Skeleton, source, target *skeleton.Tree, store *motion.Store, mapping retarget.Mapping) (*Scene, error) {
	if err := store.Validate(source); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	mapper, err := retarget.Calibrate(source, target, mapping)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	return &Scene{
		ASF:    sk,
		Source: source,
		Target: target,
		Motion: store,
		Mapper: mapper,
	}, nil
}

// NewPlayer returns a loaded player over private clones of the scene's trees.
// Players from the same scene can run on different goroutines.
func (s *Scene) NewPlayer() (*playback.Player, error) {
	p := playback.New()
	if err := p.Load(s.Source.Clone(), s.Target.Clone(), s.Motion, s.Mapper); err != nil {
		return nil, err
	}
	return p, nil
}
