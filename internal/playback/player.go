package playback

import (
	"errors"
	"fmt"

	"mocap-retarget/internal/logging"
	"mocap-retarget/internal/mathutil"
	"mocap-retarget/internal/motion"
	"mocap-retarget/internal/retarget"
	"mocap-retarget/internal/skeleton"
)

// Phase is the playback lifecycle: Unloaded → RestPose → Playing ⇄ Paused.
type Phase int

const (
	Unloaded Phase = iota
	RestPose
	Playing
	Paused
)

func (p Phase) String() string {
	switch p {
	case Unloaded:
		return "unloaded"
	case RestPose:
		return "rest-pose"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// ErrNotLoaded is returned by operations that need a loaded player.
var ErrNotLoaded = errors.New("playback: not loaded")

// State is the explicit playback state carried between ticks.
type State struct {
	Phase  Phase
	Cursor motion.Cursor
}

// Player owns one source/target tree pair and drives them frame by frame.
// A Player is not safe for concurrent use; independent players share nothing.
type Player struct {
	state  State
	source *skeleton.Tree
	target *skeleton.Tree
	store  *motion.Store
	mapper *retarget.Mapper
}

// New returns an unloaded player.
func New() *Player {
	return &Player{}
}

// Load validates the motion against the source tree, puts both trees into rest
// pose and rewinds to frame 0. The player takes ownership of both trees.
func (p *Player) Load(source, target *skeleton.Tree, store *motion.Store, mapper *retarget.Mapper) error {
	if err := store.Validate(source); err != nil {
		return err
	}
	source.ResetPose()
	target.ResetPose()
	p.source = source
	p.target = target
	p.store = store
	p.mapper = mapper
	p.state = State{Phase: RestPose}
	logging.Logger().Debug("playback: loaded",
		"frames", store.Len(),
		"source_joints", source.Len(),
		"target_joints", target.Len(),
	)
	return nil
}

// State returns a copy of the current state.
func (p *Player) State() State { return p.state }

// Frames returns the frame count, or 0 when unloaded.
func (p *Player) Frames() int {
	if p.store == nil {
		return 0
	}
	return p.store.Len()
}

// Play starts advancing frames on each tick.
func (p *Player) Play() error {
	if p.state.Phase == Unloaded {
		return ErrNotLoaded
	}
	p.state.Phase = Playing
	return nil
}

// Pause stops advancing frames; ticks still evaluate the current frame.
func (p *Player) Pause() error {
	if p.state.Phase == Unloaded {
		return ErrNotLoaded
	}
	p.state.Phase = Paused
	return nil
}

// Toggle switches between Playing and Paused. From RestPose it starts playing.
func (p *Player) Toggle() error {
	if p.state.Phase == Playing {
		return p.Pause()
	}
	return p.Play()
}

// Step moves the cursor by delta frames, wrapping in both directions.
func (p *Player) Step(delta int) error {
	if p.state.Phase == Unloaded {
		return ErrNotLoaded
	}
	p.state.Cursor.Seek(p.state.Cursor.Index+delta, p.store.Len())
	return nil
}

// Seek moves the cursor to frame i (wrapped).
func (p *Player) Seek(i int) error {
	if p.state.Phase == Unloaded {
		return ErrNotLoaded
	}
	p.state.Cursor.Seek(i, p.store.Len())
	return nil
}

// Reset returns both trees to rest pose and rewinds to frame 0.
func (p *Player) Reset() error {
	if p.state.Phase == Unloaded {
		return ErrNotLoaded
	}
	p.source.ResetPose()
	p.target.ResetPose()
	p.state = State{Phase: RestPose}
	return nil
}

// Tick evaluates the current frame on the source tree, retargets it onto the
// target tree and returns a snapshot of both. The cursor advances afterwards,
// only while Playing. In RestPose nothing is evaluated.
func (p *Player) Tick() (Snapshot, error) {
	switch p.state.Phase {
	case Unloaded:
		return Snapshot{}, ErrNotLoaded
	case RestPose:
		return p.snapshot(p.state.Cursor.Index, retarget.Alignment{Rotation: mathutil.Mat3Identity()}), nil
	}

	frame := p.state.Cursor.Index
	if err := p.source.ApplyPose(p.store.Frame(frame)); err != nil {
		return Snapshot{}, fmt.Errorf("playback: frame %d: %w", frame, err)
	}
	al, err := p.mapper.Apply(p.source, p.target)
	if err != nil {
		return Snapshot{}, fmt.Errorf("playback: frame %d: %w", frame, err)
	}
	snap := p.snapshot(frame, al)

	if p.state.Phase == Playing {
		p.state.Cursor.Next(p.store.Len())
	}
	return snap, nil
}
