package playback

import (
	"mocap-retarget/internal/mathutil"
	"mocap-retarget/internal/retarget"
	"mocap-retarget/internal/skeleton"
)

// Skeleton is a read-only copy of one tree's joint coordinates and adjacency.
type Skeleton struct {
	Names       []string        `json:"names"`
	Coordinates []mathutil.Vec3 `json:"coordinates"`
	Bones       [][2]int        `json:"bones"`
}

// Snapshot is everything a renderer needs for one tick.
type Snapshot struct {
	Frame     int                `json:"frame"`
	Frames    int                `json:"frames"`
	Phase     string             `json:"phase"`
	Source    Skeleton           `json:"source"`
	Target    Skeleton           `json:"target"`
	Alignment retarget.Alignment `json:"-"`
}

func (p *Player) snapshot(frame int, al retarget.Alignment) Snapshot {
	return Snapshot{
		Frame:     frame,
		Frames:    p.store.Len(),
		Phase:     p.state.Phase.String(),
		Source:    copySkeleton(p.source),
		Target:    copySkeleton(p.target),
		Alignment: al,
	}
}

func copySkeleton(t *skeleton.Tree) Skeleton {
	bones := t.Bones()
	pairs := make([][2]int, len(bones))
	for i, b := range bones {
		pairs[i] = [2]int{b.Parent, b.Child}
	}
	return Skeleton{
		Names:       t.Names(),
		Coordinates: t.Coordinates(),
		Bones:       pairs,
	}
}
