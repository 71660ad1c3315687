package raster

import (
	"image"

	"mocap-retarget/internal/mathutil"
	"mocap-retarget/internal/playback"
	"mocap-retarget/internal/viewmatrix"
)

// Style controls how a skeleton is drawn. Sizes are in output pixels and are
// multiplied by the supersample factor.
type Style struct {
	Joint     RGBA
	Bone      RGBA
	JointSize float64 // disc diameter
	BoneWidth float64
}

// DefaultSourceStyle and DefaultTargetStyle tell the two skeletons apart.
var (
	DefaultSourceStyle = Style{
		Joint:     RGBA{230, 230, 230, 255},
		Bone:      RGBA{200, 200, 200, 255},
		JointSize: 10,
		BoneWidth: 2.5,
	}
	DefaultTargetStyle = Style{
		Joint:     RGBA{240, 160, 60, 255},
		Bone:      RGBA{220, 130, 40, 255},
		JointSize: 10,
		BoneWidth: 2.5,
	}
)

// Options configures RenderSnapshot.
type Options struct {
	Width, Height   int
	Supersample     int
	Camera          viewmatrix.Camera
	TargetPlacement mathutil.Vec3
	Background      RGBA
	Source, Target  Style
}

// RenderSnapshot draws both skeletons of a snapshot into an NRGBA image of
// (Width × Supersample) by (Height × Supersample) pixels.
func RenderSnapshot(snap playback.Snapshot, opts Options) *image.NRGBA {
	ss := opts.Supersample
	if ss < 1 {
		ss = 1
	}
	w, h := opts.Width*ss, opts.Height*ss

	fb := NewFrameBuffer(w, h)
	fb.Fill(opts.Background)
	lt := DefaultLighting()

	drawSkeleton(fb, snap.Source, opts.Camera, mathutil.Vec3{}, opts.Source, float64(ss), &lt)
	drawSkeleton(fb, snap.Target, opts.Camera, opts.TargetPlacement, opts.Target, float64(ss), &lt)

	return fb.Image()
}

func drawSkeleton(fb *FrameBuffer, sk playback.Skeleton, cam viewmatrix.Camera, placement mathutil.Vec3, st Style, ss float64, lt *Lighting) {
	px, py, pz, vis := cam.ProjectVertices(sk.Coordinates, placement, fb.Width, fb.Height)

	for _, b := range sk.Bones {
		p, c := b[0], b[1]
		if !vis[p] || !vis[c] {
			continue
		}
		DrawSegment(fb, px[p], py[p], pz[p], px[c], py[c], pz[c], st.BoneWidth*ss, st.Bone, lt)
	}
	for i := range sk.Coordinates {
		if !vis[i] {
			continue
		}
		DrawDisc(fb, px[i], py[i], pz[i], st.JointSize*ss/2, st.Joint, lt)
	}
}
