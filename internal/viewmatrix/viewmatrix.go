package viewmatrix

import (
	"github.com/go-gl/mathgl/mgl64"

	"mocap-retarget/internal/mathutil"
)

// Camera is the orbit view used to render both skeletons. It only affects
// projection; joint coordinates are never modified.
type Camera struct {
	RotX, RotY float64 // orbit angles, radians
	Translate  mathutil.Vec3
	FOV        float64 // vertical, degrees
	Near, Far  float64
}

// DefaultTranslate pulls the scene back from the eye.
var DefaultTranslate = mathutil.Vec3{0, 0, -200}

// DefaultTargetPlacement puts the target skeleton beside the source.
var DefaultTargetPlacement = mathutil.Vec3{-40, 0, 0}

// Default returns the reference camera: 45° perspective, near 0.1, far 500.
func Default() Camera {
	return Camera{
		Translate: DefaultTranslate,
		FOV:       45,
		Near:      0.1,
		Far:       500,
	}
}

// ViewRotation returns Rx(rotX) × Ry(rotY). Points are transformed as row
// vectors (p × R), i.e. by the transpose.
func (c Camera) ViewRotation() mathutil.Mat3 {
	return mathutil.Mat3Mul(mathutil.RotX(c.RotX), mathutil.RotY(c.RotY))
}

// Orbit adds to the orbit angles.
func (c *Camera) Orbit(dx, dy float64) {
	c.RotX += dx
	c.RotY += dy
}

// Eye transforms a world point into eye space: (p + placement) × R + Translate.
func (c Camera) Eye(p, placement mathutil.Vec3) mathutil.Vec3 {
	return c.ViewRotation().Transpose().MulVec3(p.Add(placement)).Add(c.Translate)
}

// Projection returns the perspective matrix for a viewport of w×h pixels.
func (c Camera) Projection(w, h int) mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FOV), float64(w)/float64(h), c.Near, c.Far)
}

// ProjectVertices maps world points to screen pixels (origin top-left).
// Returns screen X, screen Y, a depth key where larger is closer, and whether
// each point lies inside the near/far range in front of the eye.
func (c Camera) ProjectVertices(pts []mathutil.Vec3, placement mathutil.Vec3, w, h int) ([]float64, []float64, []float64, []bool) {
	n := len(pts)
	px := make([]float64, n)
	py := make([]float64, n)
	pz := make([]float64, n)
	vis := make([]bool, n)

	proj := c.Projection(w, h)
	model := mgl64.Ident4()
	for i, p := range pts {
		e := c.Eye(p, placement)
		if -e[2] < c.Near || -e[2] > c.Far {
			continue
		}
		win := mgl64.Project(mgl64.Vec3{e[0], e[1], e[2]}, model, proj, 0, 0, w, h)
		px[i] = win.X()
		py[i] = float64(h) - win.Y()
		pz[i] = -win.Z()
		vis[i] = true
	}
	return px, py, pz, vis
}
