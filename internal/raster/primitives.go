package raster

import (
	"math"

	"mocap-retarget/internal/mathutil"
)

// DrawSegment draws a bone between two projected points as a screen-space quad of
// the given pixel width, split into two triangles. Shading is flat, from the
// segment's in-screen direction.
func DrawSegment(fb *FrameBuffer, ax, ay, az, bx, by, bz, width float64, c RGBA, lt *Lighting) {
	dx, dy := bx-ax, by-ay
	l := math.Hypot(dx, dy)
	if l < 1e-6 {
		return
	}
	// Unit perpendicular, scaled to half the width.
	hx, hy := -dy/l*width/2, dx/l*width/2

	n := mathutil.Vec3{-dy / l, -dx / l, 0.6}.Normalize()
	col := lt.Shade(c, n)

	FillTriangle(fb,
		[3]float64{ax + hx, ax - hx, bx - hx},
		[3]float64{ay + hy, ay - hy, by - hy},
		[3]float64{az, az, bz}, col)
	FillTriangle(fb,
		[3]float64{ax + hx, bx - hx, bx + hx},
		[3]float64{ay + hy, by - hy, by + hy},
		[3]float64{az, bz, bz}, col)
}

// DrawDisc draws a joint marker as a sphere-shaded disc of the given pixel radius,
// z-tested at the center depth.
func DrawDisc(fb *FrameBuffer, cx, cy, cz, radius float64, c RGBA, lt *Lighting) {
	if radius <= 0 {
		return
	}
	minX := int(math.Floor(cx - radius))
	maxX := int(math.Ceil(cx + radius))
	minY := int(math.Floor(cy - radius))
	maxY := int(math.Ceil(cy + radius))
	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}

	inv := 1 / radius
	for sy := minY; sy <= maxY; sy++ {
		ny := -(float64(sy) + 0.5 - cy) * inv
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			nx := (float64(sx) + 0.5 - cx) * inv
			d2 := nx*nx + ny*ny
			if d2 > 1 {
				continue
			}
			nz := math.Sqrt(1 - d2)

			// Sphere surface sits slightly in front of the center.
			zv := cz + nz*1e-4
			zIdx := rowOff + sx
			if zv <= fb.ZBuf[zIdx] {
				continue
			}
			fb.ZBuf[zIdx] = zv

			col := lt.Shade(c, mathutil.Vec3{nx, ny, nz})
			pxIdx := zIdx * 4
			fb.Color[pxIdx] = col.R
			fb.Color[pxIdx+1] = col.G
			fb.Color[pxIdx+2] = col.B
			fb.Color[pxIdx+3] = col.A
		}
	}
}
