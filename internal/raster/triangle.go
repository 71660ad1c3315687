package raster

import "math"

// FillTriangle rasterizes a flat-colored triangle with z-buffer testing.
// x, y are screen pixels; z is the depth key (larger is closer), interpolated
// barycentrically.
//
// This is the hot path: no allocations in the pixel loop.
func FillTriangle(fb *FrameBuffer, x, y, z [3]float64, c RGBA) {
	x0, y0, z0 := x[0], y[0], z[0]
	x1, y1, z1 := x[1], y[1], z[1]
	x2, y2, z2 := x[2], y[2], z[2]

	// Bounding box
	minX := int(math.Min(math.Min(x0, x1), x2))
	maxX := int(math.Max(math.Max(x0, x1), x2)) + 1
	minY := int(math.Min(math.Min(y0, y1), y2))
	maxY := int(math.Max(math.Max(y0, y1), y2)) + 1

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
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			zv := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if zv <= fb.ZBuf[zIdx] {
				continue
			}
			fb.ZBuf[zIdx] = zv

			pxIdx := zIdx * 4
			fb.Color[pxIdx] = c.R
			fb.Color[pxIdx+1] = c.G
			fb.Color[pxIdx+2] = c.B
			fb.Color[pxIdx+3] = c.A
		}
	}
}
