package raster

import (
	"math"

	"mocap-retarget/internal/mathutil"
)

// Lighting shades joint discs and bone quads. Normals are in screen space with +Z
// pointing at the viewer.
type Lighting struct {
	Key       mathutil.Vec3 // unit vector toward the key light
	Rim       mathutil.Vec3 // unit vector toward the rim light
	Ambient   float64
	KeyInt    float64
	RimInt    float64
	Specular  float64
	Shininess float64
	Exposure  float64

	half mathutil.Vec3 // Blinn-Phong half-vector of Key and the view direction
}

// DefaultLighting is a key light from the upper right front plus a dim rim from behind.
func DefaultLighting() Lighting {
	l := Lighting{
		Key:       mathutil.Vec3{0.5, 0.6, 0.6}.Normalize(),
		Rim:       mathutil.Vec3{-0.6, 0.4, -0.7}.Normalize(),
		Ambient:   0.45,
		KeyInt:    0.85,
		RimInt:    0.25,
		Specular:  0.5,
		Shininess: 24,
		Exposure:  1,
	}
	l.half = l.Key.Add(mathutil.Vec3{0, 0, 1}).Normalize()
	return l
}

// Intensity returns the light scalar for a unit normal. Both faces are lit alike.
func (l *Lighting) Intensity(n mathutil.Vec3) float64 {
	key := math.Abs(n.Dot(l.Key))
	rim := math.Abs(n.Dot(l.Rim))
	spec := math.Pow(math.Max(n.Dot(l.half), 0), l.Shininess)
	return l.Ambient + key*l.KeyInt + rim*l.RimInt + spec*l.Specular
}

// Shade lights an sRGB color for normal n: decode to linear, scale, ACES tone map,
// re-encode. Alpha is kept.
func (l *Lighting) Shade(c RGBA, n mathutil.Vec3) RGBA {
	k := l.Intensity(n) * l.Exposure
	return RGBA{
		R: encodeSRGB(ACESTonemap(srgbToLinear[c.R] * k)),
		G: encodeSRGB(ACESTonemap(srgbToLinear[c.G] * k)),
		B: encodeSRGB(ACESTonemap(srgbToLinear[c.B] * k)),
		A: c.A,
	}
}

var srgbToLinear [256]float64

func init() {
	for i := range srgbToLinear {
		srgbToLinear[i] = math.Pow(float64(i)/255, 2.2)
	}
}

func encodeSRGB(linear float64) uint8 {
	v := math.Pow(linear, 1/2.2) * 255
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// ACESTonemap applies ACES filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}
