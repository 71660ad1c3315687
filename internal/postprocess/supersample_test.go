package postprocess

import (
	"image"
	"image/color"
	"testing"
)

func TestDownsample(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			src.SetNRGBA(x, y, color.NRGBA{200, 100, 50, 255})
		}
	}

	dst := Downsample(src, 20, 10)
	if b := dst.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Fatalf("bounds = %v, want 20x10", b)
	}

	// Opaque interior keeps its color; transparent side stays transparent.
	in := dst.NRGBAAt(3, 5)
	if in.A != 255 || in.R < 195 || in.R > 205 {
		t.Fatalf("interior = %v", in)
	}
	if out := dst.NRGBAAt(17, 5); out.A != 0 {
		t.Fatalf("transparent side = %v", out)
	}
}

func TestDownsampleNoop(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	if Downsample(src, 10, 10) != src {
		t.Fatal("same-size downsample should return the input")
	}
}
