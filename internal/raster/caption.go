package raster

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DrawCaption writes text in the top-left corner of img.
func DrawCaption(img *image.NRGBA, text string, c RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.NRGBA{c.R, c.G, c.B, c.A}),
		Face: face,
		Dot:  fixed.P(6, 6+face.Ascent),
	}
	d.DrawString(text)
}
