package photo

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// GuideColor is the colour of the centre guides.
var GuideColor = color.NRGBA{R: 255, A: 255}

// GuideWidth is the stroke of the centre guides in pixels.
const GuideWidth = 2

// Annotate returns a copy of img, moved to the origin, with a vertical line
// through the middle column and a horizontal line through the middle row,
// edge to edge. The middle is W/2 and H/2 with integer division; each stroke
// covers that column (row) and the one before it. img is not modified.
func Annotate(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	b := dst.Bounds()
	if b.Empty() {
		return dst
	}
	w, h := b.Dx(), b.Dy()
	off := GuideWidth / 2

	dst = imaging.Paste(dst, imaging.New(GuideWidth, h, GuideColor), image.Pt(w/2-off, 0))
	dst = imaging.Paste(dst, imaging.New(w, GuideWidth, GuideColor), image.Pt(0, h/2-off))
	return dst
}
