package photo

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
)

func TestAnnotate(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	tests := []struct {
		name string
		w, h int
	}{
		{"Even", 10, 8},
		{"Odd", 11, 7},
		{"Tall", 4, 30},
		{"SinglePixel", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := Annotate(imaging.New(tt.w, tt.h, white))

			cx, cy := tt.w/2, tt.h/2
			for y := 0; y < tt.h; y++ {
				assert.Equal(t, GuideColor, img.NRGBAAt(cx, y))
			}
			for x := 0; x < tt.w; x++ {
				assert.Equal(t, GuideColor, img.NRGBAAt(x, cy))
			}

			// Nothing outside the two strokes is touched.
			for y := 0; y < tt.h; y++ {
				for x := 0; x < tt.w; x++ {
					onVertical := x == cx || x == cx-1
					onHorizontal := y == cy || y == cy-1
					if !onVertical && !onHorizontal {
						assert.Equal(t, white, img.NRGBAAt(x, y), "pixel %d,%d", x, y)
					}
				}
			}
		})
	}
}

func TestAnnotate_OffsetBounds(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 20, 30, 60))
	img := Annotate(src)

	// A 20x40 image that started at (10,20) comes back at the origin.
	assert.Equal(t, image.Rect(0, 0, 20, 40), img.Bounds())
	assert.Equal(t, GuideColor, img.NRGBAAt(10, 0))
	assert.Equal(t, GuideColor, img.NRGBAAt(10, 39))
	assert.Equal(t, GuideColor, img.NRGBAAt(0, 20))
	assert.Equal(t, GuideColor, img.NRGBAAt(19, 20))
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(2, 2))
}

func TestAnnotate_LeavesSourceUntouched(t *testing.T) {
	src := imaging.New(6, 6, color.NRGBA{B: 255, A: 255})
	out := Annotate(src)

	assert.Equal(t, GuideColor, out.NRGBAAt(3, 0))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, src.NRGBAAt(3, 0))
}
