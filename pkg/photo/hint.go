package photo

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
)

// HintTuning holds the face detector knobs used by the person hint.
type HintTuning struct {
	MinQuality   float32 // Default: 10.0 (Base filter)
	IoUThreshold float64 // Default: 0.2 (Clustering)
	ScaleFactor  float64 // Default: 1.1 (pigo internal)
	ShiftFactor  float64 // Default: 0.1 (Stride)
	MinSizePct   int     // Default: 1 (1% of min dim)
}

// DefaultHintTuning returns the standard detector values.
func DefaultHintTuning() HintTuning {
	return HintTuning{
		MinQuality:   10.0,
		IoUThreshold: 0.2,
		ScaleFactor:  1.1,
		ShiftFactor:  0.1,
		MinSizePct:   1,
	}
}

// PersonHinter counts faces in a photo so the UI can warn when nobody seems
// to be in frame. It is advisory; detection runs either way.
type PersonHinter struct {
	classifier *pigo.Pigo
	tuning     HintTuning
}

// NewPersonHinter unpacks a pigo face cascade.
func NewPersonHinter(cascade []byte) (*PersonHinter, error) {
	p := pigo.NewPigo()
	classifier, err := p.Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpacking face cascade: %w", err)
	}
	return &PersonHinter{classifier: classifier, tuning: DefaultHintTuning()}, nil
}

// LoadPersonHinter reads a pigo face cascade from disk.
func LoadPersonHinter(path string) (*PersonHinter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading face cascade: %w", err)
	}
	return NewPersonHinter(data)
}

// CountFaces returns the number of faces found in img.
func (h *PersonHinter) CountFaces(ctx context.Context, img image.Image) (int, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}

	src := imaging.Clone(img)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()
	minDim := min(cols, rows)

	minSize := max(20, minDim*h.tuning.MinSizePct/100)
	params := pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     max(minSize, minDim),
		ShiftFactor: h.tuning.ShiftFactor,
		ScaleFactor: h.tuning.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := h.classifier.RunCascade(params, 0.0)
	dets = h.classifier.ClusterDetections(dets, h.tuning.IoUThreshold)

	if err := checkContext(ctx); err != nil {
		return 0, err
	}

	return countQualified(dets, h.tuning.MinQuality), nil
}

// countQualified counts detections whose score reaches minQuality.
func countQualified(dets []pigo.Detection, minQuality float32) int {
	faces := 0
	for _, d := range dets {
		if d.Q >= minQuality {
			faces++
		}
	}
	return faces
}
