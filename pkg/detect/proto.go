package detect

import "context"

// Detector represents the body measurement service.
type Detector interface {
	// Detect measures the person in the JPEG image.
	Detect(ctx context.Context, req *Request) (*Result, error)
}

type Request struct {
	Image []byte // JPEG encoded
}

// Result holds the measurements returned by the service. A nil field was
// missing from the response, or was not a number.
type Result struct {
	HeightCM *float64 `json:"height_cm"`
	WidthCM  *float64 `json:"width_cm"`
}

// Complete reports whether both measurements are present.
func (r *Result) Complete() bool {
	return r != nil && r.HeightCM != nil && r.WidthCM != nil
}
