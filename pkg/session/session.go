// Package session holds the state of one recommendation window: the input
// mode, the acquired photograph and the outcome of the last detection.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/fitfinder/fitfinder/config"
	"github.com/fitfinder/fitfinder/pkg/detect"
	"github.com/fitfinder/fitfinder/pkg/photo"
	"github.com/fitfinder/fitfinder/pkg/sizing"
	"github.com/fitfinder/fitfinder/util"
	"github.com/fitfinder/fitfinder/util/log"
)

// User-visible messages.
const (
	MsgDecodeError     = "Could not read the file: %v"
	MsgBackendError    = "Backend error: %v"
	MsgDetectionFailed = "Detection failed. Try again with a clearer full-body photo and A4 reference."
	MsgSuccess         = "Detection Successful!"
	MsgNoPerson        = "No person found in the photo. Make sure your whole body is in frame."
)

var (
	// ErrNoImage is returned by Detect when no photograph is held.
	ErrNoImage = errors.New("no image loaded")
	// ErrWrongMode is returned when an image arrives from a source the current mode does not accept.
	ErrWrongMode = errors.New("image source does not match input mode")
	// ErrBusy is returned by Detect while another detection is in flight.
	ErrBusy = errors.New("detection already in progress")
	// ErrSuperseded is returned by Detect when the image was replaced or the
	// mode switched before the service answered. The answer is dropped.
	ErrSuperseded = errors.New("image changed during detection")
)

// Mode selects where the photograph comes from.
type Mode int

const (
	ModeUpload Mode = iota
	ModeCamera
)

// Modes returns the input modes in display order.
func Modes() []Mode {
	return []Mode{ModeUpload, ModeCamera}
}

func (m Mode) String() string {
	switch m {
	case ModeUpload:
		return "Upload Image/PDF"
	case ModeCamera:
		return "Take Live Photo"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a display label back to a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes() {
		if m.String() == s {
			return m, nil
		}
	}
	return ModeUpload, fmt.Errorf("unknown input mode %q", s)
}

func (m Mode) accepts(src photo.Source) bool {
	switch m {
	case ModeUpload:
		return src == photo.SourceUpload
	case ModeCamera:
		return src == photo.SourceCamera
	}
	return false
}

// State is the position of a session in its lifecycle.
type State int

const (
	Idle State = iota
	ImageAcquired
	DetectionRequested
	ResultShown
	FailureShown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ImageAcquired:
		return "image acquired"
	case DetectionRequested:
		return "detection requested"
	case ResultShown:
		return "result shown"
	case FailureShown:
		return "failure shown"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Recommendation is a successful detection mapped to a size.
type Recommendation struct {
	HeightCM float64
	WidthCM  float64
	Size     sizing.Bucket
	Gender   sizing.Gender
	Product  sizing.ProductType
	ShopURL  string
}

// HeightText formats the height the way it is displayed.
func (r *Recommendation) HeightText() string {
	return formatCM(r.HeightCM)
}

// WidthText formats the width the way it is displayed.
func (r *Recommendation) WidthText() string {
	return formatCM(r.WidthCM)
}

// SizeText is the "Recommended Size" line.
func (r *Recommendation) SizeText() string {
	return "Recommended Size: " + string(r.Size)
}

// ShopText is the label of the shopping link.
func (r *Recommendation) ShopText() string {
	return "Shop on Amazon for Size " + string(r.Size)
}

func formatCM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + " cm"
}

// Outcome is what a detection shows. Exactly one of Recommendation and
// Error is set.
type Outcome struct {
	Recommendation *Recommendation
	Error          string
}

// Succeeded reports whether the outcome carries a recommendation.
func (o *Outcome) Succeeded() bool {
	return o != nil && o.Recommendation != nil
}

// Option configures a Session.
type Option func(*Session)

// WithMarketplaceURL sets a function returning the shopping search base URL.
// It is read on every detection so preference changes apply immediately.
func WithMarketplaceURL(base func() string) Option {
	return func(s *Session) {
		s.marketplace = base
	}
}

// WithPersonHinter enables the advisory face count on acquired images.
func WithPersonHinter(h *photo.PersonHinter) Option {
	return func(s *Session) {
		s.hinter = h
	}
}

// Session is safe for concurrent use. Detect does not hold the lock while
// the service is being called.
type Session struct {
	detector    detect.Detector
	marketplace func() string
	inFlight    *util.SafeFlag

	mu         sync.Mutex
	hinter     *photo.PersonHinter
	mode       Mode
	state      State
	image      *photo.Image
	outcome    *Outcome
	loadErr    string
	generation uint64
}

// New returns an idle session in upload mode.
func New(d detect.Detector, opts ...Option) *Session {
	s := &Session{
		detector:    d,
		marketplace: func() string { return config.DefaultMarketplaceURL },
		inFlight:    util.NewSafeFlag(),
		mode:        ModeUpload,
		state:       Idle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Image returns the held photograph, or nil.
func (s *Session) Image() *photo.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}

// Outcome returns the outcome of the last detection on the held image, or nil.
func (s *Session) Outcome() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// LoadError returns the message of the last failed acquisition, or "".
func (s *Session) LoadError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Hint returns an advisory message about the held image, or "".
func (s *Session) Hint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.image != nil && s.image.Faces == 0 {
		return MsgNoPerson
	}
	return ""
}

// SetPersonHinter replaces the face counter used on the next acquisition.
// nil turns the hint off.
func (s *Session) SetPersonHinter(h *photo.PersonHinter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hinter = h
}

// Busy reports whether a detection is in flight.
func (s *Session) Busy() bool {
	return s.inFlight.Value()
}

// SetMode switches the input mode. Switching drops the image, the outcome
// and any error. Setting the current mode again changes nothing.
func (s *Session) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m == s.mode {
		return
	}
	log.Debugf("session: mode %s -> %s", s.mode, m)
	s.mode = m
	s.reset()
}

// reset must be called with mu held.
func (s *Session) reset() {
	s.image = nil
	s.outcome = nil
	s.loadErr = ""
	s.state = Idle
	s.generation++
}

// Load decodes an uploaded file or a captured frame and makes it the held
// image. On failure the previous image is dropped too and LoadError carries
// the message to show.
func (s *Session) Load(ctx context.Context, data []byte, mimeType string, src photo.Source, name string) (*photo.Image, error) {
	s.mu.Lock()
	if !s.mode.accepts(src) {
		mode := s.mode
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s image in %s mode", ErrWrongMode, src, mode)
	}
	hinter := s.hinter
	s.mu.Unlock()

	img, err := photo.Load(ctx, data, mimeType, src, name, hinter)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mode.accepts(src) {
		return nil, fmt.Errorf("%w: mode switched while loading %s", ErrWrongMode, name)
	}
	s.reset()
	if err != nil {
		log.Printf("session: could not read %q: %v", name, err)
		s.loadErr = fmt.Sprintf(MsgDecodeError, err)
		return nil, err
	}

	w, h := img.Size()
	log.Printf("session: acquired %s image %q (%dx%d)", src, name, w, h)
	s.image = img
	s.state = ImageAcquired
	return img, nil
}

// LoadReader reads a file and loads it like Load. A read failure is reported
// the same way as a decode failure.
func (s *Session) LoadReader(ctx context.Context, r io.Reader, mimeType string, src photo.Source, name string) (*photo.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		err = fmt.Errorf("reading %s: %w", name, err)
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.mode.accepts(src) {
			return nil, fmt.Errorf("%w: %s image in %s mode", ErrWrongMode, src, s.mode)
		}
		log.Printf("session: %v", err)
		s.reset()
		s.loadErr = fmt.Sprintf(MsgDecodeError, err)
		return nil, err
	}
	return s.Load(ctx, data, mimeType, src, name)
}

// Detect sends the held image to the detection service and maps the answer
// to a size for the given selections. Service and transport failures become
// an Outcome, not an error; the error return is reserved for requests the
// session refuses or drops.
func (s *Session) Detect(ctx context.Context, g sizing.Gender, p sizing.ProductType) (*Outcome, error) {
	if !s.inFlight.TrySet() {
		return nil, ErrBusy
	}
	defer s.inFlight.Set(false)

	s.mu.Lock()
	img := s.image
	if img == nil {
		s.mu.Unlock()
		return nil, ErrNoImage
	}
	gen := s.generation
	prev := s.state
	s.state = DetectionRequested
	s.outcome = nil
	s.mu.Unlock()

	outcome, err := s.run(ctx, img, g, p)
	if err != nil {
		s.mu.Lock()
		if s.generation == gen {
			s.state = prev
		}
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return nil, ErrSuperseded
	}
	s.outcome = outcome
	if outcome.Succeeded() {
		s.state = ResultShown
	} else {
		s.state = FailureShown
	}
	return outcome, nil
}

func (s *Session) run(ctx context.Context, img *photo.Image, g sizing.Gender, p sizing.ProductType) (*Outcome, error) {
	data, err := photo.EncodeJPEG(ctx, img.Annotated)
	if err != nil {
		return nil, err
	}

	res, err := s.detector.Detect(ctx, &detect.Request{Image: data})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("session: detection request failed: %v", err)
		return &Outcome{Error: fmt.Sprintf(MsgBackendError, err)}, nil
	}
	if !res.Complete() {
		return &Outcome{Error: MsgDetectionFailed}, nil
	}

	size := sizing.Classify(*res.WidthCM)
	rec := &Recommendation{
		HeightCM: *res.HeightCM,
		WidthCM:  *res.WidthCM,
		Size:     size,
		Gender:   g,
		Product:  p,
		ShopURL:  sizing.ShoppingURL(s.marketplace(), g, p, size),
	}
	log.Printf("session: width %s -> size %s", rec.WidthText(), size)
	return &Outcome{Recommendation: rec}, nil
}
