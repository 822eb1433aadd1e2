// Package photo acquires the input photograph, draws the centre guides on it
// and encodes it for the detection service.
package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"mime"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"golang.org/x/sync/errgroup"
)

// PDFRenderDPI is the resolution the first PDF page is rasterised at.
// 72 DPI is the PDF user-space default, one pixel per point.
const PDFRenderDPI = 72.0

// JPEGQuality is the quality the annotated image is sent to the detection service with.
const JPEGQuality = 75

// ErrEmpty is returned when there are no bytes to decode.
var ErrEmpty = errors.New("file is empty")

// Source tells where an image came from.
type Source int

const (
	SourceUpload Source = iota
	SourceCamera
)

func (s Source) String() string {
	switch s {
	case SourceUpload:
		return "upload"
	case SourceCamera:
		return "camera"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// Image is an acquired photograph.
type Image struct {
	// Original is the decoded photograph.
	Original image.Image
	// Annotated is a copy of Original with the centre guides drawn on it. It is
	// what gets shown and what gets sent for detection.
	Annotated *image.NRGBA
	Source    Source
	Name      string
	// Faces is the number of faces the person hint found, or -1 when the hint is off.
	Faces int
}

// Size returns the pixel dimensions of the image.
func (i *Image) Size() (int, int) {
	b := i.Original.Bounds()
	return b.Dx(), b.Dy()
}

// IsPDF reports whether a MIME type names a PDF document.
func IsPDF(mimeType string) bool {
	return strings.Contains(mimeType, "pdf")
}

// ContentType resolves the MIME type of a file, preferring the type reported
// by the picker and falling back to the file extension.
func ContentType(name, reported string) string {
	if reported != "" && reported != "application/octet-stream" {
		return reported
	}
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		return t
	}
	return reported
}

// Decode turns uploaded or captured bytes into an image. PDFs contribute
// their first page only.
func Decode(ctx context.Context, data []byte, mimeType string) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	var img image.Image
	var err error
	if IsPDF(mimeType) {
		img, err = decodePDF(data)
	} else {
		img, err = imaging.Decode(bytes.NewReader(data))
		if err != nil {
			err = fmt.Errorf("decoding image: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	return img, nil
}

// decodePDF rasterises the first page of a PDF onto a white RGB canvas.
func decodePDF(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() < 1 {
		return nil, errors.New("pdf has no pages")
	}

	page, err := doc.ImageDPI(0, PDFRenderDPI)
	if err != nil {
		return nil, fmt.Errorf("rendering pdf page 1: %w", err)
	}

	b := page.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(canvas, page, image.Pt(0, 0), 1.0), nil
}

// Load decodes data and prepares it for display and detection: the guides
// are drawn on a copy while the person hint (when h is non-nil) looks at the
// original.
func Load(ctx context.Context, data []byte, mimeType string, src Source, name string, h *PersonHinter) (*Image, error) {
	decoded, err := Decode(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}

	img := &Image{Original: decoded, Source: src, Name: name, Faces: -1}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		img.Annotated = Annotate(decoded)
		return nil
	})
	if h != nil {
		g.Go(func() error {
			faces, err := h.CountFaces(gctx, decoded)
			if err != nil {
				return err
			}
			img.Faces = faces
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return img, nil
}

// EncodeJPEG encodes img as JPEG bytes.
func EncodeJPEG(ctx context.Context, img image.Image) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), nil
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
