package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/fitfinder/fitfinder/pkg/capture"
	"github.com/fitfinder/fitfinder/pkg/photo"
	"github.com/fitfinder/fitfinder/pkg/session"
	"github.com/fitfinder/fitfinder/pkg/sizing"
	"github.com/fitfinder/fitfinder/util/log"
)

// CameraBridge is the part of the camera bridge the window drives.
type CameraBridge interface {
	CameraURL() string
	TriggerCapture() int
}

// Recommender is the main window content. It renders a session and turns
// user actions into session calls.
type Recommender struct {
	window  fyne.Window
	sess    *session.Session
	bridge  CameraBridge
	openURL func(*url.URL) error
	ctx     context.Context
	cancel  context.CancelFunc

	// async runs blocking work off the UI goroutine.
	async func(func())

	notice string
	// pressed covers the gap between a Detect press and the session
	// reporting Busy. Only touched on the UI goroutine.
	pressed bool

	modeRadio     *widget.RadioGroup
	uploadBox     *fyne.Container
	cameraBox     *fyne.Container
	openCamBtn    *widget.Button
	captureBtn    *widget.Button
	loadErrLabel  *widget.Label
	noticeLabel   *widget.Label
	imageBox      *fyne.Container
	preview       *canvas.Image
	hintLabel     *widget.Label
	attrBox       *fyne.Container
	genderRadio   *widget.RadioGroup
	productSelect *widget.Select
	detectBtn     *widget.Button
	progress      *widget.ProgressBarInfinite
	failureLabel  *widget.Label
	successBox    *fyne.Container
	heightLabel   *widget.Label
	widthLabel    *widget.Label
	sizeLabel     *widget.Label
	shopLink      *widget.Hyperlink

	content fyne.CanvasObject
}

// NewRecommender builds the window content for sess. bridge may be nil when
// the camera bridge could not start.
func NewRecommender(window fyne.Window, sess *session.Session, bridge CameraBridge, openURL func(*url.URL) error) *Recommender {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Recommender{
		window:  window,
		sess:    sess,
		bridge:  bridge,
		openURL: openURL,
		ctx:     ctx,
		cancel:  cancel,
		async:   func(f func()) { go f() },
	}
	r.build()
	r.render()
	return r
}

// Content returns the root object to put in the window.
func (r *Recommender) Content() fyne.CanvasObject {
	return r.content
}

// Close cancels any detection still in flight.
func (r *Recommender) Close() {
	r.cancel()
}

func (r *Recommender) build() {
	title := widget.NewLabelWithStyle(windowTitle, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	title.SizeName = theme.SizeNameHeadingText
	intro := widget.NewLabel(introText)
	intro.Wrapping = fyne.TextWrapWord

	modes := []string{}
	for _, m := range session.Modes() {
		modes = append(modes, m.String())
	}
	r.modeRadio = widget.NewRadioGroup(modes, r.onModeChanged)
	r.modeRadio.Horizontal = true
	r.modeRadio.Required = true

	uploadBtn := widget.NewButtonWithIcon("Upload a photo or PDF", theme.UploadIcon(), r.showUploadDialog)
	r.uploadBox = container.NewVBox(uploadBtn)

	r.openCamBtn = widget.NewButtonWithIcon("Open Camera", theme.ComputerIcon(), r.onOpenCamera)
	r.captureBtn = widget.NewButtonWithIcon("Capture", theme.MediaPhotoIcon(), r.onCapture)
	r.cameraBox = container.NewVBox(
		container.NewHBox(r.openCamBtn, r.captureBtn),
		createSettingDescriptionLabel("The camera opens in your browser. Press Capture there or here to take the photo."),
	)
	if r.bridge == nil {
		r.openCamBtn.Disable()
		r.captureBtn.Disable()
	}

	r.loadErrLabel = createMessageLabel(widget.DangerImportance)
	r.noticeLabel = createMessageLabel(widget.WarningImportance)

	r.preview = canvas.NewImageFromImage(nil)
	r.preview.FillMode = canvas.ImageFillContain
	r.preview.SetMinSize(fyne.NewSize(360, 420))
	r.hintLabel = createMessageLabel(widget.WarningImportance)
	r.imageBox = container.NewVBox(
		r.preview,
		widget.NewLabelWithStyle(previewCaption, fyne.TextAlignCenter, fyne.TextStyle{Italic: true}),
		r.hintLabel,
	)

	genders := []string{}
	for _, g := range sizing.Genders() {
		genders = append(genders, g.String())
	}
	r.genderRadio = widget.NewRadioGroup(genders, nil)
	r.genderRadio.Horizontal = true
	r.genderRadio.Required = true
	r.genderRadio.SetSelected(sizing.Male.String())

	products := []string{}
	for _, p := range sizing.ProductTypes() {
		products = append(products, p.String())
	}
	r.productSelect = widget.NewSelect(products, nil)
	r.productSelect.SetSelected(sizing.TShirt.String())

	r.detectBtn = widget.NewButton("Detect Size", r.onDetect)
	r.detectBtn.Importance = widget.HighImportance
	r.progress = widget.NewProgressBarInfinite()
	r.progress.Stop()
	r.progress.Hide()

	r.attrBox = container.NewVBox(
		createSettingTitleLabel("Select Gender"),
		r.genderRadio,
		createSettingTitleLabel("Select Product Type"),
		r.productSelect,
		r.detectBtn,
		r.progress,
	)

	r.failureLabel = createMessageLabel(widget.DangerImportance)

	success := widget.NewLabel(session.MsgSuccess)
	success.Importance = widget.SuccessImportance
	r.heightLabel = widget.NewLabel("")
	r.widthLabel = widget.NewLabel("")
	r.sizeLabel = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	r.sizeLabel.SizeName = theme.SizeNameSubHeadingText
	r.shopLink = widget.NewHyperlink("", nil)
	r.successBox = container.NewVBox(success, r.heightLabel, r.widthLabel, r.sizeLabel, r.shopLink)

	r.content = container.NewVScroll(container.NewPadded(container.NewVBox(
		title,
		intro,
		widget.NewSeparator(),
		createSettingTitleLabel("Choose Input Method"),
		r.modeRadio,
		r.uploadBox,
		r.cameraBox,
		r.loadErrLabel,
		r.noticeLabel,
		r.imageBox,
		r.attrBox,
		r.failureLabel,
		r.successBox,
	)))
}

// render makes the widgets reflect the session. Must run on the UI goroutine.
func (r *Recommender) render() {
	mode := r.sess.Mode()
	r.modeRadio.Selected = mode.String()
	r.modeRadio.Refresh()
	if mode == session.ModeUpload {
		r.uploadBox.Show()
		r.cameraBox.Hide()
	} else {
		r.uploadBox.Hide()
		r.cameraBox.Show()
	}

	if img := r.sess.Image(); img != nil {
		r.preview.Image = img.Annotated
		r.imageBox.Show()
		r.attrBox.Show()
	} else {
		r.preview.Image = nil
		r.imageBox.Hide()
		r.attrBox.Hide()
	}
	r.preview.Refresh()

	setMessage(r.loadErrLabel, r.sess.LoadError())
	setMessage(r.noticeLabel, r.notice)
	setMessage(r.hintLabel, r.sess.Hint())

	if r.pressed || r.sess.Busy() {
		r.detectBtn.Disable()
		r.detectBtn.SetText(detectingText)
		r.progress.Show()
		r.progress.Start()
	} else {
		r.detectBtn.Enable()
		r.detectBtn.SetText("Detect Size")
		r.progress.Stop()
		r.progress.Hide()
	}

	if r.pressed {
		r.renderOutcome(nil)
	} else {
		r.renderOutcome(r.sess.Outcome())
	}
}

func (r *Recommender) renderOutcome(o *session.Outcome) {
	switch {
	case o == nil:
		r.successBox.Hide()
		setMessage(r.failureLabel, "")
	case o.Succeeded():
		rec := o.Recommendation
		r.heightLabel.SetText("Height: " + rec.HeightText())
		r.widthLabel.SetText("Width: " + rec.WidthText())
		r.sizeLabel.SetText(rec.SizeText())
		r.shopLink.SetText(rec.ShopText())
		if err := r.shopLink.SetURLFromString(rec.ShopURL); err != nil {
			log.Printf("Invalid shopping URL %q: %v", rec.ShopURL, err)
		}
		r.successBox.Show()
		setMessage(r.failureLabel, "")
	default:
		r.successBox.Hide()
		setMessage(r.failureLabel, o.Error)
	}
}

func (r *Recommender) onModeChanged(selected string) {
	m, err := session.ParseMode(selected)
	if err != nil {
		return
	}
	r.notice = ""
	r.sess.SetMode(m)
	r.render()
}

func (r *Recommender) showUploadDialog() {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, r.window)
			return
		}
		if rc == nil {
			return // cancelled
		}
		r.async(func() {
			defer rc.Close()
			r.loadUpload(rc, rc.URI().Name(), rc.URI().MimeType())
		})
	}, r.window)
	d.SetFilter(storage.NewExtensionFileFilter(uploadExtensions))
	d.Show()
}

// loadUpload loads a picked file and renders the result.
func (r *Recommender) loadUpload(rc io.Reader, name, reportedType string) {
	mimeType := photo.ContentType(name, reportedType)
	if _, err := r.sess.LoadReader(r.ctx, rc, mimeType, photo.SourceUpload, name); err != nil {
		log.Printf("Upload of %q failed: %v", name, err)
	}
	fyne.Do(r.render)
}

// HandleFrame is the camera bridge frame handler.
func (r *Recommender) HandleFrame(ctx context.Context, data []byte, mimeType string) error {
	_, err := r.sess.Load(ctx, data, mimeType, photo.SourceCamera, "camera capture")
	fyne.Do(func() {
		if err == nil {
			r.notice = ""
		}
		r.render()
	})
	if errors.Is(err, session.ErrWrongMode) {
		return fmt.Errorf("%w: %v", capture.ErrNotAccepting, err)
	}
	return err
}

func (r *Recommender) onOpenCamera() {
	if r.bridge == nil {
		return
	}
	u, err := url.Parse(r.bridge.CameraURL())
	if err == nil {
		err = r.openURL(u)
	}
	if err != nil {
		log.Printf("Failed to open camera page: %v", err)
		dialog.ShowError(err, r.window)
	}
}

func (r *Recommender) onCapture() {
	if r.bridge == nil {
		return
	}
	if r.bridge.TriggerCapture() == 0 {
		r.notice = noCameraPageText
	} else {
		r.notice = ""
	}
	r.render()
}

// SetCameraUnavailable disables live capture and says why.
func (r *Recommender) SetCameraUnavailable(reason error) {
	r.bridge = nil
	r.openCamBtn.Disable()
	r.captureBtn.Disable()
	r.notice = fmt.Sprintf("Live photo is unavailable: %v", reason)
	r.render()
}

func (r *Recommender) selections() (sizing.Gender, sizing.ProductType) {
	g, err := sizing.ParseGender(r.genderRadio.Selected)
	if err != nil {
		g = sizing.Male
	}
	p, err := sizing.ParseProductType(r.productSelect.Selected)
	if err != nil {
		p = sizing.TShirt
	}
	return g, p
}

func (r *Recommender) onDetect() {
	if r.pressed {
		return
	}
	g, p := r.selections()
	r.pressed = true
	r.render()

	r.async(func() {
		if _, err := r.sess.Detect(r.ctx, g, p); err != nil {
			log.Printf("Detection not shown: %v", err)
		}
		fyne.Do(func() {
			r.pressed = false
			r.render()
		})
	})
}
