package ui

import "time"

const (
	windowTitle    = "Clothing Size Recommender"
	introText      = "Upload or capture a full-body photo (with A4 paper for scale) to detect your height & width."
	previewCaption = "Input Image (with guide)"
	detectingText  = "Detecting..."

	noCameraPageText = "No camera page is open. Press Open Camera first."
)

var uploadExtensions = []string{".jpg", ".jpeg", ".png", ".pdf"}

// updateCheckDelay postpones the startup update check past the first paint.
const updateCheckDelay = 5 * time.Second

// updateMenuItemPrefix is the copy for the new update available menu item
const updateMenuItemPrefix = "Update to "
