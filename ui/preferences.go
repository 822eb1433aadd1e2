package ui

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/validation"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/fitfinder/fitfinder/config"
)

const portRegexp = `^[0-9]{1,5}$`

func checkServiceURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return errors.New("URL has no host")
	}
	return nil
}

func checkPort(s string) error {
	p, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if p < 1024 || p > 65535 {
		return fmt.Errorf("port must be between 1024 and 65535")
	}
	return nil
}

func checkCascadePath(s string) error {
	if s == "" {
		return nil
	}
	info, err := os.Stat(s)
	if err != nil {
		return errors.New("file not found")
	}
	if info.IsDir() {
		return errors.New("path is a directory")
	}
	return nil
}

// createPreferences builds the preferences panel. onCascadeChanged runs after
// a new face cascade path has been applied.
func createPreferences(cfg *config.AppConfig, sm *SettingsManager, onCascadeChanged func()) *fyne.Container {
	header := container.NewVBox()

	header.Add(createSectionTitleLabel("Detection Service"))
	sm.CreateTextEntrySetting(&TextEntryConfig{
		Name:              "Service URL",
		InitialValue:      cfg.GetDetectionURL(),
		PlaceHolder:       config.DefaultDetectionURL,
		Label:             createSettingTitleLabel("Service URL:"),
		HelpContent:       createSettingDescriptionLabel("Photos are sent to <URL>/detect/."),
		PostValidateCheck: checkServiceURL,
		ApplyFunc:         cfg.SetDetectionURL,
	}, header)

	sm.CreateTextEntrySetting(&TextEntryConfig{
		Name:         "API Token",
		InitialValue: cfg.GetDetectionToken(),
		PlaceHolder:  "Optional",
		Label:        createSettingTitleLabel("API Token:"),
		HelpContent:  createSettingDescriptionLabel("Sent as a Bearer token. Stored in the system keyring."),
		Password:     true,
		ApplyFunc:    cfg.SetDetectionToken,
	}, header)

	header.Add(widget.NewSeparator())
	header.Add(createSectionTitleLabel("Shopping"))
	sm.CreateTextEntrySetting(&TextEntryConfig{
		Name:              "Marketplace URL",
		InitialValue:      cfg.GetMarketplaceURL(),
		PlaceHolder:       config.DefaultMarketplaceURL,
		Label:             createSettingTitleLabel("Search URL:"),
		HelpContent:       createSettingDescriptionLabel("The size query is appended as ?k=..."),
		PostValidateCheck: checkServiceURL,
		ApplyFunc:         cfg.SetMarketplaceURL,
	}, header)

	header.Add(widget.NewSeparator())
	header.Add(createSectionTitleLabel("Live Photo"))
	sm.CreateTextEntrySetting(&TextEntryConfig{
		Name:              "Camera Port",
		InitialValue:      strconv.Itoa(cfg.GetBridgePort()),
		PlaceHolder:       strconv.Itoa(config.DefaultBridgePort),
		Label:             createSettingTitleLabel("Camera Port:"),
		HelpContent:       createSettingDescriptionLabel("Local port of the camera page. Takes effect after restart."),
		Validator:         validation.NewRegexp(portRegexp, "Port must be a number"),
		PostValidateCheck: checkPort,
		ApplyFunc: func(s string) {
			p, err := strconv.Atoi(s)
			if err != nil {
				return
			}
			cfg.SetBridgePort(p)
		},
	}, header)

	sm.CreateTextEntrySetting(&TextEntryConfig{
		Name:              "Face Cascade",
		InitialValue:      cfg.GetFaceCascadePath(),
		PlaceHolder:       "Path to a pigo facefinder cascade (optional)",
		Label:             createSettingTitleLabel("Person Hint Cascade:"),
		HelpContent:       createSettingDescriptionLabel("When set, photos without a visible face get a warning. Leave empty to turn off."),
		PostValidateCheck: checkCascadePath,
		ApplyFunc:         cfg.SetFaceCascadePath,
		NeedsRefresh:      true,
	}, header)
	if onCascadeChanged != nil {
		sm.RegisterRefreshFunc(onCascadeChanged)
	}

	header.Add(widget.NewSeparator())
	header.Add(createSectionTitleLabel("Application"))
	sm.CreateBoolSetting(&BoolConfig{
		Name:         "Update Check",
		InitialValue: cfg.GetUpdateCheckEnabled(),
		Label:        createSettingTitleLabel("Check for updates on start:"),
		ApplyFunc:    cfg.SetUpdateCheckEnabled,
	}, header)

	return header
}

// CreatePreferencesWindow creates and displays the preferences window.
func (fa *FitApp) CreatePreferencesWindow() {
	prefsWindow := fa.app.NewWindow(fmt.Sprintf("%s Preferences", config.AppName))
	prefsWindow.Resize(fyne.NewSize(720, 640))
	prefsWindow.CenterOnScreen()

	sm := NewSettingsManager()
	prefs := createPreferences(fa.cfg, sm, fa.reloadPersonHinter)

	closeButton := widget.NewButton("Close", func() {
		if !sm.Pending() {
			prefsWindow.Close()
			return
		}
		dialog.NewConfirm("Unsaved Changes", "Discard the changes you have not applied?", func(discard bool) {
			if discard {
				prefsWindow.Close()
			}
		}, prefsWindow).Show()
	})

	footer := container.NewHBox(layout.NewSpacer(), sm.ApplyButton(), closeButton)
	prefsWindow.SetContent(container.NewBorder(nil, footer, nil, nil, container.NewVScroll(prefs)))
	prefsWindow.Show()
}
