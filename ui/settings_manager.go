package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// BoolConfig holds configuration for a boolean check setting.
type BoolConfig struct {
	Name         string
	InitialValue bool
	Label        fyne.CanvasObject
	HelpContent  fyne.CanvasObject
	ApplyFunc    func(bool)
	NeedsRefresh bool
}

// TextEntryConfig holds configuration for a text entry setting.
type TextEntryConfig struct {
	Name              string
	InitialValue      string
	PlaceHolder       string
	Label             fyne.CanvasObject
	HelpContent       fyne.CanvasObject
	Validator         fyne.StringValidator
	PostValidateCheck func(string) error
	ApplyFunc         func(string)
	NeedsRefresh      bool
	Password          bool
}

// SettingsManager builds setting rows and collects their changes until
// Apply Changes is pressed.
type SettingsManager struct {
	chgPrefsCallbacks map[string]func()
	refreshFlags      map[string]bool
	refreshFuncs      []func()
	applyButton       *widget.Button
}

// NewSettingsManager creates a new SettingsManager.
func NewSettingsManager() *SettingsManager {
	sm := &SettingsManager{
		chgPrefsCallbacks: make(map[string]func()),
		refreshFlags:      make(map[string]bool),
	}
	sm.applyButton = widget.NewButton("Apply Changes", sm.apply)
	sm.applyButton.Importance = widget.HighImportance
	sm.applyButton.Disable()
	return sm
}

func (sm *SettingsManager) apply() {
	sm.applyButton.Disable()

	for _, callback := range sm.chgPrefsCallbacks {
		callback()
	}
	sm.chgPrefsCallbacks = make(map[string]func())

	if len(sm.refreshFlags) > 0 {
		for _, rf := range sm.refreshFuncs {
			rf()
		}
		sm.refreshFlags = make(map[string]bool)
	}
	sm.checkAndEnableApply()
}

func (sm *SettingsManager) checkAndEnableApply() {
	if len(sm.chgPrefsCallbacks) > 0 || len(sm.refreshFlags) > 0 {
		sm.applyButton.Enable()
	} else {
		sm.applyButton.Disable()
	}
}

// ApplyButton returns the Apply Changes button.
func (sm *SettingsManager) ApplyButton() *widget.Button {
	return sm.applyButton
}

// Pending reports whether there are changes waiting to be applied.
func (sm *SettingsManager) Pending() bool {
	return len(sm.chgPrefsCallbacks) > 0
}

// CreateBoolSetting creates a boolean check setting.
func (sm *SettingsManager) CreateBoolSetting(cfg *BoolConfig, header *fyne.Container) *widget.Check {
	check := widget.NewCheck("", nil)
	check.SetChecked(cfg.InitialValue)

	header.Add(newSplitRow(cfg.Label, check))
	if cfg.HelpContent != nil {
		header.Add(cfg.HelpContent)
	}

	check.OnChanged = func(b bool) {
		if b != cfg.InitialValue {
			sm.setChanged(cfg.Name, cfg.NeedsRefresh, func() {
				cfg.ApplyFunc(b)
				cfg.InitialValue = b
			})
		} else {
			sm.unsetChanged(cfg.Name)
		}
		sm.checkAndEnableApply()
	}
	return check
}

// CreateTextEntrySetting creates a text entry setting with a status line
// that reports validation problems as the user types.
func (sm *SettingsManager) CreateTextEntrySetting(cfg *TextEntryConfig, header *fyne.Container) *widget.Entry {
	var entry *widget.Entry
	if cfg.Password {
		entry = widget.NewPasswordEntry()
	} else {
		entry = widget.NewEntry()
	}
	entry.SetPlaceHolder(cfg.PlaceHolder)
	entry.SetText(cfg.InitialValue)
	entry.Validator = cfg.Validator

	statusLabel := widget.NewLabel("")

	header.Add(newSplitRow(cfg.Label, entry))
	if cfg.HelpContent != nil {
		header.Add(newOpposedRow(cfg.HelpContent, statusLabel))
	} else {
		header.Add(newOpposedRow(widget.NewLabel(""), statusLabel))
	}

	entry.OnChanged = func(s string) {
		err := sm.validate(cfg, entry, s)
		switch {
		case err != nil:
			statusLabel.SetText(err.Error())
			statusLabel.Importance = widget.DangerImportance
			sm.unsetChanged(cfg.Name)
		case s == cfg.InitialValue:
			statusLabel.SetText("")
			sm.unsetChanged(cfg.Name)
		default:
			statusLabel.SetText(fmt.Sprintf("%s OK", cfg.Name))
			statusLabel.Importance = widget.SuccessImportance
			sm.setChanged(cfg.Name, cfg.NeedsRefresh, func() {
				cfg.ApplyFunc(s)
				cfg.InitialValue = s
			})
		}
		statusLabel.Refresh()
		sm.checkAndEnableApply()
	}
	return entry
}

func (sm *SettingsManager) validate(cfg *TextEntryConfig, entry *widget.Entry, s string) error {
	if cfg.Validator != nil {
		if err := entry.Validate(); err != nil {
			return err
		}
	}
	if cfg.PostValidateCheck != nil {
		return cfg.PostValidateCheck(s)
	}
	return nil
}

func (sm *SettingsManager) setChanged(name string, needsRefresh bool, apply func()) {
	sm.chgPrefsCallbacks[name] = apply
	if needsRefresh {
		sm.refreshFlags[name] = true
	}
}

func (sm *SettingsManager) unsetChanged(name string) {
	delete(sm.chgPrefsCallbacks, name)
	delete(sm.refreshFlags, name)
}

// RegisterRefreshFunc registers a function to run after changes flagged
// NeedsRefresh have been applied.
func (sm *SettingsManager) RegisterRefreshFunc(refreshFunc func()) {
	sm.refreshFuncs = append(sm.refreshFuncs, refreshFunc)
}
