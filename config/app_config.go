package config

import (
	"errors"
	"log"
	"os/user"

	"fyne.io/fyne/v2"
	"github.com/zalando/go-keyring"
)

// Defaults for the preference-backed settings.
const (
	DefaultDetectionURL   = "http://localhost:8000"
	DefaultMarketplaceURL = "https://www.amazon.in/s"
	DefaultBridgePort     = 49460
)

// DetectionURLKey is the key for the detection service base URL preference
const DetectionURLKey = "detection_url"

// MarketplaceURLKey is the key for the marketplace search URL preference
const MarketplaceURLKey = "marketplace_url"

// BridgePortKey is the key for the camera bridge port preference
const BridgePortKey = "camera_bridge_port"

// FaceCascadePathKey is the key for the pigo face cascade file preference
const FaceCascadePathKey = "face_cascade_path"

// AppUpdateCheckEnabledKey is the key for the app update check enabled preference
const AppUpdateCheckEnabledKey = "app_update_check_enabled"

// DetectionTokenKeyringService is the keyring service the detection API token is stored under.
const DetectionTokenKeyringService = "fitfinder_detection_token"

// AppConfig holds the application-wide configuration
type AppConfig struct {
	prefs  fyne.Preferences
	userid string
}

// NewAppConfig creates a new AppConfig instance
func NewAppConfig(p fyne.Preferences) *AppConfig {
	userid := AppName
	if u, err := user.Current(); err == nil {
		userid = u.Uid
	}
	return &AppConfig{prefs: p, userid: userid}
}

// GetDetectionURL returns the base URL of the detection service
func (c *AppConfig) GetDetectionURL() string {
	return c.prefs.StringWithFallback(DetectionURLKey, DefaultDetectionURL)
}

// SetDetectionURL sets the base URL of the detection service
func (c *AppConfig) SetDetectionURL(u string) {
	c.prefs.SetString(DetectionURLKey, u)
}

// GetMarketplaceURL returns the marketplace search URL shopping links are built on
func (c *AppConfig) GetMarketplaceURL() string {
	return c.prefs.StringWithFallback(MarketplaceURLKey, DefaultMarketplaceURL)
}

// SetMarketplaceURL sets the marketplace search URL
func (c *AppConfig) SetMarketplaceURL(u string) {
	c.prefs.SetString(MarketplaceURLKey, u)
}

// GetBridgePort returns the local port of the camera bridge
func (c *AppConfig) GetBridgePort() int {
	return c.prefs.IntWithFallback(BridgePortKey, DefaultBridgePort)
}

// SetBridgePort sets the local port of the camera bridge
func (c *AppConfig) SetBridgePort(port int) {
	c.prefs.SetInt(BridgePortKey, port)
}

// GetFaceCascadePath returns the path of the pigo face cascade, empty when the person hint is off
func (c *AppConfig) GetFaceCascadePath() string {
	return c.prefs.StringWithFallback(FaceCascadePathKey, "")
}

// SetFaceCascadePath sets the path of the pigo face cascade
func (c *AppConfig) SetFaceCascadePath(path string) {
	c.prefs.SetString(FaceCascadePathKey, path)
}

// GetUpdateCheckEnabled returns whether the application should check for updates
func (c *AppConfig) GetUpdateCheckEnabled() bool {
	return c.prefs.BoolWithFallback(AppUpdateCheckEnabledKey, true)
}

// SetUpdateCheckEnabled sets whether the application should check for updates
func (c *AppConfig) SetUpdateCheckEnabled(enabled bool) {
	c.prefs.SetBool(AppUpdateCheckEnabledKey, enabled)
}

// GetDetectionToken returns the detection API token from the keyring.
func (c *AppConfig) GetDetectionToken() string {
	token, err := keyring.Get(DetectionTokenKeyringService, c.userid)
	if err != nil {
		// Log only if it's not a "not found" error to avoid noise on first run
		if !errors.Is(err, keyring.ErrNotFound) {
			log.Printf("failed to retrieve detection token from keyring: %v", err)
		}
		return ""
	}
	return token
}

// SetDetectionToken stores the detection API token in the keyring. An empty token removes it.
func (c *AppConfig) SetDetectionToken(token string) {
	if token == "" {
		if err := keyring.Delete(DetectionTokenKeyringService, c.userid); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			log.Printf("failed to delete detection token from keyring: %v", err)
		}
		return
	}
	if err := keyring.Set(DetectionTokenKeyringService, c.userid, token); err != nil {
		log.Printf("failed to save detection token to keyring: %v", err)
	}
}
