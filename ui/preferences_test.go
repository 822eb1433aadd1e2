package ui

import (
	"os"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/fitfinder/fitfinder/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestCheckServiceURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Local service", "http://localhost:8000", false},
		{"HTTPS with path", "https://sizes.example.com/api", false},
		{"Missing scheme", "localhost:8000", true},
		{"FTP scheme", "ftp://example.com", true},
		{"No host", "http://", true},
		{"Empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkServiceURL(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckPort(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"49460", false},
		{"1024", false},
		{"65535", false},
		{"1023", true},
		{"65536", true},
		{"abc", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := checkPort(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckCascadePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "facefinder")
	require.NoError(t, os.WriteFile(file, []byte("cascade"), 0600))

	assert.NoError(t, checkCascadePath(""), "empty turns the hint off")
	assert.NoError(t, checkCascadePath(file))
	assert.Error(t, checkCascadePath(dir))
	assert.Error(t, checkCascadePath(filepath.Join(dir, "missing")))
}

func TestCreatePreferences(t *testing.T) {
	keyring.MockInit()
	a := test.NewApp()
	defer a.Quit()

	cfg := config.NewAppConfig(a.Preferences())
	sm := NewSettingsManager()
	refreshed := 0

	prefs := createPreferences(cfg, sm, func() { refreshed++ })

	assert.NotEmpty(t, prefs.Objects)
	assert.Len(t, sm.refreshFuncs, 1)
	assert.False(t, sm.Pending())
	assert.True(t, sm.ApplyButton().Disabled())
}
