package util

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/fitfinder/fitfinder/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRoundTripper implements http.RoundTripper
type MockRoundTripper struct {
	Response *http.Response
	Err      error
	Request  *http.Request
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.Request = req
	return m.Response, m.Err
}

func TestCheckForUpdates(t *testing.T) {
	originalVersion := config.AppVersion
	defer func() { config.AppVersion = originalVersion }()

	release := `{"tag_name": "v1.1.0", "html_url": "http://release", "body": "notes"}`

	tests := []struct {
		name            string
		currentVersion  string
		responseBody    string
		statusCode      int
		expectUpdate    bool
		expectError     bool
		expectedVersion string
	}{
		{
			name:            "Update Available",
			currentVersion:  "v1.0.0",
			responseBody:    release,
			statusCode:      200,
			expectUpdate:    true,
			expectedVersion: "v1.1.0",
		},
		{
			name:            "Version Without Prefix",
			currentVersion:  "1.0.0",
			responseBody:    `{"tag_name": "1.2.0"}`,
			statusCode:      200,
			expectUpdate:    true,
			expectedVersion: "v1.2.0",
		},
		{
			name:            "No Update Available",
			currentVersion:  "v1.1.0",
			responseBody:    release,
			statusCode:      200,
			expectedVersion: "v1.1.0",
		},
		{
			name:            "Newer Local Version",
			currentVersion:  "v2.0.0",
			responseBody:    release,
			statusCode:      200,
			expectedVersion: "v1.1.0",
		},
		{
			name:            "Development Build",
			currentVersion:  "",
			responseBody:    release,
			statusCode:      200,
			expectedVersion: "v1.1.0",
		},
		{
			name:           "API Error",
			currentVersion: "v1.0.0",
			responseBody:   `{"message": "Not Found"}`,
			statusCode:     404,
			expectError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config.AppVersion = tt.currentVersion

			mockTransport := &MockRoundTripper{
				Response: &http.Response{
					StatusCode: tt.statusCode,
					Body:       io.NopCloser(bytes.NewBufferString(tt.responseBody)),
					Header:     make(http.Header),
				},
			}
			client := &http.Client{Transport: mockTransport}

			result, err := CheckForUpdates(context.Background(), client)

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectUpdate, result.UpdateAvailable)
			assert.Equal(t, tt.expectedVersion, result.LatestVersion)
			assert.Equal(t, "/repos/fitfinder/fitfinder/releases/latest", mockTransport.Request.URL.Path)
		})
	}
}

func TestCheckForUpdates_TransportError(t *testing.T) {
	client := &http.Client{Transport: &MockRoundTripper{Err: errors.New("offline")}}
	_, err := CheckForUpdates(context.Background(), client)
	assert.ErrorContains(t, err, "offline")
}
