package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fitfinder/fitfinder/config"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

var testPage = []byte("<!doctype html><title>camera</title>")

func dialWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return ws
}

func postFrame(t *testing.T, url, contentType string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/frame", contentType, bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestNewServer(t *testing.T) {
	s := NewServer(config.DefaultBridgePort, testPage)
	assert.NotNil(t, s.Handler())
	assert.Equal(t, "127.0.0.1:49460", s.Addr())
	assert.Equal(t, "http://127.0.0.1:49460/camera", s.CameraURL())
	assert.Zero(t, s.Clients())
}

func TestHealthCheck(t *testing.T) {
	s := NewServer(0, testPage)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, config.AppVersion, body["version"])
}

func TestCameraPage(t *testing.T) {
	s := NewServer(0, testPage)

	req := httptest.NewRequest(http.MethodGet, "/camera", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, testPage, rr.Body.Bytes())
}

func TestFrame_NoPreflight(t *testing.T) {
	s := NewServer(0, testPage)

	req := httptest.NewRequest(http.MethodOptions, "/frame", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestFrame_Origin(t *testing.T) {
	tests := []struct {
		name       string
		host       string
		origin     string
		wantStatus int
	}{
		{"no origin", "127.0.0.1:49460", "", http.StatusAccepted},
		{"camera page", "127.0.0.1:49460", "http://127.0.0.1:49460", http.StatusAccepted},
		{"camera page via localhost", "localhost:49460", "http://localhost:49460", http.StatusAccepted},
		{"foreign site", "127.0.0.1:49460", "https://evil.example", http.StatusForbidden},
		{"other local port", "127.0.0.1:49460", "http://127.0.0.1:8080", http.StatusForbidden},
		{"rebound name", "evil.example:49460", "http://evil.example:49460", http.StatusForbidden},
		{"opaque origin", "127.0.0.1:49460", "null", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(0, testPage)
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			calls := 0
			s.SetFrameHandler(func(context.Context, []byte, string) error {
				calls++
				return nil
			})

			req := httptest.NewRequest(http.MethodPost, "/frame", bytes.NewReader([]byte("jpeg bytes")))
			req.Host = tt.host
			req.Header.Set("Content-Type", "image/jpeg")
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusForbidden {
				assert.Zero(t, calls, "refused frames never reach the window")
			} else {
				assert.Equal(t, 1, calls)
			}
		})
	}
}

func TestWebSocket_ForeignOrigin(t *testing.T) {
	s := NewServer(0, testPage)
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, s.Clients())

	ws, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {server.URL}})
	require.NoError(t, err)
	ws.Close()
}

func TestFrame(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        []byte
		handler     FrameHandler
		wantStatus  int
	}{
		{
			name:        "accepted",
			contentType: "image/jpeg",
			body:        []byte("jpeg bytes"),
			handler:     func(context.Context, []byte, string) error { return nil },
			wantStatus:  http.StatusAccepted,
		},
		{
			name:        "png with parameters",
			contentType: "image/png; charset=binary",
			body:        []byte("png bytes"),
			handler:     func(context.Context, []byte, string) error { return nil },
			wantStatus:  http.StatusAccepted,
		},
		{
			name:        "no handler",
			contentType: "image/jpeg",
			body:        []byte("jpeg bytes"),
			wantStatus:  http.StatusServiceUnavailable,
		},
		{
			name:        "unsupported type",
			contentType: "text/plain",
			body:        []byte("hello"),
			handler:     func(context.Context, []byte, string) error { return nil },
			wantStatus:  http.StatusUnsupportedMediaType,
		},
		{
			name:        "empty body",
			contentType: "image/jpeg",
			handler:     func(context.Context, []byte, string) error { return nil },
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "window not accepting",
			contentType: "image/jpeg",
			body:        []byte("jpeg bytes"),
			handler: func(context.Context, []byte, string) error {
				return fmt.Errorf("%w: upload mode", ErrNotAccepting)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:        "undecodable",
			contentType: "image/jpeg",
			body:        []byte("jpeg bytes"),
			handler: func(context.Context, []byte, string) error {
				return errors.New("decoding image: bad header")
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(0, testPage)
			if tt.handler != nil {
				s.SetFrameHandler(tt.handler)
			}
			server := httptest.NewServer(s.Handler())
			defer server.Close()

			resp := postFrame(t, server.URL, tt.contentType, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestFrame_PassesBytesToHandler(t *testing.T) {
	s := NewServer(0, testPage)
	var got []byte
	var gotType string
	s.SetFrameHandler(func(_ context.Context, data []byte, mimeType string) error {
		got = data
		gotType = mimeType
		return nil
	})
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	resp := postFrame(t, server.URL, "image/png", []byte{0x89, 'P', 'N', 'G'})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, got)
	assert.Equal(t, "image/png", gotType)
}

func TestFrame_RateLimited(t *testing.T) {
	s := NewServer(0, testPage)
	calls := 0
	s.SetFrameHandler(func(context.Context, []byte, string) error {
		calls++
		return nil
	})
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	first := postFrame(t, server.URL, "image/jpeg", []byte("one"))
	second := postFrame(t, server.URL, "image/jpeg", []byte("two"))

	assert.Equal(t, http.StatusAccepted, first.StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestFrame_TooLarge(t *testing.T) {
	s := NewServer(0, testPage)
	s.SetFrameHandler(func(context.Context, []byte, string) error {
		t.Error("handler must not see an oversized frame")
		return nil
	})

	req := httptest.NewRequest(http.MethodPost, "/frame", bytes.NewReader(make([]byte, MaxFrameBytes+1)))
	req.Header.Set("Content-Type", "image/jpeg")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestTriggerCapture_NoPages(t *testing.T) {
	s := NewServer(0, testPage)
	assert.Zero(t, s.TriggerCapture())
}

func TestTriggerCapture(t *testing.T) {
	s := NewServer(0, testPage)
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	first := dialWS(t, server)
	defer first.Close()
	second := dialWS(t, server)
	defer second.Close()

	require.Eventually(t, func() bool { return s.Clients() == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, s.TriggerCapture())

	for _, ws := range []*websocket.Conn{first, second} {
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(time.Second)))
		var msg map[string]string
		require.NoError(t, ws.ReadJSON(&msg))
		assert.Equal(t, "capture", msg["type"])
	}
}

func TestTriggerCapture_DisconnectedPage(t *testing.T) {
	s := NewServer(0, testPage)
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	ws := dialWS(t, server)
	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 10*time.Millisecond)

	ws.Close()
	require.Eventually(t, func() bool { return s.Clients() == 0 }, time.Second, 10*time.Millisecond)
	assert.Zero(t, s.TriggerCapture())
}

func TestCaptureRoundTrip(t *testing.T) {
	s := NewServer(0, testPage)
	s.limiter = rate.NewLimiter(rate.Inf, 0)

	var mu sync.Mutex
	var frames [][]byte
	s.SetFrameHandler(func(_ context.Context, data []byte, _ string) error {
		mu.Lock()
		defer mu.Unlock()
		frames = append(frames, data)
		return nil
	})
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	// Stand-in for the camera page: answer each capture command with a frame.
	ws := dialWS(t, server)
	defer ws.Close()
	done := make(chan struct{})
	go func() {
		defer close(done)
		var msg map[string]string
		if err := ws.ReadJSON(&msg); err != nil || msg["type"] != "capture" {
			return
		}
		resp, err := http.Post(server.URL+"/frame", "image/jpeg", strings.NewReader("still"))
		if err == nil {
			resp.Body.Close()
		}
	}()

	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 10*time.Millisecond)
	require.Equal(t, 1, s.TriggerCapture())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("camera page did not answer")
	}
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, frames, 1)
	assert.Equal(t, "still", string(frames[0]))
}

func TestStartStop(t *testing.T) {
	s := NewServer(0, testPage)
	require.NoError(t, s.Start())
	assert.NotEqual(t, "127.0.0.1:0", s.Addr())

	resp, err := http.Get("http://" + s.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))

	_, err = http.Get("http://" + s.Addr() + "/health")
	assert.Error(t, err)
}

func TestStart_PortInUse(t *testing.T) {
	first := NewServer(0, testPage)
	require.NoError(t, first.Start())
	defer first.Stop(context.Background())

	_, port, err := net.SplitHostPort(first.Addr())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)

	second := NewServer(p, testPage)
	assert.Error(t, second.Start())
}
