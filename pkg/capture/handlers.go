package capture

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/fitfinder/fitfinder/config"
	"github.com/fitfinder/fitfinder/util/log"
)

var frameTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "running",
		"version": config.AppVersion,
	})
}

// handleCamera serves the camera page.
func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(s.page)
}

// handleWebSocket keeps a camera page connected so capture commands can be
// pushed to it.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	s.clientsMu.Lock()
	s.add(conn)
	s.clientsMu.Unlock()
	log.Printf("Camera page connected from %s", r.RemoteAddr)

	defer func() {
		s.clientsMu.Lock()
		s.remove(conn)
		s.clientsMu.Unlock()
		log.Printf("Camera page disconnected")
	}()

	for {
		// The page only sends keepalives.
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// handleFrame receives a still from the camera page.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if !sameOrigin(r) {
		log.Printf("Frame from foreign origin %q refused", r.Header.Get("Origin"))
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !frameTypes[mediaType] {
		http.Error(w, "Frame must be image/jpeg or image/png", http.StatusUnsupportedMediaType)
		return
	}

	h := s.frameHandler()
	if h == nil {
		log.Println("No frame handler registered")
		http.Error(w, "Capture not available", http.StatusServiceUnavailable)
		return
	}

	if !s.limiter.Allow() {
		http.Error(w, "Too many frames", http.StatusTooManyRequests)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxFrameBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Frame too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Failed to read frame", http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		http.Error(w, "Empty frame", http.StatusBadRequest)
		return
	}

	log.Debugf("frame received: %d bytes, %s", len(data), mediaType)
	if err := h(r.Context(), data, mediaType); err != nil {
		log.Printf("Frame rejected: %v", err)
		if errors.Is(err, ErrNotAccepting) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "received"})
}
