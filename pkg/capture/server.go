// Package capture runs the local camera bridge. The desktop toolkit cannot
// read a webcam, so a page served from here does it in the browser and posts
// the still back.
package capture

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fitfinder/fitfinder/util"
	"github.com/fitfinder/fitfinder/util/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// MaxFrameBytes caps the size of a posted frame.
const MaxFrameBytes = 20 << 20

// FrameInterval is the minimum spacing between accepted frames.
const FrameInterval = time.Second

// ErrNotAccepting is returned by a FrameHandler that is not taking frames
// right now, e.g. because the window is in upload mode.
var ErrNotAccepting = errors.New("not accepting frames")

// FrameHandler receives a captured still.
type FrameHandler func(ctx context.Context, data []byte, mimeType string) error

// Server is the camera bridge.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	router     *mux.Router
	upgrader   websocket.Upgrader
	limiter    *rate.Limiter
	page       []byte
	port       int

	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	connected *util.SafeCounter

	handlerMu sync.RWMutex
	onFrame   FrameHandler
}

// NewServer creates a bridge that will listen on 127.0.0.1:port and serve
// page at /camera. Port 0 picks a free port on Start.
func NewServer(port int, page []byte) *Server {
	s := &Server{
		router: mux.NewRouter(),
		upgrader: websocket.Upgrader{
			CheckOrigin: sameOrigin,
		},
		limiter:   rate.NewLimiter(rate.Every(FrameInterval), 1),
		page:      page,
		port:      port,
		clients:   make(map[*websocket.Conn]bool),
		connected: util.NewSafeCounter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/camera", s.handleCamera).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	s.router.HandleFunc("/frame", s.handleFrame).Methods(http.MethodPost)
}

// sameOrigin accepts requests without an Origin header (tools, the app
// itself) and requests from a page served by this bridge on a loopback host.
// Pages from any other site are refused.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Scheme != "http" {
		return false
	}
	if !strings.EqualFold(u.Host, r.Host) {
		return false
	}
	return isLoopback(u.Hostname())
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// SetFrameHandler registers the receiver of captured frames. nil unregisters.
func (s *Server) SetFrameHandler(h FrameHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.onFrame = h
}

func (s *Server) frameHandler() FrameHandler {
	s.handlerMu.RLock()
	defer s.handlerMu.RUnlock()
	return s.onFrame
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the address the server listens on, or the configured address
// before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(s.port))
}

// CameraURL is the page to open in the browser.
func (s *Server) CameraURL() string {
	return "http://" + s.Addr() + "/camera"
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("camera bridge listen: %w", err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("Camera bridge listening on %s", ln.Addr())

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Camera bridge stopped: %v", err)
		}
	}()
	return nil
}

// Stop shuts the server down and drops connected pages.
func (s *Server) Stop(ctx context.Context) error {
	s.clientsMu.Lock()
	for client := range s.clients {
		s.remove(client)
	}
	s.clientsMu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// add and remove must be called with clientsMu held.
func (s *Server) add(conn *websocket.Conn) {
	s.clients[conn] = true
	s.connected.Increment()
}

func (s *Server) remove(conn *websocket.Conn) {
	if !s.clients[conn] {
		return
	}
	conn.Close()
	delete(s.clients, conn)
	s.connected.Decrement()
}

// Clients returns the number of connected camera pages.
func (s *Server) Clients() int {
	return s.connected.Value()
}

// TriggerCapture asks every connected camera page to take a still and
// returns how many pages got the command.
func (s *Server) TriggerCapture() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	msg := map[string]string{"type": "capture"}

	sent := 0
	for client := range s.clients {
		if err := client.WriteJSON(msg); err != nil {
			log.Printf("Failed to send capture command: %v", err)
			s.remove(client)
			continue
		}
		sent++
	}
	log.Debugf("capture command sent to %d page(s)", sent)
	return sent
}
