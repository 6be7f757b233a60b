// Package web serves the transcript viewer to browsers.
//
// The page shell connects to /ws. Each websocket connection owns one
// viewer.State inside a single goroutine, so actions from one browser tab
// are applied strictly one at a time. After every action the whole view
// fragment is re-rendered and pushed to the browser.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/SincereJuliya/chatbotgermano/internal/bridge"
	"github.com/SincereJuliya/chatbotgermano/internal/metrics"
	"github.com/SincereJuliya/chatbotgermano/internal/viewer"
)

// Server is the HTTP server for the browser view.
type Server struct {
	engine   *viewer.Engine
	layout   bridge.Layout
	metrics  *metrics.Collector
	logger   *slog.Logger
	title    string
	upgrader websocket.Upgrader
	server   *http.Server

	// views run on baseCtx; Stop cancels it because Shutdown does not
	// track hijacked websocket connections.
	baseCtx context.Context
	cancel  context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics exposes mc at /debug/stats.
func WithMetrics(mc *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = mc
	}
}

// WithLayout sets the text metrics used for message surfaces.
func WithLayout(l bridge.Layout) Option {
	return func(s *Server) {
		s.layout = l
	}
}

// NewServer creates a server that applies actions with engine.
func NewServer(engine *viewer.Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		layout: bridge.DefaultLayout,
		logger: slog.Default(),
		title:  "Chatbot Germano",
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	s.baseCtx, s.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/ws", s.handleWebsocket)
	r.Get("/health", s.handleHealth)
	r.Get("/debug/stats", s.handleStats)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting web view", "addr", addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop closes all open views and gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.cancel()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := RenderPage(s.title)
	if err != nil {
		s.logger.Error("render page failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	v := newView(conn, s.engine, s.layout, s.logger)
	v.run(s.baseCtx)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("encode response failed", "error", err)
	}
}
