// Package devserver is a development application server for strand
// clients. It speaks the frame protocol over WebSocket, serves the
// metrics and upload endpoints, and hands each connection to an
// application-provided handler that pushes delta batches.
package devserver

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/strand-ui/strand/pkg/upload"
)

// Handler drives one connected client. Serve blocks for the lifetime of
// the connection; returning ends the session.
type Handler interface {
	Serve(ctx context.Context, conn *Conn) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, conn *Conn) error

// Serve implements Handler.
func (f HandlerFunc) Serve(ctx context.Context, conn *Conn) error { return f(ctx, conn) }

// Config configures the development server.
type Config struct {
	// Addr is the listen address. Default ":8420".
	Addr string

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// RootID is the root component identity announced in the Hello
	// frame. Default "root".
	RootID string

	// CheckOrigin overrides the WebSocket origin check. Default allows
	// same-origin only (the gorilla default).
	CheckOrigin func(r *http.Request) bool

	// Uploads is the staging store mounted at POST /upload. Nil disables
	// the endpoint.
	Uploads upload.Store

	// ReadTimeout bounds each read from a client connection.
	ReadTimeout time.Duration

	// WriteTimeout bounds each write to a client connection.
	WriteTimeout time.Duration
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.Addr == "" {
		out.Addr = ":8420"
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.RootID == "" {
		out.RootID = "root"
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 60 * time.Second
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 10 * time.Second
	}
	return &out
}

// Server is the development application server.
type Server struct {
	config   *Config
	logger   *slog.Logger
	handler  Handler
	router   chi.Router
	upgrader websocket.Upgrader

	httpServer *http.Server
	nextConnID atomic.Uint64
	active     atomic.Int64
}

// New creates a server that hands every WebSocket connection to handler.
func New(cfg *Config, handler Handler) *Server {
	cfg = cfg.withDefaults()
	s := &Server{
		config:  cfg,
		logger:  cfg.Logger,
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Get("/ws", s.handleWS)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	if cfg.Uploads != nil {
		r.Post("/upload", upload.Handler(cfg.Uploads).ServeHTTP)
	}
	s.router = r
	return s
}

// Router returns the server's router for mounting extra routes.
func (s *Server) Router() chi.Router { return s.router }

// ActiveConns reports the number of live client connections.
func (s *Server) ActiveConns() int64 { return s.active.Load() }

// ListenAndServe runs the server until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.config.Addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.ListenAndServe() }()
	s.logger.Info("devserver listening", "addr", s.config.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// handleWS upgrades the connection, performs the Hello handshake, and
// runs the application handler.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "error", err)
		return
	}

	conn := newConn(s, ws, s.nextConnID.Add(1))
	s.active.Add(1)
	defer s.active.Add(-1)
	defer conn.Close()

	if err := conn.sendHello(); err != nil {
		s.logger.Error("hello failed", "session_id", conn.ID(), "error", err)
		return
	}
	go conn.readLoop()

	conn.logger.Info("client connected")
	if err := s.handler.Serve(r.Context(), conn); err != nil {
		conn.logger.Error("handler ended", "error", err)
	}
	conn.logger.Info("client disconnected")
}
