package client

import (
	"log/slog"
	"time"

	"github.com/strand-ui/strand/pkg/widget"
)

// Config configures a client session.
type Config struct {
	// ServerURL is the WebSocket endpoint of the application server
	// (ws:// or wss://).
	ServerURL string

	// Logger is the session logger. Defaults to slog.Default.
	Logger *slog.Logger

	// Kinds is the widget kind registry. Defaults to widget.BuiltinKinds.
	Kinds *widget.KindSet

	// Observers passively watch tree mutations (inspector tooling).
	Observers []widget.Observer

	// Hooks run after each applied batch (metrics, tracing).
	Hooks []BatchHook

	// PingInterval is how often the client pings the server.
	PingInterval time.Duration

	// ReadTimeout bounds each read from the connection.
	ReadTimeout time.Duration

	// WriteTimeout bounds each write to the connection.
	WriteTimeout time.Duration

	// MaxBatchQueue is the inbound batch queue capacity. The connection is
	// dropped when the server outruns the client by this much.
	MaxBatchQueue int
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() *Config {
	return &Config{
		PingInterval:  30 * time.Second,
		ReadTimeout:   60 * time.Second,
		WriteTimeout:  10 * time.Second,
		MaxBatchQueue: 64,
	}
}

func (c *Config) withDefaults() *Config {
	out := *c
	def := DefaultConfig()
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.Kinds == nil {
		out.Kinds = widget.BuiltinKinds()
	}
	if out.PingInterval <= 0 {
		out.PingInterval = def.PingInterval
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = def.ReadTimeout
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = def.WriteTimeout
	}
	if out.MaxBatchQueue <= 0 {
		out.MaxBatchQueue = def.MaxBatchQueue
	}
	return &out
}
