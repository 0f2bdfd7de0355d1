package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/strand-ui/strand/internal/config"
	"github.com/strand-ui/strand/pkg/devserver"
	"github.com/strand-ui/strand/pkg/protocol"
	"github.com/strand-ui/strand/pkg/upload"
	"github.com/strand-ui/strand/pkg/widget"
)

func serveCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the development server with the demo counter app",
		Long: `Start the development server. Every connecting client receives the
demo counter application, useful for smoke-testing a client build.

Examples:
  strand serve
  strand serve --port=9000
  strand serve --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port, host)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from strand.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from strand.json)")

	return cmd
}

func runServe(port int, host string) error {
	cfg, err := config.Find(".")
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if port > 0 {
		cfg.Dev.Port = port
	}
	if host != "" {
		cfg.Dev.Host = host
	}

	srvCfg := &devserver.Config{
		Addr:   cfg.DevAddress(),
		RootID: cfg.Dev.RootID,
	}
	if cfg.Dev.AllowAnyOrigin {
		srvCfg.CheckOrigin = func(r *http.Request) bool { return true }
	}
	if cfg.Uploads.Dir != "" {
		store, err := upload.NewDiskStore(cfg.Uploads.Dir, cfg.Uploads.MaxFileSize)
		if err != nil {
			return err
		}
		srvCfg.Uploads = store
	}

	printBanner()
	info("serving on http://%s", cfg.DevAddress())
	info("WebSocket endpoint: ws://%s/ws", cfg.DevAddress())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := devserver.New(srvCfg, counterApp(cfg.Dev.RootID))
	if err := srv.ListenAndServe(ctx); err != nil && err != context.Canceled {
		return err
	}
	success("Server stopped")
	return nil
}

// counterApp is the demo application: a counter with increment and reset
// buttons, driven entirely by server-pushed deltas.
func counterApp(rootID string) devserver.Handler {
	return devserver.HandlerFunc(func(ctx context.Context, conn *devserver.Conn) error {
		count := 0

		err := conn.SendBatch(
			&protocol.DeltaMessage{ComponentID: "label", Kind: widget.KindText,
				Fields: map[string]any{"text": "Count: 0", "margin": []any{0.0, 0.0, 0.0, 8.0}}},
			&protocol.DeltaMessage{ComponentID: "inc", Kind: widget.KindButton,
				Fields: map[string]any{"label": "Increment"}},
			&protocol.DeltaMessage{ComponentID: "reset", Kind: widget.KindButton,
				Fields: map[string]any{"label": "Reset", "enabled": false}},
			&protocol.DeltaMessage{ComponentID: "buttons", Kind: widget.KindRow,
				Fields: map[string]any{"children": []any{"inc", "reset"}, "spacing": 8.0}},
			&protocol.DeltaMessage{ComponentID: rootID, Kind: widget.KindContainer,
				Fields: map[string]any{"children": []any{"label", "buttons"}, "margin": []any{16.0, 16.0, 16.0, 16.0}}},
		)
		if err != nil {
			return err
		}

		for {
			select {
			case ev, ok := <-conn.Events():
				if !ok {
					return nil
				}
				switch ev.ComponentID {
				case "inc":
					count++
				case "reset":
					count = 0
				default:
					continue
				}
				err := conn.SendBatch(
					&protocol.DeltaMessage{ComponentID: "label",
						Fields: map[string]any{"text": fmt.Sprintf("Count: %d", count)}},
					&protocol.DeltaMessage{ComponentID: "reset",
						Fields: map[string]any{"enabled": count > 0}},
				)
				if err != nil {
					return err
				}
			case <-conn.Done():
				return nil
			case <-ctx.Done():
				return nil
			}
		}
	})
}
