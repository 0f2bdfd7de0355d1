package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/strand-ui/strand/internal/config"
	"github.com/strand-ui/strand/pkg/client"
)

func connectCmd() *cobra.Command {
	var (
		url  string
		dump bool
	)

	cmd := &cobra.Command{
		Use:   "connect [url]",
		Short: "Connect to an application server and mirror its tree",
		Long: `Connect to a strand server as a headless client. Each applied batch
is reported; with --dump the full render tree is printed after every
batch. Useful for inspecting what a server actually sends.

Examples:
  strand connect ws://localhost:8420/ws
  strand connect --dump`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				url = args[0]
			}
			return runConnect(url, dump)
		},
	}

	cmd.Flags().BoolVarP(&dump, "dump", "d", false, "Print the render tree after every batch")

	return cmd
}

func runConnect(url string, dump bool) error {
	if url == "" {
		cfg, err := config.Find(".")
		if err != nil {
			return err
		}
		url = cfg.Client.ServerURL
		if url == "" {
			url = fmt.Sprintf("ws://%s/ws", cfg.DevAddress())
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var s *client.Session
	hook := client.BatchHookFunc(func(ctx context.Context, batchInfo client.BatchInfo) {
		if batchInfo.Err != nil {
			fmt.Printf("batch %d ABORTED: %v\n", batchInfo.Seq, batchInfo.Err)
		} else {
			fmt.Printf("batch %d: %d deltas, %d created, %d reaped (%s)\n",
				batchInfo.Seq, batchInfo.DeltaCount,
				batchInfo.Stats.Created, batchInfo.Stats.Reaped, batchInfo.Duration)
		}
		if dump {
			fmt.Println(s.Surface().String())
		}
	})

	info("connecting to %s", url)
	s, err := client.Dial(ctx, &client.Config{
		ServerURL: url,
		Hooks:     []client.BatchHook{hook},
	})
	if err != nil {
		return err
	}
	success("connected, session %s", s.ID)

	if err := s.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
