package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┌┬┐┬─┐┌─┐┌┐┌┌┬┐
  └─┐ │ ├┬┘├─┤│││ ││
  └─┘ ┴ ┴└─┴ ┴┘└┘─┴┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "strand",
		Short: "Server-driven UI over a thin reconciling client",
		Long: `Strand keeps the component tree on the server and mirrors it on
thin clients over WebSocket. The server pushes partial deltas; the
client reconciles them into a render tree, preserving node identity
across updates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		initCmd(),
		serveCmd(),
		connectCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
