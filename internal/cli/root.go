// Package cli implements the bloom command-line interface using Cobra.
// Each subcommand opens the local store directly; only serve runs the
// HTTP API.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "bloom",
	Short: "bloom: a mood journal that grows a garden",
	Long: `bloom keeps a private log of mood check-ins and journal entries on
this machine, turns them into weekly and monthly insights, and rewards
regular check-ins with water for a plant that levels up as it grows.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show info-level logs")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
