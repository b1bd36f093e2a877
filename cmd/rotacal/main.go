// Command rotacal manages an on-call rota shared through a record store.
//
// The rota is a set of day entries (who is first, second and third on
// call, plus a notes line) and one free-form note per month. All state
// lives in the record store; this CLI reads, edits and serves it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rotacal/rotacal/internal/config"
)

var version = "0.3.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:     "rotacal",
	Short:   "On-call rota shared through a record store",
	Version: version,
	Long: `rotacal keeps an on-call rota in a shared record store.

Each day carries up to three on-call assignments and a notes line; each
month carries a short free-form note. Edits reconcile against the store
so several machines can work on the same rota without losing changes.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(),
		"path to the configuration file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
