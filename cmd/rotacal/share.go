package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rotacal/rotacal/internal/ui"
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Create a share handle for the rota",
	Long: `Create (or retrieve) the share handle for the rota zone.

The handle is stable: running share twice returns the same reference.
Hand it to another participant to give them access to the rota.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store := openStore(cfg)
		defer store.Close()

		eng := newEngine(cfg, store, nil, nil)
		handle, err := eng.CreateShare(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating share: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Share ready\n", ui.RenderPass("✓"))
		fmt.Printf("   %s\n", ui.RenderAccent(string(handle)))
	},
}

func init() {
	rootCmd.AddCommand(shareCmd)
}
