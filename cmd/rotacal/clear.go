package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rotacal/rotacal/internal/schedule"
	"github.com/rotacal/rotacal/internal/ui"
)

var clearCmd = &cobra.Command{
	Use:   "clear <day>",
	Short: "Clear a day entry and delete its record",
	Long: `Clear every field of a day entry.

The day's record is deleted from the store, and the deletion is
remembered so a lagging fetch cannot bring the entry back.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key, err := parseDayArg(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg := loadConfig()
		store := openStore(cfg)
		defer store.Close()

		eng := newEngine(cfg, store, nil, nil)
		ctx := context.Background()

		if err := eng.FetchAll(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching rota: %v\n", err)
			os.Exit(1)
		}

		if _, ok := eng.Day(key); !ok {
			fmt.Printf("%s No entry for %s\n", ui.RenderMuted("·"), key)
			return
		}

		if err := eng.SaveDay(ctx, key, [schedule.NumDayFields]string{}); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing %s: %v\n", key, err)
			os.Exit(1)
		}

		fmt.Printf("%s Cleared %s\n", ui.RenderPass("✓"), key)
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
