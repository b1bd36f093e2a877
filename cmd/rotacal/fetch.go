package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rotacal/rotacal/internal/schedule"
	"github.com/rotacal/rotacal/internal/ui"
)

var fetchMonth string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the rota from the store and print it",
	Long: `Fetch all day entries and month notes from the record store.

Duplicate records for the same day are collapsed to the most complete
one; the duplicates are cleaned up in the store as a side effect.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store := openStore(cfg)
		defer store.Close()

		eng := newEngine(cfg, store, nil, nil)
		if err := eng.FetchAll(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching rota: %v\n", err)
			os.Exit(1)
		}

		var monthFilter schedule.MonthKey
		if fetchMonth != "" {
			key, err := parseMonthArg(fetchMonth)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			monthFilter = key
		}

		days := eng.Days()
		shown := 0
		for _, entry := range days {
			if !monthFilter.IsZero() &&
				(entry.Key.Year != monthFilter.Year || entry.Key.Month != monthFilter.Month) {
				continue
			}
			fmt.Print(ui.RenderDay(entry))
			shown++
		}
		if shown == 0 {
			fmt.Printf("%s No day entries\n", ui.RenderMuted("·"))
		}

		for _, note := range eng.Notes() {
			if !monthFilter.IsZero() && note.Key != monthFilter {
				continue
			}
			fmt.Println()
			fmt.Print(ui.RenderNote(note))
		}
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchMonth, "month", "", "only show entries in this month (YYYY-MM)")
	rootCmd.AddCommand(fetchCmd)
}
