package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rotacal/rotacal/internal/schedule"
	"github.com/rotacal/rotacal/internal/ui"
)

var noteCmd = &cobra.Command{
	Use:   "note <month> [line]...",
	Short: "Show or set the note for a month",
	Long: `Show or set the free-form note attached to a month.

<month> is YYYY-MM, or "current". With no further arguments the note is
printed. Up to three lines can be set; omitted lines are cleared, and
clearing every line deletes the note's record from the store.

Examples:
  rotacal note 2025-09
  rotacal note current "conference on the 12th" "Dr Wu away all month"
  rotacal note 2025-09 ""`,
	Args: cobra.RangeArgs(1, 1+int(schedule.NumNoteFields)),
	Run: func(cmd *cobra.Command, args []string) {
		key, err := parseMonthArg(args[0])
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

		if len(args) == 1 {
			note, ok := eng.Note(key)
			if !ok {
				fmt.Printf("%s No note for %s\n", ui.RenderMuted("·"), key)
				return
			}
			fmt.Print(ui.RenderNote(note))
			return
		}

		var lines [schedule.NumNoteFields]string
		copy(lines[:], args[1:])

		if err := eng.SaveNote(ctx, key, lines); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving note for %s: %v\n", key, err)
			os.Exit(1)
		}

		allEmpty := true
		for _, line := range lines {
			if line != "" {
				allEmpty = false
				break
			}
		}
		if allEmpty {
			fmt.Printf("%s Cleared note for %s\n", ui.RenderPass("✓"), key)
			return
		}
		fmt.Printf("%s Saved note for %s\n", ui.RenderPass("✓"), key)
	},
}

func init() {
	rootCmd.AddCommand(noteCmd)
}
