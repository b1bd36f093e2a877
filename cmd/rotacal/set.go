package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rotacal/rotacal/internal/ui"
)

var setCmd = &cobra.Command{
	Use:   "set <day> <field> <value>",
	Short: "Set one field of a day entry",
	Long: `Set one line of a day entry and save it to the store.

<day> is YYYY-MM-DD, or "today"/"tomorrow".
<field> is 1st, 2nd, 3rd or notes.
An empty <value> clears the field; clearing the last field of a day
deletes its record from the store.

Examples:
  rotacal set 2025-09-05 1st DR.SMITH
  rotacal set today notes "swap with friday"
  rotacal set 2025-09-05 1st ""`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		key, err := parseDayArg(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		field, err := parseFieldArg(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		value := args[2]

		cfg := loadConfig()
		store := openStore(cfg)
		defer store.Close()

		eng := newEngine(cfg, store, nil, nil)
		ctx := context.Background()

		// Load current state so the other fields survive the save.
		if err := eng.FetchAll(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching rota: %v\n", err)
			os.Exit(1)
		}

		eng.UpdateField(key, field, value)
		entry, ok := eng.Day(key)
		if !ok {
			// Cleared a field on a day with no entry.
			fmt.Printf("%s Nothing to do for %s\n", ui.RenderMuted("·"), key)
			return
		}

		if err := eng.SaveDay(ctx, key, entry.Lines); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving %s: %v\n", key, err)
			os.Exit(1)
		}

		if entry.Empty() {
			fmt.Printf("%s Cleared %s\n", ui.RenderPass("✓"), key)
			return
		}
		fmt.Printf("%s Saved %s\n", ui.RenderPass("✓"), key)
		fmt.Print(ui.RenderDay(mustDay(eng, key)))
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
}
