package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rotacal/rotacal/internal/config"
	"github.com/rotacal/rotacal/internal/remote"
	"github.com/rotacal/rotacal/internal/sqlitestore"
	"github.com/rotacal/rotacal/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store location, account standing and record count",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		path, err := config.ExpandPath(cfg.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resolving database path: %v\n", err)
			os.Exit(1)
		}

		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			fmt.Printf("\n%s Store not initialized\n", ui.RenderWarn("⚠"))
			fmt.Printf("   Run 'rotacal set' or 'rotacal note' to create it\n\n")
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error checking store: %v\n", err)
			os.Exit(1)
		}

		store, err := sqlitestore.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		ctx := context.Background()
		status, err := store.AccountStatus(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error checking account status: %v\n", err)
			os.Exit(1)
		}

		zone, err := store.EnsureZone(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error ensuring zone: %v\n", err)
			os.Exit(1)
		}
		count, err := store.RecordCount(ctx, zone)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error counting records: %v\n", err)
			os.Exit(1)
		}

		size := info.Size()
		sizeStr := fmt.Sprintf("%d bytes", size)
		if size > 1024*1024 {
			sizeStr = fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
		} else if size > 1024 {
			sizeStr = fmt.Sprintf("%.1f KB", float64(size)/1024)
		}

		statusStr := ui.RenderPass(status.String())
		if status != remote.AccountAvailable {
			statusStr = ui.RenderWarn(status.String())
		}

		fmt.Printf("\n%s Rota Store Status\n\n", ui.RenderAccent("📊"))
		fmt.Printf("Location: %s\n", path)
		fmt.Printf("Size: %s\n", sizeStr)
		fmt.Printf("Account: %s\n", statusStr)
		fmt.Printf("Records: %d\n", count)
		fmt.Printf("Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
