package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rotacal/rotacal/internal/config"
	"github.com/rotacal/rotacal/internal/dashboard"
	"github.com/rotacal/rotacal/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the periodic fetch loop and monitoring dashboard",
	Long: `Run rotacal in foreground serve mode.

Serve mode:
  1. Refreshes the rota from the store on a fixed interval
  2. Serves a WebSocket dashboard broadcasting sync events
  3. Reloads the configuration file when it changes on disk

Press Ctrl+C to stop.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		logger, closeLog, err := buildLogger(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer closeLog()

		store := openStore(cfg)
		defer store.Close()

		server := dashboard.NewServer(&dashboard.Config{
			Addr:   cfg.ListenAddr,
			Logger: logger,
		})
		if err := server.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting dashboard: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			if err := server.Stop(); err != nil {
				logger.Printf("Dashboard stop error: %v", err)
			}
		}()

		handler := dashboard.NewHandler(server, logger)
		eng := newEngine(cfg, store, logger, handler)

		watcher, err := config.NewWatcher(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating config watcher: %v\n", err)
			os.Exit(1)
		}
		if err := watcher.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error watching config: %v\n", err)
			os.Exit(1)
		}
		defer watcher.Stop()

		fmt.Printf("%s rotacal serving\n", ui.RenderAccent("🚀"))
		fmt.Printf("   Dashboard: http://%s\n", server.GetAddr())
		fmt.Printf("   Fetch interval: %v\n", time.Duration(cfg.FetchInterval))
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		interval := time.Duration(cfg.FetchInterval)
		if interval <= 0 {
			interval = 30 * time.Second
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		if err := eng.FetchAll(ctx); err != nil {
			logger.Printf("Initial fetch failed: %v", err)
		}

		for {
			select {
			case <-ticker.C:
				if err := eng.FetchAll(ctx); err != nil {
					logger.Printf("Fetch failed: %v", err)
				}

			case newCfg := <-watcher.Configs():
				logger.Printf("Config reloaded from %s", configPath)
				newInterval := time.Duration(newCfg.FetchInterval)
				if newInterval > 0 && newInterval != interval {
					interval = newInterval
					ticker.Reset(interval)
					logger.Printf("Fetch interval now %v", interval)
				}

			case err := <-watcher.Errors():
				logger.Printf("Config reload error: %v", err)

			case sig := <-sigCh:
				logger.Printf("Received %v, shutting down", sig)
				fmt.Printf("\n%s Shutting down\n", ui.RenderMuted("·"))
				return
			}
		}
	},
}

// buildLogger returns the serve-mode logger. With a log file configured
// the log rotates by size; otherwise it goes to stderr.
func buildLogger(cfg *config.Config) (*log.Logger, func(), error) {
	if cfg.LogFile == "" {
		return log.New(os.Stderr, "[rotacal] ", log.LstdFlags), func() {}, nil
	}

	path, err := config.ExpandPath(cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	}
	logger := log.New(rotator, "[rotacal] ", log.LstdFlags)
	return logger, func() { _ = rotator.Close() }, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
