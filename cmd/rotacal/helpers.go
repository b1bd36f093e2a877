package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rotacal/rotacal/internal/config"
	"github.com/rotacal/rotacal/internal/engine"
	"github.com/rotacal/rotacal/internal/schedule"
	"github.com/rotacal/rotacal/internal/sqlitestore"
)

// loadConfig reads the configuration file named by --config.
func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// openStore opens the SQLite record store from the configuration.
// The caller must Close it.
func openStore(cfg *config.Config) *sqlitestore.Store {
	path, err := config.ExpandPath(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving database path: %v\n", err)
		os.Exit(1)
	}
	store, err := sqlitestore.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	return store
}

// newEngine builds an engine on the given store with config overrides
// applied.
func newEngine(cfg *config.Config, store *sqlitestore.Store, logger *log.Logger, notifier engine.Notifier) *engine.Engine {
	econf := engine.DefaultConfig()
	if cfg.ProtectionWindow > 0 {
		econf.ProtectionWindow = time.Duration(cfg.ProtectionWindow)
	}
	if cfg.Retention > 0 {
		econf.Retention = time.Duration(cfg.Retention)
	}
	if logger != nil {
		econf.Logger = logger
	}
	econf.Notifier = notifier

	eng, err := engine.NewWithConfig(store, econf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating engine: %v\n", err)
		os.Exit(1)
	}
	return eng
}

// mustDay returns the cached entry for key, zero if absent.
func mustDay(eng *engine.Engine, key schedule.DayKey) schedule.DayEntry {
	entry, _ := eng.Day(key)
	return entry
}

// parseDayArg parses a YYYY-MM-DD argument, accepting "today" and
// "tomorrow" as shorthand.
func parseDayArg(arg string) (schedule.DayKey, error) {
	switch arg {
	case "today":
		return schedule.NewDayKey(time.Now()), nil
	case "tomorrow":
		return schedule.NewDayKey(time.Now().AddDate(0, 0, 1)), nil
	}
	key, err := schedule.ParseDayKey(arg)
	if err != nil {
		return schedule.DayKey{}, fmt.Errorf("invalid day %q (want YYYY-MM-DD): %w", arg, err)
	}
	return key, nil
}

// parseMonthArg parses a YYYY-MM argument, accepting "current" as
// shorthand for this month.
func parseMonthArg(arg string) (schedule.MonthKey, error) {
	if arg == "current" {
		return schedule.NewMonthKey(time.Now()), nil
	}
	key, err := schedule.ParseMonthKey(arg)
	if err != nil {
		return schedule.MonthKey{}, fmt.Errorf("invalid month %q (want YYYY-MM): %w", arg, err)
	}
	return key, nil
}

// parseFieldArg maps a field name to its day entry line.
func parseFieldArg(arg string) (schedule.DayField, error) {
	switch arg {
	case "1st", "first":
		return schedule.FieldFirstOn, nil
	case "2nd", "second":
		return schedule.FieldSecondOn, nil
	case "3rd", "third":
		return schedule.FieldThirdOn, nil
	case "notes":
		return schedule.FieldNotes, nil
	}
	return 0, fmt.Errorf("unknown field %q (want 1st, 2nd, 3rd or notes)", arg)
}
