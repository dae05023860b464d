package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/warp/recurring-engine/config"
	"github.com/warp/recurring-engine/generic"
	"github.com/warp/recurring-engine/report"
	"github.com/warp/recurring-engine/store/directory"
	"github.com/warp/recurring-engine/store/sqlite"
)

// app holds the flags shared by every command and the opened stores.
type app struct {
	configPath    string
	dbPath        string
	directoryPath string
	verbose       bool

	templates *sqlite.Store
	directory *directory.Store
	engine    *report.Engine
}

func (a *app) open() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DatabasePath = a.dbPath
	}
	if a.directoryPath != "" {
		cfg.DirectoryPath = a.directoryPath
	}
	loc, err := cfg.Report.Location()
	if err != nil {
		return err
	}

	level := slog.LevelError
	if a.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	a.templates, err = sqlite.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open template store: %w", err)
	}
	a.directory, err = directory.New(cfg.DirectoryPath, log)
	if err != nil {
		return fmt.Errorf("open directory store: %w", err)
	}

	a.engine = report.NewEngine(a.templates, a.templates, a.directory, a.directory, log)
	a.engine.OverdueHorizon = cfg.Report.OverdueHorizonDays
	a.engine.Timeout = cfg.Report.RequestTimeout
	a.engine.Location = loc
	return nil
}

func (a *app) close() error {
	var errs []error
	if a.templates != nil {
		errs = append(errs, a.templates.Close())
	}
	if a.directory != nil {
		errs = append(errs, a.directory.Close())
	}
	return errors.Join(errs...)
}

// dateFlag parses an optional YYYY-MM-DD flag value.
func dateFlag(name, value string, def generic.TimePoint) (generic.TimePoint, error) {
	if value == "" {
		return def, nil
	}
	d, err := generic.ParseDate(value)
	if err != nil {
		return generic.TimePoint{}, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}
