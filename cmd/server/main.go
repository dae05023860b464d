/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the recurring-task engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load config (yaml + env overrides)
  2. Set up the structured logger for the environment
  3. Open the template/ledger store (SQLite) and the directory store (gorm)
  4. Create the report engine and API handler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Path to the YAML config (default: config/local.yaml)
           Empty reads environment variables only

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (http_server.shutdown_timeout)
  3. Close database connections
  4. Exit

EXAMPLES:
  ./server -config=config/local.yaml
  DATABASE_PATH=":memory:" DIRECTORY_PATH=":memory:" ./server -config=""

SEE ALSO:
  - config/config.go: Settings and env var names
  - api/server.go: Router configuration
  - report/engine.go: Engine
*/
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/recurring-engine/api"
	"github.com/warp/recurring-engine/config"
	"github.com/warp/recurring-engine/report"
	"github.com/warp/recurring-engine/store/directory"
	"github.com/warp/recurring-engine/store/sqlite"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	configPath := flag.String("config", "config/local.yaml", "Path to the YAML config")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	log := setupLogger(cfg.Env)

	loc, err := cfg.Report.Location()
	if err != nil {
		log.Error("invalid report timezone", slog.String("error", err.Error()))
		os.Exit(1)
	}

	templates, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Error("failed to open template store", slog.String("path", cfg.DatabasePath), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer templates.Close()

	dir, err := directory.New(cfg.DirectoryPath, log)
	if err != nil {
		log.Error("failed to open directory store", slog.String("path", cfg.DirectoryPath), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dir.Close()

	engine := report.NewEngine(templates, templates, dir, dir, log)
	engine.OverdueHorizon = cfg.Report.OverdueHorizonDays
	engine.Timeout = cfg.Report.RequestTimeout
	engine.Location = loc

	var demo *api.DemoStores
	if cfg.Env != envProd {
		demo = &api.DemoStores{Templates: templates, Directory: dir}
	}
	handler := api.NewHandler(engine, demo, log)
	router := api.NewRouter(handler, cfg.CORS.AllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server started",
			slog.String("address", cfg.HTTPServer.Address),
			slog.String("env", cfg.Env),
			slog.String("timezone", loc.String()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdown := cfg.HTTPServer.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdown)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	log.Info("server stopped")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}
