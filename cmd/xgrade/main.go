// main is the entry point of the xgrade student-record manager.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file (plus an optional .env)
//  2. Initialise the logger
//  3. Open the storage backend (remote service or local SQLite file)
//  4. Fetch the initial registry snapshot
//  5. Register the local API routes and start the HTTP server
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, then exit
//
// RUNNING:
//
//	go run ./cmd/xgrade --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/xgrade
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/xgrade/internal/app"
	"github.com/aanand-mishra/xgrade/internal/config"
	"github.com/aanand-mishra/xgrade/internal/http/handlers/student"
	"github.com/aanand-mishra/xgrade/internal/storage"
	"github.com/aanand-mishra/xgrade/internal/storage/remote"
	"github.com/aanand-mishra/xgrade/internal/storage/sqlite"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting xgrade",
		slog.String("env", cfg.Env),
		slog.String("backend", cfg.Backend.Kind),
	)

	store, closeStore, err := openStorage(cfg)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	a := app.New(store, log, app.LogNotifier{Log: log})

	// The UI starts with whatever the backend has; an unreachable backend
	// is not fatal, the user can refresh later.
	if err := a.Refresh(context.Background()); err != nil {
		log.Warn("initial fetch failed", slog.String("error", err.Error()))
	}

	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: student.Routes(a),

		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	if code := stop(log, server, 5*time.Second); code != 0 {
		closeStore()
		os.Exit(code)
	}
}

// stop drains server within timeout and returns the process exit code.
func stop(log *slog.Logger, server *http.Server, timeout time.Duration) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		return 1
	}

	log.Info("server stopped gracefully")
	return 0
}

// openStorage builds the backend named by cfg.Backend.Kind. The returned
// func releases its resources.
func openStorage(cfg *config.Config) (storage.Storage, func() error, error) {
	switch cfg.Backend.Kind {
	case config.BackendSQLite:
		db, err := sqlite.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("storage initialised", slog.String("path", cfg.StoragePath))
		return db, db.Close, nil

	case config.BackendRemote:
		client, err := remote.New(cfg, nil)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("storage initialised",
			slog.String("base_url", cfg.Backend.BaseURL),
			slog.String("routes", cfg.Backend.Routes))
		return client, func() error { return nil }, nil
	}

	return nil, nil, fmt.Errorf("unknown backend kind %q", cfg.Backend.Kind)
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default:
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
