package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/pediatric-dosing-api/config"
	"github.com/giygas/pediatric-dosing-api/data"
	"github.com/giygas/pediatric-dosing-api/dosing"
	"github.com/giygas/pediatric-dosing-api/handlers"
	"github.com/giygas/pediatric-dosing-api/health"
	"github.com/giygas/pediatric-dosing-api/logging"
	"github.com/giygas/pediatric-dosing-api/medications"
	"github.com/giygas/pediatric-dosing-api/scheduler"
	"github.com/giygas/pediatric-dosing-api/server"
	"github.com/giygas/pediatric-dosing-api/validation"
)

func main() {
	if err := config.LoadEnvFile(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logDir := "logs"
	if cfg.Env == config.EnvTest {
		logDir = ""
	}
	logging.InitLoggerWithRetention(logDir, logging.ParseLevel(cfg.LogLevel), cfg.LogRetentionWeeks, cfg.MaxLogFileSize)
	defer func() {
		if err := logging.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "failed to close log file:", err)
		}
	}()

	if err := run(cfg); err != nil {
		logging.Error("Server stopped with error", "error", err)
		_ = logging.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	validator := validation.NewCatalogValidator()
	catalog := data.NewCatalogContainer()
	loader := medications.NewFileLoader(cfg.CatalogPath, validator)

	cache := dosing.NewCachedCalculator(dosing.DoseEngine{}, cfg.CacheSize, cfg.CacheTTL)
	service := dosing.NewService(catalog, cache)

	// A reloaded catalog invalidates every cached result
	sched := scheduler.NewScheduler(catalog, loader, cfg.CatalogReloadInterval, cache.Purge)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	handler := handlers.NewHTTPHandler(catalog, validator, service,
		health.NewHealthChecker(catalog, cfg.CatalogReloadInterval))
	srv := server.NewServer(cfg, handler)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-quit:
		logging.Info("Signal received", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats := cache.Stats()
	logging.Info("Dose cache statistics", "hits", stats.Hits, "misses", stats.Misses, "size", stats.Size)

	return srv.Shutdown(ctx)
}
