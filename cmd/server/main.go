/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the policy administration server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment), then parse flags
  2. Initialize structured logging
  3. Initialize SQLite store
  4. Install the product catalog (CATALOG_FILE or built-in presets)
  5. Create engine, API handler and router
  6. Start the accrual scheduler
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: PORT or 8080)
  -db      SQLite database path (default: DB_PATH or policy.db)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the accrual scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/policy.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port, debug logging
  LOG_LEVEL=debug ./server -port=3000

ENVIRONMENT:
  See config/config.go.

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Accrual scheduler
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/policy-engine/api"
	"github.com/warp/policy-engine/config"
	"github.com/warp/policy-engine/engine"
	"github.com/warp/policy-engine/factory"
	"github.com/warp/policy-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags override the environment
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer store.Close()

	eng := engine.New(store, cfg.RateCacheTTL, logger)

	if err := seedCatalog(context.Background(), eng, cfg.CatalogFile, logger); err != nil {
		return err
	}

	handler := api.NewHandler(eng, logger)
	scheduler := api.NewAccrualScheduler(eng, logger)
	scheduler.CheckInterval = cfg.AccrualInterval
	handler.Scheduler = scheduler

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      api.NewRouter(handler, cfg.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	scheduler.Start()

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", *port, "db", *dbPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		scheduler.Stop()
		return err
	}

	logger.Info("shutting down server")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// seedCatalog installs the catalog into an empty database. Once products
// exist, catalog changes go through POST /api/admin/catalog.
func seedCatalog(ctx context.Context, eng *engine.Engine, path string, logger *slog.Logger) error {
	existing, err := eng.Contracts(ctx)
	if err != nil {
		return fmt.Errorf("reading products: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("catalog already installed", "products", len(existing))
		return nil
	}
	cat, err := loadCatalog(path)
	if err != nil {
		return err
	}
	if err := eng.InstallCatalog(ctx, cat); err != nil {
		return fmt.Errorf("installing catalog: %w", err)
	}
	return nil
}

// loadCatalog reads path, or returns the built-in presets when path is empty.
func loadCatalog(path string) (*factory.Catalog, error) {
	if path == "" {
		return factory.DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	cat, err := factory.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return cat, nil
}
