/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the AMC portal server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load configuration
  2. Initialize logging
  3. Initialize SQLite store and file buckets
  4. Build the engine policy, reporter and metrics
  5. Create API handler and router
  6. Start the risk scanner and the HTTP server

COMMAND-LINE FLAGS:
  -config  YAML config file (default: $AMC_CONFIG)
  -port    HTTP server port, overrides addr
  -db      SQLite database path, overrides db_path
           Use ":memory:" for in-memory database

ENVIRONMENT:
  Every config key can be set as AMC_<KEY>, e.g. AMC_DB_PATH,
  AMC_LOG_LEVEL, AMC_RISK_SCAN_INTERVAL=15m. See config/config.go.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the risk scanner
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/amc.db"

  # Run with a config file and a faster scan
  AMC_RISK_SCAN_INTERVAL=10m ./server -config=amc.yaml

SEE ALSO:
  - config/config.go: Settings and defaults
  - api/server.go: Router configuration
  - api/scheduler.go: Risk scanner
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/amc-portal/amc"
	"github.com/warp/amc-portal/api"
	"github.com/warp/amc-portal/bucket"
	"github.com/warp/amc-portal/config"
	"github.com/warp/amc-portal/logger"
	"github.com/warp/amc-portal/metrics"
	"github.com/warp/amc-portal/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides addr)")
	dbPath := flag.String("db", "", "SQLite database path (overrides db_path)")
	flag.Parse()

	if err := run(*configPath, *port, *dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "amc-portal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, port int, dbPath string) error {
	ctx := context.Background()

	cfg, err := config.Load(ctx, config.WithFile(configPath))
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Addr = fmt.Sprintf(":%d", port)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	// Logging
	if err := logger.InitWithWriter(os.Stdout, cfg.LogFormat); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Named("server")

	// Storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	buckets, err := bucket.New(cfg.BucketDir)
	if err != nil {
		return fmt.Errorf("failed to initialize buckets: %w", err)
	}

	// Engine
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	reporter := amc.NewReporter(store, amc.NewEngine(policy))
	metricsManager := metrics.NewManager()

	// Handler and router
	handler := api.NewHandler(store, reporter, buckets,
		api.WithLogger(logger.Named("api")),
		api.WithMetrics(metricsManager),
		api.WithMaxUploadBytes(cfg.MaxUploadBytes()),
	)
	router := api.NewRouter(handler, cfg.AllowedOrigins)

	// Background risk scan
	scanner := api.NewRiskScanner(reporter, logger.Get(), metricsManager)
	scanner.Interval = cfg.RiskScanInterval
	scanner.Start()
	defer scanner.Stop()

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "server starting",
			logger.String("addr", cfg.Addr),
			logger.String("db", cfg.DBPath),
			logger.String("buckets", cfg.BucketDir),
			logger.Int("expiry_window_days", policy.ExpiryWindowDays),
			logger.Stringer("low_hours_threshold", policy.LowHoursThreshold),
			logger.Bool("lenient_payment_terms", policy.LenientPaymentTerms),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-quit:
		log.Info(ctx, "shutting down", logger.String("signal", sig.String()))
	}

	scanner.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info(ctx, "server stopped")
	return nil
}
