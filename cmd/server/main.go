/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the time clock server: punch API, weekly report
  scheduler and SQLite store. Handles configuration, dependency injection,
  and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load configuration (defaults < config file < TIMECLOCK_* env)
  3. Build logger
  4. Initialize SQLite store
  5. Wire recorder, reconciler, aggregator, report sink and scheduler
  6. Configure HTTP router
  7. Start server and scheduler with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Config file path (default: ./config.yaml or ./config/config.yaml)
  -port    HTTP server port, overrides config
  -db      SQLite database path, overrides config
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler, waiting for an in-flight report
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
  - api/scheduler.go: Weekly report scheduler
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/timeclock/api"
	"github.com/warp/timeclock/config"
	"github.com/warp/timeclock/logger"
	"github.com/warp/timeclock/report"
	"github.com/warp/timeclock/store/sqlite"
	"github.com/warp/timeclock/timeclock"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "Config file path")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer lg.Sync()

	if err := run(cfg, lg); err != nil {
		lg.Error("server exited", zap.Error(err))
		lg.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	clock, err := timeclock.NewFacilityClock(cfg.Facility.Timezone)
	if err != nil {
		return err
	}

	recorder := timeclock.NewRecorder(store, clock, lg)
	reconciler := timeclock.NewReconciler(store, lg)
	aggregator := timeclock.NewAggregator(store, reconciler, lg)

	sink := &report.FileSink{
		Dir:     cfg.Report.Dir,
		XLSX:    cfg.Report.XLSX,
		Punches: cfg.Report.Punches,
		Store:   store,
		Logger:  lg,
	}

	weekday, err := cfg.Schedule.ParsedWeekday()
	if err != nil {
		return err
	}
	scheduler := api.NewReportScheduler(store, aggregator, sink, clock, lg)
	scheduler.Window = api.Window{Weekday: weekday, StartHour: cfg.Schedule.StartHour, EndHour: cfg.Schedule.EndHour}
	scheduler.CheckInterval = cfg.Schedule.CheckInterval
	scheduler.Enabled = cfg.Schedule.Enabled

	handler := api.NewHandler(store, recorder, reconciler, scheduler, lg)
	router := api.NewRouter(handler, cfg.Server.CORS.AllowOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		lg.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("db", cfg.Database.Path),
			zap.Stringer("timezone", clock.Location()),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		scheduler.Stop()
		return fmt.Errorf("server failed: %w", err)
	}

	lg.Info("shutting down server")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	lg.Info("server stopped")
	return nil
}
