/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the budget period engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from environment
  2. Initialize SQLite store
  3. Rebuild the in-memory chain and ledger from storage
  4. Create the coordinator and API handler
  5. Start the rollover scheduler
  6. Start server with graceful shutdown

ENVIRONMENT:
  PORT            HTTP server port (default: 8080)
  DB_PATH         SQLite database path (default: ./data/budget.db)
                  Use ":memory:" for an in-memory database
  LOG_LEVEL       logrus level (default: INFO)
  PERIOD_DAYS     nominal period length for auto-rollover (default: 30)
  SCHEDULER_SPEC  cron spec for the rollover check (default: @hourly)
  USER_ID         owner of the period chain (default: default)

FLAGS:
  -port  overrides PORT
  -db    overrides DB_PATH

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the rollover scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Rollover scheduler
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/budget-engine/api"
	"github.com/warp/budget-engine/config"
	"github.com/warp/budget-engine/finance"
	"github.com/warp/budget-engine/store/sqlite"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	port := flag.String("port", "", "HTTP port (overrides PORT)")
	dbPath := flag.String("db", "", "SQLite database path (overrides DB_PATH)")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	// Rebuild in-memory state from storage
	ctx := context.Background()
	periods, err := store.LoadPeriods(ctx)
	if err != nil {
		logger.WithError(err).Fatal("failed to load periods")
	}
	items, err := store.LoadCashflow(ctx)
	if err != nil {
		logger.WithError(err).Fatal("failed to load cashflow")
	}

	chain := finance.NewChain(periods...)
	ledger := finance.NewLedger(items...)
	engine := finance.NewCoordinator(chain, ledger, store, logger)

	logger.WithFields(logrus.Fields{
		"periods": chain.Len(),
		"entries": ledger.Len(),
	}).Info("state loaded")

	// Rollover scheduler
	scheduler, err := api.NewRolloverScheduler(engine, cfg.PeriodDays, cfg.SchedulerSpec, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create scheduler")
	}
	scheduler.Start()

	// Router and server
	handler := api.NewHandler(engine, finance.UserID(cfg.UserID))
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.WithField("port", cfg.Port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("server forced to shutdown")
	}

	logger.Info("server stopped")
}
