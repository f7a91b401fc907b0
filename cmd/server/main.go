// Package main is the entry point for the catercost API server.
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

	"catercost/internal/config"
	"catercost/internal/core/tenant"
	"catercost/internal/domain/costing"
	"catercost/internal/domain/reports"
	"catercost/internal/infrastructure/cache"
	v1 "catercost/internal/infrastructure/http/v1"
	"catercost/internal/infrastructure/storage/postgres"
	"catercost/internal/infrastructure/storage/postgres/catalog_repo"
	"catercost/internal/infrastructure/storage/postgres/report_repo"
	"catercost/pkg/logger"
)

func main() {
	envFile := flag.String("env", "", "path to .env file (defaults to ./.env when present)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting catercost server")

	// --- Database connection ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Infow("database connection established", "max_conns", poolCfg.MaxConns)

	txManager := postgres.NewTxManager(pool)
	registry := tenant.NewPostgresRegistry(pool.Unwrap())

	// --- Unit graph cache ---
	units := cache.NewUnitGraphCache(catalog_repo.NewUnitRepo(), cfg.Units.CacheTTL, cfg.UnitOptions()...)
	if cfg.Units.CacheListen {
		units.Start(ctx, pool.Unwrap())
		defer units.Stop()
	}
	warmUnitGraphs(ctx, log, registry, txManager, units)

	// --- Reports ---
	reportRepo := report_repo.NewReportRepo(catalog_repo.NewMaterialRepo())
	reportService := reports.NewService(reportRepo, units, costing.Options{
		ExcludedLinesInTotal: cfg.Costing.PriceExcludedLines,
	})

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Registry:  registry,
		TxManager: txManager,
		DB:        pool,
		Stats: func() any {
			return map[string]any{
				"pool":       pool.Stats(),
				"unitGraphs": units.Len(),
			}
		},
		Logger:  log,
		Reports: reportService,
		Debug:   cfg.Development(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", cfg.Server.Port, "env", cfg.Server.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	pool.LogStats(ctx)
	log.Info("server stopped")
}

// warmUnitGraphs loads the unit graph of every active company so the first
// report of each does not pay for it. Failures are logged; the graph is
// retried on first use.
func warmUnitGraphs(
	ctx context.Context,
	log *logger.Logger,
	registry tenant.Registry,
	txManager *postgres.TxManager,
	units *cache.UnitGraphCache,
) {
	companies, err := registry.ListActive(ctx)
	if err != nil {
		log.Warnw("failed to list companies for unit graph warmup", "error", err)
		return
	}

	for _, company := range companies {
		companyCtx := tenant.WithTenant(tenant.WithTxManager(ctx, txManager), company)
		if _, err := units.Graph(companyCtx); err != nil {
			log.Warnw("unit graph warmup failed", "tenant_id", company.ID, "error", err)
		}
	}
	log.Infow("unit graphs warmed", "companies", len(companies), "cached", units.Len())
}
