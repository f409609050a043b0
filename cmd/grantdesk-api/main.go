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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/edvin/grantdesk/internal/api"
	"github.com/edvin/grantdesk/internal/backend"
	"github.com/edvin/grantdesk/internal/config"
	"github.com/edvin/grantdesk/internal/dashboard"
	"github.com/edvin/grantdesk/internal/db"
	"github.com/edvin/grantdesk/internal/logging"
	"github.com/edvin/grantdesk/internal/metrics"
	"github.com/edvin/grantdesk/internal/n8n"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting (postgres driver)")
	migrateDirFlag := flag.String("migrate-dir", "", "Migration files directory (default: embedded)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, logSwitch := logging.NewLogger(cfg)
	for _, w := range cfg.Warnings {
		logger.Warn().Msg(w)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resolver := config.NewResolver(cfg, logger)
	resolver.OnApply(logSwitch.Apply)

	var (
		store backend.Store
		pool  *pgxpool.Pool
	)
	switch cfg.BackendDriver {
	case config.DriverPostgres:
		if *migrateFlag {
			logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
			if err := db.RunMigrations(ctx, cfg.DatabaseURL, *migrateDirFlag); err != nil {
				logger.Fatal().Err(err).Msg("migration failed")
			}
		}

		pool, err = db.NewPool(ctx, cfg.DatabaseURL, 0)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to grants database")
		}
		defer pool.Close()
		metrics.RegisterPgxPoolMetrics(prometheus.DefaultRegisterer, "grants", pool)
		store = backend.NewPostgresStore(pool)
	default:
		if *migrateFlag {
			logger.Warn().Msg("-migrate only applies to the postgres driver, skipping")
		}
		store = backend.NewRESTStore(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	}

	grants := backend.NewClient(resolver, store, logger)
	automation := n8n.NewClient(resolver, logger)
	state := dashboard.NewStore(resolver, grants, automation, cfg.WorkflowsFailurePolicy, logger)

	if err := state.Initialize(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize dashboard")
	}

	srv := api.NewServer(logger, cfg, resolver, state, automation, pool)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Str("environment", string(resolver.Environment())).Msg("starting grantdesk API server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	var metricsServer *http.Server
	if cfg.MetricsListenAddr != "" {
		metricsServer = metrics.NewServer(cfg.MetricsListenAddr, resolver.Ready)
		go func() {
			logger.Info().Str("addr", cfg.MetricsListenAddr).Msg("starting metrics server")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	if metricsServer != nil {
		metricsServer.Shutdown(shutdownCtx)
	}
}
