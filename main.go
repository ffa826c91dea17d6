package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/username/stationetl/src/config"
	"github.com/username/stationetl/src/database"
	"github.com/username/stationetl/src/handlers"
	"github.com/username/stationetl/src/logger"
	"github.com/username/stationetl/src/processors"
	"github.com/username/stationetl/src/reference"
	"github.com/username/stationetl/src/security"
	"github.com/username/stationetl/src/services"
	"github.com/username/stationetl/src/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}
	log, capture := logger.New(cfg.LogLevel)
	log.Info("Station ETL starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Initializing database...", "path", cfg.DatabasePath)
	db, err := database.Open(ctx, cfg.DatabasePath, log)
	if err != nil {
		log.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("Database initialized successfully.")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(registry)

	st := store.New(db)
	env := &processors.Env{
		Store:              st,
		Refs:               reference.NewLoader(db, log),
		Log:                log,
		Loc:                cfg.Timezone,
		TradingAreaIgnored: reference.NewSet(cfg.TradingAreaIgnoredArticles...),
		RowCounts:          cache.New(36*time.Hour, time.Hour),
	}

	log.Info("Initializing services and handlers...")
	watcher := services.NewWatchService(services.WatchConfig{
		WorkDir:               cfg.WorkDir,
		OKDir:                 cfg.OKDir,
		ErrorDir:              cfg.ErrorDir,
		PollIdleInterval:      cfg.PollIdleInterval,
		SweepInterval:         cfg.SweepInterval,
		UnrecognizedMaxSweeps: cfg.UnrecognizedMaxSweeps,
		Loc:                   cfg.Timezone,
	}, processors.NewRegistry(env), log)
	watcher.Capture = capture
	watcher.Metrics = metrics
	watcher.Sink = services.NewReportSink(cfg, log)

	archiver, err := services.NewS3Archiver(cfg.ArchiveS3Bucket, cfg.ArchiveS3Region, cfg.ArchiveS3Prefix, log)
	if err != nil {
		log.Error("S3 archive disabled", "error", err)
	} else if archiver != nil {
		watcher.Archiver = archiver
	}

	competitorHandler := handlers.NewCompetitorHandler(st, security.NewSecretVerifier(cfg.ServerSecret, cfg.Timezone), log)
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst)

	serverAddr := ":" + cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handlers.NewRouter(competitorHandler, registry, limiter, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "address", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Failed to start server", "error", err)
			stop()
		}
	}()

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Watcher stopped with error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
	}
	log.Info("Station ETL stopped.")
}
