package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"nbasched/ingestion/internal/cache"
	"nbasched/ingestion/internal/client"
	"nbasched/ingestion/internal/config"
	"nbasched/ingestion/internal/metrics"
	"nbasched/ingestion/internal/repository"
	"nbasched/ingestion/internal/schedule"
	"nbasched/ingestion/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	setupLogger()

	log.Info().Msg("Starting NBA schedule sync worker")

	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Int("season", cfg.Season).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	feedClient := client.NewClient(cfg.FeedBaseURL, cfg.FeedAPIKey, cfg.FeedTimeout)
	log.Info().Msg("Feed client initialized")

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Admin.CreateTables(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create schema")
	}

	redisCache, err := cache.NewRedisCache(cache.Config{
		Host:     cfg.RedisHost,
		Port:     strconv.Itoa(cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	if cfg.EnableMetrics {
		go startMetricsServer(cfg.MetricsPort)
		go observeRuntime(ctx, db)
	}

	syncer := schedule.NewSyncer(db, feedClient, redisCache, cfg.Season, cfg.CacheTTLSchedule)

	if cfg.InitialLoadEnabled {
		log.Info().Msg("Running initial schedule load...")
		if err := syncer.InitialLoad(ctx, time.Now()); err != nil {
			log.Fatal().Err(err).Msg("Initial schedule load failed")
		}
	}

	sched := scheduler.NewScheduler(cfg, syncer)
	if cfg.EnableScheduler {
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	<-ctx.Done()

	log.Info().Msg("Shutting down scheduler...")
	sched.Stop()

	log.Info().Msg("Worker shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// startMetricsServer exposes Prometheus metrics
func startMetricsServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	log.Info().Str("addr", addr).Msg("Metrics server listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}

// observeRuntime updates uptime and connection pool gauges
func observeRuntime(ctx context.Context, db *repository.Database) {
	startTime := time.Now()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			stats := db.PoolStats()
			metrics.DBConnectionsActive.Set(float64(stats["acquired_conns"].(int32)))
			metrics.DBConnectionsIdle.Set(float64(stats["idle_conns"].(int32)))
		case <-ctx.Done():
			return
		}
	}
}
