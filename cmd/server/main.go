package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yannouuuu/hotaru/internal/config"
	"github.com/yannouuuu/hotaru/internal/domain"
	"github.com/yannouuuu/hotaru/internal/engine"
	"github.com/yannouuuu/hotaru/internal/httpserver"
	"github.com/yannouuuu/hotaru/internal/kv"
	"github.com/yannouuuu/hotaru/internal/logging"
	"github.com/yannouuuu/hotaru/internal/metrics"
	"github.com/yannouuuu/hotaru/internal/publish"
	"github.com/yannouuuu/hotaru/internal/store"
	"github.com/yannouuuu/hotaru/internal/sweeper"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupKV(cfg *config.Config) (domain.KVStore, func()) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.StoreBackend {
	case config.BackendRedis:
		client, err := kv.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		return client, func() { _ = client.Close() }
	case config.BackendPostgres:
		pool, err := kv.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		return pool, pool.Close
	default:
		return kv.NewMemory(), func() {}
	}
}

func runGracefulShutdown(srv *httpserver.Server, sw *sweeper.Sweeper) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		sw.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "backend", cfg.StoreBackend)

	kvStore, closeKV := setupKV(cfg)
	defer closeKV()

	st := store.New(kvStore, cfg.KVNamespace, clock)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	publisher := publish.NewBreaker(publish.LogPublisher{})
	eng := engine.New(st, clock, publisher, m)

	sw := sweeper.New(eng, st, clock, sweeper.Config{
		Interval:     cfg.SweepInterval,
		CloseWeekday: time.Weekday(cfg.ArchiveWeekday),
		CloseHourUTC: cfg.ArchiveHourUTC,
	}, m)
	go sw.Run(context.Background())

	srv := httpserver.NewServer(cfg, eng, registry)

	done := runGracefulShutdown(srv, sw)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
