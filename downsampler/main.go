// Command downsampler runs the maintenance process described in
// spec.md §4.3: promote ticks through the T0/T1/T2/T3 tier ladder,
// expire rows past their retention horizon, and vacuum when warranted.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	cacheadapter "priceflow/internal/adapters/cache"
	v1 "priceflow/internal/adapters/handler/http/v1"
	"priceflow/internal/adapters/repository/postgres"
	"priceflow/internal/config"
	"priceflow/internal/core/port"
	"priceflow/internal/core/service/downsamplersvc"
	"priceflow/internal/core/service/healthsvc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "downsampler: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config.DownsamplerConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	feeds, err := config.ParseAssetsFeeds(cfg.AssetsFeeds)
	if err != nil {
		return fmt.Errorf("parse assets_feeds: %w", err)
	}
	assets := make([]string, len(feeds))
	for i, f := range feeds {
		assets[i] = f.Symbol
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Open(cfg.Shared)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	store, err := postgres.NewStore(ctx, db)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	var priceCache port.Cache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unavailable, continuing without cache", "error", err)
		} else {
			priceCache = cacheadapter.NewRedisCache(client)
			defer priceCache.Close()
		}
	}

	tracker := healthsvc.NewTracker("", 0)
	svc := downsamplersvc.New(
		time.Duration(cfg.CleanupIntervalHours)*time.Hour,
		store,
		priceCache,
		assets,
		tracker,
		slog.Default(),
	)

	mux := http.NewServeMux()
	v1.NewHealthHandler(tracker).Register(mux)
	healthServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.HealthPort), Handler: mux}

	go func() {
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("health server error", "error", err)
		}
	}()

	go svc.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down downsampler")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return healthServer.Shutdown(shutdownCtx)
}
