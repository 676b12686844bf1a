// Command presence runs one per-asset Presence Worker described in
// spec.md §4.4: nickname/status updates driven off the shared
// snapshot and store, plus the /price command served over an inbound
// interactions webhook.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	cacheadapter "priceflow/internal/adapters/cache"
	v1 "priceflow/internal/adapters/handler/http/v1"
	"priceflow/internal/adapters/presenceapi"
	"priceflow/internal/adapters/repository/postgres"
	"priceflow/internal/adapters/snapshot"
	"priceflow/internal/config"
	"priceflow/internal/core/port"
	"priceflow/internal/core/service/healthsvc"
	"priceflow/internal/core/service/presencesvc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "presence: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config.PresenceConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}
	asset := strings.ToUpper(strings.TrimSpace(cfg.Asset))

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

	reader := snapshot.NewReader(cfg.SnapshotPath)
	gateway := presenceapi.New(cfg.GatewayURL, cfg.Token)
	tracker := healthsvc.NewTracker(asset, 0)

	svc := presencesvc.New(
		asset,
		time.Duration(cfg.UpdateInterval)*time.Second,
		store,
		priceCache,
		reader,
		gateway,
		tracker,
		slog.Default(),
	)

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start presence worker: %w", err)
	}

	healthMux := http.NewServeMux()
	v1.NewHealthHandler(tracker).Register(healthMux)
	healthServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.HealthPort), Handler: healthMux}

	interactionsServer := &http.Server{Addr: cfg.InteractionsAddr, Handler: gateway.Handler()}

	go func() {
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("health server error", "error", err)
		}
	}()
	go func() {
		if err := interactionsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("interactions server error", "error", err)
		}
	}()

	go svc.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down presence worker", "asset", asset)
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := interactionsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("interactions server shutdown error", "error", err)
	}
	return healthServer.Shutdown(shutdownCtx)
}
