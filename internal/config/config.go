// Package config loads process configuration from the environment,
// following the layering the pack's MuhammadChandra19-exchange config
// packages use: an optional .env file loaded first via godotenv, then
// typed env struct tags parsed with caarlos0/env.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"priceflow/internal/core/domain"
)

// Shared holds the settings common to all three processes.
type Shared struct {
	AssetsFeeds string `env:"ASSETS_FEEDS,required"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     int    `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"priceflow"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`
}

// AggregatorConfig configures the ingestion process (spec.md §4.1).
type AggregatorConfig struct {
	Shared
	OracleURL      string `env:"ORACLE_URL,required"`
	SnapshotPath   string `env:"SNAPSHOT_PATH" envDefault:"shared/prices.json"`
	FetchInterval  int    `env:"T_FETCH_SECONDS" envDefault:"12"`
	RequestTimeout int    `env:"ORACLE_TIMEOUT_SECONDS" envDefault:"10"`
}

// DownsamplerConfig configures the maintenance process (spec.md §4.3).
type DownsamplerConfig struct {
	Shared
	CleanupIntervalHours int `env:"T_CLEAN_HOURS" envDefault:"24"`
}

// PresenceConfig configures one per-asset presence worker (spec.md §4.4).
type PresenceConfig struct {
	Shared
	Asset          string `env:"ASSET,required"`
	Token          string `env:"PRESENCE_TOKEN,required"`
	GatewayURL     string `env:"PRESENCE_GATEWAY_URL,required"`
	InteractionsAddr string `env:"INTERACTIONS_ADDR" envDefault:":9090"`
	SnapshotPath   string `env:"SNAPSHOT_PATH" envDefault:"shared/prices.json"`
	UpdateInterval int    `env:"T_UPDATE_SECONDS" envDefault:"12"`
	FetchInterval  int    `env:"T_FETCH_SECONDS" envDefault:"12"`
}

// Load parses Shared-embedding config T from the environment, loading
// a .env file first when present (its absence is not an error, mirroring
// dotenv().ok() in original_source/src/main.rs).
func Load[T any](cfg *T) error {
	_ = godotenv.Load()
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// ParseAssetsFeeds parses the "SYMBOL:feed_id,SYMBOL:feed_id" format
// described in spec.md §9 into an ordered, validated list. Malformed
// or duplicate entries are fatal configuration errors.
func ParseAssetsFeeds(raw string) ([]domain.AssetFeed, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("assets_feeds is empty")
	}

	pairs := strings.Split(raw, ",")
	feeds := make([]domain.AssetFeed, 0, len(pairs))
	seen := make(map[string]bool, len(pairs))

	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed assets_feeds entry %q: want SYMBOL:feed_id", pair)
		}
		symbol := strings.ToUpper(strings.TrimSpace(parts[0]))
		feedID := strings.TrimSpace(parts[1])
		if symbol == "" || feedID == "" {
			return nil, fmt.Errorf("malformed assets_feeds entry %q: empty symbol or feed id", pair)
		}
		if seen[symbol] {
			return nil, fmt.Errorf("duplicate asset symbol %q in assets_feeds", symbol)
		}
		seen[symbol] = true
		feeds = append(feeds, domain.AssetFeed{Symbol: symbol, FeedID: feedID})
	}

	if len(feeds) == 0 {
		return nil, fmt.Errorf("assets_feeds parsed to zero entries")
	}
	return feeds, nil
}
