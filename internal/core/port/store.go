package port

import (
	"context"

	"priceflow/internal/core/domain"
)

// Store is the tiered time-series store described in spec.md §4.2: raw
// ticks plus OHLC rollups at 1m/5m/15m, with the promote/expire
// maintenance primitives the Downsampler drives.
type Store interface {
	// InsertTicks appends one tick per entry in a single transaction.
	// Duplicates (same asset+ts) are allowed.
	InsertTicks(ctx context.Context, ticks []domain.Tick) error

	// LatestTick returns the newest tick for asset, or ok=false if none.
	LatestTick(ctx context.Context, asset string) (domain.Tick, bool, error)

	// PriceAtOrBefore resolves the newest sample at or before ts, from
	// the finest-resolution tier that covers ts, per the tier
	// selection rule in spec.md §4.2. useAvg selects the bucket's avg
	// field instead of close for tiered (non-raw) reads.
	PriceAtOrBefore(ctx context.Context, asset string, ts int64, now int64, useAvg bool) (domain.PricePoint, bool, error)

	// InsertBucket upserts a bucket row on its (asset, bucket_duration,
	// bucket_start) unique key, replacing prior values.
	InsertBucket(ctx context.Context, b domain.Bucket) error

	// Promote atomically aggregates srcDuration rows into dstDuration
	// buckets and deletes the consumed source rows. A destination
	// bucket is only emitted once its own bucket_start is at or before
	// now-horizon, so a bucket is never produced from a
	// partially-elapsed interval. srcDuration==0 means the source tier
	// is raw ticks. Returns the number of destination buckets emitted.
	Promote(ctx context.Context, srcDuration, dstDuration int64, horizonSeconds int64, now int64) (int, error)

	// Expire deletes rows in the given tier (0 == raw ticks) older
	// than now-horizon. Returns rows deleted.
	Expire(ctx context.Context, tierDuration int64, horizonSeconds int64, now int64) (int64, error)

	// Vacuum reclaims space; a no-op is acceptable if the backing
	// store does not need it.
	Vacuum(ctx context.Context) error

	// Stats returns row counts per tier, used for the Downsampler's
	// vacuum threshold and cycle-end logging.
	Stats(ctx context.Context) (map[string]int64, error)

	Close() error
}
