package port

import "context"

// Cache is an optional read-through layer in front of Store's
// latest-tick reads (PriceAtOrBefore is not cached), populated by the
// Aggregator after each successful tick insert and invalidated for
// every known asset whenever a Downsampler promotion step emits
// buckets. Implementations must treat a cache miss as non-fatal:
// callers fall back to Store directly.
type Cache interface {
	// SetLatest caches asset's latest observed price together with its
	// timestamp, replacing any prior entry whatever its timestamp.
	SetLatest(ctx context.Context, asset string, ts int64, price float64) error

	// GetLatest returns the cached latest price for asset, or
	// ok=false on a miss.
	GetLatest(ctx context.Context, asset string) (price float64, ts int64, ok bool, err error)

	// Invalidate drops any cached entry for asset, called after a
	// tier promotion changes which row backs a historical lookup.
	Invalidate(ctx context.Context, asset string) error

	Ping(ctx context.Context) error
	Close() error
}
