// Package domain holds the plain data types shared across the price
// pipeline: ticks, aggregate buckets, snapshots and asset configuration.
package domain

// Tier durations in seconds, per the retention table in spec.md §3.
const (
	TierRaw           = 0 // T0, raw ticks, not a bucket_duration value
	TierOneMinute     = 60
	TierFiveMinute    = 300
	TierFifteenMinute = 900
)

// Retention horizons, in seconds.
const (
	RawRetentionSeconds        = 24 * 3600
	OneMinuteRetentionSeconds  = 7 * 24 * 3600
	FiveMinuteRetentionSeconds = 30 * 24 * 3600
	FifteenMinRetentionSeconds = 365 * 24 * 3600
)

// AssetFeed pairs a configured asset symbol with its upstream oracle
// feed id, in the order declared by the operator.
type AssetFeed struct {
	Symbol string
	FeedID string
}

// Tick is a single (asset, timestamp, price) sample produced by the
// Aggregator. Ticks are append-only; duplicates at the same timestamp
// are permitted.
type Tick struct {
	Asset string
	TS    int64 // unix seconds
	Price float64
}

// Bucket is an OHLC summary over a fixed-length, start-aligned time
// interval for one asset and one tier.
type Bucket struct {
	Asset          string
	BucketStart    int64 // unix seconds, aligned to BucketDuration
	BucketDuration int64 // 60, 300 or 900
	Open           float64
	High           float64
	Low            float64
	Close          float64
	Avg            float64
	SampleCount    int64
}

// PricePoint is a resolved historical sample, tagged with the
// timestamp it was actually observed at (which may be the bucket
// close time rather than the requested ts).
type PricePoint struct {
	Asset string
	TS    int64
	Price float64
}

// SnapshotEntry is one asset's entry inside the snapshot file.
type SnapshotEntry struct {
	Price       float64 `json:"price"`
	PublishTime int64   `json:"publish_time"`
}

// Snapshot is the atomically-published document containing the latest
// tick per asset, per spec.md §6.
type Snapshot struct {
	Timestamp int64                    `json:"timestamp"`
	Prices    map[string]SnapshotEntry `json:"prices"`
}
