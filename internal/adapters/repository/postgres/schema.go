package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS ticks (
	asset TEXT NOT NULL,
	ts BIGINT NOT NULL,
	price DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ticks_asset_ts ON ticks (asset, ts);

CREATE TABLE IF NOT EXISTS buckets (
	asset TEXT NOT NULL,
	bucket_duration BIGINT NOT NULL,
	bucket_start BIGINT NOT NULL,
	open DOUBLE PRECISION NOT NULL,
	high DOUBLE PRECISION NOT NULL,
	low DOUBLE PRECISION NOT NULL,
	close DOUBLE PRECISION NOT NULL,
	avg DOUBLE PRECISION NOT NULL,
	sample_count BIGINT NOT NULL,
	PRIMARY KEY (asset, bucket_duration, bucket_start)
);
CREATE INDEX IF NOT EXISTS idx_buckets_lookup ON buckets (asset, bucket_duration, bucket_start);
`

// migrate creates the tiered schema described in spec.md §3 if it does
// not already exist. Idempotent, safe to call on every process start.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
