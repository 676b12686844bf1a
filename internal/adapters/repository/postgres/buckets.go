package postgres

import (
	"context"
	"fmt"

	"priceflow/internal/core/domain"
)

const upsertBucketQuery = `
INSERT INTO buckets (asset, bucket_duration, bucket_start, open, high, low, close, avg, sample_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (asset, bucket_duration, bucket_start) DO UPDATE SET
	open = excluded.open,
	high = excluded.high,
	low = excluded.low,
	close = excluded.close,
	avg = excluded.avg,
	sample_count = excluded.sample_count
`

// InsertBucket upserts one bucket row, retrying on lock contention.
func (s *Store) InsertBucket(ctx context.Context, b domain.Bucket) error {
	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, upsertBucketQuery,
			b.Asset, b.BucketDuration, b.BucketStart, b.Open, b.High, b.Low, b.Close, b.Avg, b.SampleCount)
		if err != nil {
			return fmt.Errorf("%w: upsert bucket: %v", domain.ErrStoreFatal, err)
		}
		return nil
	})
}

// promoteFromTicksQuery aggregates closed raw ticks into dstDuration
// buckets, per spec.md §4.2. Open/close are picked via array_agg
// ordered ascending/descending since Postgres has no FIRST()/LAST()
// aggregate.
//
// A bucket is eligible once its own bucket_start is at or before
// cutoff (horizonSeconds in the past), not once some individual tick
// inside it happens to be old enough: retention horizons are always
// far larger than a bucket's duration, so bucket_start <= cutoff
// already implies the interval [bucket_start, bucket_start+dstDuration)
// has fully elapsed. Gating on bucket_start rather than per-row ts
// against cutoff avoids emitting a bucket from a partially-elapsed
// interval (spec.md §3) while still picking up every tick that
// belongs to it, including ones newer than cutoff. The ts < $2 + $1
// filter on the source CTE is just a scan-pruning bound: it cannot
// exclude a tick belonging to an eligible bucket, since that tick's
// ts is necessarily < bucket_start + $1 <= $2 + $1.
const promoteFromTicksQuery = `
WITH closed AS (
	SELECT asset, (ts / $1) * $1 AS bucket_start, ts, price
	FROM ticks
	WHERE ts < $2 + $1
),
agg AS (
	SELECT
		asset,
		bucket_start,
		MIN(price) AS low,
		MAX(price) AS high,
		AVG(price) AS avg,
		COUNT(*) AS sample_count,
		(ARRAY_AGG(price ORDER BY ts ASC))[1] AS open,
		(ARRAY_AGG(price ORDER BY ts DESC))[1] AS close
	FROM closed
	GROUP BY asset, bucket_start
	HAVING bucket_start <= $2
)
INSERT INTO buckets (asset, bucket_duration, bucket_start, open, high, low, close, avg, sample_count)
SELECT asset, $1, bucket_start, open, high, low, close, avg, sample_count FROM agg
ON CONFLICT (asset, bucket_duration, bucket_start) DO UPDATE SET
	open = excluded.open,
	high = excluded.high,
	low = excluded.low,
	close = excluded.close,
	avg = excluded.avg,
	sample_count = excluded.sample_count
`

// promoteFromBucketsQuery aggregates closed srcDuration buckets into
// dstDuration buckets. sample_count weighted values preserve the
// correct overall average across the merged interval. See
// promoteFromTicksQuery for why eligibility is gated on dst_start
// against cutoff rather than on each source bucket's own closure.
const promoteFromBucketsQuery = `
WITH closed AS (
	SELECT asset, (bucket_start / $1) * $1 AS dst_start, bucket_start, open, high, low, close, avg, sample_count
	FROM buckets
	WHERE bucket_duration = $2 AND bucket_start < $3 + $1
),
agg AS (
	SELECT
		asset,
		dst_start,
		MIN(low) AS low,
		MAX(high) AS high,
		SUM(avg * sample_count) / NULLIF(SUM(sample_count), 0) AS avg,
		SUM(sample_count) AS sample_count,
		(ARRAY_AGG(open ORDER BY bucket_start ASC))[1] AS open,
		(ARRAY_AGG(close ORDER BY bucket_start DESC))[1] AS close
	FROM closed
	GROUP BY asset, dst_start
	HAVING dst_start <= $3
)
INSERT INTO buckets (asset, bucket_duration, bucket_start, open, high, low, close, avg, sample_count)
SELECT asset, $1, dst_start, open, high, low, close, avg, sample_count FROM agg
ON CONFLICT (asset, bucket_duration, bucket_start) DO UPDATE SET
	open = excluded.open,
	high = excluded.high,
	low = excluded.low,
	close = excluded.close,
	avg = excluded.avg,
	sample_count = excluded.sample_count
`

// Promote aggregates rows from srcDuration into dstDuration buckets and
// deletes the consumed source rows, all within one transaction so a
// crash never leaves data double-counted or lost. A destination
// bucket is only emitted once its interval has fully elapsed relative
// to horizonSeconds, per promoteFromTicksQuery/promoteFromBucketsQuery.
// srcDuration == domain.TierRaw promotes raw ticks instead of buckets.
func (s *Store) Promote(ctx context.Context, srcDuration, dstDuration int64, horizonSeconds int64, now int64) (int, error) {
	cutoff := now - horizonSeconds
	var promoted int

	err := withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%w: begin promote: %v", domain.ErrStoreBusy, err)
		}
		defer tx.Rollback()

		var res interface {
			RowsAffected() (int64, error)
		}

		if srcDuration == domain.TierRaw {
			res, err = tx.ExecContext(ctx, promoteFromTicksQuery, dstDuration, cutoff)
		} else {
			res, err = tx.ExecContext(ctx, promoteFromBucketsQuery, dstDuration, srcDuration, cutoff)
		}
		if err != nil {
			return fmt.Errorf("%w: aggregate promote: %v", domain.ErrStoreFatal, err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: promote rows affected: %v", domain.ErrStoreFatal, err)
		}
		promoted = int(rows)

		// The delete predicate must select exactly the rows the promote
		// query just aggregated: same bucket_start/dst_start grouping key
		// compared against the same cutoff, or a row from the still-open
		// trailing bucket would be deleted without ever having been
		// promoted.
		if srcDuration == domain.TierRaw {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM ticks WHERE (ts / $1) * $1 <= $2", dstDuration, cutoff); err != nil {
				return fmt.Errorf("%w: delete promoted ticks: %v", domain.ErrStoreFatal, err)
			}
		} else {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM buckets WHERE bucket_duration = $1 AND (bucket_start / $2) * $2 <= $3",
				srcDuration, dstDuration, cutoff); err != nil {
				return fmt.Errorf("%w: delete promoted buckets: %v", domain.ErrStoreFatal, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: commit promote: %v", domain.ErrStoreBusy, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return promoted, nil
}

// Expire deletes rows older than now-horizonSeconds from the given
// tier (domain.TierRaw for raw ticks).
func (s *Store) Expire(ctx context.Context, tierDuration int64, horizonSeconds int64, now int64) (int64, error) {
	cutoff := now - horizonSeconds
	var deleted int64

	err := withRetry(ctx, func() error {
		var res interface {
			RowsAffected() (int64, error)
		}
		var err error
		if tierDuration == domain.TierRaw {
			res, err = s.db.ExecContext(ctx, "DELETE FROM ticks WHERE ts < $1", cutoff)
		} else {
			res, err = s.db.ExecContext(ctx,
				"DELETE FROM buckets WHERE bucket_duration = $1 AND bucket_start < $2", tierDuration, cutoff)
		}
		if err != nil {
			return fmt.Errorf("%w: expire: %v", domain.ErrStoreFatal, err)
		}
		deleted, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: expire rows affected: %v", domain.ErrStoreFatal, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
