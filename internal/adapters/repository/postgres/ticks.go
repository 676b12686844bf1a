package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"priceflow/internal/core/domain"
)

// InsertTicks appends ticks in a single transaction, retrying on lock
// contention per spec.md §4.2.
func (s *Store) InsertTicks(ctx context.Context, ticks []domain.Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	return withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%w: begin insert ticks: %v", domain.ErrStoreBusy, err)
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, "INSERT INTO ticks (asset, ts, price) VALUES ($1, $2, $3)")
		if err != nil {
			return fmt.Errorf("%w: prepare insert ticks: %v", domain.ErrStoreFatal, err)
		}
		defer stmt.Close()

		for _, t := range ticks {
			if _, err := stmt.ExecContext(ctx, t.Asset, t.TS, t.Price); err != nil {
				return fmt.Errorf("%w: insert tick: %v", domain.ErrStoreFatal, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: commit insert ticks: %v", domain.ErrStoreBusy, err)
		}
		return nil
	})
}

// LatestTick returns the newest raw tick for asset.
func (s *Store) LatestTick(ctx context.Context, asset string) (domain.Tick, bool, error) {
	var t domain.Tick
	t.Asset = asset
	row := s.db.QueryRowContext(ctx,
		"SELECT ts, price FROM ticks WHERE asset = $1 ORDER BY ts DESC LIMIT 1", asset)
	if err := row.Scan(&t.TS, &t.Price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Tick{}, false, nil
		}
		return domain.Tick{}, false, fmt.Errorf("%w: latest tick: %v", domain.ErrStoreFatal, err)
	}
	return t, true, nil
}

// rawFallThroughWindow bounds how far back a raw-tick lookup may reach
// before falling through to the 1-min tier, per spec.md §4.2: "if no
// tick is within [ts − 5 min, ts], fall through to T1".
const rawFallThroughWindow = 5 * 60

// PriceAtOrBefore implements the tier selection rule in spec.md §4.2.
// Exactly one tier is picked from age alone; only the raw tier has a
// documented fallback (to T1, bounded by rawFallThroughWindow). Other
// tiers never fall through to a coarser one even if empty, per the
// "tier fallback query" scenario in spec.md §8 (S6).
func (s *Store) PriceAtOrBefore(ctx context.Context, asset string, ts, now int64, useAvg bool) (domain.PricePoint, bool, error) {
	age := now - ts

	if age <= domain.RawRetentionSeconds {
		point, ok, err := s.rawPriceAtOrBefore(ctx, asset, ts)
		if err != nil {
			return domain.PricePoint{}, false, err
		}
		if ok && point.TS >= ts-rawFallThroughWindow {
			return point, true, nil
		}
		return s.bucketPriceAtOrBefore(ctx, asset, domain.TierOneMinute, ts, useAvg)
	}

	tier, ok := tierForAge(age)
	if !ok {
		return domain.PricePoint{}, false, nil
	}
	return s.bucketPriceAtOrBefore(ctx, asset, tier, ts, useAvg)
}

// tierForAge picks the single tiered-bucket duration covering a
// sample older than the raw retention window, per the age bounds in
// spec.md §4.2. ok is false past the 365-day retention horizon, where
// no tier covers the timestamp at all.
func tierForAge(age int64) (tier int64, ok bool) {
	switch {
	case age <= domain.OneMinuteRetentionSeconds:
		return domain.TierOneMinute, true
	case age <= domain.FiveMinuteRetentionSeconds:
		return domain.TierFiveMinute, true
	case age <= domain.FifteenMinRetentionSeconds:
		return domain.TierFifteenMinute, true
	default:
		return 0, false
	}
}

func (s *Store) rawPriceAtOrBefore(ctx context.Context, asset string, ts int64) (domain.PricePoint, bool, error) {
	var p domain.PricePoint
	p.Asset = asset
	row := s.db.QueryRowContext(ctx,
		"SELECT ts, price FROM ticks WHERE asset = $1 AND ts <= $2 ORDER BY ts DESC LIMIT 1", asset, ts)
	if err := row.Scan(&p.TS, &p.Price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PricePoint{}, false, nil
		}
		return domain.PricePoint{}, false, fmt.Errorf("%w: raw price lookup: %v", domain.ErrStoreFatal, err)
	}
	return p, true, nil
}

const (
	bucketPriceByCloseQuery = "SELECT bucket_start, close FROM buckets WHERE asset = $1 AND bucket_duration = $2 AND bucket_start <= $3 ORDER BY bucket_start DESC LIMIT 1"
	bucketPriceByAvgQuery   = "SELECT bucket_start, avg FROM buckets WHERE asset = $1 AND bucket_duration = $2 AND bucket_start <= $3 ORDER BY bucket_start DESC LIMIT 1"
)

func (s *Store) bucketPriceAtOrBefore(ctx context.Context, asset string, tier, ts int64, useAvg bool) (domain.PricePoint, bool, error) {
	query := bucketPriceByCloseQuery
	if useAvg {
		query = bucketPriceByAvgQuery
	}
	var p domain.PricePoint
	var bucketStart int64
	var price float64
	row := s.db.QueryRowContext(ctx, query, asset, tier, ts)
	if err := row.Scan(&bucketStart, &price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PricePoint{}, false, nil
		}
		return domain.PricePoint{}, false, fmt.Errorf("%w: bucket price lookup: %v", domain.ErrStoreFatal, err)
	}
	p.Asset = asset
	p.TS = bucketStart + tier
	p.Price = price
	return p, true, nil
}
