package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"priceflow/internal/core/domain"
	"priceflow/internal/core/port"
)

// Store implements port.Store over a Postgres tiered schema, grounded
// on the teacher's internal/adapters/repository/postgres/db.go
// connection shape and internal/core/domain/prices.go data model.
type Store struct {
	db *sql.DB
}

// NewStore wraps db and ensures the tiered schema exists.
func NewStore(ctx context.Context, db *sql.DB) (port.Store, error) {
	if err := migrate(ctx, db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM ANALYZE ticks, buckets"); err != nil {
		return fmt.Errorf("%w: vacuum: %v", domain.ErrStoreFatal, err)
	}
	return nil
}

func (s *Store) Stats(ctx context.Context) (map[string]int64, error) {
	stats := make(map[string]int64)

	var rawCount int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ticks").Scan(&rawCount); err != nil {
		return nil, fmt.Errorf("%w: stats ticks: %v", domain.ErrStoreFatal, err)
	}
	stats["ticks_raw"] = rawCount

	rows, err := s.db.QueryContext(ctx, "SELECT bucket_duration, COUNT(*) FROM buckets GROUP BY bucket_duration")
	if err != nil {
		return nil, fmt.Errorf("%w: stats buckets: %v", domain.ErrStoreFatal, err)
	}
	defer rows.Close()

	for rows.Next() {
		var duration, count int64
		if err := rows.Scan(&duration, &count); err != nil {
			return nil, fmt.Errorf("%w: scan bucket stats: %v", domain.ErrStoreFatal, err)
		}
		stats[fmt.Sprintf("buckets_%d", duration)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: stats buckets rows: %v", domain.ErrStoreFatal, err)
	}
	return stats, nil
}
