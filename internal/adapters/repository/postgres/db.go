// Package postgres implements the tiered time-series Store (spec.md
// §4.2) on top of database/sql and github.com/lib/pq, following the
// connection shape of the teacher's own postgres adapter.
package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"priceflow/internal/config"
)

// Open opens and pings a Postgres connection built from the shared
// DB_* env settings.
func Open(cfg config.Shared) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
