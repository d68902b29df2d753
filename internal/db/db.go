package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type DB struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// RunMigrations creates the split history tables.
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS split_history (
			id UUID PRIMARY KEY,
			channel_id TEXT NOT NULL,
			method TEXT NOT NULL,
			participants TEXT[] NOT NULL,
			total DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_split_history_channel ON split_history(channel_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS split_charges (
			split_id UUID NOT NULL REFERENCES split_history(id) ON DELETE CASCADE,
			position INT NOT NULL,
			participant TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (split_id, position)
		);
	`)
	return errors.Wrap(err, "run migrations")
}
