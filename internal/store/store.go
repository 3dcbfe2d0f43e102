package store

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the pgx-backed persister for the pipeline.
type Store struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// New creates a Store on an existing pool.
func New(db *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}
