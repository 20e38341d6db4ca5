package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/RishiKendai/plagcheck/internal/models"
	_ "github.com/lib/pq"
)

// Connector opens one connection pool per operation.
type Connector struct {
	DSN string
}

func (c Connector) Acquire(ctx context.Context) (*sql.DB, func(), error) {
	if c.DSN == "" {
		return nil, nil, fmt.Errorf("%w: POSTGRES_DSN is required", models.ErrConfiguration)
	}

	db, err := sql.Open("postgres", c.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to open Postgres: %w", models.ErrStoreUnavailable, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("%w: failed to ping Postgres: %w", models.ErrStoreUnavailable, err)
	}

	return db, func() { _ = db.Close() }, nil
}
