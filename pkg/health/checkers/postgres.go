package checkers

import (
	"context"
	"fmt"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PostgresChecker pings a database pool.
type PostgresChecker struct {
	pool Pinger
	name string
}

// NewPostgresChecker defaults name to "postgres".
func NewPostgresChecker(pool Pinger, name string) *PostgresChecker {
	if name == "" {
		name = "postgres"
	}
	return &PostgresChecker{pool: pool, name: name}
}

// Name returns the name of this check.
func (p *PostgresChecker) Name() string { return p.name }

// Check pings the pool.
func (p *PostgresChecker) Check(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}
