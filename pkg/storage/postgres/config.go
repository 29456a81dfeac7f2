package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool defaults. The service writes from every worker and reads from every
// status request, so the pool is sized for a handful of each.
const (
	DefaultMaxConns        = 8
	DefaultMaxConnLifetime = 30 * time.Minute
	DefaultMaxConnIdleTime = 5 * time.Minute
)

// Config selects the database and sizes the connection pool. Zero pool
// fields take the package defaults; MinConns stays at zero unless set.
type Config struct {
	DSN string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// Migrate applies the embedded schema migrations in New.
	Migrate bool
}

// PoolSize returns a MaxConns value covering workers concurrent job writers
// plus a few connections for status reads and health checks.
func PoolSize(workers int) int32 {
	n := int32(workers) + 4
	if n < DefaultMaxConns {
		return DefaultMaxConns
	}
	return n
}

// poolConfig parses the DSN and applies the pool settings.
func (c Config) poolConfig() (*pgxpool.Config, error) {
	if c.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	pc, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	pc.MaxConns = orDefault(c.MaxConns, DefaultMaxConns)
	pc.MaxConnLifetime = orDefault(c.MaxConnLifetime, DefaultMaxConnLifetime)
	pc.MaxConnIdleTime = orDefault(c.MaxConnIdleTime, DefaultMaxConnIdleTime)
	if c.MinConns > 0 {
		pc.MinConns = min(c.MinConns, pc.MaxConns)
	}
	return pc, nil
}

func orDefault[T int32 | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}
