// Package postgres provides a PostgreSQL implementation of storage.JobStore
// using pgx/v5 connection pooling.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/groovycheck/pkg/api"
	"github.com/rhuss/groovycheck/pkg/storage"
)

// Store is a PostgreSQL-backed JobStore.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.JobStore at compile time.
var _ storage.JobStore = (*Store)(nil)

// New connects to the database described by cfg and, when cfg.Migrate is
// set, brings the schema up to date.
func New(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := cfg.poolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.Migrate {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// SaveJob inserts a new job.
func (s *Store) SaveJob(ctx context.Context, job *storage.Job) error {
	created := job.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO jobs (id, owner, code, status, result, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`,
		job.ID, job.Owner, job.Code, string(job.Status), job.Result, job.Error, created,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, id string) (*storage.Job, error) {
	var job storage.Job
	var status string

	err := s.pool.QueryRow(ctx, `
		SELECT id::text, owner, code, status, result, error, created_at, updated_at
		FROM jobs
		WHERE id = $1
	`, id).Scan(
		&job.ID, &job.Owner, &job.Code, &status, &job.Result, &job.Error, &job.CreatedAt, &job.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying job: %w", err)
	}

	job.Status = api.ExecutionStatus(status)
	return &job, nil
}

// UpdateJob applies a status transition.
func (s *Store) UpdateJob(ctx context.Context, id string, t storage.Transition) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE jobs SET status = $1, result = $2, error = $3, updated_at = $4
		WHERE id = $5
	`, string(t.Status), t.Result, t.Error, time.Now(), id)
	if err != nil {
		return fmt.Errorf("updating job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
