package storage

import (
	"context"
	"time"

	"github.com/rhuss/groovycheck/pkg/api"
)

// Job is a stored submission.
type Job struct {
	ID        string
	Owner     string // subject of the submitting credential
	Code      string
	Status    api.ExecutionStatus
	Result    *string // set only when Status is COMPLETED
	Error     string  // evaluation error when Status is FAILED
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of j.
func (j *Job) Clone() *Job {
	c := *j
	if j.Result != nil {
		r := *j.Result
		c.Result = &r
	}
	return &c
}

// Transition describes a status change applied by UpdateJob.
type Transition struct {
	Status api.ExecutionStatus
	Result *string
	Error  string
}

// JobStore persists submissions. Implementations must be safe for
// concurrent use.
type JobStore interface {
	// SaveJob stores a new job. Returns ErrConflict if the ID exists.
	SaveJob(ctx context.Context, job *Job) error

	// GetJob returns a copy of the job. Returns ErrNotFound if missing.
	GetJob(ctx context.Context, id string) (*Job, error)

	// UpdateJob applies a status transition. Returns ErrNotFound if missing.
	UpdateJob(ctx context.Context, id string, t Transition) error

	// HealthCheck reports whether the backend is usable.
	HealthCheck(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
