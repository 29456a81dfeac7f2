package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rhuss/groovycheck/pkg/api"
	"github.com/rhuss/groovycheck/pkg/debug"
	"github.com/rhuss/groovycheck/pkg/observability"
	"github.com/rhuss/groovycheck/pkg/storage"
)

// Config holds reference service settings.
type Config struct {
	// Users are the accepted basic-auth credentials.
	Users []api.Credential

	// Workers is the number of concurrent executors (default: 4).
	Workers int

	// QueueSize bounds the number of submissions waiting for a worker
	// (default: 128). Submissions beyond it are rejected with 429.
	QueueSize int

	// ExecutionDelay is added to every execution to simulate runtime.
	ExecutionDelay time.Duration

	// SubmitWait makes submit hold the response until the job finishes or
	// the wait elapses. Zero returns immediately after enqueueing.
	SubmitWait time.Duration

	// MaxCodeBytes limits the submit body size (default: 1 MiB).
	MaxCodeBytes int64

	// RateLimit is the allowed requests per minute per user. Zero disables.
	RateLimit int
}

// DefaultConfig returns the default service configuration without users.
func DefaultConfig() Config {
	return Config{
		Workers:      4,
		QueueSize:    128,
		MaxCodeBytes: 1 << 20,
	}
}

func (c *Config) defaults() {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if c.MaxCodeBytes <= 0 {
		c.MaxCodeBytes = d.MaxCodeBytes
	}
}

// Sentinel errors.
var (
	ErrQueueFull = errors.New("execution queue full")
	ErrClosed    = errors.New("service closed")
)

// Service accepts submissions, executes them on a worker pool and reports
// their status to the owning user.
type Service struct {
	store storage.JobStore
	eval  Evaluator
	cfg   Config

	queue   chan string
	pending *inflight
	quit    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once

	// mu orders enqueues against Close; closed is guarded by mu.
	mu     sync.RWMutex
	closed bool
}

// New creates a Service and starts its workers. The store is not closed
// by the service.
func New(store storage.JobStore, eval Evaluator, cfg Config) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("job store is required")
	}
	if eval == nil {
		eval = Arithmetic{}
	}
	cfg.defaults()

	s := &Service{
		store:   store,
		eval:    eval,
		cfg:     cfg,
		queue:   make(chan string, cfg.QueueSize),
		pending: newInflight(),
		quit:    make(chan struct{}),
	}

	for i := 0; i < cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("execution service started",
		"workers", cfg.Workers,
		"queue_size", cfg.QueueSize,
		"execution_delay", cfg.ExecutionDelay,
		"users", len(cfg.Users),
	)
	return s, nil
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Submit stores a PENDING job owned by owner and enqueues it for execution.
func (s *Service) Submit(ctx context.Context, owner, code string) (*api.SubmitPayload, error) {
	select {
	case <-s.quit:
		return nil, ErrClosed
	default:
	}

	job := &storage.Job{
		ID:     api.NewRequestID(),
		Owner:  owner,
		Code:   code,
		Status: api.StatusPending,
	}
	if err := s.store.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("saving job: %w", err)
	}

	done := s.pending.register(job.ID)
	observability.JobsInFlight.Inc()
	if err := s.enqueue(job.ID); err != nil {
		s.abandon(job.ID, err)
		return nil, err
	}

	debug.Log("service", "job submitted", "id", job.ID, "owner", owner, "code_bytes", len(code))

	if s.cfg.SubmitWait > 0 {
		timer := time.NewTimer(s.cfg.SubmitWait)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
		case <-ctx.Done():
		}
	}

	return &api.SubmitPayload{ID: job.ID}, nil
}

// Status returns the job status for its owner. The returned error is an
// *api.APIError for invalid, unknown and foreign IDs.
func (s *Service) Status(ctx context.Context, owner, id string) (*api.StatusPayload, error) {
	if !api.ValidateRequestID(id) {
		return nil, api.NewInvalidRequestError("id", "id must be a UUID")
	}

	job, err := s.store.GetJob(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, api.NewNotFoundError(fmt.Sprintf("no submission with id %q", id))
	}
	if err != nil {
		return nil, fmt.Errorf("loading job: %w", err)
	}

	if job.Owner != owner {
		debug.Log("service", "status requested by non-owner", "id", id, "subject", owner)
		observability.AuthRejectedTotal.WithLabelValues("owner").Inc()
		return nil, api.NewUnauthorizedError("submission belongs to another user")
	}

	payload := &api.StatusPayload{ID: job.ID, Status: job.Status}
	if job.Status == api.StatusCompleted {
		payload.Result = job.Result
	}
	return payload, nil
}

// HealthCheck reports whether the job store is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.store.HealthCheck(ctx)
}

// Close stops the workers. Running executions are cancelled and queued jobs
// no worker picked up are marked FAILED, so every accepted job ends in a
// terminal status.
func (s *Service) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.quit)
	})
	s.wg.Wait()

	for {
		select {
		case id := <-s.queue:
			s.abandon(id, ErrClosed)
		default:
			return nil
		}
	}
}

// enqueue hands id to the workers. It fails with ErrClosed once Close has
// started and with ErrQueueFull when the queue has no room.
func (s *Service) enqueue(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.queue <- id:
		return nil
	default:
		return ErrQueueFull
	}
}

// abandon fails a registered job that will never run.
func (s *Service) abandon(id string, cause error) {
	s.pending.finish(id)
	observability.JobsInFlight.Dec()

	err := s.store.UpdateJob(context.Background(), id, storage.Transition{
		Status: api.StatusFailed,
		Error:  cause.Error(),
	})
	if err != nil {
		slog.Error("recording abandoned job", "id", id, "cause", cause, "error", err)
		return
	}
	observability.JobsTotal.WithLabelValues(string(api.StatusFailed)).Inc()
	debug.Log("service", "job abandoned", "id", id, "cause", cause)
}

func (s *Service) worker(n int) {
	defer s.wg.Done()
	for {
		select {
		case <-s.quit:
			return
		case id := <-s.queue:
			s.execute(id)
			debug.Trace("service", "worker finished job", "worker", n, "id", id)
		}
	}
}

func (s *Service) execute(id string) {
	defer s.pending.finish(id)
	defer observability.JobsInFlight.Dec()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		slog.Error("loading job for execution", "id", id, "error", err)
		return
	}

	if err := s.store.UpdateJob(ctx, id, storage.Transition{Status: api.StatusInProgress}); err != nil {
		slog.Error("marking job in progress", "id", id, "error", err)
		return
	}

	t := storage.Transition{Status: api.StatusCompleted}
	result, err := s.run(ctx, job.Code)
	if err != nil {
		t = storage.Transition{Status: api.StatusFailed, Error: err.Error()}
	} else {
		t.Result = &result
	}

	// Record the outcome even when shutdown cancelled the execution.
	if err := s.store.UpdateJob(context.Background(), id, t); err != nil {
		slog.Error("recording job outcome", "id", id, "error", err)
		return
	}
	observability.JobsTotal.WithLabelValues(string(t.Status)).Inc()

	debug.Log("service", "job finished", "id", id, "status", t.Status, "error", t.Error)
}

func (s *Service) run(ctx context.Context, code string) (string, error) {
	if s.cfg.ExecutionDelay > 0 {
		timer := time.NewTimer(s.cfg.ExecutionDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.eval.Evaluate(ctx, code)
}
