package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rhuss/groovycheck/pkg/api"
	"github.com/rhuss/groovycheck/pkg/observability"
	"github.com/rhuss/groovycheck/pkg/storage"
	"github.com/rhuss/groovycheck/pkg/storage/memory"
)

var testUsers = []api.Credential{
	{Username: "user_1", Password: "pass_1"},
	{Username: "user_2", Password: "pass_2"},
}

func newTestService(t *testing.T, eval Evaluator, cfg Config) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New(1000)
	if cfg.Users == nil {
		cfg.Users = testUsers
	}
	s, err := New(store, eval, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, store
}

// blockingEvaluator blocks until release is closed.
func blockingEvaluator(release <-chan struct{}) Evaluator {
	return EvaluatorFunc(func(ctx context.Context, code string) (string, error) {
		select {
		case <-release:
			return Arithmetic{}.Evaluate(ctx, code)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
}

func waitForStatus(t *testing.T, s *Service, owner, id string, want api.ExecutionStatus) *api.StatusPayload {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		p, err := s.Status(context.Background(), owner, id)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if p.Status == want {
			return p
		}
		if time.Now().After(deadline) {
			t.Fatalf("status = %s, want %s", p.Status, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(nil, nil, Config{}); err == nil {
		t.Error("expected error for nil store")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	s, _ := newTestService(t, nil, Config{})
	cfg := s.Config()
	if cfg.Workers != 4 || cfg.QueueSize != 128 || cfg.MaxCodeBytes != 1<<20 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestSubmitCompletes(t *testing.T) {
	s, _ := newTestService(t, nil, Config{SubmitWait: 2 * time.Second})
	ctx := context.Background()

	sub, err := s.Submit(ctx, "user_1", "6 + 8")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !api.ValidateRequestID(sub.ID) {
		t.Fatalf("id %q is not a UUID", sub.ID)
	}

	p, err := s.Status(ctx, "user_1", sub.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if p.Status != api.StatusCompleted {
		t.Fatalf("Status = %s, want COMPLETED", p.Status)
	}
	if p.Result == nil || *p.Result != "14" {
		t.Errorf("Result = %v, want 14", p.Result)
	}
}

func TestSubmitInvalidCodeFails(t *testing.T) {
	s, store := newTestService(t, nil, Config{SubmitWait: 2 * time.Second})
	ctx := context.Background()

	sub, err := s.Submit(ctx, "user_1", "print('Hello'")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	p, err := s.Status(ctx, "user_1", sub.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if p.Status != api.StatusFailed {
		t.Errorf("Status = %s, want FAILED", p.Status)
	}
	if p.Result != nil {
		t.Errorf("Result = %q, want none", *p.Result)
	}

	job, _ := store.GetJob(ctx, sub.ID)
	if job.Error == "" {
		t.Error("failed job should record the evaluation error")
	}
}

func TestLifecycleObservesPendingAndInProgress(t *testing.T) {
	release := make(chan struct{})
	s, _ := newTestService(t, blockingEvaluator(release), Config{Workers: 1})
	ctx := context.Background()

	first, _ := s.Submit(ctx, "user_1", "1 + 1")
	second, _ := s.Submit(ctx, "user_1", "2 + 2")

	waitForStatus(t, s, "user_1", first.ID, api.StatusInProgress)

	p, err := s.Status(ctx, "user_1", second.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if p.Status != api.StatusPending {
		t.Errorf("queued job status = %s, want PENDING", p.Status)
	}

	close(release)
	waitForStatus(t, s, "user_1", first.ID, api.StatusCompleted)
	p = waitForStatus(t, s, "user_1", second.ID, api.StatusCompleted)
	if p.Result == nil || *p.Result != "4" {
		t.Errorf("Result = %v, want 4", p.Result)
	}
}

func TestStatusErrors(t *testing.T) {
	s, _ := newTestService(t, nil, Config{SubmitWait: 2 * time.Second})
	ctx := context.Background()

	sub, err := s.Submit(ctx, "user_1", "1 + 1")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	tests := []struct {
		name     string
		owner    string
		id       string
		wantType api.ErrorType
	}{
		{"malformed id", "user_1", "invalid_id", api.ErrorTypeInvalidRequest},
		{"empty id", "user_1", "", api.ErrorTypeInvalidRequest},
		{"unknown id", "user_1", "ef81a976-4dee-4a91-b5ac-7ff0da3c2913", api.ErrorTypeNotFound},
		{"other owner", "user_2", sub.ID, api.ErrorTypeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Status(ctx, tt.owner, tt.id)
			var apiErr *api.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *api.APIError", err)
			}
			if apiErr.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", apiErr.Type, tt.wantType)
			}
		})
	}
}

func TestSubmitQueueFull(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	s, store := newTestService(t, blockingEvaluator(release), Config{Workers: 1, QueueSize: 1})
	ctx := context.Background()

	first, err := s.Submit(ctx, "user_1", "1")
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	waitForStatus(t, s, "user_1", first.ID, api.StatusInProgress)

	if _, err := s.Submit(ctx, "user_1", "2"); err != nil {
		t.Fatalf("second Submit should fill the queue: %v", err)
	}

	_, err = s.Submit(ctx, "user_1", "3")
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
	if store.Len() != 3 {
		t.Errorf("stored jobs = %d, want 3 (rejected job recorded as FAILED)", store.Len())
	}
}

func TestSubmitAfterClose(t *testing.T) {
	s, _ := newTestService(t, nil, Config{})
	s.Close()

	if _, err := s.Submit(context.Background(), "user_1", "1"); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
	// Close is idempotent.
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestCloseCancelsRunningExecution(t *testing.T) {
	s, store := newTestService(t, nil, Config{Workers: 1, ExecutionDelay: time.Hour})
	ctx := context.Background()

	sub, _ := s.Submit(ctx, "user_1", "1 + 1")
	waitForStatus(t, s, "user_1", sub.ID, api.StatusInProgress)

	s.Close()

	job, err := store.GetJob(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Status != api.StatusFailed {
		t.Errorf("Status = %s, want FAILED after shutdown", job.Status)
	}
}

func TestCloseFailsQueuedJobs(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	s, store := newTestService(t, blockingEvaluator(release), Config{Workers: 1, QueueSize: 4})
	ctx := context.Background()

	running, _ := s.Submit(ctx, "user_1", "1")
	waitForStatus(t, s, "user_1", running.ID, api.StatusInProgress)
	queued, err := s.Submit(ctx, "user_1", "2")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	s.Close()

	for _, id := range []string{running.ID, queued.ID} {
		job, err := store.GetJob(ctx, id)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		if job.Status != api.StatusFailed {
			t.Errorf("job %s: Status = %s, want FAILED", id, job.Status)
		}
	}
	if n := s.pending.len(); n != 0 {
		t.Errorf("pending jobs after Close = %d, want 0", n)
	}
}

func TestSubmitWaitEndsOnClose(t *testing.T) {
	s, _ := newTestService(t, nil, Config{Workers: 1, ExecutionDelay: time.Hour, SubmitWait: time.Hour})

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "user_1", "1")
		done <- err
	}()

	// Let the submission reach its wait before closing.
	deadline := time.Now().Add(2 * time.Second)
	for s.pending.len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Close()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, ErrClosed) {
			t.Errorf("Submit: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Submit still waiting after Close")
	}
}

// updateFailingStore accepts new jobs but cannot record transitions.
type updateFailingStore struct {
	*memory.Store
}

func (updateFailingStore) UpdateJob(context.Context, string, storage.Transition) error {
	return errors.New("disk full")
}

func TestAbandonLogsStoreError(t *testing.T) {
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(orig)

	s, err := New(updateFailingStore{memory.New(10)}, nil, Config{Users: testUsers})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	done := s.pending.register("job-1")
	observability.JobsInFlight.Inc()
	s.abandon("job-1", ErrQueueFull)

	select {
	case <-done:
	default:
		t.Error("abandon did not finish the pending job")
	}
	out := buf.String()
	if !strings.Contains(out, "recording abandoned job") || !strings.Contains(out, "disk full") {
		t.Errorf("log = %q, want the store error", out)
	}
}

func TestSubmitStoreError(t *testing.T) {
	s, err := New(failingStore{}, nil, Config{Users: testUsers})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if _, err := s.Submit(context.Background(), "user_1", "1"); err == nil {
		t.Error("expected store error")
	}
}

type failingStore struct{}

func (failingStore) SaveJob(context.Context, *storage.Job) error { return errors.New("disk full") }
func (failingStore) GetJob(context.Context, string) (*storage.Job, error) {
	return nil, errors.New("disk full")
}
func (failingStore) UpdateJob(context.Context, string, storage.Transition) error {
	return errors.New("disk full")
}
func (failingStore) HealthCheck(context.Context) error { return errors.New("disk full") }
func (failingStore) Close() error                      { return nil }
