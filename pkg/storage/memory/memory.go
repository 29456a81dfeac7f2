// Package memory provides an in-memory implementation of storage.JobStore
// for tests and lightweight deployments. Jobs are lost when the process
// restarts. Optional LRU eviction limits memory usage.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/rhuss/groovycheck/pkg/debug"
	"github.com/rhuss/groovycheck/pkg/storage"
)

// entry holds a stored job and its position in the LRU list.
type entry struct {
	job     *storage.Job
	lruElem *list.Element
}

// Store is an in-memory JobStore with optional LRU eviction.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	lruList *list.List // front = most recently used, back = least recently used
	maxSize int        // 0 = unlimited
	now     func() time.Time
}

// Ensure Store implements storage.JobStore at compile time.
var _ storage.JobStore = (*Store)(nil)

// New creates a new in-memory store. If maxSize is 0, the store grows
// without limit. If maxSize > 0, the least recently used job is evicted
// when the limit is reached.
func New(maxSize int) *Store {
	return &Store{
		entries: make(map[string]*entry),
		lruList: list.New(),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// SaveJob stores a copy of job.
func (s *Store) SaveJob(_ context.Context, job *storage.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[job.ID]; exists {
		return storage.ErrConflict
	}

	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}

	stored := job.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	stored.UpdatedAt = stored.CreatedAt

	elem := s.lruList.PushFront(job.ID)
	s.entries[job.ID] = &entry{job: stored, lruElem: elem}
	return nil
}

// GetJob returns a copy of the job and marks it as recently used.
func (s *Store) GetJob(_ context.Context, id string) (*storage.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	s.lruList.MoveToFront(e.lruElem)
	return e.job.Clone(), nil
}

// UpdateJob applies a status transition.
func (s *Store) UpdateJob(_ context.Context, id string, t storage.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return storage.ErrNotFound
	}

	e.job.Status = t.Status
	e.job.Result = nil
	if t.Result != nil {
		r := *t.Result
		e.job.Result = &r
	}
	e.job.Error = t.Error
	e.job.UpdatedAt = s.now()
	return nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// Len returns the number of stored jobs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evictOldest removes the least recently used entry. Caller must hold mu.
func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}
	id := back.Value.(string)
	s.lruList.Remove(back)
	delete(s.entries, id)
	debug.Log("storage", "evicted job", "id", id)
}
