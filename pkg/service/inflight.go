package service

import "sync"

// inflight tracks jobs that have not reached a terminal status so a
// submitter can wait for completion. Each job maps to a channel that
// is closed when the job finishes.
//
// All methods are safe for concurrent access.
type inflight struct {
	mu      sync.Mutex
	entries map[string]chan struct{}
}

func newInflight() *inflight {
	return &inflight{entries: make(map[string]chan struct{})}
}

// register adds a job and returns the channel closed on completion.
func (r *inflight) register(id string) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	done := make(chan struct{})
	r.entries[id] = done
	return done
}

// finish closes the job's channel and forgets it. Returns false if the
// job was not registered.
func (r *inflight) finish(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	done, ok := r.entries[id]
	if !ok {
		return false
	}
	close(done)
	delete(r.entries, id)
	return true
}

// len returns the number of unfinished jobs.
func (r *inflight) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
