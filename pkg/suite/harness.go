package suite

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rhuss/groovycheck/pkg/api"
	"github.com/rhuss/groovycheck/pkg/client"
	"github.com/rhuss/groovycheck/pkg/config"
)

// DefaultPause is the fixed wait before asserting on scenarios that
// allow the service time to settle.
const DefaultPause = time.Second

// Harness is the shared, read-only context passed to every scenario.
type Harness struct {
	Client     *client.Client
	Env        *config.Environment
	Validation *config.Validation

	// Pause is the fixed wait used by the invalid-code and
	// special-character scenarios.
	Pause time.Duration

	// Rand picks random auth_users entries. Access goes through
	// RandomCredential, which serializes it.
	Rand *rand.Rand
	mu   sync.Mutex
}

// HarnessOption configures a Harness.
type HarnessOption func(*Harness)

// WithPause overrides DefaultPause.
func WithPause(d time.Duration) HarnessOption {
	return func(h *Harness) { h.Pause = d }
}

// WithRand sets the random source, e.g. a fixed seed for reproducible runs.
func WithRand(r *rand.Rand) HarnessOption {
	return func(h *Harness) { h.Rand = r }
}

// NewHarness builds a Harness and its client from the loaded documents.
func NewHarness(env *config.Environment, val *config.Validation, opts ...HarnessOption) *Harness {
	h := &Harness{
		Env:        env,
		Validation: val,
		Pause:      DefaultPause,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.Client == nil {
		h.Client = client.New(env)
	}
	if h.Rand == nil {
		h.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return h
}

// WithClient uses c instead of a client built from the environment.
func WithClient(c *client.Client) HarnessOption {
	return func(h *Harness) { h.Client = c }
}

// RandomCredential returns a random entry of auth_users.
func (h *Harness) RandomCredential() (api.Credential, error) {
	creds := h.Validation.Credentials()
	if len(creds) == 0 {
		return api.Credential{}, fmt.Errorf("validation config has no auth_users")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return creds[h.Rand.IntN(len(creds))], nil
}

// numberedCredential returns user_<n>/pass_<n>.
func numberedCredential(n int) api.Credential {
	return api.NewCredential(fmt.Sprintf("user_%d", n), fmt.Sprintf("pass_%d", n))
}
