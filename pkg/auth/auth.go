package auth

import (
	"context"
	"errors"
	"net/http"
)

// Vote is a voter's verdict on a single request.
type Vote int

const (
	// Abstain passes the request on to the next voter.
	Abstain Vote = iota
	// Accept admits the request under the verdict's principal.
	Accept
	// Reject refuses the request; later voters are not asked.
	Reject
)

func (v Vote) String() string {
	switch v {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	default:
		return "abstain"
	}
}

// Verdict is what a voter returns. Principal is set on Accept, Err on Reject.
type Verdict struct {
	Vote      Vote
	Principal *Principal
	Err       error
}

// Principal is the caller a request runs as. Submissions belong to Owner.
// Anonymous principals have no owner and may only reach public paths.
type Principal struct {
	Owner     string
	Anonymous bool
}

// Voter judges a request.
type Voter interface {
	Judge(ctx context.Context, r *http.Request) Verdict
}

// VoterFunc adapts a function to Voter.
type VoterFunc func(ctx context.Context, r *http.Request) Verdict

// Judge calls f.
func (f VoterFunc) Judge(ctx context.Context, r *http.Request) Verdict {
	return f(ctx, r)
}

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrTooManyRequests = errors.New("rate limit exceeded")
)

// Chain asks its voters in order and returns the first verdict that is not
// an abstention. A request every voter abstains on is rejected.
type Chain []Voter

// Judge runs the chain.
func (c Chain) Judge(ctx context.Context, r *http.Request) Verdict {
	for _, v := range c {
		if verdict := v.Judge(ctx, r); verdict.Vote != Abstain {
			return verdict
		}
	}
	return Verdict{Vote: Reject, Err: ErrUnauthenticated}
}

// DefaultPublicPaths are served to anonymous callers.
var DefaultPublicPaths = []string{"/healthz", "/readyz", "/metrics"}

// PublicPaths accepts requests for the given paths as anonymous, whatever
// credentials they carry, and abstains on everything else.
func PublicPaths(paths ...string) Voter {
	public := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		public[p] = struct{}{}
	}
	return VoterFunc(func(_ context.Context, r *http.Request) Verdict {
		if _, ok := public[r.URL.Path]; !ok {
			return Verdict{Vote: Abstain}
		}
		return Verdict{Vote: Accept, Principal: &Principal{Anonymous: true}}
	})
}
