// Package basic provides an HTTP basic authenticator that validates
// username/password pairs against a static user list using SHA-256
// hashing and constant-time comparison.
package basic

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rhuss/groovycheck/pkg/api"
	"github.com/rhuss/groovycheck/pkg/auth"
)

var _ auth.Voter = (*Authenticator)(nil)

// userEntry maps a username to the hash of its password.
type userEntry struct {
	username     string
	passwordHash [32]byte
}

// Authenticator is an auth.Voter for basic credentials of a static user list.
type Authenticator struct {
	users []userEntry
}

// New creates a basic authenticator. Passwords are hashed immediately;
// plaintext passwords are not stored.
func New(users []api.Credential) *Authenticator {
	a := &Authenticator{}
	for _, u := range users {
		a.users = append(a.users, userEntry{
			username:     u.Username,
			passwordHash: sha256.Sum256([]byte(u.Password)),
		})
	}
	return a
}

// Judge accepts a request carrying the credentials of a configured user.
// A Basic header with any other credentials is rejected; requests without
// one are left to the next voter.
func (a *Authenticator) Judge(_ context.Context, r *http.Request) auth.Verdict {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Basic ") {
		return auth.Verdict{Vote: auth.Abstain}
	}

	username, password, ok := r.BasicAuth()
	if !ok || username == "" {
		return auth.Verdict{Vote: auth.Reject, Err: auth.ErrUnauthenticated}
	}

	hash := sha256.Sum256([]byte(password))
	for _, u := range a.users {
		if u.username != username {
			continue
		}
		if subtle.ConstantTimeCompare(hash[:], u.passwordHash[:]) == 1 {
			return auth.Verdict{Vote: auth.Accept, Principal: &auth.Principal{Owner: username}}
		}
		break
	}

	return auth.Verdict{Vote: auth.Reject, Err: auth.ErrUnauthenticated}
}
