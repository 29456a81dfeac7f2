package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rhuss/groovycheck/pkg/api"
	"github.com/rhuss/groovycheck/pkg/debug"
	"github.com/rhuss/groovycheck/pkg/observability"
)

// Middleware judges every request with chain and stores the accepted
// principal in the request context. Rejected requests get a 401 with a
// Basic challenge. When limiter is non-nil, owners over their budget get a
// 429; anonymous principals are not metered.
func Middleware(chain Chain, limiter RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			verdict := chain.Judge(r.Context(), r)
			if verdict.Vote != Accept || verdict.Principal == nil {
				slog.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", verdict.Err,
				)
				observability.AuthRejectedTotal.WithLabelValues("credentials").Inc()
				w.Header().Set("WWW-Authenticate", `Basic realm="groovy"`)
				writeError(w, http.StatusUnauthorized, api.NewUnauthorizedError("authentication required"))
				return
			}

			p := verdict.Principal
			if !p.Anonymous && p.Owner == "" {
				slog.Error("voter accepted a request without an owner", "path", r.URL.Path)
				writeError(w, http.StatusInternalServerError, api.NewServerError("internal authentication error"))
				return
			}

			debug.Log("auth", "request accepted",
				"owner", p.Owner,
				"anonymous", p.Anonymous,
				"path", r.URL.Path,
			)

			if limiter != nil && !p.Anonymous {
				if err := limiter.Allow(r.Context(), p.Owner); err != nil {
					slog.Warn("rate limit exceeded", "owner", p.Owner)
					writeError(w, http.StatusTooManyRequests, &api.APIError{
						Type:    api.ErrorTypeTooManyRequests,
						Message: "rate limit exceeded",
					})
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, apiErr *api.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}
