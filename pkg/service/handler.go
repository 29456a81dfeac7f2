package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/groovycheck/pkg/api"
	"github.com/rhuss/groovycheck/pkg/auth"
	"github.com/rhuss/groovycheck/pkg/auth/basic"
	"github.com/rhuss/groovycheck/pkg/observability"
)

// Handler returns the HTTP handler serving the Groovy API, health and
// metrics endpoints. Health and metrics are answered anonymously; the API
// requires basic authentication with one of the configured users.
func (s *Service) Handler() http.Handler {
	chain := auth.Chain{
		auth.PublicPaths(auth.DefaultPublicPaths...),
		basic.New(s.cfg.Users),
	}

	var limiter auth.RateLimiter
	if s.cfg.RateLimit > 0 {
		limiter = auth.NewInProcessLimiter(s.cfg.RateLimit)
	}

	r := mux.NewRouter()
	r.Use(observability.MetricsMiddleware)
	r.Use(auth.Middleware(chain, limiter))

	r.HandleFunc(api.SubmitPath, s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc(api.StatusPath, s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return Recovery(RequestID(Logging(nil)(r)))
}

// handleSubmit handles POST /groovy/submit.
func (s *Service) handleSubmit(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxCodeBytes)

	var req api.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			WriteErrorResponse(w,
				api.NewTooLargeError(fmt.Sprintf("request body too large (max %d bytes)", s.cfg.MaxCodeBytes)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return
	}

	payload, err := s.Submit(r.Context(), owner, req.Code)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// handleStatus handles GET /groovy/status?id=<id>.
func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	payload, err := s.Status(r.Context(), owner, r.URL.Query().Get("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// ownerFrom returns the owner of the request's principal. Anonymous
// principals own nothing and get a 401.
func ownerFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := auth.PrincipalFrom(r.Context())
	if p == nil || p.Anonymous {
		WriteErrorResponse(w, api.NewUnauthorizedError("authentication required"), http.StatusUnauthorized)
		return "", false
	}
	return p.Owner, true
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.HealthCheck(r.Context()); err != nil {
		slog.Warn("health check failed", "error", err)
		WriteErrorResponse(w, api.NewServerError("storage unavailable"), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

func (s *Service) writeServiceError(w http.ResponseWriter, err error) {
	var apiErr *api.APIError
	switch {
	case errors.As(err, &apiErr):
		WriteAPIError(w, apiErr)
	case errors.Is(err, ErrQueueFull):
		WriteErrorResponse(w, &api.APIError{
			Type:    api.ErrorTypeTooManyRequests,
			Message: err.Error(),
		}, http.StatusTooManyRequests)
	case errors.Is(err, ErrClosed):
		WriteErrorResponse(w, api.NewServerError(err.Error()), http.StatusServiceUnavailable)
	default:
		slog.Error("request failed", "error", err)
		WriteErrorResponse(w, api.NewServerError("internal server error"), http.StatusInternalServerError)
	}
}

// HTTPStatusFromError maps an APIError type to the corresponding HTTP
// status code.
func HTTPStatusFromError(err *api.APIError) int {
	switch err.Type {
	case api.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case api.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case api.ErrorTypeNotFound:
		return http.StatusNotFound
	case api.ErrorTypeTooLarge:
		return http.StatusRequestEntityTooLarge
	case api.ErrorTypeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse writes a JSON error body with the given status code.
func WriteErrorResponse(w http.ResponseWriter, apiErr *api.APIError, statusCode int) {
	writeJSON(w, statusCode, api.ErrorResponse{Error: apiErr})
}

// WriteAPIError writes an APIError response, deriving the HTTP status code
// from the error type.
func WriteAPIError(w http.ResponseWriter, apiErr *api.APIError) {
	WriteErrorResponse(w, apiErr, HTTPStatusFromError(apiErr))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
