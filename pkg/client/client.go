package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rhuss/groovycheck/pkg/api"
	"github.com/rhuss/groovycheck/pkg/config"
	"github.com/rhuss/groovycheck/pkg/debug"
	"github.com/rhuss/groovycheck/pkg/observability"
)

// DefaultCode is submitted by SubmitDefault.
const DefaultCode = "2 + 2"

// DefaultAwaitCredential is the principal SubmitAndAwaitResult uses when the
// caller passes none.
var DefaultAwaitCredential = api.NewCredential("user_1", "pass_1")

// Client performs authenticated calls against the execution service.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	baseURL         string
	credential      api.Credential
	awaitCredential api.Credential
	defaultCode     string
	httpClient      *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Useful for httptest servers.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithDefaultCode replaces DefaultCode.
func WithDefaultCode(code string) Option {
	return func(c *Client) { c.defaultCode = code }
}

// WithAwaitCredential replaces DefaultAwaitCredential.
func WithAwaitCredential(cred api.Credential) Option {
	return func(c *Client) { c.awaitCredential = cred }
}

// New creates a client for the service described by env. The environment
// is only read here; the client keeps its own copy of the values it needs.
func New(env *config.Environment, opts ...Option) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(env.Endpoint, "/"),
		credential:      env.Credential(),
		awaitCredential: DefaultAwaitCredential,
		defaultCode:     DefaultCode,
		httpClient:      &http.Client{Timeout: env.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service endpoint without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DefaultCredential returns the configured default principal.
func (c *Client) DefaultCredential() api.Credential {
	return c.credential
}

// SubmitDefault posts the client's default code, DefaultCode unless
// replaced with WithDefaultCode.
func (c *Client) SubmitDefault(ctx context.Context, cred *api.Credential) (*SubmitResponse, error) {
	return c.Submit(ctx, c.defaultCode, cred)
}

// Submit posts code for execution. The code is forwarded unchanged, the
// empty string included; a nil cred uses the configured principal. Any HTTP
// status is returned without error.
func (c *Client) Submit(ctx context.Context, code string, cred *api.Credential) (*SubmitResponse, error) {
	principal := c.resolve(cred, c.credential)

	body, err := json.Marshal(api.SubmitRequest{Code: code})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.do(ctx, "submit", http.MethodPost, c.baseURL+api.SubmitPath, body, principal)
	if err != nil {
		return nil, err
	}

	out := &SubmitResponse{Response: *resp}
	if resp.OK() {
		var payload api.SubmitPayload
		if err := json.Unmarshal(resp.Body, &payload); err == nil {
			out.Payload = &payload
		}
	}
	return out, nil
}

// FetchStatus queries the status of a submission. A nil cred uses the
// configured principal. The id is URL-escaped but otherwise sent as given,
// so malformed identifiers reach the service.
func (c *Client) FetchStatus(ctx context.Context, id string, cred *api.Credential) (*StatusResponse, error) {
	principal := c.resolve(cred, c.credential)

	u := c.baseURL + api.StatusPath + "?" + url.Values{"id": []string{id}}.Encode()
	resp, err := c.do(ctx, "status", http.MethodGet, u, nil, principal)
	if err != nil {
		return nil, err
	}

	out := &StatusResponse{Response: *resp}
	if resp.OK() {
		var payload api.StatusPayload
		if err := json.Unmarshal(resp.Body, &payload); err == nil {
			out.Payload = &payload
		}
	}
	return out, nil
}

// SubmitAndAwaitResult submits code, requires a 200 with an id, then issues
// exactly one status query for that id under the same credential and
// requires a 200 carrying the same id. A nil cred uses the await principal.
//
// The status query happens immediately; the returned status may not be
// terminal.
func (c *Client) SubmitAndAwaitResult(ctx context.Context, code string, cred *api.Credential) (*StatusResponse, error) {
	principal := c.resolve(cred, c.awaitCredential)

	sub, err := c.Submit(ctx, code, &principal)
	if err != nil {
		return nil, err
	}
	if !sub.OK() {
		return nil, newAssertionError("submit", "expected status 200", &sub.Response)
	}
	if sub.ID() == "" {
		return nil, newAssertionError("submit", "response has no id", &sub.Response)
	}
	id := sub.ID()

	status, err := c.FetchStatus(ctx, id, &principal)
	if err != nil {
		return nil, err
	}
	if !status.OK() {
		return nil, newAssertionError("status", "expected status 200", &status.Response)
	}
	if status.Payload == nil || status.Payload.ID != id {
		return nil, newAssertionError("status", fmt.Sprintf("expected id %q", id), &status.Response)
	}

	debug.Log("client", "submission checked", "id", id, "status", status.Status(), "user", principal.Username)
	return status, nil
}

// RecheckAfter waits pause once, then issues a single status query.
// It is not a polling loop.
func (c *Client) RecheckAfter(ctx context.Context, id string, cred *api.Credential, pause time.Duration) (*StatusResponse, error) {
	timer := time.NewTimer(pause)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}
	return c.FetchStatus(ctx, id, cred)
}

func (c *Client) resolve(cred *api.Credential, fallback api.Credential) api.Credential {
	if cred == nil {
		return fallback
	}
	return *cred
}

// do performs one authenticated round trip and reads the whole body.
func (c *Client) do(ctx context.Context, endpoint, method, target string, body []byte, cred api.Credential) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(cred.Username, cred.Password)

	debug.Log("client", "request", "method", method, "url", target, "user", cred.Username)
	if body != nil {
		debug.Raw("client", string(body))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.ClientRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		slog.Warn("request failed", "endpoint", endpoint, "url", target, "error", err)
		return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	elapsed := time.Since(start)
	observability.ClientRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	observability.ClientRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())

	debug.Log("client", "response", "endpoint", endpoint, "status", resp.StatusCode, "duration", elapsed)
	debug.Raw("client", string(respBody))

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}
