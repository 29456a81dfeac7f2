package client

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rhuss/groovycheck/pkg/api"
)

// Response is the raw outcome of one HTTP round trip.
type Response struct {
	StatusCode int
	Body       []byte
}

// Reason returns the HTTP reason phrase for the status code.
func (r *Response) Reason() string {
	return http.StatusText(r.StatusCode)
}

// OK reports whether the status code is 200.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Fields decodes the body as a JSON object. It is meant for key-presence
// assertions, where typed decoding would hide a missing field.
func (r *Response) Fields() (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(r.Body, &fields); err != nil {
		return nil, fmt.Errorf("decoding %d response body as JSON object: %w", r.StatusCode, err)
	}
	return fields, nil
}

// HasField reports whether the body is a JSON object containing name.
func (r *Response) HasField(name string) bool {
	fields, err := r.Fields()
	if err != nil {
		return false
	}
	_, ok := fields[name]
	return ok
}

// SubmitResponse is the outcome of a submit call. Payload is set when the
// status is 200 and the body decodes.
type SubmitResponse struct {
	Response
	Payload *api.SubmitPayload
}

// ID returns the submission identifier, or "" when none was returned.
func (r *SubmitResponse) ID() string {
	if r.Payload == nil {
		return ""
	}
	return r.Payload.ID
}

// StatusResponse is the outcome of a status query. Payload is set when the
// status is 200 and the body decodes.
type StatusResponse struct {
	Response
	Payload *api.StatusPayload
}

// Status returns the reported execution status, or "" when there is no payload.
func (r *StatusResponse) Status() api.ExecutionStatus {
	if r.Payload == nil {
		return ""
	}
	return r.Payload.Status
}

// Result returns the execution result and whether one was present.
func (r *StatusResponse) Result() (string, bool) {
	if r.Payload == nil || r.Payload.Result == nil {
		return "", false
	}
	return *r.Payload.Result, true
}
