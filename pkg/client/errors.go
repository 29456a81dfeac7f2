package client

import (
	"fmt"

	"github.com/rhuss/groovycheck/pkg/debug"
)

// maxBodyInError bounds the body text carried in an AssertionError message.
const maxBodyInError = 2048

// AssertionError reports a response that violated the expectations of
// SubmitAndAwaitResult. It carries the reason phrase and raw body for
// diagnostics.
type AssertionError struct {
	Op         string // "submit" or "status"
	Msg        string
	StatusCode int
	Reason     string
	Body       []byte
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: %s: %d %s: %s", e.Op, e.Msg, e.StatusCode, e.Reason, debug.Truncate(string(e.Body), maxBodyInError))
}

func newAssertionError(op, msg string, resp *Response) *AssertionError {
	return &AssertionError{
		Op:         op,
		Msg:        msg,
		StatusCode: resp.StatusCode,
		Reason:     resp.Reason(),
		Body:       resp.Body,
	}
}
