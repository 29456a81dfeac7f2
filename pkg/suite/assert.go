package suite

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rhuss/groovycheck/pkg/api"
	"github.com/rhuss/groovycheck/pkg/client"
)

func fail(op, msg string, resp *client.Response) error {
	e := &client.AssertionError{Op: op, Msg: msg}
	if resp != nil {
		e.StatusCode = resp.StatusCode
		e.Reason = resp.Reason()
		e.Body = resp.Body
	}
	return e
}

func expectCode(op string, resp *client.Response, want int) error {
	if resp.StatusCode != want {
		return fail(op, fmt.Sprintf("expected status %d", want), resp)
	}
	return nil
}

// isClientError reports whether code is in the 4xx range.
func isClientError(code int) bool {
	return code >= http.StatusBadRequest && code < http.StatusInternalServerError
}

func expectOKOrClientError(op string, resp *client.Response) error {
	if resp.StatusCode != http.StatusOK && !isClientError(resp.StatusCode) {
		return fail(op, "expected status 200 or 4xx", resp)
	}
	return nil
}

func expectID(sub *client.SubmitResponse) error {
	if err := expectCode("submit", &sub.Response, http.StatusOK); err != nil {
		return err
	}
	if !sub.HasField("id") {
		return fail("submit", `response has no "id"`, &sub.Response)
	}
	// ID is empty both for "" and for an id that is not a JSON string.
	if sub.ID() == "" {
		return fail("submit", `response "id" is empty`, &sub.Response)
	}
	return nil
}

func expectStatusIn(resp *client.StatusResponse, set []api.ExecutionStatus) error {
	if !resp.HasField("status") {
		return fail("status", `response has no "status"`, &resp.Response)
	}
	if !resp.Status().In(set) {
		return fail("status", fmt.Sprintf("status %q not in %v", resp.Status(), set), &resp.Response)
	}
	return nil
}

// clientErrorStatus returns the status code carried by an AssertionError
// when it is a 4xx.
func clientErrorStatus(err error) (int, bool) {
	var ae *client.AssertionError
	if errors.As(err, &ae) && isClientError(ae.StatusCode) {
		return ae.StatusCode, true
	}
	return 0, false
}
