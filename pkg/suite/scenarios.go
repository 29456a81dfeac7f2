package suite

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rhuss/groovycheck/pkg/api"
	"github.com/rhuss/groovycheck/pkg/client"
)

// NotExistID is a well-formed ID no service is expected to know.
const NotExistID = "ef81a976-4dee-4a91-b5ac-7ff0da3c2913"

// InvalidID is not a well-formed submission ID.
const InvalidID = "invalid_id"

// Scenario is one black-box check against the service.
type Scenario struct {
	Name        string
	Description string
	Run         func(ctx context.Context, h *Harness) error
}

// All returns every scenario in execution order.
func All() []Scenario {
	return []Scenario{
		{"submit_valid_auth", "submit with a valid auth user returns an id", submitValidAuth},
		{"submit_invalid_auth", "submit with unknown username and password is rejected", submitRejected(api.NewCredential("invalid_user", "invalid_pass"), "1 + 26666")},
		{"submit_invalid_user", "submit with unknown username is rejected", submitRejected(api.NewCredential("invalid_user", "pass_1"), "1 + 297670376")},
		{"submit_invalid_password", "submit with another user's password is rejected", submitRejected(api.NewCredential("user_4", "pass_1"), "1 + 45757")},
		{"submit_invalid_code", "invalid code ends FAILED or is still running", submitInvalidCode},
		{"submit_special_characters", "code with special characters is accepted or rejected cleanly", submitSpecialCharacters},
		{"query_same_user", "the submitter can read status and result", querySameUser},
		{"query_different_user", "another user cannot read the status", queryDifferentUser},
		{"query_not_exist_id", "querying an unknown id returns 404", queryByID(NotExistID, http.StatusNotFound)},
		{"query_invalid_id", "querying a malformed id returns 400", queryByID(InvalidID, http.StatusBadRequest)},
		{"two_parallel_requests", "two submissions execute in parallel", twoParallelRequests},
		{"five_simultaneous_requests", "five users submit at the same time", fiveSimultaneousRequests},
		{"submit_long_code", "a large submission is accepted or rejected cleanly", submitLongCode},
		{"submit_repeated_code", "the same code can be submitted repeatedly", submitRepeatedCode},
	}
}

func submitValidAuth(ctx context.Context, h *Harness) error {
	cred, err := h.RandomCredential()
	if err != nil {
		return err
	}
	sub, err := h.Client.Submit(ctx, "1 + 513", &cred)
	if err != nil {
		return err
	}
	return expectID(sub)
}

func submitRejected(cred api.Credential, code string) func(context.Context, *Harness) error {
	return func(ctx context.Context, h *Harness) error {
		sub, err := h.Client.Submit(ctx, code, &cred)
		if err != nil {
			return err
		}
		return expectCode("submit", &sub.Response, http.StatusUnauthorized)
	}
}

func submitInvalidCode(ctx context.Context, h *Harness) error {
	if len(h.Validation.InvalidCode) < 2 {
		return fmt.Errorf("validation config needs at least 2 invalid_code entries")
	}
	status, err := h.Client.SubmitAndAwaitResult(ctx, h.Validation.InvalidCode[1], nil)
	if err != nil {
		return err
	}
	if err := pause(ctx, h.Pause); err != nil {
		return err
	}
	if err := expectCode("status", &status.Response, http.StatusOK); err != nil {
		return err
	}
	return expectStatusIn(status, []api.ExecutionStatus{api.StatusFailed, api.StatusPending, api.StatusInProgress})
}

func submitSpecialCharacters(ctx context.Context, h *Harness) error {
	if len(h.Validation.SpecialCharactersCodes) < 2 {
		return fmt.Errorf("validation config needs at least 2 special_characters_codes entries")
	}
	status, err := h.Client.SubmitAndAwaitResult(ctx, h.Validation.SpecialCharactersCodes[1], nil)
	if err != nil {
		// A clean 4xx rejection of the submission is acceptable.
		if _, ok := clientErrorStatus(err); ok {
			return nil
		}
		return err
	}
	if err := pause(ctx, h.Pause); err != nil {
		return err
	}
	return expectOKOrClientError("status", &status.Response)
}

func querySameUser(ctx context.Context, h *Harness) error {
	status, err := h.Client.SubmitAndAwaitResult(ctx, "6 + 8", nil)
	if err != nil {
		return err
	}
	if err := expectStatusIn(status, h.Validation.Statuses()); err != nil {
		return err
	}

	result, ok := status.Result()
	if status.Status() != api.StatusCompleted {
		if ok {
			return fail("status", fmt.Sprintf("result present for %s submission", status.Status()), &status.Response)
		}
		return nil
	}
	if !ok {
		return fail("status", `COMPLETED response has no "result"`, &status.Response)
	}
	if result != "14" {
		return fail("status", fmt.Sprintf("result %q, want \"14\"", result), &status.Response)
	}
	return nil
}

func queryDifferentUser(ctx context.Context, h *Harness) error {
	owner := numberedCredential(1)
	other := numberedCredential(2)

	sub, err := h.Client.Submit(ctx, "1 + 57658", &owner)
	if err != nil {
		return err
	}
	if err := expectID(sub); err != nil {
		return err
	}

	status, err := h.Client.FetchStatus(ctx, sub.ID(), &other)
	if err != nil {
		return err
	}
	return expectCode("status", &status.Response, http.StatusUnauthorized)
}

func queryByID(id string, want int) func(context.Context, *Harness) error {
	return func(ctx context.Context, h *Harness) error {
		status, err := h.Client.FetchStatus(ctx, id, nil)
		if err != nil {
			return err
		}
		return expectCode("status", &status.Response, want)
	}
}

// awaitAs submits code as cred and performs the single status check.
func awaitAs(h *Harness, code string, cred api.Credential) call {
	return func(ctx context.Context) (*client.StatusResponse, error) {
		return h.Client.SubmitAndAwaitResult(ctx, code, &cred)
	}
}

func twoParallelRequests(ctx context.Context, h *Harness) error {
	codes := []string{"5 * 5", "7 * 7"}
	calls := make([]call, len(codes))
	for i, code := range codes {
		calls[i] = awaitAs(h, code, numberedCredential(i+1))
	}

	results, err := runPool(ctx, 2, calls)
	if err != nil {
		return err
	}

	var errs []error
	for i, status := range results {
		if err := expectStatusIn(status, []api.ExecutionStatus{api.StatusCompleted, api.StatusInProgress}); err != nil {
			errs = append(errs, fmt.Errorf("request %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func fiveSimultaneousRequests(ctx context.Context, h *Harness) error {
	if len(h.Validation.SampleCodes) < 5 {
		return fmt.Errorf("validation config needs at least 5 sample_codes, has %d", len(h.Validation.SampleCodes))
	}
	codes := h.Validation.SampleCodes[:5]
	calls := make([]call, len(codes))
	for i, code := range codes {
		calls[i] = awaitAs(h, code, numberedCredential(i+1))
	}

	results, err := runPool(ctx, 5, calls)
	if err != nil {
		return err
	}

	allowed := h.Validation.Statuses()
	var errs []error
	for i, status := range results {
		if err := expectCode("status", &status.Response, http.StatusOK); err != nil {
			errs = append(errs, fmt.Errorf("request %d: %w", i, err))
			continue
		}
		if err := expectStatusIn(status, allowed); err != nil {
			errs = append(errs, fmt.Errorf("request %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func submitLongCode(ctx context.Context, h *Harness) error {
	code, err := h.Validation.LargeCode()
	if err != nil {
		return err
	}
	sub, err := h.Client.Submit(ctx, code, nil)
	if err != nil {
		return err
	}
	return expectOKOrClientError("submit", &sub.Response)
}

func submitRepeatedCode(ctx context.Context, h *Harness) error {
	for i := 0; i < 3; i++ {
		cred, err := h.RandomCredential()
		if err != nil {
			return err
		}
		sub, err := h.Client.Submit(ctx, "5 * 513", &cred)
		if err != nil {
			return err
		}
		if err := expectID(sub); err != nil {
			return fmt.Errorf("attempt %d as %s: %w", i+1, cred, err)
		}
	}
	return nil
}

// pause waits d once, honoring ctx.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
