package integration

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rhuss/groovycheck/pkg/api"
	"github.com/rhuss/groovycheck/pkg/client"
	"github.com/rhuss/groovycheck/pkg/suite"
)

var propertyCodes = []string{"1 + 1", "6 + 8", "7 / 2", "1 +", "println 'hi'"}

func TestValidCredentialsAlwaysGetID(t *testing.T) {
	ctx := context.Background()
	for _, cred := range testEnv.Validation.Credentials() {
		for _, code := range propertyCodes {
			sub, err := testEnv.Client().Submit(ctx, code, &cred)
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if sub.StatusCode != http.StatusOK || sub.ID() == "" {
				t.Errorf("%s submitting %q: status %d, id %q", cred, code, sub.StatusCode, sub.ID())
			}
		}
	}
}

func TestInvalidCredentialsAlwaysRejected(t *testing.T) {
	ctx := context.Background()
	invalid := []api.Credential{
		api.NewCredential("invalid_user", "invalid_pass"),
		api.NewCredential("invalid_user", "pass_1"),
		api.NewCredential("user_1", "pass_2"),
		api.NewCredential("user_4", "pass_1"),
		api.NewCredential("user_1", ""),
	}
	for _, cred := range invalid {
		for _, code := range propertyCodes {
			sub, err := testEnv.Client().Submit(ctx, code, &cred)
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if sub.StatusCode != http.StatusUnauthorized {
				t.Errorf("%s submitting %q: status %d, want 401", cred, code, sub.StatusCode)
			}
		}
	}
}

func TestStatusVisibleOnlyToOwner(t *testing.T) {
	ctx := context.Background()
	creds := testEnv.Validation.Credentials()
	if len(creds) < 2 {
		t.Skip("needs at least two auth_users")
	}

	for i, owner := range creds {
		sub, err := testEnv.Client().Submit(ctx, "2 * 21", &owner)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if sub.ID() == "" {
			t.Fatalf("%s: no id (status %d)", owner, sub.StatusCode)
		}

		same, err := testEnv.Client().FetchStatus(ctx, sub.ID(), &owner)
		if err != nil {
			t.Fatalf("FetchStatus: %v", err)
		}
		if same.StatusCode != http.StatusOK || same.Payload == nil || same.Payload.ID != sub.ID() {
			t.Errorf("%s reading own submission: status %d, body %s", owner, same.StatusCode, same.Body)
		}

		other := creds[(i+1)%len(creds)]
		foreign, err := testEnv.Client().FetchStatus(ctx, sub.ID(), &other)
		if err != nil {
			t.Fatalf("FetchStatus: %v", err)
		}
		if foreign.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s reading %s's submission: status %d, want 401", other, owner, foreign.StatusCode)
		}
	}
}

func TestResultPresentIffCompleted(t *testing.T) {
	ctx := context.Background()
	for _, code := range propertyCodes {
		status, err := testEnv.Client().SubmitAndAwaitResult(ctx, code, nil)
		if err != nil {
			t.Fatalf("SubmitAndAwaitResult(%q): %v", code, err)
		}
		if !status.Status().Valid() {
			t.Errorf("%q: unknown status %q", code, status.Status())
		}
		_, hasResult := status.Result()
		if hasResult != (status.Status() == api.StatusCompleted) {
			t.Errorf("%q: status %s, result present %v", code, status.Status(), hasResult)
		}
	}
}

func TestMalformedAndUnknownIDs(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		id   string
		want int
	}{
		{suite.NotExistID, http.StatusNotFound},
		{api.NewRequestID(), http.StatusNotFound},
		{suite.InvalidID, http.StatusBadRequest},
		{"", http.StatusBadRequest},
		{"ef81a976-4dee-4a91-b5ac", http.StatusBadRequest},
	}
	for _, tt := range tests {
		status, err := testEnv.Client().FetchStatus(ctx, tt.id, nil)
		if err != nil {
			t.Fatalf("FetchStatus(%q): %v", tt.id, err)
		}
		if status.StatusCode != tt.want {
			t.Errorf("FetchStatus(%q) = %d, want %d", tt.id, status.StatusCode, tt.want)
		}
	}
}

func TestAwaitHelperReportsRejectedSubmit(t *testing.T) {
	bad := api.NewCredential("invalid_user", "invalid_pass")
	_, err := testEnv.Client().SubmitAndAwaitResult(context.Background(), "1 + 1", &bad)

	var ae *client.AssertionError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want *client.AssertionError", err)
	}
	if ae.Op != "submit" || ae.StatusCode != http.StatusUnauthorized {
		t.Errorf("got op=%q status=%d, want submit/401", ae.Op, ae.StatusCode)
	}
	if ae.Reason != "Unauthorized" {
		t.Errorf("Reason = %q, want Unauthorized", ae.Reason)
	}
}
