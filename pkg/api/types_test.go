package api

import (
	"encoding/json"
	"testing"
)

func TestExecutionStatus(t *testing.T) {
	tests := []struct {
		status   ExecutionStatus
		valid    bool
		terminal bool
	}{
		{StatusPending, true, false},
		{StatusInProgress, true, false},
		{StatusCompleted, true, true},
		{StatusFailed, true, true},
		{"RUNNING", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.status.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestExecutionStatusIn(t *testing.T) {
	set := []ExecutionStatus{StatusCompleted, StatusInProgress}
	if !StatusCompleted.In(set) {
		t.Error("COMPLETED should be in set")
	}
	if StatusFailed.In(set) {
		t.Error("FAILED should not be in set")
	}
	if StatusPending.In(nil) {
		t.Error("nothing is in an empty set")
	}
}

func TestStatusPayloadResultOmitted(t *testing.T) {
	data, err := json.Marshal(StatusPayload{ID: "x", Status: StatusPending})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["result"]; ok {
		t.Errorf("result key present in %s", data)
	}

	result := "14"
	data, _ = json.Marshal(StatusPayload{ID: "x", Status: StatusCompleted, Result: &result})
	raw = nil
	json.Unmarshal(data, &raw)
	if raw["result"] != "14" {
		t.Errorf("result = %v, want \"14\"", raw["result"])
	}
}

func TestCredentialStringHidesPassword(t *testing.T) {
	c := NewCredential("user_1", "pass_1")
	if c.String() != "user_1" {
		t.Errorf("String() = %q, want user_1", c.String())
	}
}
