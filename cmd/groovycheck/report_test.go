package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/rhuss/groovycheck/pkg/suite"
)

func TestReport(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	newReport(&buf).write([]suite.Result{
		{Name: "submit_valid_auth", Duration: 12 * time.Millisecond},
		{Name: "query_invalid_id", Err: errors.New("status: expected status 400"), Duration: 3 * time.Millisecond},
	})

	out := buf.String()
	for _, want := range []string{
		"PASS submit_valid_auth",
		"FAIL query_invalid_id",
		"status: expected status 400",
		"1 passed, 1 failed, 2 total in 15ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRunAgainstReferenceService(t *testing.T) {
	color.NoColor = true

	failed, err := run([]string{
		"-reference",
		"-validation-config", "../../resources/validation/validation_config.yml",
		"-run", "^(submit_invalid_auth|query_not_exist_id|query_invalid_id)$",
		"-pause", "0s",
		"-log-level", "ERROR",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if failed != 0 {
		t.Errorf("%d scenarios failed", failed)
	}
}

func TestRunRejectsBadPattern(t *testing.T) {
	if _, err := run([]string{"-run", "(", "-log-level", "ERROR"}); err == nil {
		t.Error("expected error for invalid -run pattern")
	}
}
