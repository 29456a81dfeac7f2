package suite

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/rhuss/groovycheck/pkg/debug"
)

// Result is the outcome of one scenario.
type Result struct {
	Name     string
	Err      error
	Duration time.Duration
}

// Passed reports whether the scenario succeeded.
func (r Result) Passed() bool {
	return r.Err == nil
}

// Select returns the scenarios whose name matches filter. A nil filter
// selects all of them.
func Select(scenarios []Scenario, filter *regexp.Regexp) []Scenario {
	if filter == nil {
		return scenarios
	}
	var out []Scenario
	for _, s := range scenarios {
		if filter.MatchString(s.Name) {
			out = append(out, s)
		}
	}
	return out
}

// Run executes the selected scenarios one after another. Every scenario
// runs even when an earlier one fails. It stops early only when ctx is
// cancelled.
func Run(ctx context.Context, h *Harness, filter *regexp.Regexp) []Result {
	selected := Select(All(), filter)
	results := make([]Result, 0, len(selected))

	for _, s := range selected {
		if ctx.Err() != nil {
			break
		}

		debug.Log("suite", "scenario starting", "name", s.Name)
		start := time.Now()
		err := s.Run(ctx, h)
		r := Result{Name: s.Name, Err: err, Duration: time.Since(start)}
		results = append(results, r)

		if err != nil {
			slog.Warn("scenario failed", "name", s.Name, "duration", r.Duration, "error", err)
		} else {
			debug.Log("suite", "scenario passed", "name", s.Name, "duration", r.Duration)
		}
	}
	return results
}

// Failed counts the failed results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed() {
			n++
		}
	}
	return n
}
