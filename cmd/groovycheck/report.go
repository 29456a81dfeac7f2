package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/rhuss/groovycheck/pkg/suite"
)

type report struct {
	w    io.Writer
	pass *color.Color
	fail *color.Color
	dim  *color.Color
}

func newReport(w io.Writer) *report {
	return &report{
		w:    w,
		pass: color.New(color.FgGreen, color.Bold),
		fail: color.New(color.FgRed, color.Bold),
		dim:  color.New(color.Faint),
	}
}

// write prints one line per scenario followed by a summary.
func (r *report) write(results []suite.Result) {
	var total time.Duration
	for _, res := range results {
		total += res.Duration
		if res.Passed() {
			r.pass.Fprint(r.w, "PASS")
		} else {
			r.fail.Fprint(r.w, "FAIL")
		}
		fmt.Fprintf(r.w, " %-28s ", res.Name)
		r.dim.Fprintf(r.w, "(%s)\n", res.Duration.Round(time.Millisecond))
		if !res.Passed() {
			fmt.Fprintf(r.w, "     %v\n", res.Err)
		}
	}

	failed := suite.Failed(results)
	fmt.Fprintln(r.w)
	summary := fmt.Sprintf("%d passed, %d failed, %d total in %s",
		len(results)-failed, failed, len(results), total.Round(time.Millisecond))
	if failed > 0 {
		r.fail.Fprintln(r.w, summary)
	} else {
		r.pass.Fprintln(r.w, summary)
	}
}
