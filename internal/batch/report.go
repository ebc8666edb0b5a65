package batch

import (
	"fmt"
	"io"
	"sort"
)

// Failure pairs a failed segment with its reason string.
type Failure struct {
	SegmentID int
	Reason    string
}

// Summary aggregates a batch result. Failures are ordered by segment id so
// the summary is deterministic regardless of concurrent completion order.
type Summary struct {
	Skipped   int
	Succeeded int
	Failed    int
	Failures  []Failure
}

// Summarize produces the deterministic summary for a result.
func (r *Result) Summarize() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s Summary
	for _, e := range r.entries {
		switch e.Outcome {
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeSucceeded:
			s.Succeeded++
		case OutcomeFailed:
			s.Failed++
			reason := "unknown failure"
			if e.Err != nil {
				reason = e.Err.Error()
			}
			s.Failures = append(s.Failures, Failure{SegmentID: e.SegmentID, Reason: reason})
		}
	}

	sort.Slice(s.Failures, func(i, j int) bool {
		return s.Failures[i].SegmentID < s.Failures[j].SegmentID
	})
	return s
}

// Total returns the number of jobs accounted for.
func (s Summary) Total() int {
	return s.Skipped + s.Succeeded + s.Failed
}

// OK reports whether the batch completed without failures. Callers map
// !OK() to a non-zero process exit so pipeline automation can detect
// partial failure.
func (s Summary) OK() bool {
	return s.Failed == 0
}

// Render writes the human-readable summary the CLI stages print.
func (s Summary) Render(w io.Writer, stage string) {
	fmt.Fprintf(w, "%s: %d succeeded, %d cached, %d failed\n",
		stage, s.Succeeded, s.Skipped, s.Failed)
	for _, f := range s.Failures {
		fmt.Fprintf(w, "  segment %d: %s\n", f.SegmentID, f.Reason)
	}
}
