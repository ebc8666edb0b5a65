package batch

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSummarize_FailuresSortedBySegment(t *testing.T) {
	result := newResult(4)
	result.record(Entry{SegmentID: 7, Outcome: OutcomeFailed, Err: errors.New("late")})
	result.record(Entry{SegmentID: 2, Outcome: OutcomeFailed, Err: errors.New("early")})
	result.record(Entry{SegmentID: 4, Outcome: OutcomeSucceeded})
	result.record(Entry{SegmentID: 1, Outcome: OutcomeSkipped})

	s := result.Summarize()

	if s.Skipped != 1 || s.Succeeded != 1 || s.Failed != 2 {
		t.Fatalf("summary = %+v, want 1/1/2", s)
	}
	if len(s.Failures) != 2 {
		t.Fatalf("len(Failures) = %d, want 2", len(s.Failures))
	}
	if s.Failures[0].SegmentID != 2 || s.Failures[1].SegmentID != 7 {
		t.Errorf("failure order = %d,%d, want 2,7", s.Failures[0].SegmentID, s.Failures[1].SegmentID)
	}
	if s.Failures[0].Reason != "early" {
		t.Errorf("failure reason = %q, want %q", s.Failures[0].Reason, "early")
	}
}

func TestSummarize_MissingInputReason(t *testing.T) {
	jobs := []Job{{
		SegmentID: 0,
		Action: func(ctx context.Context) error {
			return errors.Join(ErrMissingInput, errors.New("segment 0 has no narration text"))
		},
	}}

	s := Run(context.Background(), jobs, 1, nil).Summarize()

	if s.Failed != 1 {
		t.Fatalf("Failed = %d, want 1", s.Failed)
	}
	if !strings.Contains(s.Failures[0].Reason, "missing required input") {
		t.Errorf("reason = %q, want missing-input marker", s.Failures[0].Reason)
	}
}

func TestRender(t *testing.T) {
	result := newResult(2)
	result.record(Entry{SegmentID: 0, Outcome: OutcomeSucceeded})
	result.record(Entry{SegmentID: 1, Outcome: OutcomeFailed, Err: errors.New("no results")})

	var sb strings.Builder
	result.Summarize().Render(&sb, "footage")

	out := sb.String()
	if !strings.Contains(out, "footage: 1 succeeded, 0 cached, 1 failed") {
		t.Errorf("render output = %q", out)
	}
	if !strings.Contains(out, "segment 1: no results") {
		t.Errorf("render output missing failure line: %q", out)
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{OutcomeSkipped, "skipped"},
		{OutcomeSucceeded, "succeeded"},
		{OutcomeFailed, "failed"},
		{Outcome(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", tt.outcome, got, tt.want)
		}
	}
}
