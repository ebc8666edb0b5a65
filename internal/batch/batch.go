// Package batch runs independent per-segment jobs through a bounded worker
// pool with cache-aware skipping and per-job failure isolation.
package batch

import (
	"context"
	"errors"
	"sync"
)

// ErrMissingInput marks a job that could not run because a required input
// was absent (empty narration text, missing search query). It is recorded
// like any other failure but keeps the reason string diagnosable.
var ErrMissingInput = errors.New("missing required input")

// Outcome is the result classification for a single job.
type Outcome int

const (
	// OutcomeSkipped means the output already existed and passed the cache check.
	OutcomeSkipped Outcome = iota
	// OutcomeSucceeded means the job action completed without error.
	OutcomeSucceeded
	// OutcomeFailed means the job action returned an error or panicked.
	OutcomeFailed
)

// String returns the lowercase label used in reports.
func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Job is one stage's unit of work for a single segment.
type Job struct {
	// SegmentID is the 0-indexed segment this job belongs to.
	SegmentID int
	// OutputPath is the artifact the job is expected to produce.
	OutputPath string
	// Action performs the side-effecting work. It must be safe to invoke
	// concurrently with actions for other segments, and must own its own
	// timeout (network deadline, subprocess context).
	Action func(ctx context.Context) error
}

// CachePredicate reports whether a job's output already exists and is
// valid, allowing the job to be skipped. Implementations must not panic;
// any doubt (probe failure, zero size) means "not cached".
type CachePredicate func(job Job) bool

// Entry records the outcome of one job.
type Entry struct {
	SegmentID int
	Outcome   Outcome
	Err       error
}

// Result maps segment ids to outcomes for one batch run.
// It is safe for concurrent recording during Run.
type Result struct {
	mu      sync.Mutex
	entries map[int]Entry
}

func newResult(capacity int) *Result {
	return &Result{entries: make(map[int]Entry, capacity)}
}

func (r *Result) record(e Entry) {
	r.mu.Lock()
	r.entries[e.SegmentID] = e
	r.mu.Unlock()
}

// Entry returns the recorded entry for a segment id.
func (r *Result) Entry(segmentID int) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[segmentID]
	return e, ok
}

// Len returns the number of recorded entries.
func (r *Result) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
