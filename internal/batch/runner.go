package batch

import (
	"context"
	"fmt"
	"sync"
)

// Run executes jobs with at most workers running concurrently and returns
// one entry per job.
//
// The cache predicate is evaluated synchronously, in input order, before a
// job is dispatched; cached jobs are recorded as skipped and never occupy
// a worker slot. With workers <= 1 the remaining jobs run strictly in
// input order, which callers rely on for deterministic progress logs.
// With workers > 1 a new job is admitted as soon as a slot frees and
// completion order is unspecified.
//
// A failure inside one job action (error return or panic) is recorded
// against that job only; it never cancels siblings or aborts the batch.
// Retry policy, if any, belongs inside the action.
func Run(ctx context.Context, jobs []Job, workers int, cached CachePredicate) *Result {
	result := newResult(len(jobs))

	var runnable []Job
	for _, job := range jobs {
		if cached != nil && cached(job) {
			result.record(Entry{SegmentID: job.SegmentID, Outcome: OutcomeSkipped})
			continue
		}
		runnable = append(runnable, job)
	}

	if workers <= 1 {
		for _, job := range runnable {
			result.record(execute(ctx, job))
		}
		return result
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, job := range runnable {
		sem <- struct{}{}
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			defer func() { <-sem }()
			result.record(execute(ctx, job))
		}(job)
	}
	wg.Wait()

	return result
}

// execute runs one job action with the per-job failure boundary.
func execute(ctx context.Context, job Job) (entry Entry) {
	entry = Entry{SegmentID: job.SegmentID, Outcome: OutcomeSucceeded}

	defer func() {
		if r := recover(); r != nil {
			entry.Outcome = OutcomeFailed
			entry.Err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	if job.Action == nil {
		entry.Outcome = OutcomeFailed
		entry.Err = fmt.Errorf("%w: job has no action", ErrMissingInput)
		return entry
	}

	if err := job.Action(ctx); err != nil {
		entry.Outcome = OutcomeFailed
		entry.Err = err
	}
	return entry
}
