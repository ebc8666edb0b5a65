package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func writeArtifact(t *testing.T, dir string, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestRun_OneEntryPerJob(t *testing.T) {
	for _, workers := range []int{1, 2, 3, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			jobs := make([]Job, 10)
			for i := range jobs {
				jobs[i] = Job{
					SegmentID: i,
					Action:    func(ctx context.Context) error { return nil },
				}
			}

			result := Run(context.Background(), jobs, workers, nil)

			if result.Len() != len(jobs) {
				t.Fatalf("Run() recorded %d entries, want %d", result.Len(), len(jobs))
			}
			for i := range jobs {
				e, ok := result.Entry(i)
				if !ok {
					t.Errorf("missing entry for segment %d", i)
					continue
				}
				if e.Outcome != OutcomeSucceeded {
					t.Errorf("segment %d outcome = %v, want succeeded", i, e.Outcome)
				}
			}
		})
	}
}

func TestRun_SequentialOrder(t *testing.T) {
	var order []int
	jobs := make([]Job, 6)
	for i := range jobs {
		i := i
		jobs[i] = Job{
			SegmentID: i,
			Action: func(ctx context.Context) error {
				order = append(order, i)
				return nil
			},
		}
	}

	Run(context.Background(), jobs, 1, nil)

	for i, got := range order {
		if got != i {
			t.Fatalf("invocation order = %v, want input order", order)
		}
	}
	if len(order) != len(jobs) {
		t.Fatalf("invoked %d jobs, want %d", len(order), len(jobs))
	}
}

func TestRun_PartialFailureIsolation(t *testing.T) {
	fail := errors.New("download failed")
	jobs := []Job{
		{SegmentID: 0, Action: func(ctx context.Context) error { return nil }},
		{SegmentID: 1, Action: func(ctx context.Context) error { return fail }},
		{SegmentID: 2, Action: func(ctx context.Context) error { return nil }},
	}

	result := Run(context.Background(), jobs, 3, nil)

	for _, want := range []struct {
		id      int
		outcome Outcome
	}{
		{0, OutcomeSucceeded},
		{1, OutcomeFailed},
		{2, OutcomeSucceeded},
	} {
		e, ok := result.Entry(want.id)
		if !ok {
			t.Fatalf("missing entry for segment %d", want.id)
		}
		if e.Outcome != want.outcome {
			t.Errorf("segment %d outcome = %v, want %v", want.id, e.Outcome, want.outcome)
		}
	}

	summary := result.Summarize()
	if summary.Failed != 1 {
		t.Errorf("summary.Failed = %d, want 1", summary.Failed)
	}
	if summary.OK() {
		t.Error("summary.OK() = true, want false")
	}
}

func TestRun_PanicIsCaptured(t *testing.T) {
	jobs := []Job{
		{SegmentID: 0, Action: func(ctx context.Context) error { panic("boom") }},
		{SegmentID: 1, Action: func(ctx context.Context) error { return nil }},
	}

	result := Run(context.Background(), jobs, 2, nil)

	e, _ := result.Entry(0)
	if e.Outcome != OutcomeFailed {
		t.Errorf("panicking job outcome = %v, want failed", e.Outcome)
	}
	if e.Err == nil {
		t.Error("panicking job has nil error")
	}
	e, _ = result.Entry(1)
	if e.Outcome != OutcomeSucceeded {
		t.Errorf("sibling job outcome = %v, want succeeded", e.Outcome)
	}
}

func TestRun_CachedJobsSkipDispatch(t *testing.T) {
	dir := t.TempDir()

	// 5 jobs, 2 with pre-existing valid outputs.
	cachedA := writeArtifact(t, dir, "segment_01.mp3")
	cachedB := writeArtifact(t, dir, "segment_03.mp3")

	var mu sync.Mutex
	var dispatched []int
	jobs := make([]Job, 5)
	for i := range jobs {
		i := i
		out := filepath.Join(dir, fmt.Sprintf("segment_%02d.mp3", i))
		jobs[i] = Job{
			SegmentID:  i,
			OutputPath: out,
			Action: func(ctx context.Context) error {
				mu.Lock()
				dispatched = append(dispatched, i)
				mu.Unlock()
				return os.WriteFile(out, []byte("data"), 0644)
			},
		}
	}
	jobs[1].OutputPath = cachedA
	jobs[3].OutputPath = cachedB

	result := Run(context.Background(), jobs, 3, CachedOutput)

	summary := result.Summarize()
	if summary.Skipped != 2 {
		t.Errorf("summary.Skipped = %d, want 2", summary.Skipped)
	}
	if len(dispatched) != 3 {
		t.Errorf("dispatched %d jobs, want 3", len(dispatched))
	}
	if summary.Total() != 5 {
		t.Errorf("summary.Total() = %d, want 5", summary.Total())
	}

	// Second run: everything is cached now.
	rerun := Run(context.Background(), jobs, 3, CachedOutput)
	s2 := rerun.Summarize()
	if s2.Skipped != 5 || s2.Succeeded != 0 || s2.Failed != 0 {
		t.Errorf("rerun summary = %+v, want all skipped", s2)
	}
}

func TestRun_ConcurrencyBound(t *testing.T) {
	const workers = 2
	var mu sync.Mutex
	running, peak := 0, 0

	start := make(chan struct{})
	jobs := make([]Job, 6)
	for i := range jobs {
		jobs[i] = Job{
			SegmentID: i,
			Action: func(ctx context.Context) error {
				mu.Lock()
				running++
				if running > peak {
					peak = running
				}
				mu.Unlock()
				<-start
				mu.Lock()
				running--
				mu.Unlock()
				return nil
			},
		}
	}

	done := make(chan *Result)
	go func() { done <- Run(context.Background(), jobs, workers, nil) }()
	close(start)
	<-done

	if peak > workers {
		t.Errorf("peak concurrency = %d, want <= %d", peak, workers)
	}
}

func TestRun_MissingAction(t *testing.T) {
	result := Run(context.Background(), []Job{{SegmentID: 0}}, 1, nil)
	e, _ := result.Entry(0)
	if e.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", e.Outcome)
	}
	if !errors.Is(e.Err, ErrMissingInput) {
		t.Errorf("err = %v, want ErrMissingInput", e.Err)
	}
}

func TestExistsNonEmpty(t *testing.T) {
	dir := t.TempDir()
	full := writeArtifact(t, dir, "full.mp3")
	empty := filepath.Join(dir, "empty.mp3")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"existing non-empty", full, true},
		{"empty file", empty, false},
		{"missing file", filepath.Join(dir, "nope.mp3"), false},
		{"no output path", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExistsNonEmpty(tt.path); got != tt.want {
				t.Errorf("ExistsNonEmpty(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestMediaProbe_Conservative(t *testing.T) {
	dir := t.TempDir()
	path := writeArtifact(t, dir, "clip.mp4")
	job := Job{OutputPath: path}

	probeErr := MediaProbe(func(string) (float64, error) {
		return 0, errors.New("probe failed")
	})
	if probeErr(job) {
		t.Error("probe error treated as cached, want not cached")
	}

	zeroDur := MediaProbe(func(string) (float64, error) { return 0, nil })
	if zeroDur(job) {
		t.Error("zero duration treated as cached, want not cached")
	}

	valid := MediaProbe(func(string) (float64, error) { return 12.5, nil })
	if !valid(job) {
		t.Error("valid probe treated as not cached, want cached")
	}
}
