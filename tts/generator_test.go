package tts

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"clipforge/internal/batch"
	"clipforge/script"
)

func TestGeneratorJobs(t *testing.T) {
	project := script.NewProject("test", t.TempDir())
	sc := &script.Script{Segments: []script.Segment{
		{Text: "The lights go out."},
		{Text: ""},
	}}

	gen := NewGenerator(newTestClient("http://unreachable.invalid"), nil)
	jobs := gen.Jobs(project, sc)

	if len(jobs) != 2 {
		t.Fatalf("len(jobs) = %d, want 2", len(jobs))
	}
	if jobs[0].SegmentID != 0 || jobs[1].SegmentID != 1 {
		t.Errorf("segment ids = %d, %d", jobs[0].SegmentID, jobs[1].SegmentID)
	}
	if got, want := jobs[0].OutputPath, project.AudioPath(0); got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
	if filepath.Ext(jobs[0].OutputPath) != ".mp3" {
		t.Errorf("audio output %q is not an mp3", jobs[0].OutputPath)
	}

	// The empty segment must fail before any API call.
	err := jobs[1].Action(context.Background())
	if !errors.Is(err, batch.ErrMissingInput) {
		t.Errorf("empty segment error = %v, want ErrMissingInput", err)
	}
}
