package preview

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"

	"clipforge/internal/batch"
	"clipforge/internal/media"
	"clipforge/script"
)

func TestExtractor_Offsets(t *testing.T) {
	e := NewExtractor(media.NewProber(), media.NewEncoder())

	tests := []struct {
		name     string
		duration float64
		interval int
		want     []int
	}{
		{"35s clip default interval", 35, 0, []int{0, 10, 20, 30}},
		{"exact multiple excludes endpoint", 30, 0, []int{0, 10, 20}},
		{"shorter than interval", 7, 0, []int{0}},
		{"zero duration still grabs first frame", 0, 0, []int{0}},
		{"custom interval", 12, 5, []int{0, 5, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.Interval = tt.interval
			if got := e.Offsets(tt.duration); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Offsets(%v) = %v, want %v", tt.duration, got, tt.want)
			}
		})
	}
}

func TestExtractor_MissingFootageIsConfigurationError(t *testing.T) {
	project := script.NewProject("test", t.TempDir())
	sc := &script.Script{Segments: []script.Segment{{Text: "narration"}}}
	e := NewExtractor(media.NewProber(), media.NewEncoder())

	jobs := e.Jobs(project, sc)
	if len(jobs) != 1 {
		t.Fatalf("len(jobs) = %d, want 1", len(jobs))
	}

	err := jobs[0].Action(context.Background())
	if !errors.Is(err, batch.ErrMissingInput) {
		t.Errorf("action error = %v, want ErrMissingInput", err)
	}
}

func TestExtractor_CachePredicate(t *testing.T) {
	project := script.NewProject("test", t.TempDir())
	sc := &script.Script{Segments: []script.Segment{{Text: "narration"}}}
	e := NewExtractor(media.NewProber(), media.NewEncoder())

	pred := e.CachePredicate(project, sc)
	job := batch.Job{SegmentID: 0, OutputPath: project.PreviewPath(0, 0)}

	if pred(job) {
		t.Error("cached with neither footage nor frames")
	}

	if err := os.MkdirAll(project.FootageDir(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(project.FootagePath(&sc.Segments[0], 0), []byte("v"), 0644); err != nil {
		t.Fatal(err)
	}
	if pred(job) {
		t.Error("cached with footage but no frames")
	}

	if err := os.MkdirAll(project.PreviewDir(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(project.PreviewPath(0, 0), []byte("jpg"), 0644); err != nil {
		t.Fatal(err)
	}
	if !pred(job) {
		t.Error("not cached with footage and first frame present")
	}

	if pred(batch.Job{SegmentID: 5, OutputPath: "x"}) {
		t.Error("out of range segment reported cached")
	}
}
