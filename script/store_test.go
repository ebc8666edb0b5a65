package script

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipforge/internal/storage"
)

func testProject(t *testing.T) Project {
	t.Helper()
	return NewProject("test", t.TempDir())
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	p := testProject(t)
	store, err := NewStore(p)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer store.Close()

	sc := &Script{
		Title: "The Day It All Changed",
		Segments: []Segment{
			{Text: "It started with a radio call.", Context: "hook", FootageQuery: "team radio onboard"},
			{Text: "Two teammates, one order.", Context: "setup", Section: "The Order"},
		},
	}

	if err := store.Save(sc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Title != sc.Title {
		t.Errorf("Title = %q, want %q", got.Title, sc.Title)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("len(Segments) = %d, want 2", len(got.Segments))
	}
	if got.Segments[1].Section != "The Order" {
		t.Errorf("Section = %q, want %q", got.Segments[1].Section, "The Order")
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store, err := NewStore(testProject(t))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer store.Close()

	_, err = store.Load()
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestStore_LoadCorrupt(t *testing.T) {
	p := testProject(t)
	if err := os.WriteFile(p.ScriptPath(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	store, err := NewStore(p)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer store.Close()

	_, err = store.Load()
	if !errors.Is(err, storage.ErrCorrupt) {
		t.Errorf("Load() error = %v, want ErrCorrupt", err)
	}
}

func TestStore_SaveUploadRecordAssignsID(t *testing.T) {
	p := testProject(t)
	store, err := NewStore(p)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer store.Close()

	rec := &UploadRecord{VideoID: "abc123", Title: "Test", Privacy: "private"}
	if err := store.SaveUploadRecord(rec); err != nil {
		t.Fatalf("SaveUploadRecord() error = %v", err)
	}
	if rec.ID == "" {
		t.Error("record ID not assigned")
	}
	if rec.UploadedAt.IsZero() {
		t.Error("UploadedAt not assigned")
	}
	if _, err := os.Stat(p.UploadInfoPath()); err != nil {
		t.Errorf("upload_info.json not written: %v", err)
	}
}

func TestSegment_Query(t *testing.T) {
	tests := []struct {
		name string
		seg  Segment
		want string
	}{
		{"explicit query", Segment{Text: "long text", FootageQuery: "onboard lap"}, "onboard lap"},
		{"falls back to text", Segment{Text: "short narration"}, "short narration"},
		{
			"long text truncated",
			Segment{Text: strings.Repeat("a", 60) + " tail"},
			strings.Repeat("a", 50),
		},
		{
			"multibyte text truncated on rune boundary",
			Segment{Text: strings.Repeat("ü", 60)},
			strings.Repeat("ü", 50),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.seg.Query(); got != tt.want {
				t.Errorf("Query() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProject_ArtifactPaths(t *testing.T) {
	p := NewProject("demo", "/data/projects/demo")

	if got := p.AudioPath(3); got != filepath.Join(p.Dir, "audio", "segment_03.mp3") {
		t.Errorf("AudioPath(3) = %q", got)
	}
	if got := p.PreviewPath(2, 30); got != filepath.Join(p.Dir, "previews", "seg02_t030.jpg") {
		t.Errorf("PreviewPath(2,30) = %q", got)
	}

	seg := &Segment{}
	if got := p.FootagePath(seg, 5); got != filepath.Join(p.Dir, "footage", "segment_05.mp4") {
		t.Errorf("FootagePath default = %q", got)
	}
	seg.Footage = "custom.mp4"
	if got := p.FootagePath(seg, 5); got != filepath.Join(p.Dir, "footage", "custom.mp4") {
		t.Errorf("FootagePath recorded = %q", got)
	}
}
