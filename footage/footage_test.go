package footage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clipforge/internal/batch"
	"clipforge/internal/retry"
	"clipforge/script"
)

func TestParseSearchOutput(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want []SearchResult
	}{
		{
			name: "two results",
			out:  "abc123\t245.0\tRace Highlights\ndef456\t60\tOnboard Lap",
			want: []SearchResult{
				{ID: "abc123", Duration: 245.0, Title: "Race Highlights"},
				{ID: "def456", Duration: 60, Title: "Onboard Lap"},
			},
		},
		{
			name: "unreported duration",
			out:  "abc123\tNA\tLive Stream",
			want: []SearchResult{{ID: "abc123", Title: "Live Stream"}},
		},
		{
			name: "title containing tabs kept whole",
			out:  "abc123\t10\tA\tB\tC",
			want: []SearchResult{{ID: "abc123", Duration: 10, Title: "A\tB\tC"}},
		},
		{name: "empty output", out: "", want: nil},
		{name: "malformed line skipped", out: "just-an-id", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseSearchOutput(tt.out)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d results, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("result[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantNoRes bool
	}{
		{"unavailable is permanent", errors.New("yt-dlp failed: ERROR: Video unavailable"), true},
		{"private is permanent", errors.New("yt-dlp failed: ERROR: Private video"), true},
		{"network error stays retryable", errors.New("yt-dlp failed: connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err, "subject")
			if errors.Is(got, retry.ErrNoResults) != tt.wantNoRes {
				t.Errorf("classifyError(%v) = %v, ErrNoResults match = %v, want %v",
					tt.err, got, !tt.wantNoRes, tt.wantNoRes)
			}
		})
	}
}

func TestSearchResult_URL(t *testing.T) {
	r := SearchResult{ID: "abc123"}
	if got := r.URL(); got != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("URL() = %q", got)
	}
}

func TestYtdlp_Defaults(t *testing.T) {
	y := NewYtdlp()
	if y.path() != "yt-dlp" {
		t.Errorf("path() = %q", y.path())
	}
	if y.timeout() != 10*time.Minute {
		t.Errorf("timeout() = %v", y.timeout())
	}

	y.Path = "/opt/bin/yt-dlp"
	y.Timeout = time.Minute
	if y.path() != "/opt/bin/yt-dlp" || y.timeout() != time.Minute {
		t.Error("overrides not honored")
	}
}

func TestDownloader_MissingQueryIsConfigurationError(t *testing.T) {
	project := script.NewProject("test", t.TempDir())
	store, err := script.NewStore(project)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer store.Close()

	sc := &script.Script{Segments: []script.Segment{{Text: ""}}}
	d := NewDownloader(NewYtdlp(), nil, store)

	jobs := d.Jobs(project, sc)
	if len(jobs) != 1 {
		t.Fatalf("len(jobs) = %d, want 1", len(jobs))
	}

	err = jobs[0].Action(context.Background())
	if !errors.Is(err, batch.ErrMissingInput) {
		t.Errorf("action error = %v, want ErrMissingInput", err)
	}
}

func TestDownloader_DirectOutOfRange(t *testing.T) {
	project := script.NewProject("test", t.TempDir())
	store, err := script.NewStore(project)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer store.Close()

	sc := &script.Script{Segments: []script.Segment{{Text: "one"}}}
	d := NewDownloader(NewYtdlp(), nil, store)

	if err := d.DownloadDirect(context.Background(), project, sc, 3, "https://example.com"); err == nil {
		t.Error("DownloadDirect() out of range error = nil")
	}
}

func TestStatus(t *testing.T) {
	project := script.NewProject("test", t.TempDir())
	sc := &script.Script{Segments: []script.Segment{
		{Text: "first", FootageQuery: "onboard lap"},
		{Text: "second"},
	}}

	if err := os.MkdirAll(project.FootageDir(), 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(project.FootageDir(), "segment_00.mp4")
	if err := os.WriteFile(path, []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}

	statuses := Status(project, sc)
	if len(statuses) != 2 {
		t.Fatalf("len(statuses) = %d, want 2", len(statuses))
	}
	if !statuses[0].Downloaded {
		t.Error("segment 0 should report downloaded")
	}
	if statuses[0].Query != "onboard lap" {
		t.Errorf("Query = %q", statuses[0].Query)
	}
	if statuses[1].Downloaded {
		t.Error("segment 1 should not report downloaded")
	}
	if statuses[1].Filename != "segment_01.mp4" {
		t.Errorf("Filename = %q", statuses[1].Filename)
	}
}
