// Package script defines the project script data model and its on-disk
// store. The script is the single source of truth every pipeline stage
// reads; stages write sibling artifact files and only ever write back the
// footage filename after a successful download.
package script

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Script is one video project's authored content.
type Script struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	// LongForm selects the long-form pipeline variants (chapters, SRT
	// captions, landscape output).
	LongForm bool      `json:"long_form,omitempty"`
	Segments []Segment `json:"segments"`
}

// Segment is one narrated unit of the video.
type Segment struct {
	// Text is the narration read by the synthesized voice.
	Text string `json:"text"`
	// Context is a short human label shown in progress output.
	Context string `json:"context"`
	// FootageQuery is the search query used to find stock footage.
	FootageQuery string `json:"footage_query,omitempty"`
	// Footage is the downloaded footage filename, auto-populated after a
	// successful download.
	Footage string `json:"footage,omitempty"`
	// FootageStart is the offset in seconds where the footage becomes
	// relevant, set manually after preview review.
	FootageStart float64 `json:"footage_start,omitempty"`
	// Section labels long-form chapters; consecutive segments sharing a
	// section form one chapter.
	Section string `json:"section,omitempty"`
	// References cite sources for the narration's claims.
	References []Reference `json:"references,omitempty"`
}

// Reference is a citation backing a segment's claims.
type Reference struct {
	Source string `json:"source"`
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
}

// UploadRecord captures the result of a completed upload.
type UploadRecord struct {
	ID         string    `json:"id"` // Internal UUID
	VideoID    string    `json:"video_id"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Privacy    string    `json:"privacy"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Query returns the effective footage search query for a segment: the
// explicit query if set, otherwise the first 50 characters of narration.
func (s *Segment) Query() string {
	if s.FootageQuery != "" {
		return s.FootageQuery
	}
	text := s.Text
	if runes := []rune(text); len(runes) > 50 {
		text = string(runes[:50])
	}
	return strings.TrimSpace(text)
}

// FootageFile returns the footage filename for segment i: the recorded
// name if already downloaded, otherwise the deterministic default.
func (s *Segment) FootageFile(i int) string {
	if s.Footage != "" {
		return s.Footage
	}
	return fmt.Sprintf("segment_%02d.mp4", i)
}

// Project resolves the deterministic artifact layout under one project
// directory. Every path is a pure function of project, stage, and segment
// id, which is what makes re-runs idempotent and cache-checkable.
type Project struct {
	Name string
	Dir  string
}

// NewProject creates a project rooted at dir.
func NewProject(name, dir string) Project {
	return Project{Name: name, Dir: dir}
}

func (p Project) ScriptPath() string     { return filepath.Join(p.Dir, "script.json") }
func (p Project) UploadInfoPath() string { return filepath.Join(p.Dir, "upload_info.json") }
func (p Project) FactCheckPath() string  { return filepath.Join(p.Dir, "fact_check_results.json") }

func (p Project) AudioDir() string   { return filepath.Join(p.Dir, "audio") }
func (p Project) FootageDir() string { return filepath.Join(p.Dir, "footage") }
func (p Project) PreviewDir() string { return filepath.Join(p.Dir, "previews") }
func (p Project) TempDir() string    { return filepath.Join(p.Dir, "temp") }
func (p Project) OutputDir() string  { return filepath.Join(p.Dir, "output") }

// AudioPath returns the narration artifact path for segment i.
func (p Project) AudioPath(i int) string {
	return filepath.Join(p.AudioDir(), fmt.Sprintf("segment_%02d.mp3", i))
}

// FootagePath returns the footage artifact path for segment i.
func (p Project) FootagePath(seg *Segment, i int) string {
	return filepath.Join(p.FootageDir(), seg.FootageFile(i))
}

// PreviewPath returns the preview frame path for segment i at offset t seconds.
func (p Project) PreviewPath(i int, t int) string {
	return filepath.Join(p.PreviewDir(), fmt.Sprintf("seg%02d_t%03d.jpg", i, t))
}

// SegmentVideoPath returns the rendered per-segment video path.
func (p Project) SegmentVideoPath(i int) string {
	return filepath.Join(p.TempDir(), fmt.Sprintf("segment_%02d.mp4", i))
}

func (p Project) ConcatListPath() string { return filepath.Join(p.TempDir(), "concat.txt") }
func (p Project) OutroPath() string      { return filepath.Join(p.TempDir(), "outro.mp4") }
func (p Project) ConcatPath() string     { return filepath.Join(p.TempDir(), "concat.mp4") }
func (p Project) FinalPath() string      { return filepath.Join(p.OutputDir(), "final.mp4") }
func (p Project) ThumbnailPath() string  { return filepath.Join(p.OutputDir(), "thumbnail.jpg") }
func (p Project) CaptionsPath() string   { return filepath.Join(p.OutputDir(), "captions.srt") }
