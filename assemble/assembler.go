package assemble

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"clipforge/config"
	"clipforge/internal/batch"
	"clipforge/internal/media"
	"clipforge/script"
)

// Line widths for caption wrapping. Vertical frames are narrow, so the
// lines are short; horizontal frames take much wider lines.
const (
	wrapCharsShorts   = 25
	wrapCharsLongForm = 70
)

// Assembler renders per-segment videos and joins them into the final
// output file.
type Assembler struct {
	Prober  *media.Prober
	Encoder *media.Encoder
	Config  *config.Config

	// NoText suppresses burned-in captions, used for long-form videos
	// that carry an SRT sidecar instead.
	NoText bool
}

// NewAssembler creates an assembler over the given tools and settings.
func NewAssembler(prober *media.Prober, encoder *media.Encoder, cfg *config.Config) *Assembler {
	return &Assembler{Prober: prober, Encoder: encoder, Config: cfg}
}

// SegmentJobs builds one render job per segment, writing to the temp
// segment path.
func (a *Assembler) SegmentJobs(project script.Project, sc *script.Script) []batch.Job {
	jobs := make([]batch.Job, 0, len(sc.Segments))
	for i := range sc.Segments {
		i := i
		jobs = append(jobs, batch.Job{
			SegmentID:  i,
			OutputPath: project.SegmentVideoPath(i),
			Action: func(ctx context.Context) error {
				return a.renderSegment(ctx, project, sc, i)
			},
		})
	}
	return jobs
}

// CachePredicate returns the rendered-segment cache check.
func (a *Assembler) CachePredicate(ctx context.Context) batch.CachePredicate {
	return batch.MediaProbe(func(path string) (float64, error) {
		return a.Prober.Duration(ctx, path)
	})
}

// renderSegment renders one segment: trim footage at its start offset,
// fit it to the output frame, burn captions, and mux the narration.
func (a *Assembler) renderSegment(ctx context.Context, project script.Project, sc *script.Script, i int) error {
	seg := &sc.Segments[i]

	audioPath := project.AudioPath(i)
	if !batch.ExistsNonEmpty(audioPath) {
		return fmt.Errorf("%w: segment %d narration not generated", batch.ErrMissingInput, i)
	}
	footagePath := project.FootagePath(seg, i)
	if !batch.ExistsNonEmpty(footagePath) {
		return fmt.Errorf("%w: segment %d footage not downloaded", batch.ErrMissingInput, i)
	}

	audioDuration, err := a.Prober.Duration(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("probe narration: %w", err)
	}

	textFilter := "null"
	if !a.NoText {
		maxChars := wrapCharsShorts
		if sc.LongForm {
			maxChars = wrapCharsLongForm
		}
		lines := wrapText(seg.Text, maxChars)
		color := themeColor(seg.Text, a.Config.ThemeColors, a.Config.DefaultColor)
		textFilter = captionFilter(lines, a.Config.FontFile(), color,
			a.Config.OutputWidth, a.Config.OutputHeight)
	}

	var filter string
	if sc.LongForm {
		footageDuration, err := a.Prober.Duration(ctx, footagePath)
		if err != nil {
			return fmt.Errorf("probe footage: %w", err)
		}
		available := footageDuration - seg.FootageStart
		filter = letterboxFilter(seg.FootageStart, audioDuration, available,
			a.Config.OutputWidth, a.Config.OutputHeight, textFilter)
	} else {
		filter = blurPadFilter(seg.FootageStart, audioDuration,
			a.Config.OutputWidth, a.Config.OutputHeight, textFilter)
	}

	if err := os.MkdirAll(project.TempDir(), 0755); err != nil {
		return err
	}

	return a.Encoder.Run(ctx,
		"-i", footagePath,
		"-i", audioPath,
		"-filter_complex", filter,
		"-map", "[out]",
		"-map", "1:a",
		"-c:v", a.Config.VideoEncoder,
		"-b:v", a.Config.VideoBitrate,
		"-r", strconv.Itoa(a.Config.FrameRate),
		"-c:a", "aac", "-b:a", a.Config.AudioBitrate,
		"-t", fmt.Sprintf("%g", audioDuration),
		"-movflags", "+faststart",
		project.SegmentVideoPath(i))
}

// Concat joins all rendered segments, plus the outro when one was
// rendered, into one file. Concat re-encodes: copying streams across
// segment boundaries leaves timestamp gaps that desync the audio.
func (a *Assembler) Concat(ctx context.Context, project script.Project, sc *script.Script) error {
	var missing []int
	for i := range sc.Segments {
		if !batch.ExistsNonEmpty(project.SegmentVideoPath(i)) {
			missing = append(missing, i)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: segments %v not rendered", batch.ErrMissingInput, missing)
	}

	list, err := os.Create(project.ConcatListPath())
	if err != nil {
		return err
	}
	for i := range sc.Segments {
		fmt.Fprintln(list, concatEntry(project.SegmentVideoPath(i)))
	}
	if sc.LongForm && batch.ExistsNonEmpty(project.OutroPath()) {
		fmt.Fprintln(list, concatEntry(project.OutroPath()))
	}
	if err := list.Close(); err != nil {
		return err
	}

	return a.Encoder.Run(ctx,
		"-f", "concat", "-safe", "0",
		"-i", project.ConcatListPath(),
		"-c:v", a.Config.VideoEncoder,
		"-b:v", a.Config.VideoBitrate,
		"-c:a", "aac", "-b:a", a.Config.AudioBitrate,
		"-movflags", "+faststart",
		project.ConcatPath())
}

// AddMusic mixes the shared background music under the narration and
// writes the final output. When no music track is present the concat
// output is promoted to final unchanged.
func (a *Assembler) AddMusic(ctx context.Context, project script.Project) error {
	if err := os.MkdirAll(project.OutputDir(), 0755); err != nil {
		return err
	}

	musicPath := a.Config.BackgroundMusic()
	if !batch.ExistsNonEmpty(musicPath) {
		return copyFile(project.ConcatPath(), project.FinalPath())
	}

	videoDuration, err := a.Prober.Duration(ctx, project.ConcatPath())
	if err != nil {
		return fmt.Errorf("probe concat output: %w", err)
	}

	return a.Encoder.Run(ctx,
		"-i", project.ConcatPath(),
		"-i", musicPath,
		"-filter_complex", musicFilter(videoDuration, a.Config.MusicVolume),
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac", "-b:a", a.Config.AudioBitrate,
		"-movflags", "+faststart",
		project.FinalPath())
}

// SkipMusic promotes the concat output to the final path without mixing.
func (a *Assembler) SkipMusic(project script.Project) error {
	if err := os.MkdirAll(project.OutputDir(), 0755); err != nil {
		return err
	}
	return copyFile(project.ConcatPath(), project.FinalPath())
}

// Verify checks that the final file's video and audio stream durations
// agree within one second, which catches the concat timestamp bugs this
// pipeline has hit before.
func (a *Assembler) Verify(ctx context.Context, path string) (video, audio float64, err error) {
	video, audio, err = a.Prober.StreamDurations(ctx, path)
	if err != nil {
		return 0, 0, err
	}
	if diff := math.Abs(video - audio); diff > 1.0 {
		return video, audio, fmt.Errorf("duration mismatch: video %.1fs, audio %.1fs", video, audio)
	}
	return video, audio, nil
}

// concatEntry formats one concat demuxer list line. A single quote inside
// the quoted path has to be closed, escaped, and reopened, which is the
// demuxer's quoting rule.
func concatEntry(path string) string {
	return "file '" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
