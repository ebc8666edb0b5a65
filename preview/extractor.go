// Package preview extracts frame grabs from downloaded footage so the
// footage start offset for each segment can be chosen by eye.
package preview

import (
	"context"
	"fmt"
	"os"

	"clipforge/internal/batch"
	"clipforge/internal/media"
	"clipforge/script"
)

// defaultInterval is the spacing between preview frames in seconds.
const defaultInterval = 10

// Extractor maps script segments to preview extraction jobs. Each job
// probes its footage clip and grabs one frame per interval.
type Extractor struct {
	Prober  *media.Prober
	Encoder *media.Encoder

	// Interval is the spacing between frames in seconds. Defaults to 10.
	Interval int
}

// NewExtractor creates an extractor over the given tools.
func NewExtractor(prober *media.Prober, encoder *media.Encoder) *Extractor {
	return &Extractor{Prober: prober, Encoder: encoder, Interval: defaultInterval}
}

func (e *Extractor) interval() int {
	if e.Interval > 0 {
		return e.Interval
	}
	return defaultInterval
}

// Offsets returns the frame offsets for a clip of the given duration:
// t=0 plus one frame per interval, always at least the first frame.
func (e *Extractor) Offsets(duration float64) []int {
	offsets := []int{0}
	for t := e.interval(); float64(t) < duration; t += e.interval() {
		offsets = append(offsets, t)
	}
	return offsets
}

// Jobs builds one extraction job per segment. A segment whose footage has
// not been downloaded fails with a configuration error.
func (e *Extractor) Jobs(project script.Project, sc *script.Script) []batch.Job {
	jobs := make([]batch.Job, 0, len(sc.Segments))
	for i := range sc.Segments {
		i := i
		jobs = append(jobs, batch.Job{
			SegmentID:  i,
			OutputPath: project.PreviewPath(i, 0),
			Action: func(ctx context.Context) error {
				return e.extractSegment(ctx, project, sc, i)
			},
		})
	}
	return jobs
}

// CachePredicate returns the preview cache check. Only the t=0 frame is
// checked: extraction writes it last, so its presence implies every other
// frame for the segment was already written.
func (e *Extractor) CachePredicate(project script.Project, sc *script.Script) batch.CachePredicate {
	return func(job batch.Job) bool {
		if job.SegmentID >= len(sc.Segments) {
			return false
		}
		seg := &sc.Segments[job.SegmentID]
		if _, err := os.Stat(project.FootagePath(seg, job.SegmentID)); err != nil {
			return false
		}
		return batch.ExistsNonEmpty(job.OutputPath)
	}
}

func (e *Extractor) extractSegment(ctx context.Context, project script.Project, sc *script.Script, i int) error {
	seg := &sc.Segments[i]
	footage := project.FootagePath(seg, i)
	if _, err := os.Stat(footage); err != nil {
		return fmt.Errorf("%w: segment %d footage not downloaded", batch.ErrMissingInput, i)
	}

	duration, err := e.Prober.Duration(ctx, footage)
	if err != nil {
		return fmt.Errorf("probe %s: %w", footage, err)
	}

	if err := os.MkdirAll(project.PreviewDir(), 0755); err != nil {
		return err
	}

	// The t=0 frame goes last: the cache predicate keys on it, so a run
	// that dies partway never looks complete.
	offsets := e.Offsets(duration)
	for j := len(offsets) - 1; j >= 0; j-- {
		t := offsets[j]
		out := project.PreviewPath(i, t)
		err := e.Encoder.Run(ctx,
			"-ss", fmt.Sprintf("%d", t),
			"-i", footage,
			"-frames:v", "1",
			"-q:v", "2",
			out)
		if err != nil {
			return fmt.Errorf("frame at t=%d: %w", t, err)
		}
	}
	return nil
}
