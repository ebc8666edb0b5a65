package tts

import (
	"context"
	"fmt"
	"os"

	"clipforge/internal/batch"
	"clipforge/internal/media"
	"clipforge/script"
)

// Generator maps script segments to narration synthesis jobs.
type Generator struct {
	Client *Client
	Prober *media.Prober
}

// NewGenerator creates a generator over the given client and prober.
func NewGenerator(client *Client, prober *media.Prober) *Generator {
	return &Generator{Client: client, Prober: prober}
}

// Jobs builds one synthesis job per segment. A segment without narration
// text fails with a configuration error rather than calling the API.
func (g *Generator) Jobs(project script.Project, sc *script.Script) []batch.Job {
	jobs := make([]batch.Job, 0, len(sc.Segments))
	for i, seg := range sc.Segments {
		i, seg := i, seg
		out := project.AudioPath(i)
		jobs = append(jobs, batch.Job{
			SegmentID:  i,
			OutputPath: out,
			Action: func(ctx context.Context) error {
				if seg.Text == "" {
					return fmt.Errorf("%w: segment %d has no narration text", batch.ErrMissingInput, i)
				}
				return g.Client.Synthesize(ctx, seg.Text, out)
			},
		})
	}
	return jobs
}

// CachePredicate returns the audio cache check: an existing clip must be
// non-empty and probe to a positive duration before it is reused.
func (g *Generator) CachePredicate(ctx context.Context) batch.CachePredicate {
	return batch.MediaProbe(func(path string) (float64, error) {
		return g.Prober.Duration(ctx, path)
	})
}

// TotalDuration sums the durations of all generated narration clips,
// skipping clips that are missing or unreadable.
func (g *Generator) TotalDuration(ctx context.Context, project script.Project, sc *script.Script) float64 {
	var total float64
	for i := range sc.Segments {
		path := project.AudioPath(i)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if d, err := g.Prober.Duration(ctx, path); err == nil {
			total += d
		}
	}
	return total
}
