package footage

import (
	"context"
	"fmt"
	"os"
	"sync"

	"clipforge/internal/batch"
	"clipforge/internal/media"
	"clipforge/internal/retry"
	"clipforge/script"
)

// Downloader maps script segments to footage download jobs. A successful
// download records the footage filename back into the script, so later
// stages and re-runs pick up the same file.
type Downloader struct {
	Ytdlp  *Ytdlp
	Prober *media.Prober
	Store  *script.Store

	// SearchCount is how many candidates each search returns.
	SearchCount int
	// RetryConfig holds retry behavior configuration.
	RetryConfig *retry.Config

	// mu serializes script write-backs from concurrent workers.
	mu sync.Mutex
}

// NewDownloader creates a downloader over the given tools and store.
func NewDownloader(ytdlp *Ytdlp, prober *media.Prober, store *script.Store) *Downloader {
	cfg := retry.DefaultConfig()
	return &Downloader{
		Ytdlp:       ytdlp,
		Prober:      prober,
		Store:       store,
		SearchCount: defaultSearchCount,
		RetryConfig: &cfg,
	}
}

func (d *Downloader) retryConfig() retry.Config {
	if d.RetryConfig != nil {
		return *d.RetryConfig
	}
	return retry.DefaultConfig()
}

// Jobs builds one download job per segment.
func (d *Downloader) Jobs(project script.Project, sc *script.Script) []batch.Job {
	jobs := make([]batch.Job, 0, len(sc.Segments))
	for i := range sc.Segments {
		i := i
		jobs = append(jobs, batch.Job{
			SegmentID:  i,
			OutputPath: project.FootagePath(&sc.Segments[i], i),
			Action: func(ctx context.Context) error {
				return d.downloadSegment(ctx, project, sc, i)
			},
		})
	}
	return jobs
}

// CachePredicate returns the footage cache check: an existing clip must
// probe to a positive duration before it is reused.
func (d *Downloader) CachePredicate(ctx context.Context) batch.CachePredicate {
	return batch.MediaProbe(func(path string) (float64, error) {
		return d.Prober.Duration(ctx, path)
	})
}

// downloadSegment searches for the segment's query and downloads the
// first candidate that works, falling through to alternates on failure.
func (d *Downloader) downloadSegment(ctx context.Context, project script.Project, sc *script.Script, i int) error {
	seg := &sc.Segments[i]
	query := seg.Query()
	if query == "" {
		return fmt.Errorf("%w: segment %d has no footage query or text", batch.ErrMissingInput, i)
	}

	var results []SearchResult
	err := retry.Do(ctx, d.retryConfig(), retry.IsRetryable, func(ctx context.Context) error {
		var searchErr error
		results, searchErr = d.Ytdlp.Search(ctx, query, d.SearchCount)
		return searchErr
	})
	if err != nil {
		return fmt.Errorf("search %q: %w", query, err)
	}

	outputPath := project.FootagePath(seg, i)
	var lastErr error
	for _, candidate := range results {
		err := retry.Do(ctx, d.retryConfig(), retry.IsRetryable, func(ctx context.Context) error {
			return d.Ytdlp.Download(ctx, candidate.URL(), outputPath)
		})
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return err
			}
			continue
		}
		return d.recordFootage(sc, i, seg.FootageFile(i))
	}
	return fmt.Errorf("all %d candidates failed for %q: %w", len(results), query, lastErr)
}

// DownloadDirect fetches one segment's footage from an explicit URL,
// bypassing search.
func (d *Downloader) DownloadDirect(ctx context.Context, project script.Project, sc *script.Script, i int, url string) error {
	if i < 0 || i >= len(sc.Segments) {
		return fmt.Errorf("segment %d out of range (script has %d)", i, len(sc.Segments))
	}
	seg := &sc.Segments[i]
	outputPath := project.FootagePath(seg, i)

	err := retry.Do(ctx, d.retryConfig(), retry.IsRetryable, func(ctx context.Context) error {
		return d.Ytdlp.Download(ctx, url, outputPath)
	})
	if err != nil {
		return err
	}
	return d.recordFootage(sc, i, seg.FootageFile(i))
}

// recordFootage writes the downloaded filename back into the script.
func (d *Downloader) recordFootage(sc *script.Script, i int, filename string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sc.Segments[i].Footage = filename
	if err := d.Store.Save(sc); err != nil {
		return fmt.Errorf("record footage for segment %d: %w", i, err)
	}
	return nil
}

// SegmentStatus describes one segment's footage state for --list output.
type SegmentStatus struct {
	SegmentID  int
	Context    string
	Query      string
	Filename   string
	Downloaded bool
}

// Status reports the footage state of every segment.
func Status(project script.Project, sc *script.Script) []SegmentStatus {
	statuses := make([]SegmentStatus, 0, len(sc.Segments))
	for i := range sc.Segments {
		seg := &sc.Segments[i]
		path := project.FootagePath(seg, i)
		info, err := os.Stat(path)
		statuses = append(statuses, SegmentStatus{
			SegmentID:  i,
			Context:    seg.Context,
			Query:      seg.Query(),
			Filename:   seg.FootageFile(i),
			Downloaded: err == nil && info.Size() > 0,
		})
	}
	return statuses
}
