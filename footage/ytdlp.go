// Package footage finds and downloads stock footage clips for script
// segments using yt-dlp as a subprocess.
package footage

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"clipforge/internal/retry"
)

const (
	defaultYtdlpPath    = "yt-dlp"
	defaultYtdlpTimeout = 10 * time.Minute

	// defaultSearchCount is how many candidate results a search returns;
	// the downloader falls through to the next candidate on failure.
	defaultSearchCount = 5
)

// printTemplate is the --print format for search output, one result per
// line. Tab-separated because titles may contain anything else.
const printTemplate = "%(id)s\t%(duration)s\t%(title)s"

// SearchResult is one candidate video from a yt-dlp search.
type SearchResult struct {
	ID       string
	Title    string
	Duration float64 // seconds, 0 if unreported
}

// URL returns the watch URL for the result.
func (r SearchResult) URL() string {
	return "https://www.youtube.com/watch?v=" + r.ID
}

// Ytdlp runs the yt-dlp binary for searching and downloading.
type Ytdlp struct {
	// Path is the path to the yt-dlp executable. Defaults to "yt-dlp".
	Path string

	// Timeout is the maximum time to wait per invocation. Defaults to 10 minutes.
	Timeout time.Duration

	// ExtraArgs are additional arguments passed to every invocation.
	ExtraArgs []string
}

// NewYtdlp creates a yt-dlp wrapper with defaults.
func NewYtdlp() *Ytdlp {
	return &Ytdlp{Path: defaultYtdlpPath, Timeout: defaultYtdlpTimeout}
}

func (y *Ytdlp) path() string {
	if y.Path != "" {
		return y.Path
	}
	return defaultYtdlpPath
}

func (y *Ytdlp) timeout() time.Duration {
	if y.Timeout > 0 {
		return y.Timeout
	}
	return defaultYtdlpTimeout
}

// CheckInstalled verifies that yt-dlp is available.
func (y *Ytdlp) CheckInstalled(ctx context.Context) error {
	if err := exec.CommandContext(ctx, y.path(), "--version").Run(); err != nil {
		return fmt.Errorf("%w: %s", retry.ErrToolNotInstalled, y.path())
	}
	return nil
}

// Search runs a ytsearch query and returns up to count candidates.
func (y *Ytdlp) Search(ctx context.Context, query string, count int) ([]SearchResult, error) {
	if count <= 0 {
		count = defaultSearchCount
	}

	args := []string{
		"--flat-playlist",
		"--no-warnings",
		"--print", printTemplate,
	}
	args = append(args, y.ExtraArgs...)
	args = append(args, fmt.Sprintf("ytsearch%d:%s", count, query))

	out, err := y.run(ctx, args...)
	if err != nil {
		return nil, classifyError(err, query)
	}

	results := parseSearchOutput(out)
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: query %q", retry.ErrNoResults, query)
	}
	return results, nil
}

// Download fetches the video at url into outputPath as an mp4 capped at
// 1080p. yt-dlp writes to a .part file and renames on completion, so an
// interrupted download never leaves a valid-looking artifact.
func (y *Ytdlp) Download(ctx context.Context, url, outputPath string) error {
	args := []string{
		"-f", "bestvideo[height<=1080][ext=mp4]+bestaudio[ext=m4a]/best[height<=1080][ext=mp4]/best[height<=1080]",
		"--merge-output-format", "mp4",
		"--no-warnings",
		"--no-playlist",
		"-o", outputPath,
	}
	args = append(args, y.ExtraArgs...)
	args = append(args, url)

	if _, err := y.run(ctx, args...); err != nil {
		return classifyError(err, url)
	}
	return nil
}

// run executes yt-dlp with a timeout and returns stdout.
func (y *Ytdlp) run(ctx context.Context, args ...string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, y.timeout())
	defer cancel()

	cmd := exec.CommandContext(runCtx, y.path(), args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("yt-dlp timed out after %s", y.timeout())
		}
		return "", fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// parseSearchOutput parses --print lines of "id\tduration\ttitle".
func parseSearchOutput(out string) []SearchResult {
	var results []SearchResult
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), "\t", 3)
		if len(parts) < 3 || parts[0] == "" {
			continue
		}
		r := SearchResult{ID: parts[0], Title: parts[2]}
		if d, err := strconv.ParseFloat(parts[1], 64); err == nil {
			r.Duration = d
		}
		results = append(results, r)
	}
	return results
}

// classifyError maps common yt-dlp stderr patterns onto the pipeline's
// permanent sentinels so the retry layer stops early where it should.
func classifyError(err error, subject string) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Video unavailable"),
		strings.Contains(msg, "Private video"),
		strings.Contains(msg, "This video is not available"),
		strings.Contains(msg, "does not exist"):
		return fmt.Errorf("%w: %s", retry.ErrNoResults, subject)
	default:
		return err
	}
}
