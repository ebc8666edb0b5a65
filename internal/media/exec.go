package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"clipforge/internal/retry"
)

const (
	defaultFFmpegPath    = "ffmpeg"
	defaultFFmpegTimeout = 30 * time.Minute
)

// Encoder runs ffmpeg invocations, capturing stderr for diagnostics.
type Encoder struct {
	// Path is the path to the ffmpeg executable. Defaults to "ffmpeg".
	Path string
	// Timeout is the maximum time per invocation. Defaults to 30 minutes.
	Timeout time.Duration
}

// NewEncoder creates an encoder with defaults.
func NewEncoder() *Encoder {
	return &Encoder{Path: defaultFFmpegPath, Timeout: defaultFFmpegTimeout}
}

func (e *Encoder) path() string {
	if e.Path != "" {
		return e.Path
	}
	return defaultFFmpegPath
}

func (e *Encoder) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return defaultFFmpegTimeout
}

// CheckInstalled verifies that ffmpeg is available.
func (e *Encoder) CheckInstalled(ctx context.Context) error {
	if err := exec.CommandContext(ctx, e.path(), "-version").Run(); err != nil {
		return fmt.Errorf("%w: %s", retry.ErrToolNotInstalled, e.path())
	}
	return nil
}

// Run executes ffmpeg with the given arguments ("-y" is always prepended).
// On failure the error includes the tail of ffmpeg's stderr, which carries
// the only useful diagnostic ffmpeg produces.
func (e *Encoder) Run(ctx context.Context, args ...string) error {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	full := append([]string{"-y"}, args...)
	cmd := exec.CommandContext(runCtx, e.path(), full...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("ffmpeg timed out after %s", e.timeout())
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, stderrTail(stderr.String(), 4))
	}
	return nil
}

// stderrTail returns the last n non-empty lines of ffmpeg output.
func stderrTail(s string, n int) string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
