// Package media wraps the ffmpeg and ffprobe binaries behind small
// subprocess helpers used by every rendering stage.
package media

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
	defaultFFprobePath  = "ffprobe"
	defaultProbeTimeout = 30 * time.Second
)

// Prober answers fast metadata queries about media files via ffprobe.
type Prober struct {
	// Path is the path to the ffprobe executable. Defaults to "ffprobe".
	Path string
	// Timeout is the maximum time to wait per probe. Defaults to 30s.
	Timeout time.Duration
}

// NewProber creates a prober with defaults.
func NewProber() *Prober {
	return &Prober{Path: defaultFFprobePath, Timeout: defaultProbeTimeout}
}

func (p *Prober) path() string {
	if p.Path != "" {
		return p.Path
	}
	return defaultFFprobePath
}

func (p *Prober) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return defaultProbeTimeout
}

// CheckInstalled verifies that ffprobe is available.
func (p *Prober) CheckInstalled(ctx context.Context) error {
	if err := exec.CommandContext(ctx, p.path(), "-version").Run(); err != nil {
		return fmt.Errorf("%w: %s", retry.ErrToolNotInstalled, p.path())
	}
	return nil
}

// Duration returns the container duration of a media file in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	out, err := p.run(ctx, "-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path)
	if err != nil {
		return 0, err
	}

	d, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(out), err)
	}
	return d, nil
}

// StreamDurations returns the video and audio stream durations of a file.
// Streams without a reported duration are returned as zero.
func (p *Prober) StreamDurations(ctx context.Context, path string) (video, audio float64, err error) {
	out, err := p.run(ctx, "-v", "error",
		"-show_entries", "stream=codec_type,duration",
		"-of", "csv=p=0",
		path)
	if err != nil {
		return 0, 0, err
	}
	video, audio = parseStreamDurations(out)
	return video, audio, nil
}

// parseStreamDurations parses ffprobe csv lines of "codec_type,duration".
func parseStreamDurations(out string) (video, audio float64) {
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.Split(strings.TrimSpace(line), ",")
		if len(parts) != 2 {
			continue
		}
		d, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			continue
		}
		switch parts[0] {
		case "video":
			video = d
		case "audio":
			audio = d
		}
	}
	return video, audio
}

func (p *Prober) run(ctx context.Context, args ...string) (string, error) {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	cmd := exec.CommandContext(probeCtx, p.path(), args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
