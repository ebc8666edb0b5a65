package assemble

import (
	"context"
	"fmt"
	"strings"

	"clipforge/internal/media"
	"clipforge/internal/storage"
	"clipforge/script"
)

// estimatedWordsPerSec approximates narration pace (150 words a minute)
// for segments whose audio has not been generated yet.
const estimatedWordsPerSec = 2.5

// WriteCaptions generates an SRT caption sidecar for the project. Cue
// timings come from measured narration durations, falling back to a
// word-count estimate when a clip is missing.
func WriteCaptions(ctx context.Context, prober *media.Prober, project script.Project, sc *script.Script) error {
	var b strings.Builder
	current := 0.0

	for i, seg := range sc.Segments {
		duration, err := prober.Duration(ctx, project.AudioPath(i))
		if err != nil {
			duration = float64(len(strings.Fields(seg.Text))) / estimatedWordsPerSec
		}

		start := current
		end := current + duration
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, srtTime(start), srtTime(end), seg.Text)
		current = end
	}

	writer, err := storage.NewAtomicWriter(project.CaptionsPath())
	if err != nil {
		return fmt.Errorf("write captions: %w", err)
	}
	if _, err := writer.Write([]byte(b.String())); err != nil {
		writer.Abort()
		return fmt.Errorf("write captions: %w", err)
	}
	return writer.Commit()
}

// srtTime formats seconds as the SRT timestamp HH:MM:SS,mmm.
func srtTime(seconds float64) string {
	h := int(seconds) / 3600
	m := (int(seconds) % 3600) / 60
	s := seconds - float64(h*3600+m*60)
	return strings.Replace(fmt.Sprintf("%02d:%02d:%06.3f", h, m, s), ".", ",", 1)
}
