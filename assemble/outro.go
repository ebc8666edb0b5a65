package assemble

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"clipforge/internal/batch"
	"clipforge/script"
)

// Outro timing. The credits line holds for the first few seconds of the
// shared voiceover, then the channel branding takes over.
const (
	creditsSeconds = 5.0
	creditsFadeIn  = 0.5
	creditsFadeOut = 0.5
)

// outroFilter builds the outro overlay on a black frame: a "sources in
// description" credit visible up front, channel name and call-to-action
// for the remainder, with fades at both ends.
func outroFilter(duration float64, width, height int, channelName, fontFile string) string {
	titleSize, channelSize, ctaSize := 48, 64, 32
	if width >= 3840 {
		titleSize, channelSize, ctaSize = 72, 96, 48
	}
	centerY := height * 45 / 100
	ctaY := height * 58 / 100

	fadeOutStart := duration - creditsFadeOut
	if fadeOutStart < 0 {
		fadeOutStart = 0
	}

	return fmt.Sprintf(
		"[0:v]format=yuv420p,"+
			"drawtext=text='%s':fontfile=%s:fontsize=%d:fontcolor=white:x=(w-text_w)/2:y=%d:enable='lt(t,%g)',"+
			"drawtext=text='%s':fontfile=%s:fontsize=%d:fontcolor=#E8002D:x=(w-text_w)/2:y=%d:enable='gte(t,%g)',"+
			"drawtext=text='%s':fontfile=%s:fontsize=%d:fontcolor=white:x=(w-text_w)/2:y=%d:enable='gte(t,%g)',"+
			"fade=t=in:st=0:d=%g,fade=t=out:st=%g:d=%g[out]",
		escapeDrawtext("Sources & References in Description"), fontFile, titleSize, centerY, creditsSeconds,
		escapeDrawtext(channelName), fontFile, channelSize, centerY, creditsSeconds,
		escapeDrawtext("LIKE - SUBSCRIBE - BELL"), fontFile, ctaSize, ctaY, creditsSeconds,
		creditsFadeIn, fadeOutStart, creditsFadeOut)
}

// RenderOutro renders the long-form outro clip from the shared voiceover:
// black frame, credits overlay, channel branding. Returns false without
// error when the shared outro audio is not installed, so projects without
// the asset just skip the outro.
func (a *Assembler) RenderOutro(ctx context.Context, project script.Project) (bool, error) {
	audioPath := a.Config.OutroAudio()
	if !batch.ExistsNonEmpty(audioPath) {
		return false, nil
	}

	duration, err := a.Prober.Duration(ctx, audioPath)
	if err != nil {
		return false, fmt.Errorf("probe outro audio: %w", err)
	}

	if err := os.MkdirAll(project.TempDir(), 0755); err != nil {
		return false, err
	}

	source := fmt.Sprintf("color=black:s=%dx%d:d=%g:r=%d",
		a.Config.OutputWidth, a.Config.OutputHeight, duration, a.Config.FrameRate)

	err = a.Encoder.Run(ctx,
		"-f", "lavfi",
		"-i", source,
		"-i", audioPath,
		"-filter_complex", outroFilter(duration, a.Config.OutputWidth, a.Config.OutputHeight,
			a.Config.ChannelName, a.Config.FontFile()),
		"-map", "[out]",
		"-map", "1:a",
		"-c:v", a.Config.VideoEncoder,
		"-b:v", a.Config.VideoBitrate,
		"-r", strconv.Itoa(a.Config.FrameRate),
		"-c:a", "aac", "-b:a", a.Config.AudioBitrate,
		"-t", fmt.Sprintf("%g", duration),
		"-movflags", "+faststart",
		project.OutroPath())
	if err != nil {
		return false, fmt.Errorf("render outro: %w", err)
	}
	return true, nil
}
