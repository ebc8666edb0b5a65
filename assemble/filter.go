// Package assemble renders per-segment videos and joins them into the
// final output, with caption overlays, background music, and duration
// verification.
package assemble

import (
	"fmt"
	"strings"
)

// escapeDrawtext escapes text for ffmpeg's drawtext filter. Apostrophes
// become curly quotes because a straight quote inside a quoted drawtext
// value cannot be escaped portably.
func escapeDrawtext(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, "'", "’")
	text = strings.ReplaceAll(text, ":", `\:`)
	return text
}

// wrapText greedily wraps text into lines of at most maxChars characters.
func wrapText(text string, maxChars int) []string {
	var lines []string
	var current []string
	length := 0

	for _, word := range strings.Fields(text) {
		if length+len(word)+1 <= maxChars {
			current = append(current, word)
			length += len(word) + 1
			continue
		}
		if len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
		}
		current = []string{word}
		length = len(word)
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines
}

// themeColor returns the caption color for narration text: the color of
// the first theme keyword mentioned, or the default. Longer keywords win
// ties so "red bull" beats "redbull" at the same offset.
func themeColor(text string, colors map[string]string, fallback string) string {
	lower := strings.ToLower(text)

	best := fallback
	bestIdx := len(lower) + 1
	bestLen := 0
	for keyword, color := range colors {
		idx := strings.Index(lower, keyword)
		if idx < 0 {
			continue
		}
		if idx < bestIdx || (idx == bestIdx && len(keyword) > bestLen) {
			best = color
			bestIdx = idx
			bestLen = len(keyword)
		}
	}
	return best
}

// captionFontSize picks a font size that keeps the wrapped block on
// screen: more lines get a smaller face.
func captionFontSize(lineCount, width int) int {
	switch {
	case width >= 3840:
		switch {
		case lineCount > 3:
			return 48
		case lineCount > 2:
			return 54
		default:
			return 64
		}
	case width >= 1920:
		switch {
		case lineCount > 3:
			return 32
		case lineCount > 2:
			return 36
		default:
			return 42
		}
	default:
		switch {
		case lineCount > 3:
			return 52
		case lineCount > 2:
			return 60
		default:
			return 72
		}
	}
}

// captionFilter builds the drawtext chain for wrapped caption lines:
// a shadow layer offset by 3px under each main line, block centered
// horizontally and anchored near the bottom edge. Returns "null" when
// there is nothing to draw.
func captionFilter(lines []string, fontFile, color string, width, height int) string {
	if len(lines) == 0 {
		return "null"
	}

	fontSize := captionFontSize(len(lines), width)
	lineHeight := fontSize * 6 / 5
	bottomMargin := 120
	if width > height {
		bottomMargin = height * 8 / 100
	}
	startY := height - bottomMargin - len(lines)*lineHeight

	var filters []string
	for i, line := range lines {
		escaped := escapeDrawtext(line)
		y := startY + i*lineHeight
		filters = append(filters,
			fmt.Sprintf("drawtext=text='%s':fontfile=%s:fontsize=%d:fontcolor=black@0.5:x=(w-text_w)/2+3:y=%d+3",
				escaped, fontFile, fontSize, y),
			fmt.Sprintf("drawtext=text='%s':fontfile=%s:fontsize=%d:fontcolor=%s:x=(w-text_w)/2:y=%d",
				escaped, fontFile, fontSize, color, y))
	}
	return strings.Join(filters, ",")
}

// blurPadFilter builds the vertical-format filtergraph: the trimmed clip
// is split into a blurred cover-cropped background and a sharp fitted
// foreground, overlaid center, with captions on top. The split is what
// lets one decoded stream feed both layers.
func blurPadFilter(start, duration float64, width, height int, textFilter string) string {
	return fmt.Sprintf(
		"[0:v]trim=start=%g:duration=%g,setpts=PTS-STARTPTS,split=2[for_bg][for_fg];"+
			"[for_bg]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,boxblur=20:5[bg];"+
			"[for_fg]scale=%d:%d:force_original_aspect_ratio=decrease[fg];"+
			"[bg][fg]overlay=(W-w)/2:(H-h)/2,%s[out]",
		start, duration, width, height, width, height, width, height, textFilter)
}

// letterboxFilter builds the horizontal-format filtergraph: trim, scale
// to fit, pad to frame, captions. When the clip is too short for the
// narration it is looped before trimming.
func letterboxFilter(start, duration, available float64, width, height int, textFilter string) string {
	fit := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black,%s[out]",
		width, height, width, height, textFilter)

	if available >= duration {
		return fmt.Sprintf("[0:v]trim=start=%g:duration=%g,setpts=PTS-STARTPTS,%s", start, duration, fit)
	}

	loops := int(duration/max(available, 1)) + 2
	return fmt.Sprintf(
		"[0:v]trim=start=%g,setpts=PTS-STARTPTS,loop=loop=%d:size=9999:start=0,"+
			"trim=duration=%g,setpts=PTS-STARTPTS,%s",
		start, loops, duration, fit)
}

// musicFilter builds the background music mix: loop the track under the
// full video, fade out over the last two seconds, duck to volume, and
// mix with the narration track.
func musicFilter(videoDuration, volume float64) string {
	fadeStart := videoDuration - 2
	if fadeStart < 0 {
		fadeStart = 0
	}
	return fmt.Sprintf(
		"[1:a]aloop=loop=-1:size=2e+09,atrim=0:%g,afade=t=out:st=%g:d=2,volume=%g[music];"+
			"[0:a][music]amix=inputs=2:duration=first[aout]",
		videoDuration, fadeStart, volume)
}
