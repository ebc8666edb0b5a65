// Package thumbnail generates the YouTube thumbnail for a finished
// video: a frame grab from the final cut with a bold headline overlay.
package thumbnail

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"clipforge/config"
	"clipforge/internal/batch"
	"clipforge/internal/media"
	"clipforge/script"
)

const (
	thumbWidth   = 1280
	thumbHeight  = 720
	thumbQuality = "2" // JPEG quality, 1-31, lower is better
)

// ColorScheme holds the three colors a thumbnail style uses.
type ColorScheme struct {
	Background string
	Text       string
	Accent     string
}

// colorSchemes are the available thumbnail styles; team schemes are
// auto-detected from the script, the rest are chosen by flag.
var colorSchemes = map[string]ColorScheme{
	"ferrari":  {Background: "#E8002D", Text: "#FFFFFF", Accent: "#FFD700"},
	"redbull":  {Background: "#1E41FF", Text: "#FFFFFF", Accent: "#FF0000"},
	"mercedes": {Background: "#00D2BE", Text: "#000000", Accent: "#FFFFFF"},
	"mclaren":  {Background: "#FF8700", Text: "#000000", Accent: "#FFFFFF"},
	"default":  {Background: "#E8002D", Text: "#FFFFFF", Accent: "#FFD700"},
	"dramatic": {Background: "#000000", Text: "#FFFFFF", Accent: "#E8002D"},
	"gold":     {Background: "#1a1a1a", Text: "#FFD700", Accent: "#FFFFFF"},
}

// schemeKeywords map detectable themes to the words that signal them.
var schemeKeywords = map[string][]string{
	"ferrari":  {"ferrari", "leclerc", "sainz", "maranello", "prancing horse"},
	"redbull":  {"red bull", "verstappen", "perez", "horner", "newey"},
	"mercedes": {"mercedes", "hamilton", "russell", "wolff", "brackley"},
	"mclaren":  {"mclaren", "norris", "piastri", "zak brown", "woking"},
}

// hookWords are attention words that, found in a title, become the
// headline on their own.
var hookWords = []string{
	"SHOCKING", "REVEALED", "SECRET", "UNTOLD", "LEGENDARY",
	"EPIC", "INSANE", "BRUTAL", "DOMINANT", "HISTORIC",
	"REVOLUTION", "CONTROVERSY", "DRAMA", "BATTLE", "WAR",
}

// SchemeNames returns the valid color scheme names, sorted.
func SchemeNames() []string {
	names := make([]string, 0, len(colorSchemes))
	for name := range colorSchemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectScheme picks the color scheme whose keywords appear most often
// across the script title and narration.
func DetectScheme(sc *script.Script) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(sc.Title))
	for _, seg := range sc.Segments {
		b.WriteString(" ")
		b.WriteString(strings.ToLower(seg.Text))
	}
	combined := b.String()

	best, bestCount := "default", 0
	for _, scheme := range SchemeNames() {
		keywords, ok := schemeKeywords[scheme]
		if !ok {
			continue
		}
		count := 0
		for _, kw := range keywords {
			count += strings.Count(combined, kw)
		}
		if count > bestCount {
			best, bestCount = scheme, count
		}
	}
	return best
}

var headlinePatterns = []struct {
	re      *regexp.Regexp
	rewrite func([]string) string
}{
	{regexp.MustCompile(`the\s+(\w+)\s+of`), func(m []string) string { return strings.ToUpper(m[1]) }},
	{regexp.MustCompile(`how\s+(\w+)\s+changed`), func(m []string) string { return strings.ToUpper(m[1]) + " CHANGED" }},
	{regexp.MustCompile(`why\s+(\w+)`), func(m []string) string { return "WHY " + strings.ToUpper(m[1]) }},
	{regexp.MustCompile(`(secret|truth|mystery)`), func(m []string) string { return "THE " + strings.ToUpper(m[1]) }},
	{regexp.MustCompile(`(20\d{2})`), func(m []string) string { return m[1] }},
}

var skipWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "and": true, "or": true,
	"in": true, "on": true, "at": true, "to": true, "for": true,
}

// Headline derives the main and sub text for a thumbnail from the
// script title: a hook word if the title has one, then common title
// shapes, then the title's first content words.
func Headline(sc *script.Script) (main, sub string) {
	title := sc.Title
	upper := strings.ToUpper(title)

	for _, word := range hookWords {
		if strings.Contains(upper, word) {
			rest := strings.TrimSpace(strings.ReplaceAll(strings.ToLower(title), strings.ToLower(word), ""))
			return word, truncate(rest, 30)
		}
	}

	lower := strings.ToLower(title)
	for _, p := range headlinePatterns {
		if m := p.re.FindStringSubmatch(lower); m != nil {
			return truncate(p.rewrite(m), 20), ""
		}
	}

	words := strings.Fields(title)
	if len(words) >= 3 {
		var key []string
		for _, w := range words {
			if !skipWords[strings.ToLower(w)] {
				key = append(key, w)
			}
			if len(key) == 3 {
				break
			}
		}
		return truncate(strings.ToUpper(strings.Join(key, " ")), 25), ""
	}

	return truncate(upper, 20), ""
}

func truncate(s string, n int) string {
	if runes := []rune(s); len(runes) > n {
		return string(runes[:n])
	}
	return s
}

// Generator produces the project thumbnail from the final video.
type Generator struct {
	Prober  *media.Prober
	Encoder *media.Encoder
	Config  *config.Config
}

// NewGenerator creates a generator over the given tools.
func NewGenerator(prober *media.Prober, encoder *media.Encoder, cfg *config.Config) *Generator {
	return &Generator{Prober: prober, Encoder: encoder, Config: cfg}
}

// Generate builds the thumbnail: grab a frame from the final video,
// overlay the headline, write output/thumbnail.jpg. Empty text or scheme
// select auto-detection.
func (g *Generator) Generate(ctx context.Context, project script.Project, sc *script.Script, customText, schemeName string) error {
	finalPath := project.FinalPath()
	if !batch.ExistsNonEmpty(finalPath) {
		return fmt.Errorf("%w: final video not assembled", batch.ErrMissingInput)
	}

	if schemeName == "" {
		schemeName = DetectScheme(sc)
	}
	scheme, ok := colorSchemes[schemeName]
	if !ok {
		return fmt.Errorf("unknown color scheme %q (valid: %s)", schemeName, strings.Join(SchemeNames(), ", "))
	}

	var main, sub string
	if customText != "" {
		main = strings.ToUpper(customText)
	} else {
		main, sub = Headline(sc)
	}

	frame := project.ThumbnailPath() + ".frame.jpg"
	if err := g.extractFrame(ctx, finalPath, frame); err != nil {
		return err
	}
	defer os.Remove(frame)

	return g.Encoder.Run(ctx,
		"-i", frame,
		"-vf", overlayFilter(main, sub, scheme, g.Config.FontFile()),
		"-q:v", thumbQuality,
		project.ThumbnailPath())
}

// extractFrame grabs a frame from partway into the video, trying later
// offsets first so the thumbnail comes from the meat of the video
// rather than the opening seconds.
func (g *Generator) extractFrame(ctx context.Context, videoPath, outputPath string) error {
	duration, err := g.Prober.Duration(ctx, videoPath)
	if err != nil {
		return fmt.Errorf("probe final video: %w", err)
	}

	var lastErr error
	for _, offset := range frameOffsets(duration) {
		err := g.Encoder.Run(ctx,
			"-ss", fmt.Sprintf("%g", offset),
			"-i", videoPath,
			"-vframes", "1",
			"-q:v", thumbQuality,
			"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black",
				thumbWidth, thumbHeight, thumbWidth, thumbHeight),
			outputPath)
		if err != nil {
			lastErr = err
			continue
		}
		if batch.ExistsNonEmpty(outputPath) {
			return nil
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no frame produced")
	}
	return fmt.Errorf("extract thumbnail frame: %w", lastErr)
}

// frameOffsets returns candidate grab points inside the video, skipping
// the very start and end.
func frameOffsets(duration float64) []float64 {
	candidates := []float64{duration * 0.1, duration * 0.25, duration * 0.4, duration * 0.15, 30}
	var valid []float64
	for _, t := range candidates {
		if t > 0 && t < duration {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		valid = []float64{min(30, duration/2)}
	}
	return valid
}

// overlayFilter builds the thumbnail text overlay: a darkening box over
// the lower half, an accent bar, shadowed headline, and optional sub
// text.
func overlayFilter(main, sub string, scheme ColorScheme, fontFile string) string {
	escape := func(s string) string {
		s = strings.ReplaceAll(s, "'", "’")
		return strings.ReplaceAll(s, ":", `\:`)
	}
	main = escape(main)
	sub = escape(sub)

	mainSize := 100
	switch {
	case len(main) > 15:
		mainSize = 60
	case len(main) > 10:
		mainSize = 80
	}

	mainY := 320
	if sub != "" {
		mainY = 280
	}
	subY := mainY + mainSize + 20

	filters := []string{
		"drawbox=x=0:y=ih*0.5:w=iw:h=ih*0.5:color=black@0.6:t=fill",
		fmt.Sprintf("drawbox=x=0:y=ih-8:w=iw:h=8:color=%s:t=fill", scheme.Accent),
		fmt.Sprintf("drawtext=text='%s':fontfile=%s:fontsize=%d:fontcolor=black@0.8:x=(w-text_w)/2+4:y=%d+4",
			main, fontFile, mainSize, mainY),
		fmt.Sprintf("drawtext=text='%s':fontfile=%s:fontsize=%d:fontcolor=%s:x=(w-text_w)/2:y=%d:borderw=3:bordercolor=%s",
			main, fontFile, mainSize, scheme.Text, mainY, scheme.Background),
	}
	if sub != "" {
		filters = append(filters,
			fmt.Sprintf("drawtext=text='%s':fontfile=%s:fontsize=36:fontcolor=%s@0.9:x=(w-text_w)/2:y=%d",
				sub, fontFile, scheme.Text, subY))
	}
	return strings.Join(filters, ",")
}
