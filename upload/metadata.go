package upload

import (
	"fmt"
	"strings"

	"clipforge/script"
)

// sportsCategoryID is YouTube's category for motorsport content.
const sportsCategoryID = "17"

// estimatedSegmentSeconds stands in for a segment whose narration
// duration could not be measured.
const estimatedSegmentSeconds = 20

// Metadata is everything the upload call needs besides the file.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	CategoryID  string
	Privacy     string
}

// Keyword tag expansions applied when the narration mentions a driver
// or team.
var driverTags = map[string][]string{
	"vettel":     {"Vettel", "Sebastian Vettel"},
	"webber":     {"Webber", "Mark Webber"},
	"norris":     {"Norris", "Lando Norris"},
	"piastri":    {"Piastri", "Oscar Piastri"},
	"verstappen": {"Verstappen", "Max Verstappen"},
	"hamilton":   {"Hamilton", "Lewis Hamilton"},
	"leclerc":    {"Leclerc", "Charles Leclerc"},
	"alonso":     {"Alonso", "Fernando Alonso"},
}

var teamTags = map[string][]string{
	"red bull": {"Red Bull", "Red Bull Racing"},
	"mclaren":  {"McLaren", "McLaren F1"},
	"ferrari":  {"Ferrari", "Scuderia Ferrari"},
	"mercedes": {"Mercedes", "Mercedes AMG"},
}

// tagOrder fixes the iteration order so generated tags are stable.
var driverTagOrder = []string{"vettel", "webber", "norris", "piastri", "verstappen", "hamilton", "leclerc", "alonso"}
var teamTagOrder = []string{"red bull", "mclaren", "ferrari", "mercedes"}

// GenerateMetadata builds upload metadata from the script. Shorts get a
// #Shorts title suffix; long-form videos get a chapter list derived from
// section labels and the measured narration durations (estimated where a
// clip is missing), plus a sources section built from segment references.
func GenerateMetadata(sc *script.Script, privacy string, durations []float64) Metadata {
	var texts []string
	for _, seg := range sc.Segments {
		texts = append(texts, seg.Text)
	}
	fullText := strings.Join(texts, " ")

	title := sc.Title
	if !sc.LongForm {
		title += " #Shorts"
	}

	summary := fullText
	if runes := []rune(summary); len(runes) > 300 {
		summary = string(runes[:300]) + "..."
	}

	parts := []string{summary, ""}
	if sc.LongForm {
		if chapters := Chapters(sc, durations); chapters != "" {
			parts = append(parts, chapters, "")
		}
		if refs := referencesBlock(sc); refs != "" {
			parts = append(parts, refs, "")
		}
		parts = append(parts, "#F1 #Formula1")
	} else {
		parts = append(parts, "#F1 #Formula1 #Shorts")
	}

	return Metadata{
		Title:       title,
		Description: strings.Join(parts, "\n"),
		Tags:        deriveTags(fullText, sc.LongForm),
		CategoryID:  sportsCategoryID,
		Privacy:     privacy,
	}
}

// deriveTags builds the tag list from base tags plus any driver or team
// the narration mentions, capped at 30 unique entries.
func deriveTags(fullText string, longForm bool) []string {
	tags := []string{"F1", "Formula1", "Formula 1", "Racing"}
	if !longForm {
		tags = append(tags, "Shorts")
	}

	lower := strings.ToLower(fullText)
	for _, keyword := range driverTagOrder {
		if strings.Contains(lower, keyword) {
			tags = append(tags, driverTags[keyword]...)
		}
	}
	for _, keyword := range teamTagOrder {
		if strings.Contains(lower, keyword) {
			tags = append(tags, teamTags[keyword]...)
		}
	}

	seen := make(map[string]bool, len(tags))
	unique := tags[:0]
	for _, tag := range tags {
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, tag)
	}
	if len(unique) > 30 {
		unique = unique[:30]
	}
	return unique
}

// referencesBlock formats the script's citations into a description
// section. Sources are deduplicated by name in first-mention order; the
// first non-empty URL for a source wins.
func referencesBlock(sc *script.Script) string {
	type source struct {
		name string
		url  string
	}

	var sources []source
	index := make(map[string]int)
	for _, seg := range sc.Segments {
		for _, ref := range seg.References {
			if ref.Source == "" {
				continue
			}
			if i, ok := index[ref.Source]; ok {
				if sources[i].url == "" {
					sources[i].url = ref.URL
				}
				continue
			}
			index[ref.Source] = len(sources)
			sources = append(sources, source{name: ref.Source, url: ref.URL})
		}
	}
	if len(sources) == 0 {
		return ""
	}

	lines := []string{"SOURCES & REFERENCES", strings.Repeat("-", 30)}
	for _, s := range sources {
		lines = append(lines, "- "+s.name)
		if s.url != "" {
			lines = append(lines, "  "+s.url)
		}
	}
	lines = append(lines, "", "All facts have been verified against official sources.")
	return strings.Join(lines, "\n")
}

// Chapters renders the YouTube chapter list from section labels.
// Consecutive segments sharing a section form one chapter starting at
// the first segment's offset. Fewer than three sections produces no
// chapter list: YouTube ignores them and they just clutter the
// description.
func Chapters(sc *script.Script, durations []float64) string {
	type chapter struct {
		name  string
		start float64
	}

	var chapters []chapter
	seenSection := ""
	current := 0.0

	for i, seg := range sc.Segments {
		section := seg.Section
		if section == "" {
			section = "content"
		}
		if section != seenSection {
			chapters = append(chapters, chapter{name: chapterName(section), start: current})
			seenSection = section
		}

		if i < len(durations) && durations[i] > 0 {
			current += durations[i]
		} else {
			current += estimatedSegmentSeconds
		}
	}

	if len(chapters) < 3 {
		return ""
	}

	lines := []string{"CHAPTERS"}
	for _, ch := range chapters {
		m := int(ch.start) / 60
		s := int(ch.start) % 60
		lines = append(lines, fmt.Sprintf("%02d:%02d - %s", m, s, ch.name))
	}
	return strings.Join(lines, "\n")
}

// chapterName turns a section label into display form.
func chapterName(section string) string {
	words := strings.Fields(strings.ReplaceAll(section, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
