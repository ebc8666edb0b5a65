// Package factcheck extracts verifiable claims from narration text and
// checks them against a built-in knowledge base, optionally escalating to
// web search.
package factcheck

import (
	"regexp"
	"strings"
)

// claimPatterns match sentence shapes that carry checkable facts. A
// sentence matching any pattern is extracted whole as one claim.
var claimPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)in (\d{4})`),
	regexp.MustCompile(`(?i)(\w+) (won|became|clinched|secured) .*(championship|title)`),
	regexp.MustCompile(`(?i)(first|youngest|oldest|most|fastest|slowest)`),
	regexp.MustCompile(`(?i)(\d+) (wins?|poles?|podiums?|championships?|points?)`),
	regexp.MustCompile(`(?i)(\w+) (joined|drove for|raced for|moved to) (\w+)`),
	regexp.MustCompile(`(?i)(won|finished|crashed|retired) (at|in|during) (\w+)`),
}

var sentenceSplit = regexp.MustCompile(`[.!?]`)

// ExtractClaims returns the sentences of text that contain verifiable
// claims. Sentences without a recognized claim shape are dropped.
func ExtractClaims(text string) []string {
	var claims []string
	for _, sentence := range sentenceSplit.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		for _, pattern := range claimPatterns {
			if pattern.MatchString(sentence) {
				claims = append(claims, sentence)
				break
			}
		}
	}
	return claims
}
