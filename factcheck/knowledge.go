package factcheck

import (
	"fmt"
	"strings"
)

// Record is one statistical record in the knowledge base. Holders lists
// every name credited with the record (shared records have several).
type Record struct {
	Holders []string
	Value   string
}

// KnowledgeBase holds facts that can be verified without a network call.
type KnowledgeBase struct {
	// Champions maps a driver surname to the years they won the title.
	Champions map[string][]string
	// Teams maps a team name to its current driver surnames.
	Teams map[string][]string
	// Records maps a record phrase ("most wins") to its holder and value.
	Records map[string]Record
}

// DefaultKnowledgeBase returns the built-in Formula 1 fact set.
func DefaultKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		Champions: map[string][]string{
			"verstappen": {"2021", "2022", "2023", "2024"},
			"hamilton":   {"2008", "2014", "2015", "2017", "2018", "2019", "2020"},
			"vettel":     {"2010", "2011", "2012", "2013"},
			"alonso":     {"2005", "2006"},
			"raikkonen":  {"2007"},
			"button":     {"2009"},
			"rosberg":    {"2016"},
			"schumacher": {"1994", "1995", "2000", "2001", "2002", "2003", "2004"},
		},
		Teams: map[string][]string{
			"red bull":     {"verstappen", "perez"},
			"ferrari":      {"leclerc", "sainz"},
			"mercedes":     {"hamilton", "russell"},
			"mclaren":      {"norris", "piastri"},
			"aston martin": {"alonso", "stroll"},
			"alpine":       {"gasly", "ocon"},
			"williams":     {"albon", "sargeant"},
			"haas":         {"magnussen", "hulkenberg"},
			"kick sauber":  {"bottas", "zhou"},
			"rb":           {"tsunoda", "ricciardo"},
		},
		Records: map[string]Record{
			"most wins":          {Holders: []string{"hamilton"}, Value: "104"},
			"most poles":         {Holders: []string{"hamilton"}, Value: "104"},
			"most championships": {Holders: []string{"schumacher", "hamilton"}, Value: "7"},
			"most podiums":       {Holders: []string{"hamilton"}, Value: "197"},
			"youngest champion":  {Holders: []string{"vettel"}, Value: "23 years"},
			"oldest champion":    {Holders: []string{"fangio"}, Value: "46 years"},
		},
	}
}

// Lookup checks a claim against the knowledge base. A nil result means
// the claim is not covered and needs web verification.
func (kb *KnowledgeBase) Lookup(claim string) *ClaimResult {
	lower := strings.ToLower(claim)

	for driver, years := range kb.Champions {
		if !strings.Contains(lower, driver) {
			continue
		}
		for _, year := range years {
			if strings.Contains(claim, year) {
				return &ClaimResult{
					Claim:      claim,
					Verdict:    VerdictVerified,
					Confidence: 1.0,
					Sources:    []string{"F1 Official Records"},
					Notes:      fmt.Sprintf("%s was champion in %s", title(driver), year),
				}
			}
		}
	}

	for team, drivers := range kb.Teams {
		if !strings.Contains(lower, team) {
			continue
		}
		for _, driver := range drivers {
			if strings.Contains(lower, driver) {
				return &ClaimResult{
					Claim:      claim,
					Verdict:    VerdictVerified,
					Confidence: 0.95,
					Sources:    []string{"Current F1 Team Lineup"},
					Notes:      fmt.Sprintf("%s drives for %s", title(driver), title(team)),
				}
			}
		}
	}

	for phrase, record := range kb.Records {
		if !strings.Contains(lower, phrase) {
			continue
		}
		for _, holder := range record.Holders {
			if strings.Contains(lower, holder) {
				return &ClaimResult{
					Claim:      claim,
					Verdict:    VerdictVerified,
					Confidence: 0.9,
					Sources:    []string{"F1 Statistics"},
					Notes:      fmt.Sprintf("%s holds the %s record (%s)", title(holder), phrase, record.Value),
				}
			}
		}
	}

	return nil
}

// title uppercases the first letter of each space-separated word.
func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
