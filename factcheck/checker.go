package factcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"clipforge/internal/batch"
	"clipforge/internal/storage"
	"clipforge/script"
)

// Segment verdicts, ordered from best to worst.
const (
	VerdictVerified          = "verified"
	VerdictPartiallyVerified = "partially_verified"
	VerdictUnverified        = "unverified"
	VerdictDisputed          = "disputed"
	VerdictNoClaims          = "no_claims"
)

// ClaimResult is the verdict for one extracted claim.
type ClaimResult struct {
	Claim      string   `json:"claim"`
	Verdict    string   `json:"verdict"`
	Confidence float64  `json:"confidence"`
	Sources    []string `json:"sources,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// SegmentResult aggregates the claim verdicts for one segment.
type SegmentResult struct {
	SegmentID int           `json:"segment_id"`
	Text      string        `json:"text"`
	Verdict   string        `json:"verdict"`
	Claims    []ClaimResult `json:"claims,omitempty"`
}

// Report is the persisted output of a fact check run.
type Report struct {
	Project   string          `json:"project"`
	Timestamp time.Time       `json:"timestamp"`
	Stats     map[string]int  `json:"stats"`
	Results   []SegmentResult `json:"results"`
}

// Checker runs claim verification over script segments. A nil Web
// disables search escalation; claims outside the knowledge base then
// stay unverified.
type Checker struct {
	KB  *KnowledgeBase
	Web *WebSearcher

	mu      sync.Mutex
	results []SegmentResult
}

// NewChecker creates a checker over the given knowledge base.
func NewChecker(kb *KnowledgeBase, web *WebSearcher) *Checker {
	return &Checker{KB: kb, Web: web}
}

// Jobs builds one verification job per segment. Results accumulate in
// the checker; call Report after the batch completes.
func (c *Checker) Jobs(sc *script.Script) []batch.Job {
	jobs := make([]batch.Job, 0, len(sc.Segments))
	for i := range sc.Segments {
		i := i
		jobs = append(jobs, batch.Job{
			SegmentID: i,
			Action: func(ctx context.Context) error {
				result := c.CheckSegment(ctx, i, sc.Segments[i].Text)
				c.mu.Lock()
				c.results = append(c.results, result)
				c.mu.Unlock()
				return nil
			},
		})
	}
	return jobs
}

// CheckSegment extracts and verifies every claim in one segment's text.
func (c *Checker) CheckSegment(ctx context.Context, id int, text string) SegmentResult {
	claims := ExtractClaims(text)
	if len(claims) == 0 {
		return SegmentResult{SegmentID: id, Text: text, Verdict: VerdictNoClaims}
	}

	results := make([]ClaimResult, 0, len(claims))
	for _, claim := range claims {
		results = append(results, c.checkClaim(ctx, claim))
	}

	return SegmentResult{
		SegmentID: id,
		Text:      text,
		Verdict:   overallVerdict(results),
		Claims:    results,
	}
}

// checkClaim tries the knowledge base first, then web search. High
// confidence knowledge base hits short-circuit the network entirely.
func (c *Checker) checkClaim(ctx context.Context, claim string) ClaimResult {
	if kb := c.KB.Lookup(claim); kb != nil && kb.Confidence >= 0.9 {
		return *kb
	}

	if c.Web != nil {
		if result, err := c.Web.Check(ctx, claim); err == nil {
			return *result
		}
	}

	notes := "not found in knowledge base; enable --web-search for online verification"
	if c.Web != nil {
		notes = "web search failed; claim could not be verified"
	}
	return ClaimResult{Claim: claim, Verdict: VerdictUnverified, Notes: notes}
}

// overallVerdict folds claim verdicts into one segment verdict: all
// verified wins, any dispute loses, a mix is partial.
func overallVerdict(claims []ClaimResult) string {
	verified, disputed := 0, 0
	for _, c := range claims {
		switch c.Verdict {
		case VerdictVerified:
			verified++
		case VerdictDisputed:
			disputed++
		}
	}
	switch {
	case disputed > 0:
		return VerdictDisputed
	case verified == len(claims):
		return VerdictVerified
	case verified > 0:
		return VerdictPartiallyVerified
	default:
		return VerdictUnverified
	}
}

// Report assembles the accumulated results, ordered by segment id.
func (c *Checker) Report(project string) *Report {
	c.mu.Lock()
	results := make([]SegmentResult, len(c.results))
	copy(results, c.results)
	c.mu.Unlock()

	sort.Slice(results, func(i, j int) bool {
		return results[i].SegmentID < results[j].SegmentID
	})

	stats := map[string]int{
		VerdictVerified:          0,
		VerdictPartiallyVerified: 0,
		VerdictUnverified:        0,
		VerdictDisputed:          0,
		VerdictNoClaims:          0,
	}
	for _, r := range results {
		stats[r.Verdict]++
	}

	return &Report{
		Project:   project,
		Timestamp: time.Now(),
		Stats:     stats,
		Results:   results,
	}
}

// Write persists the report to the project's fact check results file.
func (r *Report) Write(path string) error {
	writer, err := storage.NewAtomicWriter(path)
	if err != nil {
		return fmt.Errorf("write fact check report: %w", err)
	}
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		writer.Abort()
		return fmt.Errorf("write fact check report: %w", err)
	}
	return writer.Commit()
}

// StrictExitCode maps report stats onto the strict-mode exit code:
// disputed claims are worse than unverified ones.
func (r *Report) StrictExitCode() int {
	switch {
	case r.Stats[VerdictDisputed] > 0:
		return 2
	case r.Stats[VerdictUnverified] > 0 || r.Stats[VerdictPartiallyVerified] > 0:
		return 1
	default:
		return 0
	}
}

// ReferenceIssues summarizes citation coverage across a script.
type ReferenceIssues struct {
	MissingReferences    []int           `json:"missing_references"`
	IncompleteReferences []IncompleteRef `json:"incomplete_references"`
	TotalReferences      int             `json:"total_references"`
	SegmentsWithRefs     int             `json:"segments_with_refs"`
	SegmentsWithoutRefs  int             `json:"segments_without_refs"`
}

// IncompleteRef is a citation missing its source or URL.
type IncompleteRef struct {
	SegmentID int              `json:"segment_id"`
	Reference script.Reference `json:"reference"`
}

// ValidateReferences checks that every segment carries complete
// citations, used for long-form scripts.
func ValidateReferences(sc *script.Script) ReferenceIssues {
	var issues ReferenceIssues
	for i, seg := range sc.Segments {
		if len(seg.References) == 0 {
			issues.MissingReferences = append(issues.MissingReferences, i)
			issues.SegmentsWithoutRefs++
			continue
		}
		issues.SegmentsWithRefs++
		issues.TotalReferences += len(seg.References)
		for _, ref := range seg.References {
			if ref.Source == "" || ref.URL == "" {
				issues.IncompleteReferences = append(issues.IncompleteReferences, IncompleteRef{
					SegmentID: i,
					Reference: ref,
				})
			}
		}
	}
	return issues
}
