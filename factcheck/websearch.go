package factcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"clipforge/internal/retry"
)

const defaultSerpBaseURL = "https://serpapi.com"

// contradictionWords flag search snippets that dispute a claim rather
// than support it.
var contradictionWords = []string{"not true", "false", "incorrect", "myth", "debunked"}

// WebSearcher verifies claims through the SerpAPI search endpoint.
type WebSearcher struct {
	// APIKey is the SerpAPI credential.
	APIKey string
	// QueryPrefix is prepended to every claim to scope the search.
	QueryPrefix string
	// ResultCount is how many organic results to request.
	ResultCount int

	// BaseURL overrides the API host, used by tests.
	BaseURL string
	// HTTPClient overrides the default client (10 second timeout).
	HTTPClient *http.Client
}

// NewWebSearcher creates a searcher with the given credential.
func NewWebSearcher(apiKey string) *WebSearcher {
	return &WebSearcher{
		APIKey:      apiKey,
		QueryPrefix: "F1 Formula 1",
		ResultCount: 5,
	}
}

type serpResponse struct {
	OrganicResults []serpResult `json:"organic_results"`
}

type serpResult struct {
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Check verifies one claim through web search. Disputed beats verified:
// any contradiction word in the result snippets marks the claim disputed
// regardless of supporting hits.
func (w *WebSearcher) Check(ctx context.Context, claim string) (*ClaimResult, error) {
	if w.APIKey == "" {
		return nil, fmt.Errorf("%w: serpapi key not configured", retry.ErrUnauthorized)
	}

	params := url.Values{}
	params.Set("q", strings.TrimSpace(w.QueryPrefix+" "+claim))
	params.Set("api_key", w.APIKey)
	params.Set("engine", "google")
	params.Set("num", strconv.Itoa(w.resultCount()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		w.baseURL()+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := w.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: serpapi returned %d", retry.ErrUnauthorized, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search returned %d", resp.StatusCode)
	}

	var data serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	if len(data.OrganicResults) == 0 {
		return &ClaimResult{
			Claim:      claim,
			Verdict:    VerdictUnverified,
			Confidence: 0.3,
			Notes:      "web search found no results",
		}, nil
	}

	sources := make([]string, 0, 3)
	var snippets strings.Builder
	for i, r := range data.OrganicResults {
		if i < 3 && r.Link != "" {
			sources = append(sources, r.Link)
		}
		snippets.WriteString(strings.ToLower(r.Snippet))
		snippets.WriteString(" ")
	}

	for _, word := range contradictionWords {
		if strings.Contains(snippets.String(), word) {
			return &ClaimResult{
				Claim:      claim,
				Verdict:    VerdictDisputed,
				Confidence: 0.5,
				Sources:    sources,
				Notes:      "search results contradict the claim",
			}, nil
		}
	}

	return &ClaimResult{
		Claim:      claim,
		Verdict:    VerdictVerified,
		Confidence: 0.7,
		Sources:    sources,
		Notes:      "web search found supporting information",
	}, nil
}

func (w *WebSearcher) baseURL() string {
	if w.BaseURL != "" {
		return w.BaseURL
	}
	return defaultSerpBaseURL
}

func (w *WebSearcher) resultCount() int {
	if w.ResultCount > 0 {
		return w.ResultCount
	}
	return 5
}

func (w *WebSearcher) httpClient() *http.Client {
	if w.HTTPClient != nil {
		return w.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}
