package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Result is one scored search hit. Transient, never persisted.
type Result struct {
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	Snippet        string   `json:"snippet"`
	Date           string   `json:"date,omitempty"`
	Source         string   `json:"source,omitempty"`
	RelevanceScore *float64 `json:"relevance_score"`
	ContentSummary string   `json:"content_summary,omitempty"`
	KeyPoints      []string `json:"key_points"`
}

// SearchError reports exhaustion of all search attempts.
type SearchError struct {
	Attempts int
	Err      error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// Provider issues one raw keyword search against the external engine.
type Provider interface {
	Results(ctx context.Context, query string, maxResults int) ([]Result, error)
}

const maxAttempts = 3

// Searcher wraps a Provider with bounded retries and best-effort page
// fetching + keyword analysis of each hit.
type Searcher struct {
	provider Provider
	fetcher  *Fetcher

	// sleep is swapped out in tests to observe inter-attempt delays.
	sleep func(time.Duration)
	rng   *rand.Rand
}

func NewSearcher(provider Provider) *Searcher {
	return &Searcher{
		provider: provider,
		fetcher:  NewFetcher(),
		sleep:    time.Sleep,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Search runs up to 3 attempts with a random 2-5s wait between them. A fetch
// or analysis failure degrades that single result; it never fails the batch.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int, fetchContent bool) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			// Jittered, not exponential: the upstream engine rate-limits bursts.
			delay := time.Duration(2000+s.rng.Intn(3000)) * time.Millisecond
			s.sleep(delay)
		}

		results, err := s.provider.Results(ctx, query, maxResults)
		if err != nil {
			lastErr = err
			continue
		}

		if fetchContent {
			for i := range results {
				s.enrich(ctx, &results[i], query)
			}
		}
		for i := range results {
			if results[i].KeyPoints == nil {
				results[i].KeyPoints = []string{}
			}
		}
		return results, nil
	}

	return nil, &SearchError{Attempts: maxAttempts, Err: lastErr}
}

func (s *Searcher) enrich(ctx context.Context, result *Result, query string) {
	parsed, err := url.Parse(result.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return
	}
	content, err := s.fetcher.PageText(ctx, result.URL)
	if err != nil || content == "" {
		return
	}
	analysis := Analyze(content, query)
	score := analysis.RelevanceScore
	result.RelevanceScore = &score
	result.ContentSummary = analysis.Summary
	result.KeyPoints = analysis.KeyPoints
}

// HTTPProvider queries a JSON keyword-search endpoint
// (GET {endpoint}?q=...&max_results=N -> [{title,url,snippet,date,source}]).
type HTTPProvider struct {
	endpoint string
	client   *http.Client
}

func NewHTTPProvider(endpoint string) *HTTPProvider {
	return &HTTPProvider{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *HTTPProvider) Results(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if p.endpoint == "" {
		return nil, fmt.Errorf("search endpoint is not configured")
	}

	u := p.endpoint + "?q=" + url.QueryEscape(query) + "&max_results=" + strconv.Itoa(maxResults)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	res, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search engine returned status %d", res.StatusCode)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	var raw []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Link    string `json:"link"`
		Href    string `json:"href"`
		Snippet string `json:"snippet"`
		Body    string `json:"body"`
		Date    string `json:"date"`
		Source  string `json:"source"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]Result, 0, len(raw))
	for _, item := range raw {
		link := item.URL
		if link == "" {
			link = item.Link
		}
		if link == "" {
			link = item.Href
		}
		snippet := item.Snippet
		if snippet == "" {
			snippet = item.Body
		}
		out = append(out, Result{
			Title:   item.Title,
			URL:     link,
			Snippet: snippet,
			Date:    item.Date,
			Source:  item.Source,
		})
	}
	return out, nil
}
