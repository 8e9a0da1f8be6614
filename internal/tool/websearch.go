package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/jsonschema-go/jsonschema"
)

const duckDuckGoURL = "https://html.duckduckgo.com/html/"

// WebSearch queries the DuckDuckGo HTML endpoint and returns the top
// results as plain text. Failures are converted to a textual result so
// the model always gets something to reason over.
type WebSearch struct {
	http       *http.Client
	endpoint   string
	maxResults int
	schema     *jsonschema.Schema
}

// WebSearchInput is the argument schema for the web_search tool.
type WebSearchInput struct {
	Query string `json:"query" jsonschema_description:"The search query string"`
}

// WebSearchOption configures a WebSearch.
type WebSearchOption func(*WebSearch)

// WithSearchEndpoint redirects queries, mainly for tests.
func WithSearchEndpoint(endpoint string) WebSearchOption {
	return func(w *WebSearch) { w.endpoint = endpoint }
}

// WithMaxResults caps how many results are returned. Default: 5.
func WithMaxResults(n int) WebSearchOption {
	return func(w *WebSearch) {
		if n > 0 {
			w.maxResults = n
		}
	}
}

// NewWebSearch builds the web_search tool.
func NewWebSearch(opts ...WebSearchOption) *WebSearch {
	w := &WebSearch{
		http:       &http.Client{Timeout: 10 * time.Second},
		endpoint:   duckDuckGoURL,
		maxResults: 5,
		schema:     mustSchema[WebSearchInput](),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *WebSearch) Name() string { return "web_search" }

func (w *WebSearch) Description() string {
	return "Search the web for information using DuckDuckGo."
}

func (w *WebSearch) Schema() *jsonschema.Schema { return w.schema }

// Invoke implements Tool. Search failures come back as a textual
// result, never as an error.
func (w *WebSearch) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var input WebSearchInput
	if err := json.Unmarshal(args, &input); err != nil {
		return fmt.Sprintf("Error performing web search: bad arguments: %v", err), nil
	}
	if strings.TrimSpace(input.Query) == "" {
		return "Error performing web search: empty query", nil
	}

	results, err := w.search(ctx, input.Query)
	if err != nil {
		return fmt.Sprintf("Error performing web search: %v", err), nil
	}
	if len(results) == 0 {
		return "No results found for query: " + input.Query, nil
	}

	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, r.title, r.url, r.snippet)
	}
	return strings.TrimSpace(b.String()), nil
}

type searchResult struct {
	title   string
	url     string
	snippet string
}

func (w *WebSearch) search(ctx context.Context, query string) ([]searchResult, error) {
	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "tutorgraph/1.0")

	resp, err := w.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %d", resp.StatusCode)
	}

	page, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var results []searchResult
	page.Find("div.result").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		link := div.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return true
		}
		href, _ := link.Attr("href")
		results = append(results, searchResult{
			title:   title,
			url:     href,
			snippet: strings.TrimSpace(div.Find(".result__snippet").Text()),
		})
		return len(results) < w.maxResults
	})
	return results, nil
}
