package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const defaultWikipediaEndpoint = "https://en.wikipedia.org/w/api.php"

// WikipediaTool looks up encyclopedia articles and returns short factual
// summaries via the MediaWiki API.
type WikipediaTool struct {
	endpoint   string
	maxResults int
	httpClient *http.Client
}

// NewWikipediaTool creates a Wikipedia lookup tool.
func NewWikipediaTool() *WikipediaTool {
	return &WikipediaTool{
		endpoint:   defaultWikipediaEndpoint,
		maxResults: 3,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewWikipediaToolWithEndpoint overrides the API endpoint. Useful for
// tests and non-English wikis.
func NewWikipediaToolWithEndpoint(endpoint string) *WikipediaTool {
	t := NewWikipediaTool()
	t.endpoint = endpoint
	return t
}

func (w *WikipediaTool) Name() string {
	return "wikipedia_search"
}

func (w *WikipediaTool) Description() string {
	return "Get general information and factual summaries from Wikipedia. Input a topic or question, get back short article extracts."
}

func (w *WikipediaTool) Parameters() map[string]any {
	return queryParameters("The topic or question to look up on Wikipedia")
}

func (w *WikipediaTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, ok := queryArg(args)
	if !ok {
		return "", fmt.Errorf("query is required")
	}
	return w.search(ctx, query)
}

// wikiPage is one article in the generator=search response. Index is the
// search ranking; the pages object itself is unordered.
type wikiPage struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	Index   int    `json:"index"`
}

func (w *WikipediaTool) search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("generator", "search")
	params.Set("gsrsearch", query)
	params.Set("gsrlimit", fmt.Sprintf("%d", w.maxResults))
	params.Set("prop", "extracts")
	params.Set("exintro", "1")
	params.Set("explaintext", "1")
	params.Set("exchars", "600")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "research-bot/1.0 (https://github.com; research assistant)")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Wikipedia: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikipedia http %d", resp.StatusCode)
	}

	var payload struct {
		Query struct {
			Pages map[string]wikiPage `json:"pages"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}

	pages := make([]wikiPage, 0, len(payload.Query.Pages))
	for _, p := range payload.Query.Pages {
		pages = append(pages, p)
	}
	if len(pages) == 0 {
		return "No Wikipedia articles found for that query.", nil
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })

	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p.Title)
		b.WriteString(":\n")
		extract := strings.TrimSpace(p.Extract)
		if extract == "" {
			extract = "(no summary available)"
		}
		b.WriteString(extract)
	}
	return b.String(), nil
}
