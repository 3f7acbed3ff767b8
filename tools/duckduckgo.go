package tools

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"research-bot/metrics"
	"research-bot/retry"
)

const (
	defaultDuckDuckGoEndpoint = "https://lite.duckduckgo.com/lite/"
	ddgUserAgent              = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	ddgMaxResults             = 5
)

// DuckDuckGoTool searches the web through DuckDuckGo's lite HTML
// interface. DuckDuckGo aggressively rate-limits scrapers, so every
// search goes through the retry wrapper and the tool degrades to a
// descriptive message instead of failing the chat turn.
type DuckDuckGoTool struct {
	endpoint   string
	httpClient *http.Client
	caller     *retry.Caller
}

// NewDuckDuckGoTool creates a web search tool with the given retry policy.
func NewDuckDuckGoTool(policy retry.Policy) *DuckDuckGoTool {
	t := &DuckDuckGoTool{
		endpoint:   defaultDuckDuckGoEndpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	t.caller = retry.New(t.search, policy, retry.WithNotify(func(msg string) {
		metrics.SearchRetriesTotal.Inc()
		slog.Warn("duckduckgo retry", "detail", msg)
	}))
	return t
}

// NewDuckDuckGoToolWithEndpoint overrides the endpoint, mainly for tests.
func NewDuckDuckGoToolWithEndpoint(endpoint string, policy retry.Policy) *DuckDuckGoTool {
	t := NewDuckDuckGoTool(policy)
	t.endpoint = endpoint
	return t
}

func (d *DuckDuckGoTool) Name() string {
	return "web_search"
}

func (d *DuckDuckGoTool) Description() string {
	return "Search current web results using DuckDuckGo. Use for recent events and anything not covered by Wikipedia or arXiv."
}

func (d *DuckDuckGoTool) Parameters() map[string]any {
	return queryParameters("The web search query")
}

// Execute never returns an error: search failures resolve to descriptive
// text so the agent can relay them to the user.
func (d *DuckDuckGoTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, ok := queryArg(args)
	if !ok {
		return "", fmt.Errorf("query is required")
	}
	return d.caller.Safe(ctx, query), nil
}

// search is a single unprotected attempt against the lite endpoint.
// Rate-limit responses surface as errors whose text carries the status
// code, which is what the retry classifier keys on.
func (d *DuckDuckGoTool) search(ctx context.Context, query string) (string, error) {
	form := url.Values{}
	form.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", ddgUserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling DuckDuckGo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("duckduckgo rate limit (http 429)")
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	results := parseLiteResults(string(body))
	if len(results) == 0 {
		return "No results found.", nil
	}
	return formatWebResults(results), nil
}

// webResult is one hit scraped from the lite page.
type webResult struct {
	Title   string
	URL     string
	Snippet string
}

// parseLiteResults walks the lite page's DOM. Result links carry
// class="result-link"; the snippet lives in the following
// class="result-snippet" table cell.
func parseLiteResults(page string) []webResult {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil
	}

	var results []webResult
	var snippets []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				if hasClass(n, "result-link") {
					href := attrValue(n, "href")
					title := strings.TrimSpace(nodeText(n))
					if href != "" && title != "" {
						results = append(results, webResult{Title: title, URL: href})
					}
				}
			case "td":
				if hasClass(n, "result-snippet") {
					snippets = append(snippets, strings.TrimSpace(nodeText(n)))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for i := range results {
		if i < len(snippets) {
			results[i].Snippet = snippets[i]
		}
	}
	if len(results) > ddgMaxResults {
		results = results[:ddgMaxResults]
	}
	return results
}

func formatWebResults(results []webResult) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(r.Title)
		b.WriteString(" (")
		b.WriteString(r.URL)
		b.WriteString(")")
		if r.Snippet != "" {
			b.WriteString("\n  ")
			b.WriteString(r.Snippet)
		}
	}
	return b.String()
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrValue(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
