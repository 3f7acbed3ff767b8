package tools

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultArxivEndpoint = "http://export.arxiv.org/api/query"

// ArxivTool searches arXiv for research papers and returns titles,
// authors, and abstract snippets from the Atom export API.
type ArxivTool struct {
	endpoint   string
	maxResults int
	maxSummary int
	httpClient *http.Client
}

// NewArxivTool creates an arXiv search tool.
func NewArxivTool() *ArxivTool {
	return &ArxivTool{
		endpoint:   defaultArxivEndpoint,
		maxResults: 3,
		maxSummary: 400,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// NewArxivToolWithEndpoint overrides the API endpoint, mainly for tests.
func NewArxivToolWithEndpoint(endpoint string) *ArxivTool {
	t := NewArxivTool()
	t.endpoint = endpoint
	return t
}

func (a *ArxivTool) Name() string {
	return "arxiv_search"
}

func (a *ArxivTool) Description() string {
	return "Search for research papers and scientific studies on arXiv. Input a topic, get back paper titles, authors, dates, and abstract snippets."
}

func (a *ArxivTool) Parameters() map[string]any {
	return queryParameters("The research topic or keywords to search arXiv for")
}

func (a *ArxivTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, ok := queryArg(args)
	if !ok {
		return "", fmt.Errorf("query is required")
	}
	return a.search(ctx, query)
}

// Atom feed subset returned by the export API.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

func (a *ArxivTool) search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", a.maxResults))
	params.Set("sortBy", "relevance")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling arXiv: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("arxiv http %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return "", fmt.Errorf("parsing feed: %w", err)
	}
	if len(feed.Entries) == 0 {
		return "No arXiv papers found for that query.", nil
	}

	var b strings.Builder
	for i, e := range feed.Entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(fmt.Sprintf("%d. %s", i+1, collapseWhitespace(e.Title)))

		if names := authorNames(e.Authors); names != "" {
			b.WriteString("\n   Authors: " + names)
		}
		if len(e.Published) >= 10 {
			b.WriteString("\n   Published: " + e.Published[:10])
		}
		if e.ID != "" {
			b.WriteString("\n   Link: " + strings.TrimSpace(e.ID))
		}

		summary := collapseWhitespace(e.Summary)
		if len(summary) > a.maxSummary {
			summary = summary[:a.maxSummary] + "..."
		}
		if summary != "" {
			b.WriteString("\n   " + summary)
		}
	}
	return b.String(), nil
}

func authorNames(authors []arxivAuthor) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if n := strings.TrimSpace(a.Name); n != "" {
			names = append(names, n)
		}
		if len(names) == 5 {
			names = append(names, "et al.")
			break
		}
	}
	return strings.Join(names, ", ")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
