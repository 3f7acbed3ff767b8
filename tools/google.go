package tools

import (
	"context"
	"fmt"
	"strings"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// GoogleSearchTool queries Google Programmable Search. It is optional:
// main only registers it when an API key and engine ID are configured,
// giving the agent a second web search backend that is not rate-limited
// the way DuckDuckGo scraping is.
type GoogleSearchTool struct {
	apiKey     string
	engineID   string
	maxResults int64
}

// NewGoogleSearchTool creates a Google web search tool.
func NewGoogleSearchTool(apiKey, engineID string) *GoogleSearchTool {
	return &GoogleSearchTool{
		apiKey:     apiKey,
		engineID:   engineID,
		maxResults: 5,
	}
}

func (g *GoogleSearchTool) Name() string {
	return "google_search"
}

func (g *GoogleSearchTool) Description() string {
	return "Search the web with Google Programmable Search. Use as an alternative to web_search when it reports being unavailable."
}

func (g *GoogleSearchTool) Parameters() map[string]any {
	return queryParameters("The web search query")
}

func (g *GoogleSearchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, ok := queryArg(args)
	if !ok {
		return "", fmt.Errorf("query is required")
	}

	svc, err := customsearch.NewService(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("creating search service: %w", err)
	}

	resp, err := svc.Cse.List().Cx(g.engineID).Q(query).Num(g.maxResults).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calling Google search: %w", err)
	}
	if len(resp.Items) == 0 {
		return "No results found.", nil
	}

	var b strings.Builder
	for i, item := range resp.Items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(item.Title)
		b.WriteString(" (")
		b.WriteString(item.Link)
		b.WriteString(")")
		if s := strings.TrimSpace(item.Snippet); s != "" {
			b.WriteString("\n  ")
			b.WriteString(s)
		}
	}
	return b.String(), nil
}
