package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	scrapeTimeout = 30 * time.Second
	maxContentLen = 50000 // Max chars to send to summarizer
)

// ReadPageTool fetches web pages, extracts main content, and summarizes
// them with the LLM. The agent uses it to follow up on search hits.
type ReadPageTool struct {
	groqURL    string
	groqModel  string
	groqAPIKey string
	httpClient *http.Client
}

// NewReadPageTool creates a page reader backed by the given chat
// completions endpoint for summarization.
func NewReadPageTool(groqURL, groqModel, groqAPIKey string) *ReadPageTool {
	return &ReadPageTool{
		groqURL:    groqURL,
		groqModel:  groqModel,
		groqAPIKey: groqAPIKey,
		httpClient: &http.Client{Timeout: scrapeTimeout},
	}
}

func (s *ReadPageTool) Name() string {
	return "read_page"
}

func (s *ReadPageTool) Description() string {
	return `Fetch a web page and summarize its main content.

Input: A URL (typically one returned by web_search or google_search)
Output: A concise summary of the main topics/ideas on the page

Use this to read the details behind a search result.`
}

func (s *ReadPageTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The URL of the webpage to fetch and summarize",
			},
		},
		"required": []string{"url"},
	}
}

func (s *ReadPageTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	url, ok := args["url"].(string)
	if !ok || url == "" {
		return "", fmt.Errorf("url is required")
	}

	// Ensure URL has scheme
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	slog.Debug("fetching page", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; research-bot/1.0)")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	text := extractText(string(body))
	if text == "" {
		return "Could not extract text content from the page.", nil
	}
	if len(text) > maxContentLen {
		text = text[:maxContentLen] + "..."
	}

	summary, err := s.summarize(ctx, text, url)
	if err != nil {
		slog.Warn("summarization failed, returning raw extract", "url", url, "error", err)
		return fmt.Sprintf("Failed to summarize, here's the extracted text:\n\n%s", truncateText(text, 2000)), nil
	}
	return summary, nil
}

// extractText pulls readable text out of an HTML document, skipping
// chrome elements.
func extractText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return stripTags(htmlContent)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "aside", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				b.WriteString(text)
				b.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	text := regexp.MustCompile(`\s+`).ReplaceAllString(b.String(), " ")
	return strings.TrimSpace(text)
}

func stripTags(htmlContent string) string {
	text := regexp.MustCompile(`<[^>]*>`).ReplaceAllString(htmlContent, " ")
	text = regexp.MustCompile(`\s+`).ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func (s *ReadPageTool) summarize(ctx context.Context, text, url string) (string, error) {
	prompt := fmt.Sprintf(`Summarize the main topics and ideas from this webpage in 2-3 concise bullet points.

URL: %s

Content:
%s

Provide only the summary, no preamble:`, url, text)

	reqBody := map[string]any{
		"model": s.groqModel,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.groqURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.groqAPIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling model: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model error %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

func truncateText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
