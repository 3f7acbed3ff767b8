package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const arxivResponse = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <published>2017-06-12T17:57:34Z</published>
    <title>Attention Is All
 You Need</title>
    <summary>The dominant sequence transduction models are based on complex
 recurrent or convolutional neural networks.</summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1810.04805v2</id>
    <published>2018-10-11T00:50:01Z</published>
    <title>BERT: Pre-training of Deep Bidirectional Transformers</title>
    <summary>We introduce a new language representation model called BERT.</summary>
    <author><name>Jacob Devlin</name></author>
  </entry>
</feed>`

func TestArxivExecute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search_query"); got != "all:transformers" {
			t.Errorf("unexpected search_query %q", got)
		}
		_, _ = w.Write([]byte(arxivResponse))
	}))
	defer srv.Close()

	tool := NewArxivToolWithEndpoint(srv.URL)
	got, err := tool.Execute(context.Background(), map[string]any{"query": "transformers"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Feed whitespace is collapsed into single spaces.
	if !strings.Contains(got, "1. Attention Is All You Need") {
		t.Errorf("missing first title: %q", got)
	}
	if !strings.Contains(got, "Authors: Ashish Vaswani, Noam Shazeer") {
		t.Errorf("missing authors: %q", got)
	}
	if !strings.Contains(got, "Published: 2017-06-12") {
		t.Errorf("missing publish date: %q", got)
	}
	if !strings.Contains(got, "Link: http://arxiv.org/abs/1706.03762v7") {
		t.Errorf("missing link: %q", got)
	}
	if !strings.Contains(got, "2. BERT") {
		t.Errorf("missing second entry: %q", got)
	}
}

func TestArxivSummaryTruncation(t *testing.T) {
	tool := NewArxivTool()
	tool.maxSummary = 10

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(arxivResponse))
	}))
	defer srv.Close()
	tool.endpoint = srv.URL

	got, err := tool.Execute(context.Background(), map[string]any{"query": "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "The domina...") {
		t.Errorf("expected truncated summary, got %q", got)
	}
}

func TestArxivNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	}))
	defer srv.Close()

	tool := NewArxivToolWithEndpoint(srv.URL)
	got, err := tool.Execute(context.Background(), map[string]any{"query": "qzxv"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "No arXiv papers found") {
		t.Errorf("expected no-results message, got %q", got)
	}
}
