package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtractTextSkipsChrome(t *testing.T) {
	page := `<html><head><script>var x = 1;</script><style>body{}</style></head>
<body><nav>Menu</nav><p>Real   content here.</p><footer>Copyright</footer></body></html>`

	got := extractText(page)
	if !strings.Contains(got, "Real content here.") {
		t.Errorf("content missing: %q", got)
	}
	for _, unwanted := range []string{"var x", "body{}", "Menu", "Copyright"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("chrome element leaked into text: %q", got)
		}
	}
}

func TestReadPageSummarizes(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>Fusion energy had a breakthrough.</p></body></html>"))
	}))
	defer page.Close()

	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", got)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"- Fusion breakthrough reported."}}]}`))
	}))
	defer model.Close()

	tool := NewReadPageTool(model.URL, "test-model", "test-key")
	got, err := tool.Execute(context.Background(), map[string]any{"url": page.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "- Fusion breakthrough reported." {
		t.Errorf("unexpected summary: %q", got)
	}
}

func TestReadPageFallsBackOnSummarizerFailure(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>Raw page text survives.</p></body></html>"))
	}))
	defer page.Close()

	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer model.Close()

	tool := NewReadPageTool(model.URL, "test-model", "test-key")
	got, err := tool.Execute(context.Background(), map[string]any{"url": page.URL})
	if err != nil {
		t.Fatalf("summarizer failure must not fail the tool: %v", err)
	}
	if !strings.Contains(got, "Raw page text survives.") {
		t.Errorf("expected raw extract fallback, got %q", got)
	}
}

func TestReadPageMissingURL(t *testing.T) {
	tool := NewReadPageTool("http://unused", "m", "k")
	if _, err := tool.Execute(context.Background(), map[string]any{}); err == nil {
		t.Fatal("expected error for missing url")
	}
}
