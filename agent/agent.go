// Package agent provides the agentic loop that connects the LLM to tools.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"research-bot/metrics"
	"research-bot/tools"
)

const maxToolCalls = 10 // Enough for multi-source research on one question

const systemPrompt = `You are a research assistant with access to search tools.

TOOLS:
- wikipedia_search: General information and factual summaries from Wikipedia
- arxiv_search: Research papers and scientific studies from arXiv
- web_search: Current web results via DuckDuckGo
- google_search: Alternative web search (may not always be available)
- read_page: Fetch and summarize a specific web page

HOW TO ANSWER:
- Pick the tool that fits the question: encyclopedic facts -> wikipedia_search,
  scientific literature -> arxiv_search, current events and everything else -> web_search.
- Cross-check important claims with a second source when the question warrants it.
- If a search tool reports being unavailable or rate limited, say so briefly
  and answer from the sources you do have. Do not retry the same tool yourself.
- Cite which source each key fact came from.
- When you have enough material, STOP searching and answer the user.`

// Agent handles conversations with the LLM and executes tool calls.
type Agent struct {
	model    string
	url      string
	apiKey   string
	registry *tools.Registry
	client   *http.Client
}

// Message represents a chat message in the conversation.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall represents a tool invocation requested by the LLM.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall contains the function name and its JSON-encoded arguments.
// The chat completions API encodes arguments as a string, not an object.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []Message        `json:"messages"`
	Tools       []map[string]any `json:"tools,omitempty"`
	ToolChoice  string           `json:"tool_choice,omitempty"`
	Temperature float64          `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

// New creates a new Agent for the given chat completions endpoint.
func New(model, url, apiKey string, registry *tools.Registry) *Agent {
	return &Agent{
		model:    model,
		url:      url,
		apiKey:   apiKey,
		registry: registry,
		client: &http.Client{
			Timeout: 120 * time.Second, // LLM responses can be slow
		},
	}
}

// Chat sends a message and handles any tool calls in a loop.
// The context is used for cancellation and passed to tool executions.
func (a *Agent) Chat(ctx context.Context, userMessage string) (string, error) {
	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userMessage},
	}

	for i := 0; i < maxToolCalls; i++ {
		reply, err := a.sendRequest(ctx, messages)
		if err != nil {
			return "", err
		}

		if len(reply.ToolCalls) == 0 {
			return strings.TrimSpace(reply.Content), nil
		}

		// Add assistant message with tool calls, then one tool reply per call.
		messages = append(messages, reply)

		for _, tc := range reply.ToolCalls {
			result, err := a.executeTool(ctx, tc)
			if err != nil {
				result = fmt.Sprintf("Error: %v", err)
			}

			messages = append(messages, Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	return "", fmt.Errorf("exceeded maximum tool calls (%d)", maxToolCalls)
}

func (a *Agent) sendRequest(ctx context.Context, messages []Message) (Message, error) {
	reqBody := chatRequest{
		Model:      a.model,
		Messages:   messages,
		Tools:      a.registry.Schemas(),
		ToolChoice: "auto",
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return Message{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return Message{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return Message{}, fmt.Errorf("calling model: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Message{}, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Message{}, fmt.Errorf("model returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return Message{}, fmt.Errorf("parsing response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return Message{}, fmt.Errorf("model returned no choices")
	}

	msg := chatResp.Choices[0].Message
	slog.Debug("model response",
		"content_len", len(msg.Content),
		"tool_calls", len(msg.ToolCalls),
		"finish_reason", chatResp.Choices[0].FinishReason)
	for _, tc := range msg.ToolCalls {
		slog.Debug("tool call requested", "tool", tc.Function.Name, "args", tc.Function.Arguments)
	}

	return msg, nil
}

func (a *Agent) executeTool(ctx context.Context, tc ToolCall) (string, error) {
	tool, ok := a.registry.Get(tc.Function.Name)
	if !ok {
		metrics.ToolCallsTotal.WithLabelValues(tc.Function.Name, "unknown").Inc()
		return "", fmt.Errorf("unknown tool: %s", tc.Function.Name)
	}

	var args map[string]any
	if tc.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			metrics.ToolCallsTotal.WithLabelValues(tc.Function.Name, "bad_args").Inc()
			return "", fmt.Errorf("parsing tool arguments: %w", err)
		}
	}

	start := time.Now()
	result, err := tool.Execute(ctx, args)
	metrics.ToolLatency.WithLabelValues(tc.Function.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ToolCallsTotal.WithLabelValues(tc.Function.Name, "error").Inc()
		return "", err
	}
	metrics.ToolCallsTotal.WithLabelValues(tc.Function.Name, "ok").Inc()
	return result, nil
}
