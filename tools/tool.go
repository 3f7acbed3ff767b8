// Package tools provides the tool interface and the research tool
// implementations (Wikipedia, arXiv, web search) exposed to the agent.
package tools

import (
	"context"
	"strings"
)

// Tool defines the interface that all tools must implement.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description for the LLM.
	Description() string

	// Parameters returns the JSON schema for the tool's parameters.
	Parameters() map[string]any

	// Execute runs the tool with the given arguments and returns the result.
	// The context should be used for cancellation and timeouts.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// queryParameters is the schema shared by all single-query search tools.
func queryParameters(description string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": description,
			},
		},
		"required": []string{"query"},
	}
}

// queryArg extracts the common "query" string argument.
func queryArg(args map[string]any) (string, bool) {
	q, ok := args["query"].(string)
	q = strings.TrimSpace(q)
	if !ok || q == "" {
		return "", false
	}
	return q, true
}
