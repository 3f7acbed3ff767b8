// Package metrics exposes Prometheus instrumentation for the agent's
// tool calls and the web search retry loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ToolCallsTotal tracks tool executions by tool and outcome.
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "researchbot_tool_calls_total",
			Help: "Total number of tool executions",
		},
		[]string{"tool", "status"},
	)

	// ToolLatency tracks tool execution latency.
	ToolLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "researchbot_tool_latency_seconds",
			Help:    "Tool execution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	// SearchRetriesTotal tracks retry sleeps taken by the web search wrapper.
	SearchRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "researchbot_search_retries_total",
			Help: "Total number of web search retries after transient failures",
		},
	)

	// ChatTurnsTotal tracks handled chat messages by outcome.
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "researchbot_chat_turns_total",
			Help: "Total number of chat turns handled",
		},
		[]string{"status"},
	)
)
