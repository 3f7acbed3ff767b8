// Package retry wraps flaky text-lookup calls with bounded retry,
// exponential backoff, and graceful degradation. It exists because the
// web search backend is rate limited and has no SLA: an interactive chat
// turn must always get some text back, never a hang or a panic.
package retry

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// Lookup is the call being protected: a text query in, a text payload out.
type Lookup func(ctx context.Context, query string) (string, error)

// Notify receives a human-readable warning before each retry sleep.
// It is observational only and must not alter control flow.
type Notify func(msg string)

// Class is the result of failure classification.
type Class int

const (
	// ClassTransient errors are expected to clear if the call is retried
	// after a delay (rate limiting, temporary congestion).
	ClassTransient Class = iota
	// ClassFatal errors will not be fixed by retrying (bad query, DNS
	// failure); the retry budget is not spent on them.
	ClassFatal
)

// Status tags an Outcome.
type Status int

const (
	// StatusOK means the lookup returned a payload.
	StatusOK Status = iota
	// StatusExhausted means every attempt failed with a transient error.
	StatusExhausted
	// StatusFatal means a non-retryable error aborted the loop.
	StatusFatal
)

// Policy defines retry behavior. The marker set is deliberately
// configuration, not law: which failures count as transient drifted
// between deployments of the original service.
type Policy struct {
	MaxAttempts      int
	BaseWait         time.Duration
	MaxWait          time.Duration
	Multiplier       float64
	TransientMarkers []string
}

// DefaultPolicy bounds worst-case wait well inside an interactive
// response budget (2s + 4s with three attempts).
var DefaultPolicy = Policy{
	MaxAttempts:      3,
	BaseWait:         2 * time.Second,
	MaxWait:          30 * time.Second,
	Multiplier:       2.0,
	TransientMarkers: []string{"rate limit", "ratelimit", "too many requests", "429", "202"},
}

// Classify decides whether an error is worth retrying by matching its
// text against the transient markers, case-insensitively. The error's
// string representation is the sole classification signal.
func Classify(err error, markers []string) Class {
	if err == nil {
		return ClassTransient
	}
	s := strings.ToLower(err.Error())
	for _, m := range markers {
		m = strings.TrimSpace(strings.ToLower(m))
		if m == "" {
			continue
		}
		if strings.Contains(s, m) {
			return ClassTransient
		}
	}
	return ClassFatal
}

// Outcome is the typed result of a wrapped call. Callers that only want
// display text use String; callers that need to branch inspect Status.
type Outcome struct {
	Status   Status
	Text     string // payload on success, empty otherwise
	Attempts int
	Err      error // last observed error, nil on success
}

// String renders the outcome for display. Successful payloads pass
// through unmodified; failures become descriptive text so the chat layer
// can show the result without special-casing errors.
func (o Outcome) String() string {
	switch o.Status {
	case StatusOK:
		return o.Text
	case StatusExhausted:
		return fmt.Sprintf("Search temporarily unavailable: retries exhausted after %d attempts (last error: %v)", o.Attempts, o.Err)
	default:
		return fmt.Sprintf("Search failed: %v", o.Err)
	}
}

// OK reports whether the wrapped call succeeded.
func (o Outcome) OK() bool { return o.Status == StatusOK }

// Caller wraps a Lookup with the retry policy. Each Do invocation is
// independent and reentrant; no state is carried between calls.
type Caller struct {
	lookup Lookup
	policy Policy
	notify Notify
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option configures a Caller.
type Option func(*Caller)

// WithNotify sets the warning sink invoked before each retry sleep.
// Without it, retries proceed silently.
func WithNotify(n Notify) Option {
	return func(c *Caller) { c.notify = n }
}

// New constructs a Caller around the given lookup. Zero or negative
// policy fields fall back to DefaultPolicy values.
func New(lookup Lookup, policy Policy, opts ...Option) *Caller {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if policy.BaseWait <= 0 {
		policy.BaseWait = DefaultPolicy.BaseWait
	}
	if policy.MaxWait <= 0 {
		policy.MaxWait = DefaultPolicy.MaxWait
	}
	if policy.Multiplier <= 1 {
		policy.Multiplier = DefaultPolicy.Multiplier
	}
	if len(policy.TransientMarkers) == 0 {
		policy.TransientMarkers = DefaultPolicy.TransientMarkers
	}
	c := &Caller{
		lookup: lookup,
		policy: policy,
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do runs the lookup with bounded retry. Attempts are strictly
// sequential; each depends on the outcome of the previous one.
func (c *Caller) Do(ctx context.Context, query string) Outcome {
	var lastErr error

	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		text, err := c.lookup(ctx, query)
		if err == nil {
			return Outcome{Status: StatusOK, Text: text, Attempts: attempt + 1}
		}
		lastErr = err

		if Classify(err, c.policy.TransientMarkers) == ClassFatal {
			// Not worth spending the remaining budget.
			return Outcome{Status: StatusFatal, Attempts: attempt + 1, Err: err}
		}
		if attempt == c.policy.MaxAttempts-1 {
			break
		}

		wait := c.backoff(attempt)
		if c.notify != nil {
			c.notify(fmt.Sprintf("transient search failure, retrying in %s: %v", wait, err))
		}
		if err := c.sleep(ctx, wait); err != nil {
			return Outcome{Status: StatusFatal, Attempts: attempt + 1, Err: err}
		}
	}

	return Outcome{Status: StatusExhausted, Attempts: c.policy.MaxAttempts, Err: lastErr}
}

// Safe is the drop-in substitute for the wrapped lookup's calling
// convention: it always returns display text and never an error.
func (c *Caller) Safe(ctx context.Context, query string) string {
	return c.Do(ctx, query).String()
}

func (c *Caller) backoff(attempt int) time.Duration {
	d := float64(c.policy.BaseWait) * math.Pow(c.policy.Multiplier, float64(attempt))
	if d > float64(c.policy.MaxWait) {
		d = float64(c.policy.MaxWait)
	}
	return time.Duration(d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
