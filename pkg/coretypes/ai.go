package coretypes

import (
	"context"
	"encoding/json"
)

// AIRequest is a one-shot completion request.
type AIRequest struct {
	Prompt       string   `json:"prompt"`
	SystemPrompt string   `json:"system_prompt,omitempty"` // empty means no system prompt
	MaxTokens    *int     `json:"max_tokens,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	// JSON asks the backend to answer with a single JSON object.
	JSON bool `json:"json,omitempty"`
}

// AIResponse is the answer to an AIRequest.
type AIResponse struct {
	Content    string          `json:"content" yaml:"content"`
	Structured json.RawMessage `json:"structured,omitempty" yaml:"-"`
	TokensUsed *int            `json:"tokens_used,omitempty" yaml:"tokens_used,omitempty"`
}

// ExtractedMemory is a candidate fact about a person derived from free text.
type ExtractedMemory struct {
	Key        string  `json:"key" yaml:"key"`
	Value      string  `json:"value" yaml:"value"`
	Importance int     `json:"importance" yaml:"importance"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// AIProvider is the capability contract every AI backend implements.
// Implementations add no retry, timeout or caching of their own; callers
// bound latency through ctx.
type AIProvider interface {
	// Name returns a stable display identifier.
	Name() string

	// IsAvailable probes the backend. The result is never cached.
	IsAvailable(ctx context.Context) bool

	// Complete sends a single completion request.
	Complete(ctx context.Context, req AIRequest) (AIResponse, error)

	// ExtractMemories derives candidate facts from text.
	ExtractMemories(ctx context.Context, text string) ([]ExtractedMemory, error)
}

// Int returns a pointer to v, for optional request fields.
func Int(v int) *int { return &v }

// Float returns a pointer to v, for optional request fields.
func Float(v float64) *float64 { return &v }
