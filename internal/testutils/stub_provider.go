package testutils

import (
	"context"
	"sync/atomic"

	"corelab/pkg/coretypes"
)

// StubProvider is a scriptable coretypes.AIProvider. Nil funcs fall back to
// canned answers; counters record how often each method ran.
type StubProvider struct {
	NameValue    string
	Unavailable  bool
	CompleteFunc func(ctx context.Context, req coretypes.AIRequest) (coretypes.AIResponse, error)
	ExtractFunc  func(ctx context.Context, text string) ([]coretypes.ExtractedMemory, error)

	CompleteCalls atomic.Int32
	ExtractCalls  atomic.Int32
}

// Name returns NameValue or "Stub".
func (s *StubProvider) Name() string {
	if s.NameValue == "" {
		return "Stub"
	}
	return s.NameValue
}

// IsAvailable reports !Unavailable.
func (s *StubProvider) IsAvailable(context.Context) bool {
	return !s.Unavailable
}

// Complete calls CompleteFunc or echoes the prompt.
func (s *StubProvider) Complete(ctx context.Context, req coretypes.AIRequest) (coretypes.AIResponse, error) {
	s.CompleteCalls.Add(1)
	if s.CompleteFunc != nil {
		return s.CompleteFunc(ctx, req)
	}
	return coretypes.AIResponse{Content: "stub: " + req.Prompt}, nil
}

// ExtractMemories calls ExtractFunc or returns no memories.
func (s *StubProvider) ExtractMemories(ctx context.Context, text string) ([]coretypes.ExtractedMemory, error) {
	s.ExtractCalls.Add(1)
	if s.ExtractFunc != nil {
		return s.ExtractFunc(ctx, text)
	}
	return []coretypes.ExtractedMemory{}, nil
}
