package ai

import (
	"context"

	"corelab/pkg/coretypes"
)

// MockTokensUsed is the token count MockProvider reports for every completion.
const MockTokensUsed = 10

// MockProvider is a deterministic backend for tests and offline development.
type MockProvider struct{}

// NewMockProvider creates a MockProvider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Name returns "Mock".
func (m *MockProvider) Name() string {
	return "Mock"
}

// IsAvailable always reports true.
func (m *MockProvider) IsAvailable(_ context.Context) bool {
	return true
}

// Complete echoes the prompt.
func (m *MockProvider) Complete(_ context.Context, req coretypes.AIRequest) (coretypes.AIResponse, error) {
	return coretypes.AIResponse{
		Content:    "Mock response for: " + req.Prompt,
		TokensUsed: coretypes.Int(MockTokensUsed),
	}, nil
}

// ExtractMemories returns the same single fact for any input.
func (m *MockProvider) ExtractMemories(_ context.Context, _ string) ([]coretypes.ExtractedMemory, error) {
	return []coretypes.ExtractedMemory{
		{
			Key:        "topic",
			Value:      "Discussed in conversation",
			Importance: 3,
			Confidence: 0.8,
		},
	}, nil
}
