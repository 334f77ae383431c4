package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corelab/pkg/coretypes"
)

func TestMockProvider_Identity(t *testing.T) {
	m := NewMockProvider()

	assert.Equal(t, "Mock", m.Name())
	assert.True(t, m.IsAvailable(context.Background()))
}

func TestMockProvider_Complete(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
	}{
		{name: "plain prompt", prompt: "hello"},
		{name: "empty prompt", prompt: ""},
		{name: "unicode prompt", prompt: "café ☕"},
	}

	m := NewMockProvider()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := m.Complete(context.Background(), coretypes.AIRequest{
				Prompt:      tt.prompt,
				MaxTokens:   coretypes.Int(5),
				Temperature: coretypes.Float(0.9),
			})
			require.NoError(t, err)

			assert.Equal(t, "Mock response for: "+tt.prompt, resp.Content)
			require.NotNil(t, resp.TokensUsed)
			assert.Equal(t, MockTokensUsed, *resp.TokensUsed)
			assert.Nil(t, resp.Structured)
		})
	}
}

func TestMockProvider_ExtractMemoriesIgnoresInput(t *testing.T) {
	m := NewMockProvider()
	want := []coretypes.ExtractedMemory{
		{Key: "topic", Value: "Discussed in conversation", Importance: 3, Confidence: 0.8},
	}

	for _, text := range []string{"", "Alice loves sushi", "anything at all"} {
		got, err := m.ExtractMemories(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
