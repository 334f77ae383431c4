package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corelab/pkg/coretypes"
)

const chatCompletionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 3, "completion_tokens": 4, "total_tokens": 7}
}`

// chatServer answers /v1/chat/completions with status and body and records
// the last decoded request.
func chatServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			decoded := map[string]any{}
			_ = json.NewDecoder(r.Body).Decode(&decoded)
			*seen = decoded
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIProvider_Unconfigured(t *testing.T) {
	p := NewOpenAIProvider(CloudSettings{APIKey: "   "})

	assert.Equal(t, "OpenAI", p.Name())
	assert.Equal(t, DefaultOpenAIModel, p.Model())
	assert.False(t, p.IsAvailable(context.Background()))

	_, err := p.Complete(context.Background(), coretypes.AIRequest{Prompt: "hi"})
	assert.ErrorIs(t, err, coretypes.ErrNotConfigured)
}

func TestOpenAIProvider_Complete(t *testing.T) {
	var seen map[string]any
	srv := chatServer(t, http.StatusOK, sprintfBody(chatCompletionBody, "Hello there"), &seen)

	p := NewOpenAIProvider(CloudSettings{APIKey: "sk-test", Model: "gpt-test", BaseURL: srv.URL + "/v1"})
	require.True(t, p.IsAvailable(context.Background()))

	resp, err := p.Complete(context.Background(), coretypes.AIRequest{
		Prompt:       "Say hello",
		SystemPrompt: "Be brief",
		MaxTokens:    coretypes.Int(32),
		Temperature:  coretypes.Float(0.2),
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello there", resp.Content)
	require.NotNil(t, resp.TokensUsed)
	assert.Equal(t, 7, *resp.TokensUsed)
	assert.Nil(t, resp.Structured)

	assert.Equal(t, "gpt-test", seen["model"])
	assert.Equal(t, float64(32), seen["max_tokens"])
	assert.Equal(t, 0.2, seen["temperature"])
	messages, ok := seen["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
}

func TestOpenAIProvider_CompleteJSON(t *testing.T) {
	var seen map[string]any
	srv := chatServer(t, http.StatusOK, sprintfBody(chatCompletionBody, `{"ok":true}`), &seen)

	p := NewOpenAIProvider(CloudSettings{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	resp, err := p.Complete(context.Background(), coretypes.AIRequest{Prompt: "json please", JSON: true})
	require.NoError(t, err)

	assert.JSONEq(t, `{"ok":true}`, string(resp.Structured))
	format, ok := seen["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
}

func TestOpenAIProvider_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind coretypes.Kind
	}{
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			body:     `{"error":{"message":"boom","type":"server_error"}}`,
			wantKind: coretypes.KindTransport,
		},
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"error":{"message":"bad key","type":"invalid_request_error"}}`,
			wantKind: coretypes.KindTransport,
		},
		{
			name:     "no choices",
			status:   http.StatusOK,
			body:     `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`,
			wantKind: coretypes.KindValidation,
		},
		{
			name:     "empty content",
			status:   http.StatusOK,
			body:     sprintfBody(chatCompletionBody, ""),
			wantKind: coretypes.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.status, tt.body, nil)
			p := NewOpenAIProvider(CloudSettings{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})

			_, err := p.Complete(context.Background(), coretypes.AIRequest{Prompt: "hi"})
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, coretypes.KindOf(err))
			assert.Contains(t, err.Error(), "OpenAI")
		})
	}
}

func TestOpenAIProvider_ExtractMemories(t *testing.T) {
	answer := `{"memories":[{"key":"food","value":"sushi","importance":4,"confidence":0.9}]}`
	srv := chatServer(t, http.StatusOK, sprintfBody(chatCompletionBody, answer), nil)

	p := NewOpenAIProvider(CloudSettings{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	got, err := p.ExtractMemories(context.Background(), "Alice loves sushi")
	require.NoError(t, err)
	assert.Equal(t, []coretypes.ExtractedMemory{{Key: "food", Value: "sushi", Importance: 4, Confidence: 0.9}}, got)
}

func TestWithTrailingSlash(t *testing.T) {
	assert.Equal(t, "http://x/v1/", withTrailingSlash("http://x/v1"))
	assert.Equal(t, "http://x/v1/", withTrailingSlash("http://x/v1/"))
}
