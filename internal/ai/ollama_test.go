package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corelab/pkg/coretypes"
)

type fakeOllama struct {
	up        atomic.Bool
	tagsCalls atomic.Int32
	chats     atomic.Int32
	reply     string
}

func newFakeOllama(t *testing.T, reply string) (*fakeOllama, *httptest.Server) {
	t.Helper()
	f := &fakeOllama{reply: reply}
	f.up.Store(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, _ *http.Request) {
		f.tagsCalls.Add(1)
		if !f.up.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[{"name":"llama2:latest"}]}`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, _ *http.Request) {
		f.chats.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sprintfBody(chatCompletionBody, f.reply)))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func TestNewOllamaProvider_Defaults(t *testing.T) {
	p := NewOllamaProvider(LocalSettings{})

	assert.Equal(t, "Ollama", p.Name())
	assert.Equal(t, DefaultOllamaEndpoint, p.Endpoint())
	assert.Equal(t, DefaultOllamaModel, p.Model())
}

func TestNewOllamaProvider_TrimsTrailingSlash(t *testing.T) {
	p := NewOllamaProvider(LocalSettings{Endpoint: "http://gpu-box:11434/", Model: "mistral"})

	assert.Equal(t, "http://gpu-box:11434", p.Endpoint())
	assert.Equal(t, "mistral", p.Model())
}

func TestOllamaProvider_AvailabilityIsRecheckedEveryCall(t *testing.T) {
	fake, srv := newFakeOllama(t, "ok")
	p := newOllamaProvider(LocalSettings{Endpoint: srv.URL}, srv.Client())
	ctx := context.Background()

	assert.True(t, p.IsAvailable(ctx))

	fake.up.Store(false)
	assert.False(t, p.IsAvailable(ctx))

	fake.up.Store(true)
	assert.True(t, p.IsAvailable(ctx))
	assert.Equal(t, int32(3), fake.tagsCalls.Load())
}

func TestOllamaProvider_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewOllamaProvider(LocalSettings{Endpoint: url})
	ctx := context.Background()

	assert.False(t, p.IsAvailable(ctx))
	_, err := p.Complete(ctx, coretypes.AIRequest{Prompt: "hi"})
	assert.ErrorIs(t, err, coretypes.ErrNotConfigured)
	_, err = p.ExtractMemories(ctx, "text")
	assert.ErrorIs(t, err, coretypes.ErrNotConfigured)
}

func TestOllamaProvider_CompleteChecksAvailabilityFirst(t *testing.T) {
	fake, srv := newFakeOllama(t, "local answer")
	p := newOllamaProvider(LocalSettings{Endpoint: srv.URL}, srv.Client())

	resp, err := p.Complete(context.Background(), coretypes.AIRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "local answer", resp.Content)
	assert.Equal(t, int32(1), fake.tagsCalls.Load())
	assert.Equal(t, int32(1), fake.chats.Load())

	fake.up.Store(false)
	_, err = p.Complete(context.Background(), coretypes.AIRequest{Prompt: "hi"})
	assert.Equal(t, coretypes.KindConfiguration, coretypes.KindOf(err))
	assert.Equal(t, int32(1), fake.chats.Load())
}

func TestOllamaProvider_ExtractMemories(t *testing.T) {
	_, srv := newFakeOllama(t, `{"memories":[{"key":"hobby","value":"climbing","importance":3,"confidence":0.75}]}`)
	p := newOllamaProvider(LocalSettings{Endpoint: srv.URL}, srv.Client())

	got, err := p.ExtractMemories(context.Background(), "Sam goes climbing on weekends")
	require.NoError(t, err)
	assert.Equal(t, []coretypes.ExtractedMemory{{Key: "hobby", Value: "climbing", Importance: 3, Confidence: 0.75}}, got)
}

func TestOllamaProvider_CancelledContext(t *testing.T) {
	_, srv := newFakeOllama(t, "ok")
	p := newOllamaProvider(LocalSettings{Endpoint: srv.URL}, srv.Client())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, p.IsAvailable(ctx))
}
