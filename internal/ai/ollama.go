package ai

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"corelab/internal/logger"
	"corelab/pkg/coretypes"
)

// OllamaProvider is the local backend for an Ollama server.
//
// Availability is a live probe of GET {endpoint}/api/tags on every call.
// Completions go through Ollama's OpenAI-compatible /v1 API. A server that
// stops answering moves the provider back to unconfigured on the next call.
type OllamaProvider struct {
	endpoint   string
	model      string
	httpClient *http.Client
	client     *openai.Client
}

// NewOllamaProvider creates an Ollama provider, applying the default endpoint
// and model for empty settings.
func NewOllamaProvider(s LocalSettings) *OllamaProvider {
	return newOllamaProvider(s, nil)
}

func newOllamaProvider(s LocalSettings, httpClient *http.Client) *OllamaProvider {
	endpoint := strings.TrimRight(valueOr(s.Endpoint, DefaultOllamaEndpoint), "/")
	httpClient = httpClientOrDefault(httpClient)

	// Ollama ignores the key, but the OpenAI-compatible route expects a bearer header.
	client := openai.NewClient(
		option.WithBaseURL(endpoint+"/v1/"),
		option.WithAPIKey("ollama"),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)

	return &OllamaProvider{
		endpoint:   endpoint,
		model:      valueOr(s.Model, DefaultOllamaModel),
		httpClient: httpClient,
		client:     &client,
	}
}

// Name returns "Ollama".
func (p *OllamaProvider) Name() string {
	return "Ollama"
}

// Endpoint returns the server base URL.
func (p *OllamaProvider) Endpoint() string {
	return p.endpoint
}

// Model returns the configured model name.
func (p *OllamaProvider) Model() string {
	return p.model
}

// IsAvailable probes the server. Any transport error or non-200 status
// counts as unavailable.
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"/api/tags", nil)
	if err != nil {
		logger.Debug("Ollama probe request invalid", "endpoint", p.endpoint, "error", err)
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		logger.Debug("Ollama probe failed", "endpoint", p.endpoint, "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// Complete probes the server, then sends a chat completion request.
func (p *OllamaProvider) Complete(ctx context.Context, req coretypes.AIRequest) (coretypes.AIResponse, error) {
	if !p.IsAvailable(ctx) {
		return coretypes.AIResponse{}, notConfigured(p.Name())
	}
	return chatComplete(ctx, p.client, p.Name(), p.model, req)
}

// ExtractMemories probes the server, then runs structured extraction.
func (p *OllamaProvider) ExtractMemories(ctx context.Context, text string) ([]coretypes.ExtractedMemory, error) {
	if !p.IsAvailable(ctx) {
		return nil, notConfigured(p.Name())
	}
	return extractWith(ctx, p.Name(), func(ctx context.Context, req coretypes.AIRequest) (coretypes.AIResponse, error) {
		return chatComplete(ctx, p.client, p.Name(), p.model, req)
	}, text)
}

func httpClientOrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{}
}
