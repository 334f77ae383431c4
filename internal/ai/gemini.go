package ai

import (
	"context"
	"strings"
	"sync"

	"google.golang.org/genai"

	"corelab/internal/logger"
	"corelab/pkg/coretypes"
)

// GeminiProvider is the cloud backend for the Google Gemini API.
// It is available exactly when an API key is configured. The SDK client is
// created on first use because its constructor needs a context.
type GeminiProvider struct {
	apiKey  string
	model   string
	baseURL string

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiProvider creates a Gemini provider. An empty API key yields an
// unconfigured provider.
func NewGeminiProvider(s CloudSettings) *GeminiProvider {
	return &GeminiProvider{
		apiKey:  strings.TrimSpace(s.APIKey),
		model:   valueOr(s.Model, DefaultGeminiModel),
		baseURL: s.BaseURL,
	}
}

// Name returns "Gemini".
func (p *GeminiProvider) Name() string {
	return "Gemini"
}

// IsAvailable reports whether an API key is configured.
func (p *GeminiProvider) IsAvailable(_ context.Context) bool {
	return p.apiKey != ""
}

func (p *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	config := &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if p.baseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, err
	}
	p.client = client
	logger.Debug("Gemini client initialized", "provider", "gemini", "model", p.model)
	return client, nil
}

// Complete sends a single-turn GenerateContent request.
func (p *GeminiProvider) Complete(ctx context.Context, req coretypes.AIRequest) (coretypes.AIResponse, error) {
	if p.apiKey == "" {
		return coretypes.AIResponse{}, notConfigured(p.Name())
	}

	client, err := p.getClient(ctx)
	if err != nil {
		return coretypes.AIResponse{}, requestFailed(p.Name(), err)
	}

	config := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}
	if req.MaxTokens != nil {
		config.MaxOutputTokens = int32(*req.MaxTokens)
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{
		{Parts: []*genai.Part{{Text: req.Prompt}}, Role: "user"},
	}

	logger.Debug("Sending Gemini request", "provider", "gemini", "model", p.model)
	result, err := client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		logger.Error("Gemini request failed", "error", err)
		return coretypes.AIResponse{}, requestFailed(p.Name(), err)
	}

	var content strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text == "" || part.Thought {
				continue
			}
			content.WriteString(part.Text)
		}
	}
	if content.Len() == 0 {
		return coretypes.AIResponse{}, invalidResponse(p.Name(), "empty response content")
	}

	resp := coretypes.AIResponse{Content: content.String()}
	if result.UsageMetadata != nil && result.UsageMetadata.TotalTokenCount > 0 {
		resp.TokensUsed = coretypes.Int(int(result.UsageMetadata.TotalTokenCount))
	}
	if req.JSON {
		resp.Structured = structuredPayload(resp.Content)
	}

	logger.Debug("Gemini response received", "content_length", content.Len())
	return resp, nil
}

// ExtractMemories asks the model for a JSON list of facts and validates it.
func (p *GeminiProvider) ExtractMemories(ctx context.Context, text string) ([]coretypes.ExtractedMemory, error) {
	if p.apiKey == "" {
		return nil, notConfigured(p.Name())
	}
	return extractWith(ctx, p.Name(), p.Complete, text)
}
