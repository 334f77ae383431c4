package ai

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"corelab/internal/logger"
	"corelab/pkg/coretypes"
)

const (
	anthropicDefaultMaxTokens = 1024
	jsonOnlyInstruction       = "Respond with a single JSON object and nothing else."
)

// AnthropicProvider is the cloud backend for Anthropic's Messages API.
// It is available exactly when an API key is configured.
type AnthropicProvider struct {
	apiKey string
	model  string
	client *anthropic.Client
}

// NewAnthropicProvider creates an Anthropic provider. An empty API key yields
// an unconfigured provider.
func NewAnthropicProvider(s CloudSettings) *AnthropicProvider {
	p := &AnthropicProvider{
		apiKey: strings.TrimSpace(s.APIKey),
		model:  valueOr(s.Model, DefaultAnthropicModel),
	}
	if p.apiKey == "" {
		return p
	}

	options := []option.RequestOption{
		option.WithAPIKey(p.apiKey),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		options = append(options, option.WithBaseURL(withTrailingSlash(s.BaseURL)))
	}
	client := anthropic.NewClient(options...)
	p.client = &client

	logger.Debug("Anthropic client initialized", "provider", "anthropic", "model", p.model)
	return p
}

// Name returns "Anthropic".
func (p *AnthropicProvider) Name() string {
	return "Anthropic"
}

// IsAvailable reports whether an API key is configured.
func (p *AnthropicProvider) IsAvailable(_ context.Context) bool {
	return p.client != nil
}

// Complete sends a single-turn Messages request.
func (p *AnthropicProvider) Complete(ctx context.Context, req coretypes.AIRequest) (coretypes.AIResponse, error) {
	if p.client == nil {
		return coretypes.AIResponse{}, notConfigured(p.Name())
	}

	maxTokens := int64(anthropicDefaultMaxTokens)
	if req.MaxTokens != nil {
		maxTokens = int64(*req.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	systemPrompt := req.SystemPrompt
	if req.JSON {
		// No native JSON mode; ask for it in the system prompt.
		if systemPrompt != "" {
			systemPrompt += "\n\n"
		}
		systemPrompt += jsonOnlyInstruction
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	logger.Debug("Sending Anthropic request", "provider", "anthropic", "model", p.model)
	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		logger.Error("Anthropic request failed", "error", err)
		return coretypes.AIResponse{}, requestFailed(p.Name(), err)
	}

	var content strings.Builder
	for _, block := range message.Content {
		content.WriteString(block.Text)
	}
	if content.Len() == 0 {
		return coretypes.AIResponse{}, invalidResponse(p.Name(), "empty response content")
	}

	resp := coretypes.AIResponse{Content: content.String()}
	if total := message.Usage.InputTokens + message.Usage.OutputTokens; total > 0 {
		resp.TokensUsed = coretypes.Int(int(total))
	}
	if req.JSON {
		resp.Structured = structuredPayload(resp.Content)
	}

	logger.Debug("Anthropic response received", "content_length", content.Len())
	return resp, nil
}

// ExtractMemories asks the model for a JSON list of facts and validates it.
func (p *AnthropicProvider) ExtractMemories(ctx context.Context, text string) ([]coretypes.ExtractedMemory, error) {
	if p.client == nil {
		return nil, notConfigured(p.Name())
	}
	return extractWith(ctx, p.Name(), p.Complete, text)
}
