package ai

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"corelab/internal/logger"
	"corelab/pkg/coretypes"
)

// OpenAIProvider is the cloud backend for OpenAI's Chat Completions API.
// It is available exactly when an API key is configured.
type OpenAIProvider struct {
	apiKey string
	model  string
	client *openai.Client
}

// NewOpenAIProvider creates an OpenAI provider. An empty API key yields an
// unconfigured provider.
func NewOpenAIProvider(s CloudSettings) *OpenAIProvider {
	p := &OpenAIProvider{
		apiKey: strings.TrimSpace(s.APIKey),
		model:  valueOr(s.Model, DefaultOpenAIModel),
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
	client := openai.NewClient(options...)
	p.client = &client

	logger.Debug("OpenAI client initialized", "provider", "openai", "model", p.model)
	return p
}

// Name returns "OpenAI".
func (p *OpenAIProvider) Name() string {
	return "OpenAI"
}

// Model returns the configured model name.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// IsAvailable reports whether an API key is configured.
func (p *OpenAIProvider) IsAvailable(_ context.Context) bool {
	return p.client != nil
}

// Complete sends a chat completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, req coretypes.AIRequest) (coretypes.AIResponse, error) {
	if p.client == nil {
		return coretypes.AIResponse{}, notConfigured(p.Name())
	}
	return chatComplete(ctx, p.client, p.Name(), p.model, req)
}

// ExtractMemories asks the model for a JSON list of facts and validates it.
func (p *OpenAIProvider) ExtractMemories(ctx context.Context, text string) ([]coretypes.ExtractedMemory, error) {
	if p.client == nil {
		return nil, notConfigured(p.Name())
	}
	return extractWith(ctx, p.Name(), p.Complete, text)
}

// chatComplete runs one request against an OpenAI-compatible Chat Completions endpoint.
func chatComplete(ctx context.Context, client *openai.Client, provider, model string, req coretypes.AIRequest) (coretypes.AIResponse, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if req.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	logger.Debug("Sending chat completion", "provider", provider, "model", model, "message_count", len(messages))
	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		logger.Error("Chat completion failed", "provider", provider, "error", err)
		return coretypes.AIResponse{}, requestFailed(provider, err)
	}

	if len(completion.Choices) == 0 {
		return coretypes.AIResponse{}, invalidResponse(provider, "no response choices returned")
	}
	content := completion.Choices[0].Message.Content
	if content == "" {
		return coretypes.AIResponse{}, invalidResponse(provider, "empty response content")
	}

	resp := coretypes.AIResponse{Content: content}
	if completion.Usage.TotalTokens > 0 {
		resp.TokensUsed = coretypes.Int(int(completion.Usage.TotalTokens))
	}
	if req.JSON {
		resp.Structured = structuredPayload(content)
	}

	logger.Debug("Chat completion received", "provider", provider, "content_length", len(content))
	return resp, nil
}

func withTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
