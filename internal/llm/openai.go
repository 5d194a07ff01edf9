package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// defaultMaxTokens applies when the request leaves MaxTokens at zero.
const defaultMaxTokens = 4096

// OpenAIProvider implements Provider against any OpenAI-compatible chat
// completions endpoint. baseURL is empty for api.openai.com itself and
// set to an alternate host (MiniMax, OpenRouter, a local gateway, ...)
// for everything else that speaks the same wire protocol, per spec §4.4.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	name    string
	minTemp float64
}

// NewOpenAIProvider creates a provider against the given baseURL (empty
// string for the default OpenAI API). name labels the provider in logs
// and accounting (e.g. "openai", "minimax", "openrouter").
func NewOpenAIProvider(apiKey, baseURL, model, name string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		name:   name,
	}
}

// WithMinTemperature sets a floor applied to every request's temperature,
// for compatible backends (MiniMax rejects temperature <= 0).
func (p *OpenAIProvider) WithMinTemperature(min float64) *OpenAIProvider {
	p.minTemp = min
	return p
}

func (p *OpenAIProvider) Name() string {
	if p.name != "" {
		return p.name
	}
	return "openai"
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	temp := req.Temperature
	if p.minTemp > 0 && temp < p.minTemp {
		temp = p.minTemp
	}

	var messages []openai.ChatCompletionMessage
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(temp),
	}

	if req.JSONMode {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	var content, finishReason string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		finishReason = string(resp.Choices[0].FinishReason)
	}

	return &CompletionResponse{
		Content:      content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Model:        resp.Model,
		FinishReason: finishReason,
	}, nil
}
