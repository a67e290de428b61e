package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/scttfrdmn/marketcrew/agenkit"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig configures an OpenAI adapter. BaseURL points the client at any
// OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAILLM is an adapter for OpenAI chat models.
//
// Example:
//
//	model := NewOpenAILLM(OpenAIConfig{APIKey: "sk-..."})
//	reply, err := model.Complete(ctx, messages, WithTemperature(0.7))
type OpenAILLM struct {
	client *openai.Client
	model  string
}

// NewOpenAILLM creates a new OpenAI adapter.
func NewOpenAILLM(cfg OpenAIConfig) *OpenAILLM {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	return &OpenAILLM{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

// Model returns the model identifier.
func (o *OpenAILLM) Model() string {
	return o.model
}

// Complete generates a completion from the chat completions API.
func (o *OpenAILLM) Complete(ctx context.Context, messages []*agenkit.Message, opts ...CallOption) (*agenkit.Message, error) {
	options := BuildCallOptions(opts...)

	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: convertOpenAIMessages(messages),
		Stop:     options.Stop,
	}
	if options.Temperature != nil {
		req.Temperature = float32(*options.Temperature)
	}
	if options.MaxTokens != nil {
		req.MaxTokens = *options.MaxTokens
	}
	if options.TopP != nil {
		req.TopP = float32(*options.TopP)
	}
	if fp, ok := options.Extra["frequency_penalty"].(float64); ok {
		req.FrequencyPenalty = float32(fp)
	}
	if pp, ok := options.Extra["presence_penalty"].(float64); ok {
		req.PresencePenalty = float32(pp)
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}

	response := agenkit.NewMessage(agenkit.RoleAgent, resp.Choices[0].Message.Content)
	response.Metadata["model"] = resp.Model
	response.Metadata["usage"] = usage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	response.Metadata["finish_reason"] = string(resp.Choices[0].FinishReason)
	response.Metadata["id"] = resp.ID

	return response, nil
}

// convertOpenAIMessages maps roles onto system, user and assistant.
func convertOpenAIMessages(messages []*agenkit.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleAssistant
		switch msg.Role {
		case agenkit.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case agenkit.RoleUser:
			role = openai.ChatMessageRoleUser
		case agenkit.RoleTool:
			// Tool output is sent as plain user text; no tool-call ids are tracked.
			role = openai.ChatMessageRoleUser
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return out
}
