// Package llm defines the minimal model contract agents run against and the
// provider adapters behind it.
package llm

import (
	"context"

	"github.com/scttfrdmn/marketcrew/agenkit"
)

// LLM is the minimal interface for agent-model interaction.
//
// Providers convert the conversation to their own wire format and return the
// reply as an agent message. Metadata carries provider details such as the
// model name and token usage.
//
// Example:
//
//	model := NewOpenAILLM(OpenAIConfig{APIKey: "sk-...", Model: "gpt-4o-mini"})
//	reply, err := model.Complete(ctx, []*agenkit.Message{
//	    agenkit.NewMessage(agenkit.RoleSystem, "You are a market analyst."),
//	    agenkit.NewMessage(agenkit.RoleUser, "How is the iPhone trending?"),
//	}, WithTemperature(0.2))
type LLM interface {
	// Complete generates a single completion for the conversation.
	Complete(ctx context.Context, messages []*agenkit.Message, opts ...CallOption) (*agenkit.Message, error)

	// Model returns the model identifier for this instance.
	Model() string
}

// CallOptions holds per-call generation settings.
type CallOptions struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64

	// Stop sequences end generation early.
	Stop []string

	// Provider-specific options
	Extra map[string]interface{}
}

// CallOption is a functional option for configuring LLM calls.
type CallOption func(*CallOptions)

// WithTemperature sets the sampling temperature (typically 0.0-2.0).
func WithTemperature(temperature float64) CallOption {
	return func(opts *CallOptions) {
		opts.Temperature = &temperature
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int) CallOption {
	return func(opts *CallOptions) {
		opts.MaxTokens = &maxTokens
	}
}

// WithTopP sets the nucleus sampling parameter.
func WithTopP(topP float64) CallOption {
	return func(opts *CallOptions) {
		opts.TopP = &topP
	}
}

// WithStop sets the stop sequences.
func WithStop(stop ...string) CallOption {
	return func(opts *CallOptions) {
		opts.Stop = append(opts.Stop, stop...)
	}
}

// WithExtra adds a provider-specific option.
func WithExtra(key string, value interface{}) CallOption {
	return func(opts *CallOptions) {
		if opts.Extra == nil {
			opts.Extra = make(map[string]interface{})
		}
		opts.Extra[key] = value
	}
}

// BuildCallOptions creates CallOptions from functional options.
func BuildCallOptions(opts ...CallOption) *CallOptions {
	options := &CallOptions{
		Extra: make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// usage renders token counts the same way for every provider.
func usage(prompt, completion, total int) map[string]interface{} {
	return map[string]interface{}{
		"prompt_tokens":     prompt,
		"completion_tokens": completion,
		"total_tokens":      total,
	}
}
