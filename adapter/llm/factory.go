package llm

import (
	"context"
	"fmt"
)

// Supported providers.
const (
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
)

// Providers lists the provider names New accepts.
var Providers = []string{ProviderOpenAI, ProviderGemini, ProviderBedrock}

// Config selects and configures a provider.
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string

	// Region and Profile apply to Bedrock only.
	Region  string
	Profile string
}

// New builds the adapter named by cfg.Provider.
func New(ctx context.Context, cfg Config) (LLM, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAILLM(OpenAIConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model}), nil
	case ProviderGemini:
		return NewGeminiLLM(ctx, cfg.APIKey, cfg.Model)
	case ProviderBedrock:
		return NewBedrockLLM(ctx, BedrockConfig{
			ModelID:     cfg.Model,
			Region:      cfg.Region,
			Profile:     cfg.Profile,
			EndpointURL: cfg.BaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
