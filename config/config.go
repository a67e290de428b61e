// Package config loads runtime settings from defaults, flags, the environment
// and an optional .env file.
package config

import (
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/scttfrdmn/marketcrew/adapter/llm"
	"github.com/scttfrdmn/marketcrew/chat"
)

// EnvPrefix prefixes every environment variable read through viper.
const EnvPrefix = "MARKETCREW"

// Chat modes.
const (
	ModeDirect = "direct"
	ModeCrew   = "crew"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrMissingCredential is returned when a model is needed but no API key is set.
var ErrMissingCredential = errors.New("missing LLM API credential")

// Config is the resolved runtime configuration.
type Config struct {
	Addr        string
	ServiceName string

	LLM LLMConfig

	// ChatMode is "direct" (lookups only) or "crew" (agent answers).
	ChatMode         string
	ThinkingStrategy chat.ThinkingStrategy

	RedisURL    string
	HistorySize int
	HistoryTTL  time.Duration

	LogLevel     string
	LogFormat    string
	OTLPEndpoint string
	TraceConsole bool
}

// LLMConfig selects the model behind the agents.
type LLMConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Region      string
	Profile     string
	Timeout     time.Duration
	Temperature float64
	MaxSteps    int
}

// Adapter returns the provider factory config.
func (c LLMConfig) Adapter() llm.Config {
	return llm.Config{
		Provider: c.Provider,
		APIKey:   c.APIKey,
		BaseURL:  c.BaseURL,
		Model:    c.Model,
		Region:   c.Region,
		Profile:  c.Profile,
	}
}

// New returns a viper instance with defaults and environment bindings set.
// Callers bind their command-line flags onto it before Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("addr", ":8080")
	v.SetDefault("service-name", "marketcrew")
	v.SetDefault("llm.provider", llm.ProviderOpenAI)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max-steps", 10)
	v.SetDefault("chat.mode", ModeDirect)
	v.SetDefault("chat.thinking", string(chat.Synthesized))
	v.SetDefault("history.size", 100)
	v.SetDefault("history.ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", FormatText)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Provider-native variable names.
	mustBindEnv(v, "openai-api-key", "OPENAI_API_KEY")
	mustBindEnv(v, "gemini-api-key", "GEMINI_API_KEY")
	mustBindEnv(v, "llm.region", "MARKETCREW_LLM_REGION", "AWS_REGION")
	mustBindEnv(v, "llm.profile", "MARKETCREW_LLM_PROFILE", "AWS_PROFILE")
	mustBindEnv(v, "redis-url", "MARKETCREW_REDIS_URL", "REDIS_URL")

	return v
}

func mustBindEnv(v *viper.Viper, key string, envs ...string) {
	if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
		panic(err)
	}
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are ignored and existing variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "failed to load %s", path)
		}
	}
	return nil
}

// Load resolves v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	strategy, err := chat.ParseThinkingStrategy(v.GetString("chat.thinking"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid chat.thinking")
	}

	cfg := &Config{
		Addr:        v.GetString("addr"),
		ServiceName: v.GetString("service-name"),
		LLM: LLMConfig{
			Provider:    strings.ToLower(strings.TrimSpace(v.GetString("llm.provider"))),
			APIKey:      v.GetString("llm.api-key"),
			BaseURL:     v.GetString("llm.base-url"),
			Model:       v.GetString("llm.model"),
			Region:      v.GetString("llm.region"),
			Profile:     v.GetString("llm.profile"),
			Timeout:     v.GetDuration("llm.timeout"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxSteps:    v.GetInt("llm.max-steps"),
		},
		ChatMode:         strings.ToLower(strings.TrimSpace(v.GetString("chat.mode"))),
		ThinkingStrategy: strategy,
		RedisURL:         v.GetString("redis-url"),
		HistorySize:      v.GetInt("history.size"),
		HistoryTTL:       v.GetDuration("history.ttl"),
		LogLevel:         v.GetString("log.level"),
		LogFormat:        strings.ToLower(v.GetString("log.format")),
		OTLPEndpoint:     v.GetString("otel.endpoint"),
		TraceConsole:     v.GetBool("otel.console"),
	}

	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case llm.ProviderGemini:
			cfg.LLM.APIKey = v.GetString("gemini-api-key")
		case llm.ProviderOpenAI, "":
			cfg.LLM.APIKey = v.GetString("openai-api-key")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerations and ranges.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.LLM.Provider != "" && !slices.Contains(llm.Providers, c.LLM.Provider) {
		return errors.Errorf("unknown llm.provider %q (want one of %s)", c.LLM.Provider, strings.Join(llm.Providers, ", "))
	}
	if c.LLM.Timeout < 0 {
		return errors.Errorf("llm.timeout must not be negative, got %s", c.LLM.Timeout)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.Errorf("llm.temperature must be within [0, 2], got %v", c.LLM.Temperature)
	}
	if c.LLM.MaxSteps <= 0 {
		return errors.Errorf("llm.max-steps must be positive, got %d", c.LLM.MaxSteps)
	}
	if c.ChatMode != ModeDirect && c.ChatMode != ModeCrew {
		return errors.Errorf("unknown chat.mode %q (want %s or %s)", c.ChatMode, ModeDirect, ModeCrew)
	}
	if c.HistorySize < 0 {
		return errors.Errorf("history.size must not be negative, got %d", c.HistorySize)
	}
	if c.HistoryTTL < 0 {
		return errors.Errorf("history.ttl must not be negative, got %s", c.HistoryTTL)
	}
	if c.LogFormat != FormatText && c.LogFormat != FormatJSON {
		return errors.Errorf("unknown log.format %q (want %s or %s)", c.LogFormat, FormatText, FormatJSON)
	}
	return nil
}

// NeedsModel reports whether the chat endpoint runs agents.
func (c *Config) NeedsModel() bool {
	return c.ChatMode == ModeCrew
}

// RequireCredential fails with ErrMissingCredential when the provider needs an
// API key and none is set. Bedrock resolves credentials through the AWS chain.
func (c *Config) RequireCredential() error {
	if c.LLM.Provider == llm.ProviderBedrock || c.LLM.APIKey != "" {
		return nil
	}
	if c.LLM.Provider == llm.ProviderGemini {
		return errors.Wrap(ErrMissingCredential, "set GEMINI_API_KEY or MARKETCREW_LLM_API_KEY")
	}
	return errors.Wrap(ErrMissingCredential, "set OPENAI_API_KEY or MARKETCREW_LLM_API_KEY")
}
