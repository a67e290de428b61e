package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scttfrdmn/marketcrew/chat"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"OPENAI_API_KEY", "GEMINI_API_KEY", "MARKETCREW_LLM_API_KEY", "MARKETCREW_LLM_PROVIDER", "AWS_REGION", "REDIS_URL"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 10, cfg.LLM.MaxSteps)
	assert.Equal(t, ModeDirect, cfg.ChatMode)
	assert.Equal(t, chat.Synthesized, cfg.ThinkingStrategy)
	assert.Equal(t, 100, cfg.HistorySize)
	assert.Equal(t, FormatText, cfg.LogFormat)
	assert.False(t, cfg.NeedsModel())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MARKETCREW_CHAT_MODE", "crew")
	t.Setenv("MARKETCREW_CHAT_THINKING", "parsed")
	t.Setenv("MARKETCREW_LLM_MAX_STEPS", "4")
	t.Setenv("MARKETCREW_LOG_FORMAT", "JSON")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, ModeCrew, cfg.ChatMode)
	assert.Equal(t, chat.ParsedFromText, cfg.ThinkingStrategy)
	assert.Equal(t, 4, cfg.LLM.MaxSteps)
	assert.Equal(t, FormatJSON, cfg.LogFormat)
	assert.Equal(t, "redis://localhost:6379/1", cfg.RedisURL)
	assert.True(t, cfg.NeedsModel())
	assert.NoError(t, cfg.RequireCredential())
}

func TestLoadPrefixedKeyWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("MARKETCREW_LLM_API_KEY", "sk-marketcrew")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "sk-marketcrew", cfg.LLM.APIKey)
}

func TestLoadGeminiKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("MARKETCREW_LLM_PROVIDER", "Gemini")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("GEMINI_API_KEY", "gm-key")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gm-key", cfg.LLM.APIKey)
	assert.Equal(t, "gm-key", cfg.LLM.Adapter().APIKey)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"llm.provider", "mystery"},
		{"llm.max-steps", "0"},
		{"llm.temperature", "3"},
		{"chat.mode", "telepathy"},
		{"chat.thinking", "dreamed"},
		{"log.format", "xml"},
		{"history.size", "-1"},
		{"addr", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			v := New()
			v.Set(tt.key, tt.value)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}

func TestRequireCredential(t *testing.T) {
	missing := &Config{LLM: LLMConfig{Provider: "openai"}}
	err := missing.RequireCredential()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCredential))
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	gemini := &Config{LLM: LLMConfig{Provider: "gemini"}}
	err = gemini.RequireCredential()
	assert.True(t, errors.Is(err, ErrMissingCredential))
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	bedrock := &Config{LLM: LLMConfig{Provider: "bedrock"}}
	assert.NoError(t, bedrock.RequireCredential())
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MARKETCREW_TEST_DOTENV=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MARKETCREW_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path))
	assert.Equal(t, "loaded", os.Getenv("MARKETCREW_TEST_DOTENV"))
}
