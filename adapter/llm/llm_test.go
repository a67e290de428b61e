package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"github.com/scttfrdmn/marketcrew/agenkit"
)

// TestCallOptions tests the functional options pattern.
func TestCallOptions(t *testing.T) {
	tests := []struct {
		name     string
		opts     []CallOption
		validate func(*testing.T, *CallOptions)
	}{
		{
			name: "WithTemperature",
			opts: []CallOption{WithTemperature(0.7)},
			validate: func(t *testing.T, opts *CallOptions) {
				if opts.Temperature == nil || *opts.Temperature != 0.7 {
					t.Errorf("Temperature not set correctly: %v", opts.Temperature)
				}
			},
		},
		{
			name: "WithMaxTokens",
			opts: []CallOption{WithMaxTokens(1024)},
			validate: func(t *testing.T, opts *CallOptions) {
				if opts.MaxTokens == nil || *opts.MaxTokens != 1024 {
					t.Errorf("MaxTokens not set correctly: %v", opts.MaxTokens)
				}
			},
		},
		{
			name: "WithStop accumulates",
			opts: []CallOption{WithStop("Observation:"), WithStop("END")},
			validate: func(t *testing.T, opts *CallOptions) {
				if strings.Join(opts.Stop, ",") != "Observation:,END" {
					t.Errorf("unexpected stop sequences %v", opts.Stop)
				}
			},
		},
		{
			name: "Multiple options",
			opts: []CallOption{
				WithTemperature(0.5),
				WithTopP(0.95),
				WithExtra("top_k", 40),
			},
			validate: func(t *testing.T, opts *CallOptions) {
				if opts.Temperature == nil || *opts.Temperature != 0.5 {
					t.Error("Temperature not set correctly")
				}
				if opts.TopP == nil || *opts.TopP != 0.95 {
					t.Error("TopP not set correctly")
				}
				if opts.Extra["top_k"] != 40 {
					t.Error("Extra 'top_k' not set")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, BuildCallOptions(tt.opts...))
		})
	}
}

func conversation() []*agenkit.Message {
	return []*agenkit.Message{
		agenkit.NewMessage(agenkit.RoleSystem, "You are a market analyst."),
		agenkit.NewMessage(agenkit.RoleUser, "Analyze the iPhone."),
		agenkit.NewMessage(agenkit.RoleAgent, "Thought: I need data"),
		agenkit.NewMessage(agenkit.RoleTool, "Observation: {}"),
	}
}

func TestConvertOpenAIMessages(t *testing.T) {
	got := convertOpenAIMessages(conversation())

	want := []string{
		openai.ChatMessageRoleSystem,
		openai.ChatMessageRoleUser,
		openai.ChatMessageRoleAssistant,
		openai.ChatMessageRoleUser,
	}
	for i, msg := range got {
		if msg.Role != want[i] {
			t.Errorf("message %d role = %s, want %s", i, msg.Role, want[i])
		}
	}
}

func TestConvertGeminiMessages(t *testing.T) {
	system, history, last := convertGeminiMessages(conversation())

	if system != "You are a market analyst." {
		t.Errorf("unexpected system instruction %q", system)
	}
	if len(history) != 2 || history[0].Role != "user" || history[1].Role != "model" {
		t.Errorf("unexpected history %+v", history)
	}
	if len(last) != 1 || last[0] != genai.Text("Observation: {}") {
		t.Errorf("unexpected last parts %+v", last)
	}

	_, _, last = convertGeminiMessages(conversation()[:1])
	if last != nil {
		t.Error("expected no parts for a system-only conversation")
	}
}

func TestConvertBedrockMessagesMergesTurns(t *testing.T) {
	messages := append(conversation(), agenkit.NewMessage(agenkit.RoleUser, "Continue."))
	out, system := convertBedrockMessages(messages)

	if len(system) != 1 {
		t.Fatalf("expected 1 system block, got %d", len(system))
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(out))
	}
	if out[2].Role != types.ConversationRoleUser || len(out[2].Content) != 2 {
		t.Errorf("expected merged user turn, got %+v", out[2])
	}
}

func TestOpenAILLMComplete(t *testing.T) {
	var got openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Final Answer: done"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13}
		}`))
	}))
	defer server.Close()

	model := NewOpenAILLM(OpenAIConfig{APIKey: "test", BaseURL: server.URL})
	reply, err := model.Complete(context.Background(), conversation(), WithStop("Observation:"), WithMaxTokens(64))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reply.Content != "Final Answer: done" || reply.Role != agenkit.RoleAgent {
		t.Errorf("unexpected reply %+v", reply)
	}
	if reply.Metadata["finish_reason"] != "stop" {
		t.Errorf("unexpected finish reason %v", reply.Metadata["finish_reason"])
	}
	if got.Model != DefaultOpenAIModel || len(got.Stop) != 1 || got.MaxTokens != 64 {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestOpenAILLMNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "choices": []}`))
	}))
	defer server.Close()

	model := NewOpenAILLM(OpenAIConfig{APIKey: "test", BaseURL: server.URL})
	if _, err := model.Complete(context.Background(), conversation()); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	model, err := New(ctx, Config{APIKey: "test", Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.Model() != "gpt-4o" {
		t.Errorf("expected gpt-4o, got %s", model.Model())
	}

	if _, err := New(ctx, Config{Provider: ProviderGemini}); err == nil {
		t.Error("expected gemini without key to fail")
	}
	if _, err := New(ctx, Config{Provider: "anthropic"}); err == nil {
		t.Error("expected unknown provider to fail")
	}
}

// TestLLMInterface verifies that concrete implementations satisfy the interface.
func TestLLMInterface(t *testing.T) {
	var _ LLM = &OpenAILLM{}
	var _ LLM = &GeminiLLM{}
	var _ LLM = &BedrockLLM{}
}
