package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/scttfrdmn/marketcrew/agenkit"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiLLM is an adapter for Google's Gemini models.
type GeminiLLM struct {
	client *genai.Client
	model  string
}

// NewGeminiLLM creates a new Gemini adapter.
func NewGeminiLLM(ctx context.Context, apiKey, model string) (*GeminiLLM, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiLLM{
		client: client,
		model:  model,
	}, nil
}

// Model returns the model identifier.
func (g *GeminiLLM) Model() string {
	return g.model
}

// Complete generates a completion from Gemini. System messages become the
// model's system instruction; the last remaining message is sent to a chat
// session seeded with the others as history.
func (g *GeminiLLM) Complete(ctx context.Context, messages []*agenkit.Message, opts ...CallOption) (*agenkit.Message, error) {
	options := BuildCallOptions(opts...)

	model := g.client.GenerativeModel(g.model)
	configureGeminiModel(model, options)

	system, history, last := convertGeminiMessages(messages)
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}
	if last == nil {
		return nil, errors.New("gemini requires at least one non-system message")
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, last...)
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}

	response := agenkit.NewMessage(agenkit.RoleAgent, geminiText(resp))
	response.Metadata["model"] = g.model
	if resp.UsageMetadata != nil {
		response.Metadata["usage"] = usage(
			int(resp.UsageMetadata.PromptTokenCount),
			int(resp.UsageMetadata.CandidatesTokenCount),
			int(resp.UsageMetadata.TotalTokenCount),
		)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != 0 {
		response.Metadata["finish_reason"] = resp.Candidates[0].FinishReason.String()
	}

	return response, nil
}

// Close closes the Gemini client.
func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func convertGeminiMessages(messages []*agenkit.Message) (string, []*genai.Content, []genai.Part) {
	var system []string
	var turns []*agenkit.Message
	for _, msg := range messages {
		if msg.Role == agenkit.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		turns = append(turns, msg)
	}
	if len(turns) == 0 {
		return strings.Join(system, "\n\n"), nil, nil
	}

	history := make([]*genai.Content, 0, len(turns)-1)
	for _, msg := range turns[:len(turns)-1] {
		history = append(history, &genai.Content{
			Role:  geminiRole(msg.Role),
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	last := []genai.Part{genai.Text(turns[len(turns)-1].Content)}
	return strings.Join(system, "\n\n"), history, last
}

// geminiRole maps roles onto Gemini's "user" and "model".
func geminiRole(role string) string {
	switch role {
	case agenkit.RoleUser, agenkit.RoleTool:
		return "user"
	default:
		return "model"
	}
}

func configureGeminiModel(model *genai.GenerativeModel, options *CallOptions) {
	if options.Temperature != nil {
		model.SetTemperature(float32(*options.Temperature))
	}
	if options.MaxTokens != nil {
		model.SetMaxOutputTokens(int32(*options.MaxTokens))
	}
	if options.TopP != nil {
		model.SetTopP(float32(*options.TopP))
	}
	if topK, ok := options.Extra["top_k"].(int); ok {
		model.SetTopK(int32(topK))
	}
	if len(options.Stop) > 0 {
		model.StopSequences = options.Stop
	}
}

func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
