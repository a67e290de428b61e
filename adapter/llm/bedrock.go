package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/scttfrdmn/marketcrew/agenkit"
)

// DefaultBedrockModel is used when no model is configured.
const DefaultBedrockModel = "anthropic.claude-3-haiku-20240307-v1:0"

// BedrockLLM is an adapter for models served through the Bedrock Converse API.
//
// Credentials follow the usual AWS chain unless explicit keys or a profile are
// configured.
type BedrockLLM struct {
	client  *bedrockruntime.Client
	modelID string
}

// BedrockConfig holds configuration for creating a Bedrock adapter.
type BedrockConfig struct {
	ModelID string

	// Region defaults to us-east-1.
	Region string

	Profile         string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// EndpointURL overrides the service endpoint, e.g. for a VPC endpoint.
	EndpointURL string
}

// NewBedrockLLM creates a new Bedrock adapter.
func NewBedrockLLM(ctx context.Context, cfg BedrockConfig) (*BedrockLLM, error) {
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultBedrockModel
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	configOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.Profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*bedrockruntime.Options)
	if cfg.EndpointURL != "" {
		clientOpts = append(clientOpts, func(o *bedrockruntime.Options) {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		})
	}

	return &BedrockLLM{
		client:  bedrockruntime.NewFromConfig(awsConfig, clientOpts...),
		modelID: cfg.ModelID,
	}, nil
}

// Model returns the model identifier.
func (b *BedrockLLM) Model() string {
	return b.modelID
}

// Complete generates a completion through Converse.
func (b *BedrockLLM) Complete(ctx context.Context, messages []*agenkit.Message, opts ...CallOption) (*agenkit.Message, error) {
	options := BuildCallOptions(opts...)
	bedrockMessages, systemPrompts := convertBedrockMessages(messages)

	maxTokens := 4096
	if options.MaxTokens != nil {
		maxTokens = *options.MaxTokens
	}
	inferenceConfig := &types.InferenceConfiguration{
		MaxTokens:     aws.Int32(int32(maxTokens)),
		StopSequences: options.Stop,
	}
	if options.Temperature != nil {
		inferenceConfig.Temperature = aws.Float32(float32(*options.Temperature))
	}
	if options.TopP != nil {
		inferenceConfig.TopP = aws.Float32(float32(*options.TopP))
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:         aws.String(b.modelID),
		Messages:        bedrockMessages,
		InferenceConfig: inferenceConfig,
	}
	if len(systemPrompts) > 0 {
		input.System = systemPrompts
	}

	output, err := b.client.Converse(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("bedrock api error: %w", err)
	}

	var content strings.Builder
	if msg, ok := output.Output.(*types.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			if text, ok := block.(*types.ContentBlockMemberText); ok {
				content.WriteString(text.Value)
			}
		}
	}

	response := agenkit.NewMessage(agenkit.RoleAgent, content.String())
	response.Metadata["model"] = b.modelID
	if output.Usage != nil {
		response.Metadata["usage"] = usage(
			int(aws.ToInt32(output.Usage.InputTokens)),
			int(aws.ToInt32(output.Usage.OutputTokens)),
			int(aws.ToInt32(output.Usage.TotalTokens)),
		)
	}
	if output.StopReason != "" {
		response.Metadata["stop_reason"] = string(output.StopReason)
	}

	return response, nil
}

// convertBedrockMessages splits system prompts out and merges consecutive
// turns of the same role, which Converse rejects.
func convertBedrockMessages(messages []*agenkit.Message) ([]types.Message, []types.SystemContentBlock) {
	var out []types.Message
	var system []types.SystemContentBlock

	for _, msg := range messages {
		if msg.Role == agenkit.RoleSystem {
			system = append(system, &types.SystemContentBlockMemberText{Value: msg.Content})
			continue
		}

		role := types.ConversationRoleAssistant
		if msg.Role == agenkit.RoleUser || msg.Role == agenkit.RoleTool {
			role = types.ConversationRoleUser
		}

		block := &types.ContentBlockMemberText{Value: msg.Content}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, block)
			continue
		}
		out = append(out, types.Message{Role: role, Content: []types.ContentBlock{block}})
	}

	return out, system
}
