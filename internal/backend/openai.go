package backend

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/run-bigpig/consilium/internal/models"
)

// OpenAIBackend adapts any OpenAI-compatible endpoint. Mistral and SambaNova
// both speak this protocol on their own base URLs.
type OpenAIBackend struct {
	client *openai.Client
	desc   models.ModelDescriptor
}

func NewOpenAIBackend(desc models.ModelDescriptor, apiKey string) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %w", desc.Name, ErrMissingAPIKey)
	}
	cfg := openai.DefaultConfig(apiKey)
	if desc.BaseURL != "" {
		cfg.BaseURL = desc.BaseURL
	}
	return &OpenAIBackend{
		client: openai.NewClientWithConfig(cfg),
		desc:   desc,
	}, nil
}

func (o *OpenAIBackend) Name() string        { return o.desc.Name }
func (o *OpenAIBackend) SupportsTools() bool { return o.desc.SupportsTools }

func (o *OpenAIBackend) Complete(ctx context.Context, messages []ChatMessage, tools []ToolDefinition) (*Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.desc.ModelID,
		Messages:    toOpenAIMessages(messages),
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}
	if o.desc.SupportsTools && len(tools) > 0 {
		req.Tools = toOpenAITools(tools)
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		log.Error("%s completion failed: %v", o.desc.Name, err)
		return nil, fmt.Errorf("%s completion: %w", o.desc.Name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: %w", o.desc.Name, ErrEmptyCompletion)
	}

	choice := resp.Choices[0].Message
	comp := &Completion{Text: flattenOpenAIContent(choice)}
	for _, tc := range choice.ToolCalls {
		comp.ToolCalls = append(comp.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return comp, nil
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func toOpenAITools(tools []ToolDefinition) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

// flattenOpenAIContent handles both the plain string content and the
// multi-part content some relays return.
func flattenOpenAIContent(msg openai.ChatCompletionMessage) string {
	if msg.Content != "" {
		return normalizeContent(msg.Content)
	}
	var parts []string
	for _, p := range msg.MultiContent {
		if p.Type == openai.ChatMessagePartTypeText {
			parts = append(parts, p.Text)
		}
	}
	return normalizeContent(parts...)
}
