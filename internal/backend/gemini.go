package backend

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/run-bigpig/consilium/internal/models"
)

// GeminiBackend adapts the Gemini API for plain chat completions. Function
// calling stays disabled here; research requests from Gemini models are
// answered from the prompt context instead.
type GeminiBackend struct {
	client *genai.Client
	desc   models.ModelDescriptor
}

func NewGeminiBackend(ctx context.Context, desc models.ModelDescriptor, apiKey string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %w", desc.Name, ErrMissingAPIKey)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiBackend{client: client, desc: desc}, nil
}

func (g *GeminiBackend) Name() string        { return g.desc.Name }
func (g *GeminiBackend) SupportsTools() bool { return false }

func (g *GeminiBackend) Complete(ctx context.Context, messages []ChatMessage, tools []ToolDefinition) (*Completion, error) {
	if len(tools) > 0 {
		log.Debug("%s ignores %d tool definitions", g.desc.Name, len(tools))
	}
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		text := m.Content
		if m.Role == RoleTool {
			text = "Research result:\n" + m.Content
		}
		if text == "" {
			continue
		}
		contents = append(contents, genai.NewContentFromText(text, role))
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.desc.ModelID, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](defaultTemperature),
		MaxOutputTokens: defaultMaxTokens,
	})
	if err != nil {
		log.Error("%s completion failed: %v", g.desc.Name, err)
		return nil, fmt.Errorf("%s completion: %w", g.desc.Name, err)
	}
	text := normalizeContent(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("%s: %w", g.desc.Name, ErrEmptyCompletion)
	}
	return &Completion{Text: text}, nil
}
