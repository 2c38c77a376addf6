package backend

import (
	"context"
	"fmt"

	"github.com/run-bigpig/consilium/internal/models"
)

// Known providers.
const (
	ProviderMistral   = "mistral"
	ProviderSambaNova = "sambanova"
	ProviderGemini    = "gemini"
)

// New builds the backend for a model descriptor. Mistral and SambaNova share
// the OpenAI-compatible adapter on their respective base URLs.
func New(ctx context.Context, desc models.ModelDescriptor, apiKey string) (Backend, error) {
	switch desc.Provider {
	case ProviderMistral, ProviderSambaNova:
		return NewOpenAIBackend(desc, apiKey)
	case ProviderGemini:
		return NewGeminiBackend(ctx, desc, apiKey)
	default:
		return nil, fmt.Errorf("%q: %w", desc.Provider, ErrUnsupportedProvider)
	}
}
