package embeddings

import (
	"context"
	"fmt"
)

// Provider identifies a configured embedding backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
)

// Embedder turns text into vectors for topical similarity scoring.
type Embedder interface {
	// Embed generates one vector per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector width, or 0 when unknown.
	Dimensions() int

	// Name identifies the model for logging.
	Name() string
}

// New builds the embedder for a provider. An empty model takes the
// provider's default.
func New(provider Provider, model, apiKey, ollamaURL string) (Embedder, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("openai embeddings need an api key")
		}
		return NewOpenAI(apiKey, model), nil
	case ProviderOllama:
		return NewOllama(model, ollamaURL), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}
