// ABOUTME: Provider factory selecting OpenAI or Gemini from configuration
// ABOUTME: Both backends share the same retry, rate limit and breaker policy
package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Options selects and configures a provider
type Options struct {
	Provider       string
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	Policy         Policy
	Logger         *zap.Logger
}

// New creates the provider named by opts.Provider
func New(ctx context.Context, opts Options) (Provider, error) {
	switch opts.Provider {
	case ProviderOpenAI:
		return NewOpenAIClientWithConfig(&ClientConfig{
			APIKey:         opts.APIKey,
			BaseURL:        opts.BaseURL,
			ChatModel:      opts.ChatModel,
			EmbeddingModel: opts.EmbeddingModel,
			Policy:         opts.Policy,
			Logger:         opts.Logger,
		})
	case ProviderGemini:
		return NewGeminiClient(ctx, &GeminiConfig{
			APIKey:         opts.APIKey,
			ChatModel:      opts.ChatModel,
			EmbeddingModel: opts.EmbeddingModel,
			Policy:         opts.Policy,
			Logger:         opts.Logger,
		})
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", opts.Provider)
	}
}
