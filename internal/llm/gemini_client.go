// ABOUTME: Gemini client for embeddings and grounded generation
// ABOUTME: Uses gemini-embedding-001 for embeddings, gemini-2.5-flash for chat (configurable)
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	// ProviderGemini names the Gemini backend in metrics and fingerprints
	ProviderGemini = "gemini"
	// DefaultGeminiChatModel is the default model for generation
	DefaultGeminiChatModel = "gemini-2.5-flash"
	// DefaultGeminiEmbeddingModel is the default model for embeddings
	DefaultGeminiEmbeddingModel = "gemini-embedding-001"
)

// GeminiConfig holds configuration for the Gemini client
type GeminiConfig struct {
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	Policy         Policy
	Logger         *zap.Logger
	// ClientOptions are appended after the API key option
	ClientOptions []option.ClientOption
}

// GeminiClient wraps the Gemini API client with the shared call policy
type GeminiClient struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
	caller         *caller
}

// NewGeminiClient creates a Gemini client
func NewGeminiClient(ctx context.Context, config *GeminiConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, errors.New("Google API key is required")
	}

	opts := append([]option.ClientOption{option.WithAPIKey(config.APIKey)}, config.ClientOptions...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	chatModel := config.ChatModel
	if chatModel == "" {
		chatModel = DefaultGeminiChatModel
	}
	embeddingModel := config.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultGeminiEmbeddingModel
	}

	return &GeminiClient{
		client:         client,
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		caller:         newCaller(ProviderGemini, config.Policy, config.Logger),
	}, nil
}

// Name implements Provider
func (c *GeminiClient) Name() string { return ProviderGemini }

// Fingerprint implements Embedder
func (c *GeminiClient) Fingerprint() string {
	return ProviderGemini + "/" + c.embeddingModel
}

// Close releases the underlying gRPC connection
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Embed generates one embedding vector
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	model := c.client.EmbeddingModel(c.embeddingModel)

	var embedding []float32
	err := c.caller.do(ctx, "embed", func(ctx context.Context) error {
		resp, err := model.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return err
		}
		if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
			return errors.New("empty embedding response")
		}
		embedding = resp.Embedding.Values
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	return embedding, nil
}

// Generate runs one content generation call
func (c *GeminiClient) Generate(ctx context.Context, prompt Prompt) (string, error) {
	// Models carry per-call settings, so build one per request
	model := c.client.GenerativeModel(c.chatModel)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompt.System)}}
	model.SetTemperature(prompt.Temperature)
	if prompt.JSON {
		model.ResponseMIMEType = "application/json"
	}

	var answer string
	err := c.caller.do(ctx, "generate", func(ctx context.Context) error {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt.User))
		if err != nil {
			return err
		}
		text := responseText(resp)
		if text == "" {
			return errors.New("no text in response candidates")
		}
		answer = text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return answer, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				parts = append(parts, string(text))
			}
		}
		// First candidate with content wins
		if len(parts) > 0 {
			break
		}
	}
	return strings.Join(parts, "")
}
