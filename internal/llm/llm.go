// ABOUTME: Capability interfaces for the two remote services: embeddings and generation
// ABOUTME: Core code depends only on these so tests can inject deterministic fakes
package llm

import "context"

// Embedder turns text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Fingerprint identifies provider and model; vectors from different fingerprints
	// must never be compared
	Fingerprint() string
}

// Generator turns a prompt into text
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt is one system + user message exchange
type Prompt struct {
	System      string
	User        string
	Temperature float32
	// JSON asks providers that support it to constrain output to JSON
	JSON bool
}

// Provider bundles both capabilities from the same backend
type Provider interface {
	Embedder
	Generator
	Name() string
	Close() error
}
