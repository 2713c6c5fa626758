// ABOUTME: Deterministic fakes for the embedding and generation capabilities
// ABOUTME: Used by tests across packages to avoid network calls
package llmtest

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/harper/ragmem/internal/llm"
)

// DefaultDimensions is the vector size of HashEmbedder
const DefaultDimensions = 64

// HashEmbedder embeds text as a bag of hashed lowercase words.
// Texts sharing words score higher under cosine similarity.
type HashEmbedder struct {
	Dimensions int
	Model      string
	// FailOn makes Embed fail for any text containing this substring
	FailOn string

	mu    sync.Mutex
	calls int
}

// NewHashEmbedder creates a HashEmbedder with default dimensions
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{Dimensions: DefaultDimensions, Model: "hash-64"}
}

// Embed implements llm.Embedder
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.FailOn != "" && strings.Contains(text, e.FailOn) {
		return nil, errors.New("fake embedding failure")
	}

	dims := e.Dimensions
	if dims <= 1 {
		dims = DefaultDimensions
	}
	vec := make([]float32, dims)
	// Bias component keeps every vector non-zero
	vec[0] = 0.5

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[1+int(h.Sum32()%uint32(dims-1))]++
	}
	return vec, nil
}

// Fingerprint implements llm.Embedder
func (e *HashEmbedder) Fingerprint() string {
	if e.Model == "" {
		return "fake/hash"
	}
	return "fake/" + e.Model
}

// Calls returns how many times Embed was invoked
func (e *HashEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// ScriptedGenerator returns canned responses and records prompts
type ScriptedGenerator struct {
	// Responses are returned in order; the last one repeats
	Responses []string
	Err       error

	mu      sync.Mutex
	prompts []llm.Prompt
}

// NewScriptedGenerator creates a generator answering with the given responses
func NewScriptedGenerator(responses ...string) *ScriptedGenerator {
	return &ScriptedGenerator{Responses: responses}
}

// Generate implements llm.Generator
func (g *ScriptedGenerator) Generate(_ context.Context, prompt llm.Prompt) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prompts = append(g.prompts, prompt)
	if g.Err != nil {
		return "", g.Err
	}
	if len(g.Responses) == 0 {
		return "", nil
	}
	i := len(g.prompts) - 1
	if i >= len(g.Responses) {
		i = len(g.Responses) - 1
	}
	return g.Responses[i], nil
}

// Calls returns how many times Generate was invoked
func (g *ScriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

// Prompts returns a copy of every prompt received
func (g *ScriptedGenerator) Prompts() []llm.Prompt {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]llm.Prompt, len(g.prompts))
	copy(out, g.prompts)
	return out
}

// Provider combines the two fakes into an llm.Provider
type Provider struct {
	*HashEmbedder
	*ScriptedGenerator
}

// NewProvider creates a Provider whose generator answers with responses
func NewProvider(responses ...string) *Provider {
	return &Provider{
		HashEmbedder:      NewHashEmbedder(),
		ScriptedGenerator: NewScriptedGenerator(responses...),
	}
}

// Name implements llm.Provider
func (p *Provider) Name() string { return "fake" }

// Close implements llm.Provider
func (p *Provider) Close() error { return nil }

var _ llm.Provider = (*Provider)(nil)
