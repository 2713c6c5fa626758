// ABOUTME: Answerer produces grounded, cited answers or the fixed refusal
// ABOUTME: Citations always come from retrieval, never from model output
package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/harper/ragmem/internal/llm"
	"github.com/harper/ragmem/internal/models"
)

// ChunkRetriever returns the chunks supporting a question
type ChunkRetriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.ScoredChunk, error)
}

// Answerer combines retrieval, citation formatting, and one generation call
type Answerer struct {
	retriever ChunkRetriever
	generator llm.Generator
	logger    *zap.Logger
}

// NewAnswerer creates an Answerer
func NewAnswerer(retriever ChunkRetriever, generator llm.Generator, logger *zap.Logger) *Answerer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Answerer{retriever: retriever, generator: generator, logger: logger}
}

// Answer retrieves up to k chunks and asks the model to answer from them only.
// With no chunks it returns the refusal without calling the model.
func (a *Answerer) Answer(ctx context.Context, question string, k int) (models.Answer, error) {
	results, err := a.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return models.Answer{}, fmt.Errorf("retrieve: %w", err)
	}

	if len(results) == 0 {
		a.logger.Info("No chunks retrieved, refusing", zap.Int("k", k))
		return models.Answer{Text: models.RefusalText, Citations: []models.Citation{}}, nil
	}

	formatted := FormatContext(Chunks(results))

	text, err := a.generator.Generate(ctx, llm.Prompt{
		System:      groundedSystemPrompt,
		User:        groundedUserPrompt(formatted.Text, question),
		Temperature: 0,
	})
	if err != nil {
		return models.Answer{}, fmt.Errorf("%w: %w", models.ErrGenerationService, err)
	}

	a.logger.Debug("Generated answer",
		zap.Int("chunks", len(results)),
		zap.Int("answer_len", len(text)),
	)

	return models.Answer{
		Text:      strings.TrimSpace(text),
		Citations: formatted.Citations,
	}, nil
}
