// ABOUTME: Retriever embeds a query and returns the k most similar chunks
// ABOUTME: Ordering is by descending similarity, ties by ascending chunk id
package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/harper/ragmem/internal/llm"
	"github.com/harper/ragmem/internal/models"
)

// Searcher performs nearest-neighbor search over an index
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]models.ScoredChunk, error)
}

// Retriever finds the chunks most similar to a query
type Retriever struct {
	embedder llm.Embedder
	searcher Searcher
	logger   *zap.Logger
}

// NewRetriever creates a Retriever
func NewRetriever(embedder llm.Embedder, searcher Searcher, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{embedder: embedder, searcher: searcher, logger: logger}
}

// Retrieve returns at most k chunks. An empty index yields an empty result.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", models.ErrInvalidK, k)
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", models.ErrEmbeddingService, err)
	}

	results, err := r.searcher.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	models.SortScored(results)
	if len(results) > k {
		results = results[:k]
	}

	r.logger.Debug("Retrieved chunks",
		zap.Int("k", k),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// Chunks strips scores
func Chunks(results []models.ScoredChunk) []models.Chunk {
	chunks := make([]models.Chunk, len(results))
	for i, r := range results {
		chunks[i] = r.Chunk
	}
	return chunks
}
