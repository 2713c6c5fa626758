package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/ragmem/internal/llm/llmtest"
	"github.com/harper/ragmem/internal/models"
)

type stubSearcher struct {
	results []models.ScoredChunk
	err     error
	gotK    int
}

func (s *stubSearcher) Search(_ context.Context, _ []float32, k int) ([]models.ScoredChunk, error) {
	s.gotK = k
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.ScoredChunk, len(s.results))
	copy(out, s.results)
	return out, nil
}

func scored(id int, score float64) models.ScoredChunk {
	return models.ScoredChunk{Chunk: chunkOf("doc.txt", id, "text"), Score: score}
}

func TestRetrieve_OrdersByScoreThenChunkID(t *testing.T) {
	searcher := &stubSearcher{results: []models.ScoredChunk{
		scored(5, 0.5),
		scored(3, 0.9),
		scored(2, 0.5),
		scored(9, 0.1),
	}}
	r := NewRetriever(llmtest.NewHashEmbedder(), searcher, nil)

	got, err := r.Retrieve(context.Background(), "question", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	ids := []int{got[0].Metadata.ChunkID, got[1].Metadata.ChunkID, got[2].Metadata.ChunkID}
	assert.Equal(t, []int{3, 2, 5}, ids)
	assert.Equal(t, 3, searcher.gotK)
}

func TestRetrieve_InvalidK(t *testing.T) {
	embedder := llmtest.NewHashEmbedder()
	r := NewRetriever(embedder, &stubSearcher{}, nil)

	for _, k := range []int{0, -1} {
		_, err := r.Retrieve(context.Background(), "q", k)
		assert.ErrorIs(t, err, models.ErrInvalidK)
	}
	assert.Zero(t, embedder.Calls())
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	r := NewRetriever(llmtest.NewHashEmbedder(), &stubSearcher{}, nil)

	got, err := r.Retrieve(context.Background(), "q", 4)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieve_EmbeddingFailure(t *testing.T) {
	embedder := llmtest.NewHashEmbedder()
	embedder.FailOn = "boom"
	r := NewRetriever(embedder, &stubSearcher{}, nil)

	_, err := r.Retrieve(context.Background(), "boom", 4)
	assert.ErrorIs(t, err, models.ErrEmbeddingService)
}

func TestRetrieve_SearchFailure(t *testing.T) {
	searchErr := errors.New("disk gone")
	r := NewRetriever(llmtest.NewHashEmbedder(), &stubSearcher{err: searchErr}, nil)

	_, err := r.Retrieve(context.Background(), "q", 4)
	assert.ErrorIs(t, err, searchErr)
}
