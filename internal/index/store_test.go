// ABOUTME: Tests for the persistent vector index
// ABOUTME: Covers build, reload, bootstrap, model mismatch rebuild, and wholesale replacement

package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/ragmem/internal/core"
	"github.com/harper/ragmem/internal/llm/llmtest"
	"github.com/harper/ragmem/internal/models"
)

type fixture struct {
	store    *Store
	embedder *llmtest.HashEmbedder
	indexDir string
	docsDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		embedder: llmtest.NewHashEmbedder(),
		indexDir: filepath.Join(root, "index"),
		docsDir:  filepath.Join(root, "docs"),
	}
	require.NoError(t, os.MkdirAll(f.docsDir, 0o755))
	f.store = f.open()
	return f
}

// open returns a fresh Store over the same directories, as a new process would
func (f *fixture) open() *Store {
	return NewStore(Options{
		Dir:      f.indexDir,
		DocsDir:  f.docsDir,
		Embedder: f.embedder,
		Loader:   core.NewIngestor(core.NewChunker()),
	})
}

func writeDoc(t *testing.T, dir, name, text string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
}

func testChunks(texts ...string) []models.Chunk {
	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.Chunk{
			Text: text,
			Metadata: models.ChunkMetadata{
				Source:  "facts.txt",
				ChunkID: i + 1,
				Locator: models.LocatorFor(i + 1),
				End:     len(text),
			},
		}
	}
	return chunks
}

func (f *fixture) query(t *testing.T, s *Store, text string, k int) []models.ScoredChunk {
	t.Helper()
	vec, err := f.embedder.Embed(context.Background(), text)
	require.NoError(t, err)
	results, err := s.Search(context.Background(), vec, k)
	require.NoError(t, err)
	return results
}

func TestBuild_SearchRanksBySimilarity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	manifest, err := f.store.Build(ctx, testChunks(
		"apples are red fruit",
		"the ocean is deep and blue",
		"rockets fly to space",
	), "test")
	require.NoError(t, err)

	assert.Equal(t, 3, manifest.Chunks)
	assert.Equal(t, llmtest.DefaultDimensions, manifest.Dimensions)
	assert.Equal(t, "fake/hash-64", manifest.Embedder)
	assert.Equal(t, []string{"facts.txt"}, manifest.Sources)
	assert.NotEmpty(t, manifest.BuildID)

	results := f.query(t, f.store, "deep blue ocean", 2)
	require.Len(t, results, 2)
	assert.Equal(t, "the ocean is deep and blue", results[0].Text)
	assert.Equal(t, models.ChunkMetadata{
		Source:  "facts.txt",
		ChunkID: 2,
		Locator: "chunk 2",
		End:     len("the ocean is deep and blue"),
	}, results[0].Metadata)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestBuild_TiesBreakByChunkID(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.Build(context.Background(), testChunks("same words", "same words", "same words"), "test")
	require.NoError(t, err)

	results := f.query(t, f.store, "same words", 2)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Metadata.ChunkID)
	assert.Equal(t, 2, results[1].Metadata.ChunkID)
}

func TestLoad_ReopensWithoutReembedding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	built, err := f.store.Build(ctx, testChunks("alpha beta", "gamma delta"), "test")
	require.NoError(t, err)
	callsAfterBuild := f.embedder.Calls()

	reopened := f.open()
	require.NoError(t, reopened.Load(ctx))
	assert.Equal(t, callsAfterBuild, f.embedder.Calls())
	assert.Equal(t, built.BuildID, reopened.Manifest().BuildID)

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	results := f.query(t, reopened, "gamma delta", 1)
	require.Len(t, results, 1)
	assert.Equal(t, "gamma delta", results[0].Text)
}

func TestLoad_BootstrapsFromDocsDir(t *testing.T) {
	f := newFixture(t)
	writeDoc(t, f.docsDir, "sample.txt", "The warranty lasts two years.")

	require.False(t, f.store.Exists())
	require.NoError(t, f.store.Load(context.Background()))
	assert.True(t, f.store.Exists())

	m := f.store.Manifest()
	require.NotNil(t, m)
	assert.Equal(t, f.docsDir, m.SourceDir)
	assert.Equal(t, []string{"sample.txt"}, m.Sources)
}

func TestSearch_BootstrapsLazily(t *testing.T) {
	f := newFixture(t)
	writeDoc(t, f.docsDir, "sample.txt", "The warranty lasts two years.")

	results := f.query(t, f.store, "warranty", 4)
	require.Len(t, results, 1)
	assert.Equal(t, "sample.txt", results[0].Metadata.Source)
}

func TestLoad_BootstrapWithNoDocuments(t *testing.T) {
	f := newFixture(t)
	err := f.store.Load(context.Background())
	assert.ErrorIs(t, err, models.ErrEmptyCorpus)
	assert.False(t, f.store.Exists())
}

func TestLoad_RebuildsOnEmbedderMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	writeDoc(t, f.docsDir, "sample.txt", "Invoices are due in thirty days.")
	_, err := f.store.ForceRebuild(ctx, f.docsDir)
	require.NoError(t, err)

	f.embedder = &llmtest.HashEmbedder{Dimensions: 32, Model: "hash-32"}
	reopened := f.open()
	require.NoError(t, reopened.Load(ctx))

	m := reopened.Manifest()
	assert.Equal(t, "fake/hash-32", m.Embedder)
	assert.Equal(t, 32, m.Dimensions)
	assert.NoError(t, m.CheckEmbedder("fake/hash-32"))
	assert.ErrorIs(t, m.CheckEmbedder("fake/hash-64"), models.ErrIndexIncompatible)
}

func TestForceRebuild_ReplacesWholesale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := filepath.Join(t.TempDir(), "first")
	second := filepath.Join(t.TempDir(), "second")
	writeDoc(t, first, "old.txt", "Legacy pricing tiers were bronze and silver.")
	writeDoc(t, second, "new.txt", "Current pricing has a single flat tier.")

	_, err := f.store.ForceRebuild(ctx, first)
	require.NoError(t, err)
	m, err := f.store.ForceRebuild(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, []string{"new.txt"}, m.Sources)

	results := f.query(t, f.store, "pricing tiers", 10)
	require.Len(t, results, 1)
	assert.Equal(t, "new.txt", results[0].Metadata.Source)

	// A new process sees the same replacement
	results = f.query(t, f.open(), "pricing tiers", 10)
	require.Len(t, results, 1)
	assert.Equal(t, "new.txt", results[0].Metadata.Source)
}

func TestBuild_EmbeddingFailureKeepsPreviousIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before, err := f.store.Build(ctx, testChunks("stable content"), "test")
	require.NoError(t, err)

	f.embedder.FailOn = "poison"
	_, err = f.store.Build(ctx, testChunks("fresh content", "poison pill"), "test")
	assert.ErrorIs(t, err, models.ErrEmbeddingService)
	f.embedder.FailOn = ""

	assert.Equal(t, before.BuildID, f.store.Manifest().BuildID)
	reopened := f.open()
	require.NoError(t, reopened.Load(ctx))
	assert.Equal(t, before.BuildID, reopened.Manifest().BuildID)

	entries, err := os.ReadDir(filepath.Dir(f.indexDir))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".index-build-", "staging dir left behind")
	}
}

func TestBuild_EmptyChunks(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.Build(context.Background(), nil, "test")
	assert.ErrorIs(t, err, models.ErrEmptyCorpus)
}

func TestSearch_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.Build(ctx, testChunks("some text"), "test")
	require.NoError(t, err)

	_, err = f.store.Search(ctx, make([]float32, llmtest.DefaultDimensions), 0)
	assert.ErrorIs(t, err, models.ErrInvalidK)

	_, err = f.store.Search(ctx, []float32{1, 2, 3}, 1)
	assert.ErrorIs(t, err, models.ErrIndexIncompatible)
}

func TestMetadataFromMap_ToleratesMissingKeys(t *testing.T) {
	got := metadataFromMap(map[string]string{"source": "a.txt", "chunk_id": "7"})
	assert.Equal(t, models.ChunkMetadata{Source: "a.txt", ChunkID: 7}, got)
	assert.Equal(t, "chunk 7", core.NormalizeLocator(got))
}
