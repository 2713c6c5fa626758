// ABOUTME: Persistent vector index over chunk embeddings backed by chromem-go
// ABOUTME: Builds are written to a temporary directory and swapped in whole
package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/harper/ragmem/internal/llm"
	"github.com/harper/ragmem/internal/metrics"
	"github.com/harper/ragmem/internal/models"
)

const (
	collectionName = "chunks"
	vectorsDir     = "vectors"
)

// Chunk metadata keys stored alongside each vector
const (
	metaSource  = "source"
	metaChunkID = "chunk_id"
	metaLocator = "locator"
	metaStart   = "start"
	metaEnd     = "end"
)

// CorpusLoader produces the chunks of a document directory and a digest of
// its contents
type CorpusLoader interface {
	LoadCorpus(ctx context.Context, dir string) ([]models.Chunk, error)
	Digest(dir string) (string, error)
}

// Options configures a Store
type Options struct {
	// Dir is the fixed on-disk index location
	Dir string
	// DocsDir is the document directory used to bootstrap a missing index
	DocsDir  string
	Embedder llm.Embedder
	Loader   CorpusLoader
	// ChunkSize and ChunkOverlap are recorded in the manifest
	ChunkSize    int
	ChunkOverlap int
	Logger       *zap.Logger
}

// Store owns the persisted index and the open handle to it
type Store struct {
	opts   Options
	logger *zap.Logger

	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	manifest   *Manifest
}

// NewStore creates a Store. Nothing is read from disk until Load or Search.
func NewStore(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{opts: opts, logger: logger}
}

// Dir returns the index location
func (s *Store) Dir() string { return s.opts.Dir }

// Manifest returns the loaded index manifest, or nil if nothing is loaded
func (s *Store) Manifest() *Manifest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.manifest == nil {
		return nil
	}
	m := *s.manifest
	return &m
}

// Exists reports whether a persisted index is present on disk
func (s *Store) Exists() bool {
	_, err := os.Stat(filepath.Join(s.opts.Dir, manifestFile))
	return err == nil
}

// Build embeds every chunk and replaces the persisted index with the result.
// Any embedding failure aborts the build and leaves the previous index untouched.
func (s *Store) Build(ctx context.Context, chunks []models.Chunk, sourceDir string) (*Manifest, error) {
	staged, manifest, err := s.stage(ctx, chunks, sourceDir)
	if err != nil {
		metrics.IndexBuildsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.install(staged, manifest); err != nil {
		metrics.IndexBuildsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.IndexBuildsTotal.WithLabelValues("ok").Inc()
	return manifest, nil
}

// Load opens the persisted index. A missing index is built from the default
// document directory; an index from another embedding model is rebuilt from
// the directory it was built from.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

// ForceRebuild deletes the persisted index, then builds a new one from dir
func (s *Store) ForceRebuild(ctx context.Context, dir string) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.dropLocked(); err != nil {
		return nil, err
	}
	return s.rebuildLocked(ctx, dir)
}

// Search returns up to k chunks by descending cosine similarity, ties by
// ascending chunk id. An empty index returns no results.
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]models.ScoredChunk, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", models.ErrInvalidK, k)
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.collection == nil {
		return []models.ScoredChunk{}, nil
	}
	count := s.collection.Count()
	if count == 0 {
		return []models.ScoredChunk{}, nil
	}
	if s.manifest != nil && s.manifest.Dimensions > 0 && len(vector) != s.manifest.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			models.ErrIndexIncompatible, len(vector), s.manifest.Dimensions)
	}

	// Score everything so ties at the k boundary resolve by chunk id
	results, err := s.collection.QueryEmbedding(ctx, vector, count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	scored := make([]models.ScoredChunk, 0, len(results))
	for _, r := range results {
		scored = append(scored, models.ScoredChunk{
			Chunk: models.Chunk{
				Text:     r.Content,
				Metadata: metadataFromMap(r.Metadata),
			},
			Score: float64(r.Similarity),
		})
	}
	models.SortScored(scored)
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Count returns the number of indexed chunks, loading the index if needed
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collection == nil {
		return 0, nil
	}
	return s.collection.Count(), nil
}

func (s *Store) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.collection != nil
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.Load(ctx)
}

func (s *Store) loadLocked(ctx context.Context) error {
	if s.collection != nil {
		return nil
	}

	manifest, err := readManifest(s.opts.Dir)
	if errors.Is(err, models.ErrIndexNotFound) {
		s.logger.Info("No index found, bootstrapping",
			zap.String("index_dir", s.opts.Dir),
			zap.String("docs_dir", s.opts.DocsDir),
		)
		_, err = s.rebuildLocked(ctx, s.opts.DocsDir)
		return err
	}
	if err != nil {
		return err
	}

	if err := manifest.CheckEmbedder(s.opts.Embedder.Fingerprint()); err != nil {
		sourceDir := manifest.SourceDir
		if sourceDir == "" {
			sourceDir = s.opts.DocsDir
		}
		s.logger.Warn("Index built with a different embedding model, rebuilding",
			zap.String("index_embedder", manifest.Embedder),
			zap.String("embedder", s.opts.Embedder.Fingerprint()),
			zap.String("source_dir", sourceDir),
		)
		if err := s.dropLocked(); err != nil {
			return err
		}
		_, err = s.rebuildLocked(ctx, sourceDir)
		return err
	}

	db, collection, err := openVectors(s.opts.Dir)
	if err != nil {
		return err
	}
	s.db, s.collection, s.manifest = db, collection, manifest
	metrics.IndexChunks.Set(float64(collection.Count()))

	s.logger.Debug("Loaded index",
		zap.String("build_id", manifest.BuildID),
		zap.Int("chunks", collection.Count()),
	)
	return nil
}

// rebuildLocked loads the corpus in dir and installs a fresh build. Caller holds mu.
func (s *Store) rebuildLocked(ctx context.Context, dir string) (*Manifest, error) {
	chunks, err := s.opts.Loader.LoadCorpus(ctx, dir)
	if err != nil {
		metrics.IndexBuildsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	staged, manifest, err := s.stage(ctx, chunks, dir)
	if err != nil {
		metrics.IndexBuildsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if err := s.install(staged, manifest); err != nil {
		metrics.IndexBuildsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.IndexBuildsTotal.WithLabelValues("ok").Inc()
	return manifest, nil
}

// dropLocked forgets the open handle and deletes the persisted index. Caller holds mu.
func (s *Store) dropLocked() error {
	s.db, s.collection, s.manifest = nil, nil, nil
	metrics.IndexChunks.Set(0)
	if err := os.RemoveAll(s.opts.Dir); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}
	return nil
}

// stage embeds chunks and writes a complete index into a temporary sibling
// directory, returning that directory.
func (s *Store) stage(ctx context.Context, chunks []models.Chunk, sourceDir string) (string, *Manifest, error) {
	if len(chunks) == 0 {
		return "", nil, models.ErrEmptyCorpus
	}

	var digest string
	if s.opts.Loader != nil && sourceDir != "" {
		d, err := s.opts.Loader.Digest(sourceDir)
		if err != nil {
			return "", nil, fmt.Errorf("digest %s: %w", sourceDir, err)
		}
		digest = d
	}

	start := time.Now()
	embeddings := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		vec, err := s.opts.Embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return "", nil, fmt.Errorf("%w: chunk %d of %s: %w",
				models.ErrEmbeddingService, chunk.Metadata.ChunkID, chunk.Metadata.Source, err)
		}
		if i > 0 && len(vec) != len(embeddings[0]) {
			return "", nil, fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				models.ErrEmbeddingService, chunk.Metadata.ChunkID, len(vec), len(embeddings[0]))
		}
		embeddings[i] = vec
	}

	parent := filepath.Dir(filepath.Clean(s.opts.Dir))
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", nil, fmt.Errorf("create index parent: %w", err)
	}
	staged, err := os.MkdirTemp(parent, ".index-build-*")
	if err != nil {
		return "", nil, fmt.Errorf("create staging dir: %w", err)
	}

	manifest := &Manifest{
		BuildID:      uuid.New().String(),
		Embedder:     s.opts.Embedder.Fingerprint(),
		Dimensions:   len(embeddings[0]),
		Chunks:       len(chunks),
		Sources:      sourcesOf(chunks),
		SourceDir:    sourceDir,
		Digest:       digest,
		ChunkSize:    s.opts.ChunkSize,
		ChunkOverlap: s.opts.ChunkOverlap,
		CreatedAt:    time.Now().UTC(),
	}

	if err := writeVectors(ctx, staged, chunks, embeddings); err != nil {
		os.RemoveAll(staged)
		return "", nil, err
	}
	if err := writeManifest(staged, manifest); err != nil {
		os.RemoveAll(staged)
		return "", nil, err
	}

	s.logger.Info("Built index",
		zap.String("build_id", manifest.BuildID),
		zap.Int("chunks", manifest.Chunks),
		zap.Int("dimensions", manifest.Dimensions),
		zap.Duration("took", time.Since(start)),
	)
	return staged, manifest, nil
}

// install swaps a staged build into the fixed location and opens it. Caller holds mu.
func (s *Store) install(staged string, manifest *Manifest) error {
	dir := filepath.Clean(s.opts.Dir)
	backup := dir + ".old"

	s.db, s.collection, s.manifest = nil, nil, nil
	_ = os.RemoveAll(backup)

	hadPrevious := false
	if _, err := os.Stat(dir); err == nil {
		if err := os.Rename(dir, backup); err != nil {
			os.RemoveAll(staged)
			return fmt.Errorf("move previous index aside: %w", err)
		}
		hadPrevious = true
	}
	if err := os.Rename(staged, dir); err != nil {
		if hadPrevious {
			_ = os.Rename(backup, dir)
		}
		os.RemoveAll(staged)
		return fmt.Errorf("install index: %w", err)
	}
	_ = os.RemoveAll(backup)

	db, collection, err := openVectors(dir)
	if err != nil {
		return err
	}
	s.db, s.collection, s.manifest = db, collection, manifest
	metrics.IndexChunks.Set(float64(collection.Count()))
	return nil
}

func writeVectors(ctx context.Context, dir string, chunks []models.Chunk, embeddings [][]float32) error {
	db, err := chromem.NewPersistentDB(filepath.Join(dir, vectorsDir), false)
	if err != nil {
		return fmt.Errorf("create vector db: %w", err)
	}
	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	ids := make([]string, len(chunks))
	metadatas := make([]map[string]string, len(chunks))
	contents := make([]string, len(chunks))
	for i, chunk := range chunks {
		// Position, not chunk id, so externally built chunks never collide
		ids[i] = strconv.Itoa(i + 1)
		metadatas[i] = metadataToMap(chunk.Metadata)
		contents[i] = chunk.Text
	}

	if err := collection.Add(ctx, ids, embeddings, metadatas, contents); err != nil {
		return fmt.Errorf("add vectors: %w", err)
	}
	return nil
}

func openVectors(dir string) (*chromem.DB, *chromem.Collection, error) {
	db, err := chromem.NewPersistentDB(filepath.Join(dir, vectorsDir), false)
	if err != nil {
		return nil, nil, fmt.Errorf("open vector db: %w", err)
	}
	collection := db.GetCollection(collectionName, nil)
	if collection == nil {
		return nil, nil, fmt.Errorf("%w: collection %q missing", models.ErrIndexNotFound, collectionName)
	}
	return db, collection, nil
}

func metadataToMap(m models.ChunkMetadata) map[string]string {
	return map[string]string{
		metaSource:  m.Source,
		metaChunkID: strconv.Itoa(m.ChunkID),
		metaLocator: m.Locator,
		metaStart:   strconv.Itoa(m.Start),
		metaEnd:     strconv.Itoa(m.End),
	}
}

// metadataFromMap tolerates missing keys; citation formatting fills the gaps
func metadataFromMap(m map[string]string) models.ChunkMetadata {
	atoi := func(key string) int {
		n, err := strconv.Atoi(m[key])
		if err != nil {
			return 0
		}
		return n
	}
	return models.ChunkMetadata{
		Source:  m[metaSource],
		ChunkID: atoi(metaChunkID),
		Locator: m[metaLocator],
		Start:   atoi(metaStart),
		End:     atoi(metaEnd),
	}
}

func sourcesOf(chunks []models.Chunk) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, c := range chunks {
		if !seen[c.Metadata.Source] {
			seen[c.Metadata.Source] = true
			sources = append(sources, c.Metadata.Source)
		}
	}
	sort.Strings(sources)
	return sources
}
