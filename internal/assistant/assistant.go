// ABOUTME: Assistant wires chunking, indexing, retrieval, answering and memory together
// ABOUTME: It is the single entry point used by the CLI, MCP server and HTTP API
package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/harper/ragmem/internal/core"
	"github.com/harper/ragmem/internal/index"
	"github.com/harper/ragmem/internal/llm"
	"github.com/harper/ragmem/internal/memorylog"
	"github.com/harper/ragmem/internal/metrics"
	"github.com/harper/ragmem/internal/models"
)

// Backend is what the assistant needs from a model provider
type Backend interface {
	llm.Embedder
	llm.Generator
}

// Options configures an Assistant
type Options struct {
	Backend      Backend
	IndexDir     string
	DocsDir      string
	MemoryDir    string
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	// MemoryThreshold of 0 keeps the default gate
	MemoryThreshold float64
	Clock           func() time.Time
	Logger          *zap.Logger
}

// IndexStatus reports the outcome of IndexDocuments
type IndexStatus struct {
	Manifest index.Manifest `json:"manifest"`
	// Rebuilt is false when an existing compatible index was reused
	Rebuilt bool `json:"rebuilt"`
}

// ChatResult is one answered message plus whatever was remembered from it
type ChatResult struct {
	Answer   models.Answer        `json:"answer"`
	Memories []models.MemoryEntry `json:"memories"`
}

// Assistant answers questions over indexed documents and records durable facts
type Assistant struct {
	docsDir   string
	topK      int
	ingestor  *core.Ingestor
	index     *index.Store
	answerer  *core.Answerer
	extractor *core.MemoryExtractor
	memory    *memorylog.Store
	logger    *zap.Logger
}

// New creates an Assistant
func New(opts Options) *Assistant {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var chunkOpts []core.ChunkerOption
	if opts.ChunkSize > 0 {
		chunkOpts = append(chunkOpts, core.WithChunkSize(opts.ChunkSize), core.WithOverlap(opts.ChunkOverlap))
	}
	chunker := core.NewChunker(chunkOpts...)
	ingestor := core.NewIngestor(chunker)

	store := index.NewStore(index.Options{
		Dir:          opts.IndexDir,
		DocsDir:      opts.DocsDir,
		Embedder:     opts.Backend,
		Loader:       ingestor,
		ChunkSize:    chunker.Size(),
		ChunkOverlap: chunker.Overlap(),
		Logger:       logger.Named("index"),
	})

	retriever := core.NewRetriever(opts.Backend, store, logger.Named("retriever"))
	memory := memorylog.NewStore(opts.MemoryDir)

	extractorOpts := []core.ExtractorOption{}
	if opts.MemoryThreshold > 0 {
		extractorOpts = append(extractorOpts, core.WithThreshold(opts.MemoryThreshold))
	}
	if opts.Clock != nil {
		extractorOpts = append(extractorOpts, core.WithClock(opts.Clock))
	}

	topK := opts.TopK
	if topK < 1 {
		topK = 4
	}

	return &Assistant{
		docsDir:   opts.DocsDir,
		topK:      topK,
		ingestor:  ingestor,
		index:     store,
		answerer:  core.NewAnswerer(retriever, opts.Backend, logger.Named("answerer")),
		extractor: core.NewMemoryExtractor(opts.Backend, memory, logger.Named("memory"), extractorOpts...),
		memory:    memory,
		logger:    logger,
	}
}

// DefaultK is the retrieval size surfaces use when the caller gives none
func (a *Assistant) DefaultK() int { return a.topK }

// DocsDir is the default document directory
func (a *Assistant) DocsDir() string { return a.docsDir }

// Index exposes the underlying index store
func (a *Assistant) Index() *index.Store { return a.index }

// Answer returns a grounded answer with citations, or the fixed refusal
func (a *Assistant) Answer(ctx context.Context, question string, k int) (models.Answer, error) {
	answer, err := a.answerer.Answer(ctx, question, k)
	switch {
	case err != nil:
		metrics.AnswersTotal.WithLabelValues("error").Inc()
		return models.Answer{}, err
	case answer.IsRefusal():
		metrics.AnswersTotal.WithLabelValues("refused").Inc()
	default:
		metrics.AnswersTotal.WithLabelValues("grounded").Inc()
	}
	return answer, nil
}

// IndexDocuments builds the index from sourceDir (the default document
// directory when empty). With force the persisted index is deleted first;
// otherwise a compatible index built from the same, unchanged documents is reused.
func (a *Assistant) IndexDocuments(ctx context.Context, sourceDir string, force bool) (IndexStatus, error) {
	if sourceDir == "" {
		sourceDir = a.docsDir
	}

	if force {
		m, err := a.index.ForceRebuild(ctx, sourceDir)
		if err != nil {
			return IndexStatus{}, err
		}
		return IndexStatus{Manifest: *m, Rebuilt: true}, nil
	}

	if a.index.Exists() {
		if err := a.index.Load(ctx); err != nil {
			return IndexStatus{}, err
		}
		if m := a.index.Manifest(); m != nil && m.SourceDir == sourceDir {
			digest, err := a.ingestor.Digest(sourceDir)
			if err != nil {
				return IndexStatus{}, err
			}
			if m.Digest == digest {
				a.logger.Info("Reusing existing index", zap.String("build_id", m.BuildID))
				return IndexStatus{Manifest: *m}, nil
			}
			a.logger.Info("Documents changed since last build, rebuilding",
				zap.String("build_id", m.BuildID),
				zap.String("source_dir", sourceDir),
			)
		}
	}

	chunks, err := a.ingestor.LoadCorpus(ctx, sourceDir)
	if err != nil {
		return IndexStatus{}, err
	}
	m, err := a.index.Build(ctx, chunks, sourceDir)
	if err != nil {
		return IndexStatus{}, err
	}
	return IndexStatus{Manifest: *m, Rebuilt: true}, nil
}

// ImportDocuments copies .txt files into the default document directory and
// rebuilds the index from it. Returns how many files were imported.
func (a *Assistant) ImportDocuments(ctx context.Context, paths []string) (int, IndexStatus, error) {
	n, err := core.ImportFiles(a.docsDir, paths)
	if err != nil {
		return n, IndexStatus{}, err
	}
	if n == 0 {
		return 0, IndexStatus{}, fmt.Errorf("%w: no %s files among %d paths", models.ErrEmptyCorpus, core.DocumentExt, len(paths))
	}
	status, err := a.IndexDocuments(ctx, a.docsDir, true)
	return n, status, err
}

// RecordConversation stores any durable facts found in one exchange
func (a *Assistant) RecordConversation(ctx context.Context, userMessage, assistantMessage string) ([]models.MemoryEntry, error) {
	return a.extractor.Extract(ctx, userMessage, assistantMessage)
}

// Chat answers message and then records the exchange. Memory failures are
// logged and dropped so the answer is still returned.
func (a *Assistant) Chat(ctx context.Context, message string, k int) (ChatResult, error) {
	answer, err := a.Answer(ctx, message, k)
	if err != nil {
		return ChatResult{}, err
	}

	memories, err := a.RecordConversation(ctx, message, answer.Text)
	if err != nil {
		a.logger.Warn("Memory extraction failed", zap.Error(err))
		memories = []models.MemoryEntry{}
	}
	return ChatResult{Answer: answer, Memories: memories}, nil
}

// Memory returns the raw Markdown of one memory log
func (a *Assistant) Memory(target models.MemoryTarget) (string, error) {
	return a.memory.Content(target)
}

// MemoryEntries returns the parsed entries of one memory log
func (a *Assistant) MemoryEntries(target models.MemoryTarget) ([]models.MemoryEntry, error) {
	return a.memory.Entries(target)
}

// ResetMemory restores both memory logs to their headers
func (a *Assistant) ResetMemory() error {
	if err := a.memory.Reset(); err != nil {
		return fmt.Errorf("reset memory: %w", err)
	}
	return nil
}

// IsUserError reports whether err was caused by the request rather than a
// failing dependency
func IsUserError(err error) bool {
	return errors.Is(err, models.ErrInvalidK) || errors.Is(err, models.ErrEmptyCorpus)
}
