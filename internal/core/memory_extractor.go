// ABOUTME: MemoryExtractor decides which facts from an exchange are worth keeping
// ABOUTME: One classification call, a confidence gate, then appends routed by target
package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/harper/ragmem/internal/llm"
	"github.com/harper/ragmem/internal/metrics"
	"github.com/harper/ragmem/internal/models"
)

// DefaultConfidenceThreshold is the minimum confidence for an entry to be stored
const DefaultConfidenceThreshold = 0.7

// MemoryWriter appends one entry to the log selected by its target
type MemoryWriter interface {
	Append(entry models.MemoryEntry) error
}

// MemoryExtractor classifies exchanges and writes qualifying facts
type MemoryExtractor struct {
	generator llm.Generator
	writer    MemoryWriter
	threshold float64
	now       func() time.Time
	logger    *zap.Logger
}

// ExtractorOption configures a MemoryExtractor
type ExtractorOption func(*MemoryExtractor)

// WithThreshold overrides the confidence gate
func WithThreshold(threshold float64) ExtractorOption {
	return func(m *MemoryExtractor) {
		m.threshold = threshold
	}
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) ExtractorOption {
	return func(m *MemoryExtractor) {
		m.now = now
	}
}

// NewMemoryExtractor creates a MemoryExtractor with the default 0.7 gate
func NewMemoryExtractor(generator llm.Generator, writer MemoryWriter, logger *zap.Logger, opts ...ExtractorOption) *MemoryExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &MemoryExtractor{
		generator: generator,
		writer:    writer,
		threshold: DefaultConfidenceThreshold,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Threshold returns the configured confidence gate
func (m *MemoryExtractor) Threshold() float64 { return m.threshold }

// Extract classifies the exchange and appends every qualifying fact.
// Malformed model output stores nothing and is not an error. The returned
// entries are exactly those written, in classification order.
func (m *MemoryExtractor) Extract(ctx context.Context, userMessage, assistantMessage string) ([]models.MemoryEntry, error) {
	raw, err := m.generator.Generate(ctx, llm.Prompt{
		System:      memorySystemPrompt,
		User:        memoryUserPrompt(userMessage, assistantMessage),
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: classify exchange: %w", models.ErrGenerationService, err)
	}

	verdicts := ParseClassification(raw)
	if verdicts == nil {
		metrics.MemoryDiscardsTotal.WithLabelValues("malformed").Inc()
		m.logger.Debug("Discarded unparseable classification", zap.Int("raw_len", len(raw)))
		return []models.MemoryEntry{}, nil
	}

	written := []models.MemoryEntry{}
	for _, v := range verdicts {
		if v.Kind != Fact {
			metrics.MemoryDiscardsTotal.WithLabelValues("no_fact").Inc()
			continue
		}
		if v.Confidence < m.threshold {
			metrics.MemoryDiscardsTotal.WithLabelValues("low_confidence").Inc()
			m.logger.Debug("Discarded low-confidence fact",
				zap.String("target", string(v.Target)),
				zap.Float64("confidence", v.Confidence),
			)
			continue
		}

		entry := models.MemoryEntry{
			Target:     v.Target,
			Summary:    v.Summary,
			Confidence: v.Confidence,
			Timestamp:  m.now(),
		}
		if err := m.writer.Append(entry); err != nil {
			return written, fmt.Errorf("append %s memory: %w", entry.Target, err)
		}
		metrics.MemoryEntriesTotal.WithLabelValues(string(entry.Target)).Inc()
		written = append(written, entry)
	}

	m.logger.Info("Recorded conversation",
		zap.Int("verdicts", len(verdicts)),
		zap.Int("written", len(written)),
	)
	return written, nil
}
