// ABOUTME: Chunker splits documents into overlapping chunks for embedding
// ABOUTME: Separator-preference recursive splitting with exact character overlap
package core

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/harper/ragmem/internal/models"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of characters shared by adjacent chunks
	DefaultChunkOverlap = 200
)

// DefaultSeparators lists split points from most to least preferred:
// paragraph break, line break, sentence end, space, then any character.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunker splits documents into chunks of at most size characters
type Chunker struct {
	size       int
	overlap    int
	separators []string
}

// ChunkerOption configures a Chunker
type ChunkerOption func(*Chunker)

// WithChunkSize sets the maximum chunk length in characters
func WithChunkSize(size int) ChunkerOption {
	return func(c *Chunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithOverlap sets the overlap between adjacent chunks in characters
func WithOverlap(overlap int) ChunkerOption {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithSeparators replaces the separator preference list
func WithSeparators(separators ...string) ChunkerOption {
	return func(c *Chunker) {
		if len(separators) > 0 {
			c.separators = append([]string(nil), separators...)
		}
	}
}

// NewChunker creates a Chunker with defaults of 1000 characters and 200 overlap
func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{
		size:       DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.size {
		c.overlap = c.size / 4
	}
	return c
}

// Size returns the configured maximum chunk length
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap
func (c *Chunker) Overlap() int { return c.overlap }

// Span is a contiguous slice of a text measured in runes
type Span struct {
	Text  string
	Start int
	End   int
}

// Chunk splits every document and numbers the chunks 1..n across the whole batch
// in document order.
func (c *Chunker) Chunk(docs []models.Document) ([]models.Chunk, error) {
	if len(docs) == 0 {
		return nil, models.ErrEmptyCorpus
	}

	var chunks []models.Chunk
	for _, doc := range docs {
		for _, span := range c.SplitText(doc.Text) {
			id := len(chunks) + 1
			chunks = append(chunks, models.Chunk{
				Text: span.Text,
				Metadata: models.ChunkMetadata{
					Source:  doc.Source,
					ChunkID: id,
					Locator: models.LocatorFor(id),
					Start:   span.Start,
					End:     span.End,
				},
			})
		}
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: all %d documents are empty", models.ErrEmptyCorpus, len(docs))
	}
	return chunks, nil
}

// SplitText splits one text into spans. The spans cover every character, and each
// span starts exactly overlap characters before the previous one ends unless the
// next unsplittable piece would not fit.
func (c *Chunker) SplitText(text string) []Span {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	bounds := c.pieceBounds(text)

	var spans []Span
	start, next := 0, 0
	for {
		for next < len(bounds) && bounds[next] <= start {
			next++
		}

		// Extend to the furthest piece boundary that still fits; an oversized
		// piece becomes a chunk on its own.
		j := next
		for j+1 < len(bounds) && bounds[j+1]-start <= c.size {
			j++
		}
		end := bounds[j]
		spans = append(spans, Span{Text: string(runes[start:end]), Start: start, End: end})

		if end >= len(runes) {
			return spans
		}

		pieceEnd := bounds[j+1]
		nextStart := end - c.overlap
		if nextStart <= start {
			nextStart = start + 1
		}
		if pieceEnd-nextStart > c.size {
			nextStart = pieceEnd - c.size
		}
		if nextStart > end {
			nextStart = end
		}
		start = nextStart
	}
}

// pieceBounds returns the cumulative rune offsets at which atomic pieces end
func (c *Chunker) pieceBounds(text string) []int {
	pieces := c.splitRecursive(text, c.separators)
	bounds := make([]int, 0, len(pieces))
	offset := 0
	for _, p := range pieces {
		offset += utf8.RuneCountInString(p)
		bounds = append(bounds, offset)
	}
	return bounds
}

// splitRecursive breaks text at the first separator it contains, keeping the
// separator attached to the preceding piece, and recurses into pieces that are
// still too long with the remaining separators.
func (c *Chunker) splitRecursive(text string, separators []string) []string {
	if utf8.RuneCountInString(text) <= c.size {
		return []string{text}
	}

	for i, sep := range separators {
		if sep == "" {
			return splitRunes(text)
		}
		if !strings.Contains(text, sep) {
			continue
		}

		var pieces []string
		for _, part := range strings.SplitAfter(text, sep) {
			if part == "" {
				continue
			}
			if utf8.RuneCountInString(part) <= c.size {
				pieces = append(pieces, part)
				continue
			}
			pieces = append(pieces, c.splitRecursive(part, separators[i+1:])...)
		}
		return pieces
	}

	// Nothing left to split on
	return []string{text}
}

func splitRunes(text string) []string {
	pieces := make([]string, 0, utf8.RuneCountInString(text))
	for _, r := range text {
		pieces = append(pieces, string(r))
	}
	return pieces
}
