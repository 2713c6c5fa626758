// ABOUTME: Citation formatter turns retrieved chunks into a numbered context block
// ABOUTME: and a parallel list of citations, one per chunk, in the same order
package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/harper/ragmem/internal/models"
)

const (
	// SnippetLimit is the maximum snippet length in characters before the ellipsis
	SnippetLimit = 500
	// ContextSeparator joins numbered context blocks
	ContextSeparator = "\n\n---\n\n"

	unknownValue = "unknown"
	ellipsis     = "..."
)

// FormattedContext is the prompt context and its citations; Citations[i] backs block [i+1]
type FormattedContext struct {
	Text      string
	Citations []models.Citation
}

// FormatContext numbers each chunk from 1 and emits one citation per chunk
func FormatContext(chunks []models.Chunk) FormattedContext {
	blocks := make([]string, 0, len(chunks))
	citations := make([]models.Citation, 0, len(chunks))

	for i, chunk := range chunks {
		citation := CitationFor(chunk)
		blocks = append(blocks, fmt.Sprintf("[%d] (Source: %s, %s)\n%s", i+1, citation.Source, citation.Locator, chunk.Text))
		citations = append(citations, citation)
	}

	return FormattedContext{
		Text:      strings.Join(blocks, ContextSeparator),
		Citations: citations,
	}
}

// CitationFor builds the citation for one retrieved chunk
func CitationFor(chunk models.Chunk) models.Citation {
	source := chunk.Metadata.Source
	if source == "" {
		source = unknownValue
	}
	return models.Citation{
		Source:  source,
		Locator: NormalizeLocator(chunk.Metadata),
		Snippet: Snippet(chunk.Text),
	}
}

// NormalizeLocator returns the stored locator, else the chunk id, else "unknown",
// always prefixed with the word "chunk".
func NormalizeLocator(meta models.ChunkMetadata) string {
	locator := strings.TrimSpace(meta.Locator)
	if locator == "" {
		if meta.ChunkID > 0 {
			locator = strconv.Itoa(meta.ChunkID)
		} else {
			locator = unknownValue
		}
	}
	if !strings.HasPrefix(locator, "chunk") {
		locator = "chunk " + locator
	}
	return locator
}

// Snippet keeps the first SnippetLimit characters and marks truncation with "..."
func Snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= SnippetLimit {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(string(runes[:SnippetLimit])) + ellipsis
}
