// ABOUTME: Chunk represents a bounded slice of a document, the unit of retrieval
// ABOUTME: Metadata carries everything needed to rebuild an exact citation
package models

import (
	"fmt"
	"sort"
)

// ChunkMetadata locates a chunk inside its source document
type ChunkMetadata struct {
	Source string `json:"source"`
	// ChunkID is position+1 across the whole ingestion batch; zero means unknown
	ChunkID int    `json:"chunk_id"`
	Locator string `json:"locator"`
	// Start and End are rune offsets into the source document text
	Start int `json:"start"`
	End   int `json:"end"`
}

// Chunk is an immutable piece of a document plus its locator metadata
type Chunk struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ScoredChunk is a chunk returned by similarity search
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// LocatorFor returns the human-readable locator for a chunk id
func LocatorFor(chunkID int) string {
	return fmt.Sprintf("chunk %d", chunkID)
}

// SortScored orders results by descending score, ties by ascending chunk id
func SortScored(results []ScoredChunk) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Metadata.ChunkID < results[j].Metadata.ChunkID
	})
}
