// ABOUTME: Corpus loading: reads .txt documents from a directory and chunks them
// ABOUTME: Files are visited in filename order so chunk ids are stable across runs
package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harper/ragmem/internal/models"
)

// DocumentExt is the only file extension ingested
const DocumentExt = ".txt"

// LoadDocuments reads every .txt file directly inside dir. A missing directory
// yields no documents.
func LoadDocuments(dir string) ([]models.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read documents dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsDocument(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	docs := make([]models.Document, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		docs = append(docs, models.Document{Source: name, Text: string(data)})
	}
	return docs, nil
}

// IsDocument reports whether a filename would be ingested
func IsDocument(name string) bool {
	return strings.EqualFold(filepath.Ext(name), DocumentExt)
}

// ImportFiles copies the given .txt files into dir, skipping anything else.
// Returns how many files were copied.
func ImportFiles(dir string, paths []string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create documents dir: %w", err)
	}

	count := 0
	for _, p := range paths {
		if !IsDocument(p) {
			continue
		}
		if err := copyFile(p, filepath.Join(dir, filepath.Base(p))); err != nil {
			return count, fmt.Errorf("import %s: %w", p, err)
		}
		count++
	}
	return count, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Ingestor turns a document directory into chunks
type Ingestor struct {
	chunker *Chunker
}

// NewIngestor creates an Ingestor using the given chunker
func NewIngestor(chunker *Chunker) *Ingestor {
	if chunker == nil {
		chunker = NewChunker()
	}
	return &Ingestor{chunker: chunker}
}

// Chunker returns the chunker in use
func (i *Ingestor) Chunker() *Chunker { return i.chunker }

// LoadCorpus loads and chunks every document in dir.
// An empty or missing directory is ErrEmptyCorpus.
func (i *Ingestor) LoadCorpus(ctx context.Context, dir string) ([]models.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs, err := LoadDocuments(dir)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no %s files in %s", models.ErrEmptyCorpus, DocumentExt, dir)
	}
	return i.chunker.Chunk(docs)
}

// Digest fingerprints the documents in dir by name and content. It changes
// whenever a .txt file is added, removed or edited.
func (i *Ingestor) Digest(dir string) (string, error) {
	docs, err := LoadDocuments(dir)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	for _, doc := range docs {
		fmt.Fprintf(h, "%s\x00%d\x00", doc.Source, len(doc.Text))
		_, _ = h.Write([]byte(doc.Text))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
