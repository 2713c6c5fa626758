package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/ragmem/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDocuments_SortedTxtOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "bravo")
	writeFile(t, dir, "a.txt", "alpha")
	writeFile(t, dir, "notes.md", "ignored")
	writeFile(t, dir, "UPPER.TXT", "upper")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))

	docs, err := LoadDocuments(dir)
	require.NoError(t, err)
	assert.Equal(t, []models.Document{
		{Source: "UPPER.TXT", Text: "upper"},
		{Source: "a.txt", Text: "alpha"},
		{Source: "b.txt", Text: "bravo"},
	}, docs)
}

func TestLoadDocuments_MissingDir(t *testing.T) {
	docs, err := LoadDocuments(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestImportFiles(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "docs")
	a := writeFile(t, src, "a.txt", "alpha")
	pdf := writeFile(t, src, "b.pdf", "binary")

	n, err := ImportFiles(dst, []string{a, pdf})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))
	assert.NoFileExists(t, filepath.Join(dst, "b.pdf"))
}

func TestIngestor_LoadCorpus(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.txt", "First document.")
	writeFile(t, dir, "two.txt", "Second document.")

	ing := NewIngestor(nil)
	chunks, err := ing.LoadCorpus(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "one.txt", chunks[0].Metadata.Source)
	assert.Equal(t, 2, chunks[1].Metadata.ChunkID)
	assert.Equal(t, "chunk 2", chunks[1].Metadata.Locator)
}

func TestIngestor_LoadCorpusEmpty(t *testing.T) {
	_, err := NewIngestor(nil).LoadCorpus(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, models.ErrEmptyCorpus)
}

func TestIngestor_Digest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.txt", "First document.")
	writeFile(t, dir, "notes.md", "ignored")
	ing := NewIngestor(nil)

	first, err := ing.Digest(dir)
	require.NoError(t, err)
	again, err := ing.Digest(dir)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	writeFile(t, dir, "notes.md", "still ignored")
	unchanged, err := ing.Digest(dir)
	require.NoError(t, err)
	assert.Equal(t, first, unchanged)

	writeFile(t, dir, "one.txt", "First document, edited.")
	edited, err := ing.Digest(dir)
	require.NoError(t, err)
	assert.NotEqual(t, first, edited)

	writeFile(t, dir, "two.txt", "Second document.")
	added, err := ing.Digest(dir)
	require.NoError(t, err)
	assert.NotEqual(t, edited, added)
}
