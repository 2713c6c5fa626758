// ABOUTME: Index manifest recording which embedding model built the index
// ABOUTME: Stored as manifest.yaml next to the vector data
package index

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/ragmem/internal/models"
)

const manifestFile = "manifest.yaml"

// Manifest describes one index build
type Manifest struct {
	BuildID    string   `yaml:"build_id" json:"build_id"`
	Embedder   string   `yaml:"embedder" json:"embedder"`
	Dimensions int      `yaml:"dimensions" json:"dimensions"`
	Chunks     int      `yaml:"chunks" json:"chunks"`
	Sources    []string `yaml:"sources" json:"sources"`
	SourceDir  string   `yaml:"source_dir" json:"source_dir"`
	// Digest fingerprints the documents of SourceDir at build time
	Digest       string    `yaml:"digest,omitempty" json:"digest,omitempty"`
	ChunkSize    int       `yaml:"chunk_size,omitempty" json:"chunk_size,omitempty"`
	ChunkOverlap int       `yaml:"chunk_overlap,omitempty" json:"chunk_overlap,omitempty"`
	CreatedAt    time.Time `yaml:"created_at" json:"created_at"`
}

// CheckEmbedder returns ErrIndexIncompatible when the index was built by a different model
func (m *Manifest) CheckEmbedder(fingerprint string) error {
	if m.Embedder != fingerprint {
		return fmt.Errorf("%w: index has %q, embedder is %q", models.ErrIndexIncompatible, m.Embedder, fingerprint)
	}
	return nil
}

func readManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, models.ErrIndexNotFound
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

func writeManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
