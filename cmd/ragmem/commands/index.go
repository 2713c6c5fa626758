// ABOUTME: CLI command to build the document index
// ABOUTME: Reuses a compatible index unless --force, and can import files first
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/ragmem/internal/assistant"
)

var (
	indexDir   string
	indexForce bool
	indexAdd   []string
)

// NewIndexCmd creates the index command
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the document index",
		Long: `Build the vector index from a directory of .txt documents.

Documents are split into overlapping chunks, embedded, and persisted.
An existing index built from the same, unchanged documents with the same
embedding model is reused unless --force is given. Adding, removing or
editing a .txt file triggers a rebuild. --add copies .txt files into
the configured docs directory and always rebuilds.

Examples:
  ragmem index
  ragmem index --dir ./sample_docs --force
  ragmem index --add report.txt --add notes.txt`,
		Args: cobra.NoArgs,
		RunE: runIndex,
	}

	cmd.Flags().StringVar(&indexDir, "dir", "", "Directory of .txt documents (default: RAGMEM_DOCS_DIR)")
	cmd.Flags().BoolVar(&indexForce, "force", false, "Delete the existing index and rebuild")
	cmd.Flags().StringSliceVar(&indexAdd, "add", nil, "Import .txt files into the docs directory, then rebuild")
	cmd.MarkFlagsMutuallyExclusive("dir", "add")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	var status assistant.IndexStatus
	if len(indexAdd) > 0 {
		var n int
		n, status, err = a.assistant.ImportDocuments(cmd.Context(), indexAdd)
		if err != nil {
			return fmt.Errorf("importing documents: %w", err)
		}
		if !quiet && !jsonOutput() {
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d file(s) into %s\n", n, a.assistant.DocsDir())
		}
	} else {
		status, err = a.assistant.IndexDocuments(cmd.Context(), indexDir, indexForce)
		if err != nil {
			return fmt.Errorf("indexing documents: %w", err)
		}
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), status)
	}

	m := status.Manifest
	action := "Reused"
	if status.Rebuilt {
		action = "Built"
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s index\t%s\n", action, m.BuildID)
	fmt.Fprintf(w, "Source\t%s\n", m.SourceDir)
	fmt.Fprintf(w, "Documents\t%d\n", len(m.Sources))
	fmt.Fprintf(w, "Chunks\t%d\n", m.Chunks)
	fmt.Fprintf(w, "Embedder\t%s (%d dims)\n", m.Embedder, m.Dimensions)
	return w.Flush()
}
