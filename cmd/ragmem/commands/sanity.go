// ABOUTME: Sanity command runs an end-to-end smoke check and writes a JSON report
// ABOUTME: Resets memory, rebuilds the index, asks fixed questions, records one exchange
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harper/ragmem/internal/assistant"
	"github.com/harper/ragmem/internal/models"
)

var (
	sanityDir string
	sanityOut string
	sanityK   int
)

// sanityQuestions are generic enough to apply to any document set
var sanityQuestions = []string{
	"Summarize the main contribution in 3 bullets.",
	"What are the key assumptions or limitations?",
	"Give one concrete numeric/experimental detail and cite it.",
}

// sanityExchange is a conversation that should produce USER memory
var sanityExchange = struct{ User, Assistant string }{
	User:      "I prefer weekly summaries on Mondays. I'm a Project Finance Analyst.",
	Assistant: "I'll remember that you prefer weekly summaries on Mondays and that you work as a Project Finance Analyst.",
}

// SanityReport is the JSON document written by the sanity command
type SanityReport struct {
	Features []string         `json:"implemented_features"`
	QA       []SanityQA       `json:"qa"`
	Demo     SanityDemo       `json:"demo"`
	Index    *sanityIndexInfo `json:"index,omitempty"`
}

// SanityQA is one question with its grounded answer
type SanityQA struct {
	Question  string            `json:"question"`
	Answer    string            `json:"answer"`
	Citations []models.Citation `json:"citations"`
}

// SanityDemo lists what the memory extractor wrote
type SanityDemo struct {
	MemoryWrites []SanityMemoryWrite `json:"memory_writes"`
}

// SanityMemoryWrite is one stored fact
type SanityMemoryWrite struct {
	Target  models.MemoryTarget `json:"target"`
	Summary string              `json:"summary"`
}

type sanityIndexInfo struct {
	BuildID string   `json:"build_id"`
	Chunks  int      `json:"chunks"`
	Sources []string `json:"sources"`
}

// NewSanityCmd creates the sanity command
func NewSanityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanity",
		Short: "Run an end-to-end smoke check",
		Long: `Run an end-to-end smoke check against the configured provider.

Steps:
  1. Reset USER_MEMORY.md and COMPANY_MEMORY.md to their headers
  2. Force-rebuild the index from the docs directory
  3. Ask three fixed questions
  4. Record one exchange that states a user preference
  5. Write the results as JSON

This erases existing memory entries.

Examples:
  ragmem sanity
  ragmem sanity --dir ./sample_docs --out artifacts/sanity_output.json`,
		Args: cobra.NoArgs,
		RunE: runSanity,
	}

	cmd.Flags().StringVar(&sanityDir, "dir", "", "Directory of .txt documents (default: RAGMEM_DOCS_DIR)")
	cmd.Flags().StringVar(&sanityOut, "out", filepath.Join("artifacts", "sanity_output.json"), "Report path")
	cmd.Flags().IntVarP(&sanityK, "k", "k", 5, "Number of chunks to retrieve per question")

	return cmd
}

func runSanity(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(sanityK, "k"); err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := runSanityChecks(cmd.Context(), a.assistant, sanityDir, sanityK)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(sanityOut), 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}
	f, err := os.Create(sanityOut)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := printJSON(f, report); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", sanityOut)
	}
	return nil
}

// runSanityChecks performs the smoke check and returns the report without writing it
func runSanityChecks(ctx context.Context, asst *assistant.Assistant, dir string, k int) (*SanityReport, error) {
	if err := asst.ResetMemory(); err != nil {
		return nil, err
	}

	status, err := asst.IndexDocuments(ctx, dir, true)
	if err != nil {
		return nil, fmt.Errorf("indexing documents: %w", err)
	}

	report := &SanityReport{
		Features: []string{"grounded_qa", "memory"},
		QA:       make([]SanityQA, 0, len(sanityQuestions)),
		Demo:     SanityDemo{MemoryWrites: []SanityMemoryWrite{}},
		Index: &sanityIndexInfo{
			BuildID: status.Manifest.BuildID,
			Chunks:  status.Manifest.Chunks,
			Sources: status.Manifest.Sources,
		},
	}

	for _, q := range sanityQuestions {
		answer, err := asst.Answer(ctx, q, k)
		if err != nil {
			return nil, fmt.Errorf("answering %q: %w", q, err)
		}
		report.QA = append(report.QA, SanityQA{Question: q, Answer: answer.Text, Citations: answer.Citations})
	}

	entries, err := asst.RecordConversation(ctx, sanityExchange.User, sanityExchange.Assistant)
	if err != nil {
		return nil, fmt.Errorf("recording conversation: %w", err)
	}
	for _, e := range entries {
		report.Demo.MemoryWrites = append(report.Demo.MemoryWrites, SanityMemoryWrite{Target: e.Target, Summary: e.Summary})
	}

	return report, nil
}
