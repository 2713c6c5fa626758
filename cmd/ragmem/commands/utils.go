// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: Output formatting for answers, citations and memory entries
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/harper/ragmem/internal/models"
)

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}

func jsonOutput() bool {
	return outputFormat == "json"
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintf(w, "%s\n", data)
	return nil
}

// printAnswer writes the answer text followed by numbered citations
func printAnswer(w io.Writer, answer models.Answer) {
	fmt.Fprintln(w, answer.Text)
	if len(answer.Citations) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sources:")
	for i, c := range answer.Citations {
		snippet := strings.Join(strings.Fields(c.Snippet), " ")
		fmt.Fprintf(w, "  [%d] %s (%s): %s\n", i+1, c.Source, c.Locator, truncate(snippet, 80))
	}
}

// printMemories lists entries that were just written
func printMemories(w io.Writer, entries []models.MemoryEntry) {
	for _, e := range entries {
		fmt.Fprintf(w, "Remembered (%s, %.2f): %s\n", e.Target, e.Confidence, e.Summary)
	}
}
