// ABOUTME: CLI command to record one conversation exchange into memory
// ABOUTME: Only facts above the confidence threshold are written
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	rememberUser      string
	rememberAssistant string
)

// NewRememberCmd creates the remember command
func NewRememberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remember",
		Short: "Extract durable facts from one exchange",
		Long: `Inspect one user/assistant exchange and append any durable fact to
USER_MEMORY.md or COMPANY_MEMORY.md.

A fact is stored only when the model is at least RAGMEM_MEMORY_THRESHOLD
(default 0.7) confident. Nothing is written otherwise.

Examples:
  ragmem remember --user "I'm a Project Finance Analyst" --assistant "Noted."
  ragmem remember --format json --user "..." --assistant "..."`,
		Args: cobra.NoArgs,
		RunE: runRemember,
	}

	cmd.Flags().StringVar(&rememberUser, "user", "", "What the user said")
	cmd.Flags().StringVar(&rememberAssistant, "assistant", "", "What the assistant replied")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("assistant")

	return cmd
}

func runRemember(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(rememberUser) == "" {
		return fmt.Errorf("--user must not be empty")
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.assistant.RecordConversation(cmd.Context(), rememberUser, rememberAssistant)
	if err != nil {
		return fmt.Errorf("recording conversation: %w", err)
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), entries)
	}
	if len(entries) == 0 {
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing worth remembering.")
		}
		return nil
	}
	printMemories(cmd.OutOrStdout(), entries)
	return nil
}
