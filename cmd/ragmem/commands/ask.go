// ABOUTME: CLI command to ask a question grounded in the indexed documents
// ABOUTME: Prints the answer with citations, or the fixed refusal
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askK int

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about your documents",
		Long: `Ask a question answered only from the indexed documents.

The top-k most similar chunks are retrieved and cited. When nothing
relevant is retrieved the answer is exactly:
  I cannot find this in the uploaded documents.

The index is built automatically on first use.

Examples:
  ragmem ask "What is the refund window?"
  ragmem ask -k 8 "Summarize the main contribution"
  ragmem ask --format json "Who approves expenses?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().IntVarP(&askK, "k", "k", 0, "Number of chunks to retrieve (default: RAGMEM_TOP_K)")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("k") {
		if err := validatePositiveInt(askK, "k"); err != nil {
			return err
		}
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("no question provided")
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	k := askK
	if k == 0 {
		k = a.assistant.DefaultK()
	}

	answer, err := a.assistant.Answer(cmd.Context(), question, k)
	if err != nil {
		return fmt.Errorf("answering: %w", err)
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), answer)
	}
	printAnswer(cmd.OutOrStdout(), answer)
	return nil
}
