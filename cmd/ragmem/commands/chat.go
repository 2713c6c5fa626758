// ABOUTME: CLI command for chatting: grounded answers plus memory extraction
// ABOUTME: One-shot with an argument, otherwise an interactive loop on stdin
package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/ragmem/internal/assistant"
)

var chatK int

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with your documents and remember durable facts",
		Long: `Chat with your documents.

Each message is answered from the indexed documents, then the exchange is
inspected for durable facts. Facts above the confidence threshold are
appended to the USER or COMPANY memory log.

Without a message argument, reads one message per line from stdin until
EOF or "exit".

Examples:
  ragmem chat "I prefer weekly summaries on Mondays. What is our refund policy?"
  ragmem chat`,
		Args: cobra.ArbitraryArgs,
		RunE: runChat,
	}

	cmd.Flags().IntVarP(&chatK, "k", "k", 0, "Number of chunks to retrieve (default: RAGMEM_TOP_K)")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("k") {
		if err := validatePositiveInt(chatK, "k"); err != nil {
			return err
		}
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	k := chatK
	if k == 0 {
		k = a.assistant.DefaultK()
	}

	if len(args) > 0 {
		return chatOnce(cmd.Context(), cmd.OutOrStdout(), a.assistant, strings.Join(args, " "), k)
	}
	return chatLoop(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), a.assistant, k)
}

func chatOnce(ctx context.Context, w io.Writer, asst *assistant.Assistant, message string, k int) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("no message provided")
	}

	result, err := asst.Chat(ctx, message, k)
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}

	if jsonOutput() {
		return printJSON(w, result)
	}
	printAnswer(w, result.Answer)
	if len(result.Memories) > 0 {
		fmt.Fprintln(w)
		printMemories(w, result.Memories)
	}
	return nil
}

// chatLoop answers one message per input line. Errors for a single message
// are printed and the loop continues.
func chatLoop(ctx context.Context, r io.Reader, w io.Writer, asst *assistant.Assistant, k int) error {
	if !quiet && !jsonOutput() {
		fmt.Fprintln(w, `Ask about your documents. Type "exit" to quit.`)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		if !quiet && !jsonOutput() {
			fmt.Fprint(w, "> ")
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if err := chatOnce(ctx, w, asst, line, k); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(w, "Error: %v\n", err)
		}
		if !jsonOutput() {
			fmt.Fprintln(w)
		}
	}
	return scanner.Err()
}
