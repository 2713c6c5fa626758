// ABOUTME: CLI commands to show and reset the USER and COMPANY memory logs
// ABOUTME: Reset restores both files to their headers
package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/ragmem/internal/models"
)

var memoryResetYes bool

// NewMemoryCmd creates the memory command group
func NewMemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Show or reset the memory logs",
		Long: `Inspect the append-only USER and COMPANY memory logs.

Examples:
  ragmem memory show
  ragmem memory show company
  ragmem memory reset --yes`,
	}

	cmd.AddCommand(newMemoryShowCmd(), newMemoryResetCmd())
	return cmd
}

func newMemoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "show [user|company]",
		Short:     "Print a memory log (both when no target is given)",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"user", "company"},
		RunE:      runMemoryShow,
	}
}

func newMemoryResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore both memory logs to their headers",
		Args:  cobra.NoArgs,
		RunE:  runMemoryReset,
	}
	cmd.Flags().BoolVarP(&memoryResetYes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func runMemoryShow(cmd *cobra.Command, args []string) error {
	targets := []models.MemoryTarget{models.TargetUser, models.TargetCompany}
	if len(args) == 1 {
		t, err := models.ParseMemoryTarget(args[0])
		if err != nil {
			return err
		}
		targets = []models.MemoryTarget{t}
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if jsonOutput() {
		out := make(map[string][]models.MemoryEntry, len(targets))
		for _, t := range targets {
			entries, err := a.assistant.MemoryEntries(t)
			if err != nil {
				return fmt.Errorf("reading %s memory: %w", t, err)
			}
			if entries == nil {
				entries = []models.MemoryEntry{}
			}
			out[string(t)] = entries
		}
		return printJSON(cmd.OutOrStdout(), out)
	}

	for i, t := range targets {
		content, err := a.assistant.Memory(t)
		if err != nil {
			return fmt.Errorf("reading %s memory: %w", t, err)
		}
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		fmt.Fprint(cmd.OutOrStdout(), content)
		if !strings.HasSuffix(content, "\n") {
			fmt.Fprintln(cmd.OutOrStdout())
		}
	}
	return nil
}

func runMemoryReset(cmd *cobra.Command, args []string) error {
	if !memoryResetYes {
		fmt.Fprint(cmd.OutOrStdout(), "Erase all entries from USER_MEMORY.md and COMPANY_MEMORY.md? [y/N] ")
		reply, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		reply = strings.ToLower(strings.TrimSpace(reply))
		if reply != "y" && reply != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.assistant.ResetMemory(); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintln(cmd.OutOrStdout(), "Memory logs reset.")
	}
	return nil
}
