// ABOUTME: Root command and global flags for the ragmem CLI
// ABOUTME: Registers every subcommand and enforces flag exclusivity
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
██████╗  █████╗  ██████╗ ███╗   ███╗███████╗███╗   ███╗
██╔══██╗██╔══██╗██╔════╝ ████╗ ████║██╔════╝████╗ ████║
██████╔╝███████║██║  ███╗██╔████╔██║█████╗  ██╔████╔██║
██╔══██╗██╔══██║██║   ██║██║╚██╔╝██║██╔══╝  ██║╚██╔╝██║
██║  ██║██║  ██║╚██████╔╝██║ ╚═╝ ██║███████╗██║ ╚═╝ ██║
╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝ ╚═╝     ╚═╝╚══════╝╚═╝     ╚═╝`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragmem",
		Short: "Grounded answers over your documents, with durable memory",
		Long: banner + `

ragmem answers questions strictly from the .txt documents you index,
citing the chunks it used, and refuses when the documents are silent.
High-confidence facts from conversations are appended to USER_MEMORY.md
and COMPANY_MEMORY.md.

Configuration comes from the environment (and .env):
  LLM_PROVIDER      gemini (default) or openai
  GOOGLE_API_KEY    required for gemini
  OPENAI_API_KEY    required for openai
  RAGMEM_DATA_DIR   defaults to $XDG_DATA_HOME/ragmem`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return fmt.Errorf("--verbose and --quiet are mutually exclusive")
			}
			switch outputFormat {
			case "auto", "text", "json":
				return nil
			default:
				return fmt.Errorf("--format must be auto, text, or json, got %q", outputFormat)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print results and errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, text, json")

	cmd.AddCommand(
		NewIndexCmd(),
		NewAskCmd(),
		NewChatCmd(),
		NewRememberCmd(),
		NewMemoryCmd(),
		NewMCPCmd(),
		NewServeCmd(),
		NewWatchCmd(),
		NewSanityCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
