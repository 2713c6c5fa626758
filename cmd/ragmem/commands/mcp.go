// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents like Claude to use ragmem via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harper/ragmem/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs ragmem as an MCP (Model Context Protocol) server, enabling
LLM agents like Claude to ask grounded questions, rebuild the index,
and record or read memory via stdio.

Configure in Claude Desktop's config file to enable the tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  ragmem mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "ragmem": {
  #       "command": "ragmem",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	server := mcpserver.NewMCPServer(
		"ragmem",
		versionInfo.Version,
	)

	handlers := mcp.RegisterTools(server, a.assistant, a.logger.Named("mcp"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown signal received, gracefully shutting down")
		handlers.Shutdown()
		a.logger.Info("Shutdown complete")

	case err := <-serverErr:
		handlers.Shutdown()
		if err != nil {
			a.logger.Error("MCP server stopped", zap.Error(err))
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
