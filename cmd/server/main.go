// ABOUTME: Standalone entry point for the ragmem MCP server with stdio transport
// ABOUTME: Equivalent to `ragmem mcp`, for clients that expect a dedicated binary
package main

import (
	"fmt"
	"os"

	"github.com/harper/ragmem/cmd/ragmem/commands"
)

var version = "dev"

func main() {
	commands.SetVersion(version, "none", "unknown")

	root := commands.NewRootCmd()
	root.SetArgs(append([]string{"mcp"}, os.Args[1:]...))
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
