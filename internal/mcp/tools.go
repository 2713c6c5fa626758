// ABOUTME: MCP tool definitions and registration for the ragmem server
// ABOUTME: Declares JSON schemas for the document and memory tools
package mcp

import (
	"go.uber.org/zap"

	"github.com/harper/ragmem/internal/assistant"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, asst *assistant.Assistant, logger *zap.Logger) *Handlers {
	handlers := NewHandlers(asst, logger)

	// 1. ask_documents - grounded question answering with citations
	server.AddTool(mcp.Tool{
		Name:        "ask_documents",
		Description: "Answer a question using only the indexed documents. Returns the answer with citations, or a fixed refusal when the documents do not contain the answer.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Question to answer from the documents",
				},
				"k": map[string]interface{}{
					"type":        "number",
					"description": "Number of chunks to retrieve (default from RAGMEM_TOP_K)",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.AskDocuments)

	// 2. index_documents - (re)build the document index
	server.AddTool(mcp.Tool{
		Name:        "index_documents",
		Description: "Build the document index from a directory of .txt files. Reuses a compatible index unless force is set.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"dir": map[string]interface{}{
					"type":        "string",
					"description": "Directory of .txt documents (defaults to the configured docs directory)",
				},
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "Delete the existing index and rebuild from scratch",
					"default":     false,
				},
			},
		},
	}, handlers.IndexDocuments)

	// 3. record_conversation - extract durable facts from one exchange
	server.AddTool(mcp.Tool{
		Name:        "record_conversation",
		Description: "Inspect one user/assistant exchange and append any high-confidence durable fact to the USER or COMPANY memory log.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_message": map[string]interface{}{
					"type":        "string",
					"description": "What the user said",
				},
				"assistant_message": map[string]interface{}{
					"type":        "string",
					"description": "What the assistant replied",
				},
			},
			Required: []string{"user_message", "assistant_message"},
		},
	}, handlers.RecordConversation)

	// 4. read_memory - dump one memory log
	server.AddTool(mcp.Tool{
		Name:        "read_memory",
		Description: "Read the USER or COMPANY memory log as Markdown together with its parsed entries.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"target": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"USER", "COMPANY"},
					"description": "Which memory log to read",
				},
			},
			Required: []string{"target"},
		},
	}, handlers.ReadMemory)

	return handlers
}
