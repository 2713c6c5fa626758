// ABOUTME: MCP tool handler implementations for the ragmem server
// ABOUTME: Tool failures are reported as error results, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/harper/ragmem/internal/assistant"
	"github.com/harper/ragmem/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	assistant *assistant.Assistant
	logger    *zap.Logger
	// inflight tracks tool calls so shutdown can wait for memory writes
	inflight sync.WaitGroup
}

// NewHandlers creates handlers backed by an assistant
func NewHandlers(asst *assistant.Assistant, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{assistant: asst, logger: logger}
}

// AskDocuments handles the ask_documents tool
func (h *Handlers) AskDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.inflight.Add(1)
	defer h.inflight.Done()

	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}

	k := request.GetInt("k", h.assistant.DefaultK())

	answer, err := h.assistant.Answer(ctx, question, k)
	if err != nil {
		h.logger.Warn("ask_documents failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("answer failed: %v", err)), nil
	}

	return jsonResult(answer)
}

// IndexDocuments handles the index_documents tool
func (h *Handlers) IndexDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.inflight.Add(1)
	defer h.inflight.Done()

	dir := request.GetString("dir", "")
	force := request.GetBool("force", false)

	status, err := h.assistant.IndexDocuments(ctx, dir, force)
	if err != nil {
		h.logger.Warn("index_documents failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	response := map[string]interface{}{
		"rebuilt":    status.Rebuilt,
		"build_id":   status.Manifest.BuildID,
		"chunks":     status.Manifest.Chunks,
		"sources":    status.Manifest.Sources,
		"source_dir": status.Manifest.SourceDir,
	}
	return jsonResult(response)
}

// RecordConversation handles the record_conversation tool
func (h *Handlers) RecordConversation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.inflight.Add(1)
	defer h.inflight.Done()

	userMessage, err := request.RequireString("user_message")
	if err != nil {
		return mcp.NewToolResultError("user_message argument is required and must be a string"), nil
	}
	assistantMessage, err := request.RequireString("assistant_message")
	if err != nil {
		return mcp.NewToolResultError("assistant_message argument is required and must be a string"), nil
	}

	entries, err := h.assistant.RecordConversation(ctx, userMessage, assistantMessage)
	if err != nil {
		h.logger.Warn("record_conversation failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("memory extraction failed: %v", err)), nil
	}

	response := map[string]interface{}{
		"stored":  len(entries),
		"entries": entries,
	}
	return jsonResult(response)
}

// ReadMemory handles the read_memory tool
func (h *Handlers) ReadMemory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError("target argument is required and must be a string"), nil
	}
	target, err := models.ParseMemoryTarget(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	content, err := h.assistant.Memory(target)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read memory: %v", err)), nil
	}
	entries, err := h.assistant.MemoryEntries(target)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to parse memory: %v", err)), nil
	}
	if entries == nil {
		entries = []models.MemoryEntry{}
	}

	response := map[string]interface{}{
		"target":   string(target),
		"markdown": content,
		"entries":  entries,
	}
	return jsonResult(response)
}

// Shutdown waits for in-flight tool calls to complete
func (h *Handlers) Shutdown() {
	h.logger.Info("Waiting for in-flight tool calls to complete")
	h.inflight.Wait()
	h.logger.Info("All tool calls completed")
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
