package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gistlabs/knowbase/internal/knowledge"
	"github.com/gistlabs/knowbase/internal/searcher"
	"github.com/gistlabs/knowbase/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyQuery    = -32004 // Query parameter is empty
)

// Degradation messages returned to the model instead of raw errors.
const (
	msgNoResults = "No relevant information found in the knowledge base."
	msgNoEntries = "No articles have been ingested yet."
)

// handleSearchKnowledge handles the search_knowledge tool invocation.
// Search failures degrade to a found=false message so the model gets a
// usable answer instead of a protocol error.
func (s *Server) handleSearchKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	category := getStringDefault(args, "category", searcher.ScopeAll)
	if err := s.validCategory(category, true); err != nil {
		return nil, err
	}

	limit := getIntDefault(args, "limit", searcher.DefaultLimit)
	if limit < 1 || limit > searcher.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", searcher.MaxLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	resp, err := s.searcher.Search(ctx, query, category, limit)
	if err != nil || len(resp.Results) == 0 {
		response := map[string]interface{}{
			"found":   false,
			"message": msgNoResults,
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, item := range resp.Results {
		results = append(results, map[string]interface{}{
			"title":    item.Title,
			"url":      item.URL,
			"category": item.Namespace,
			"preview":  item.Preview,
			"score":    item.Score,
			"method":   string(item.Method),
		})
	}

	response := map[string]interface{}{
		"found":   true,
		"method":  string(resp.Method),
		"results": results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListEntries handles the list_entries tool invocation
func (s *Server) handleListEntries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	category := getStringDefault(args, "category", searcher.ScopeAll)
	if err := s.validCategory(category, true); err != nil {
		return nil, err
	}
	limit := getIntDefault(args, "limit", knowledge.DefaultListLimit)

	entries, err := s.service.ListEntries(ctx, category, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list entries", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if len(entries) == 0 {
		response := map[string]interface{}{
			"entries": []interface{}{},
			"message": msgNoEntries,
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	response := map[string]interface{}{
		"entries": summariesToJSON(entries),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIngestContent handles the ingest_content tool invocation
func (s *Server) handleIngestContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	req := knowledge.IngestRequest{
		URL:         getStringDefault(args, "url", ""),
		Content:     getStringDefault(args, "content", ""),
		Category:    getStringDefault(args, "category", ""),
		Title:       getStringDefault(args, "title", ""),
		AddedBy:     getStringDefault(args, "added_by", ""),
		AddedByName: getStringDefault(args, "added_by_name", ""),
		ChannelID:   getStringDefault(args, "channel_id", ""),
	}

	result, err := s.service.Ingest(ctx, req)
	if err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			return nil, newMCPError(ErrorCodeInvalidParams, verr.Error(), map[string]interface{}{
				"param": verr.Field,
			})
		}
		if errors.Is(err, types.ErrEmptyContent) {
			return nil, newMCPError(ErrorCodeInvalidParams, "content parameter is required and cannot be empty", map[string]interface{}{
				"param": "content",
			})
		}
		// Upstream failures (embedding provider down) are reported in-band
		// so the model can relay them to the user.
		response := map[string]interface{}{
			"success": false,
			"error":   fmt.Sprintf("Ingestion failed: %s", err.Error()),
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	title := req.Title
	if title == "" {
		title = req.URL
	}
	response := map[string]interface{}{
		"success":  true,
		"message":  fmt.Sprintf("Saved %q to %s namespace", title, result.Namespace),
		"entry_id": result.EntryID,
		"status":   result.Status,
		"replaced": result.Replaced,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleDeleteEntry handles the delete_entry tool invocation
func (s *Server) handleDeleteEntry(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	rawURL, ok := args["url"].(string)
	if !ok || rawURL == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "url parameter is required", map[string]interface{}{
			"param":  "url",
			"reason": "missing or empty",
		})
	}

	result, err := s.service.DeleteByURL(ctx, rawURL)
	if err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			return nil, newMCPError(ErrorCodeInvalidParams, verr.Error(), map[string]interface{}{
				"param": verr.Field,
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "delete failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if !result.Deleted {
		response := map[string]interface{}{
			"deleted": false,
			"message": fmt.Sprintf("URL not found in knowledge base: %s", rawURL),
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	response := map[string]interface{}{
		"deleted": true,
		"message": fmt.Sprintf("Deleted %q from %s namespace", result.Title, result.Namespace),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleKnowledgeStats handles the knowledge_stats tool invocation
func (s *Server) handleKnowledgeStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.service.Stats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to collect stats", map[string]interface{}{
			"error": err.Error(),
		})
	}

	byNamespace := make(map[string]interface{}, len(stats.PerNamespace))
	for _, ns := range stats.PerNamespace {
		byNamespace[ns.Namespace] = ns.Count
	}

	response := map[string]interface{}{
		"total_entries":  stats.TotalEntries,
		"by_namespace":   byNamespace,
		"recent_entries": summariesToJSON(stats.RecentEntries),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// validCategory rejects category values outside the configured set
func (s *Server) validCategory(category string, allowAll bool) error {
	if allowAll && category == searcher.ScopeAll {
		return nil
	}
	for _, ns := range s.namespaces {
		if ns == category {
			return nil
		}
	}
	return newMCPError(ErrorCodeInvalidParams, "invalid category", map[string]interface{}{
		"param":   "category",
		"value":   category,
		"allowed": categoryEnum(s.namespaces, allowAll),
	})
}

// summariesToJSON flattens entry summaries for tool output
func summariesToJSON(entries []types.EntrySummary) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]interface{}{
			"title":    e.Title,
			"url":      e.URL,
			"category": e.Namespace,
			"status":   e.Status,
			"added_by": e.AddedBy,
			"added_at": e.AddedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return out
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
