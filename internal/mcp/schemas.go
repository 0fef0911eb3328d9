package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gistlabs/knowbase/internal/knowledge"
	"github.com/gistlabs/knowbase/internal/searcher"
)

// categoryEnum builds the enum values for a category parameter,
// optionally including the aggregate "all" scope.
func categoryEnum(namespaces []string, includeAll bool) []string {
	values := make([]string, 0, len(namespaces)+1)
	values = append(values, namespaces...)
	if includeAll {
		values = append(values, searcher.ScopeAll)
	}
	return values
}

// searchKnowledgeTool returns the tool definition for search_knowledge
func searchKnowledgeTool(namespaces []string) mcp.Tool {
	return mcp.Tool{
		Name:        "search_knowledge",
		Description: "Search the knowledge base with natural language or keyword queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Knowledge category to search, or 'all' for every category",
					"enum":        categoryEnum(namespaces, true),
					"default":     searcher.ScopeAll,
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-50)",
					"default":     searcher.DefaultLimit,
					"minimum":     1,
					"maximum":     searcher.MaxLimit,
				},
			},
			Required: []string{"query"},
		},
	}
}

// listEntriesTool returns the tool definition for list_entries
func listEntriesTool(namespaces []string) mcp.Tool {
	return mcp.Tool{
		Name:        "list_entries",
		Description: "List recently saved knowledge base entries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Knowledge category to list, or 'all' for every category",
					"enum":        categoryEnum(namespaces, true),
					"default":     searcher.ScopeAll,
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of entries to return",
					"default":     knowledge.DefaultListLimit,
					"minimum":     1,
					"maximum":     100,
				},
			},
		},
	}
}

// ingestContentTool returns the tool definition for ingest_content
func ingestContentTool(namespaces []string) mcp.Tool {
	return mcp.Tool{
		Name:        "ingest_content",
		Description: "Save article content to the knowledge base, keyed by URL. Re-saving the same URL replaces the existing entry.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"url": map[string]interface{}{
					"type":        "string",
					"description": "Source URL of the content (http or https)",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Full text content to save",
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Knowledge category to file the content under",
					"enum":        categoryEnum(namespaces, false),
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Title for the entry (defaults to the URL)",
				},
				"added_by": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the user saving the content",
				},
				"added_by_name": map[string]interface{}{
					"type":        "string",
					"description": "Display name of the user saving the content",
				},
				"channel_id": map[string]interface{}{
					"type":        "string",
					"description": "Channel where the content was shared",
				},
			},
			Required: []string{"url", "content", "category"},
		},
	}
}

// deleteEntryTool returns the tool definition for delete_entry
func deleteEntryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_entry",
		Description: "Delete a knowledge base entry by its source URL",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"url": map[string]interface{}{
					"type":        "string",
					"description": "Source URL of the entry to delete",
				},
			},
			Required: []string{"url"},
		},
	}
}

// knowledgeStatsTool returns the tool definition for knowledge_stats
func knowledgeStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "knowledge_stats",
		Description: "Get entry counts per category and the most recently saved entries",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
