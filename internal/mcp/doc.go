// Package mcp implements the Model Context Protocol (MCP) server for knowbase.
//
// The MCP server exposes five tools to AI assistants:
//   - search_knowledge: Hybrid vector and title search over saved articles
//   - list_entries: List recently saved entries, optionally per category
//   - ingest_content: Save article content keyed by source URL
//   - delete_entry: Delete a saved article by its source URL
//   - knowledge_stats: Entry counts per category plus recent saves
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output,
// making it simple to integrate with any MCP-compatible client.
//
// # Tool: search_knowledge
//
// Search the knowledge base:
//
//	Request:
//	{
//	  "name": "search_knowledge",
//	  "arguments": {
//	    "query": "jasper pricing changes",
//	    "category": "competitors",
//	    "limit": 5
//	  }
//	}
//
//	Response:
//	{
//	  "found": true,
//	  "method": "hybrid",
//	  "results": [
//	    {
//	      "title": "Jasper Pricing Overview",
//	      "url": "https://example.com/jasper-pricing",
//	      "category": "competitors",
//	      "preview": "...",
//	      "score": 0.87,
//	      "method": "title_match"
//	    }
//	  ]
//	}
//
// When nothing matches, or every retrieval path fails, the tool returns
// found=false with a human-readable message rather than a protocol
// error. The model should relay that message, never a stack trace.
//
// # Tool: ingest_content
//
// Save content to the knowledge base. The URL is the idempotency key;
// saving the same URL again replaces the previous entry in place:
//
//	Request:
//	{
//	  "name": "ingest_content",
//	  "arguments": {
//	    "url": "https://example.com/article",
//	    "content": "full article text...",
//	    "category": "research",
//	    "title": "Article Title",
//	    "added_by": "U123",
//	    "added_by_name": "Pat"
//	  }
//	}
//
//	Response:
//	{
//	  "success": true,
//	  "message": "Saved \"Article Title\" to research namespace",
//	  "entry_id": "c2f1...",
//	  "status": "ready",
//	  "replaced": false
//	}
//
// status is "pending" when the document is large enough that embedding
// runs in the background; the entry becomes searchable by vector once
// embedding completes.
//
// # Error Handling
//
// Validation failures return standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "invalid url: must be http or https",
//	    "data": {"param": "url"}
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, filesystem, etc.)
//   - -32004: Empty query
//
// Upstream failures during ingestion (embedding provider unreachable)
// are reported in-band as {"success": false, "error": "Ingestion
// failed: ..."} so the assistant can tell the user what happened.
//
// # Logging
//
// The MCP server logs to stderr; stdout is reserved for MCP protocol.
package mcp
