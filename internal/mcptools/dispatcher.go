// Package mcptools exposes the gateway's note operations as typed MCP
// tools, validating every path through internal/pathvalidate before
// any I/O and translating internal/yerr failures into tool-result text
// rather than transport-level errors, so a single bad call never tears
// down a client's session.
package mcptools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/olifog/yamos/internal/couchdb"
	"github.com/olifog/yamos/internal/search"
)

// Dispatcher wires tool calls to the document-store client and the
// search index.
type Dispatcher struct {
	db    *couchdb.Client
	index *search.Index
}

// New builds a Dispatcher over db and index.
func New(db *couchdb.Client, index *search.Index) *Dispatcher {
	return &Dispatcher{db: db, index: index}
}

// RegisterTools registers every tool §4.12 names, plus the
// supplemented operations from SPEC_FULL.md §3, onto server.
func (d *Dispatcher) RegisterTools(server *mcp.Server) {
	readOnly := &mcp.ToolAnnotations{ReadOnlyHint: true}
	boolPtr := func(b bool) *bool { return &b }
	writeNonDestructive := &mcp.ToolAnnotations{DestructiveHint: boolPtr(false), IdempotentHint: true}
	writeDestructive := &mcp.ToolAnnotations{DestructiveHint: boolPtr(true)}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_notes",
		Description: "List notes in the vault, optionally filtered by path prefix.\n\nArgs:\n  prefix: Optional path prefix filter (e.g. 'Projects/')\n\nReturns a list of note paths.",
		Annotations: readOnly,
	}, d.handleListNotes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_note",
		Description: "Read the full content of a note by path.\n\nArgs:\n  path: Note path relative to the vault root\n\nReturns the note's decoded content.",
		Annotations: readOnly,
	}, d.handleReadNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "write_note",
		Description: "Create or overwrite a note with new content.\n\nArgs:\n  path: Note path relative to the vault root\n  content: New note content\n\nReturns success confirmation.",
		Annotations: writeNonDestructive,
	}, d.handleWriteNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "append_to_note",
		Description: "Append content to the end of an existing note, separated by a newline.\n\nArgs:\n  path: Note path relative to the vault root\n  content: Content to append\n\nReturns success confirmation.",
		Annotations: writeNonDestructive,
	}, d.handleAppendToNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "edit_note",
		Description: "Replace a unique occurrence of old_string with new_string in a note. Fails if old_string does not occur exactly once.\n\nArgs:\n  path: Note path relative to the vault root\n  old_string: Exact text to replace, must occur exactly once\n  new_string: Replacement text\n\nReturns success confirmation or an error describing why the match was not unique.",
		Annotations: writeNonDestructive,
	}, d.handleEditNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "insert_lines",
		Description: "Insert new lines into a note after a given 1-indexed line number.\n\nArgs:\n  path: Note path relative to the vault root\n  line: 1-indexed line number to insert after (0 inserts at the very start)\n  content: Content to insert (may itself span multiple lines)\n\nReturns success confirmation.",
		Annotations: writeNonDestructive,
	}, d.handleInsertLines)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_lines",
		Description: "Delete a 1-indexed inclusive range of lines from a note.\n\nArgs:\n  path: Note path relative to the vault root\n  start_line: 1-indexed first line to delete\n  end_line: 1-indexed last line to delete (inclusive)\n\nReturns success confirmation.",
		Annotations: writeDestructive,
	}, d.handleDeleteLines)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_note",
		Description: "Soft-delete a note. The note is marked deleted but its revision history is retained.\n\nArgs:\n  path: Note path relative to the vault root\n\nReturns success confirmation.",
		Annotations: writeDestructive,
	}, d.handleDeleteNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_notes",
		Description: "Fuzzy search notes by title and optionally content.\n\nArgs:\n  query: Search query\n  search_content: Whether to search note content in addition to titles (default true)\n  limit: Maximum number of results (default 20)\n\nReturns ranked results with path, title, score, and a matching snippet.",
		Annotations: readOnly,
	}, d.handleSearchNotes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "batch_read_notes",
		Description: "Read multiple notes in one call. Each path is processed independently; a failure on one never aborts the rest.\n\nArgs:\n  paths: Note paths to read\n\nReturns a per-path result: {path, success, content|error}.",
		Annotations: readOnly,
	}, d.handleBatchReadNotes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "batch_write_notes",
		Description: "Write multiple notes in one call, processed sequentially in order. A failure on one never aborts the rest.\n\nArgs:\n  notes: List of {path, content} to write\n\nReturns a per-path result: {path, success, error?}.",
		Annotations: writeNonDestructive,
	}, d.handleBatchWriteNotes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "batch_append_to_notes",
		Description: "Append to multiple notes in one call, processed sequentially in order. A failure on one never aborts the rest.\n\nArgs:\n  notes: List of {path, content} to append\n\nReturns a per-path result: {path, success, error?}.",
		Annotations: writeNonDestructive,
	}, d.handleBatchAppendToNotes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "batch_delete_notes",
		Description: "Soft-delete multiple notes in one call, processed sequentially in order. A failure on one never aborts the rest.\n\nArgs:\n  paths: Note paths to delete\n\nReturns a per-path result: {path, success, error?}.",
		Annotations: writeDestructive,
	}, d.handleBatchDeleteNotes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "test_connection",
		Description: "Check that the document-store backend is reachable and the configured credentials are accepted.\n\nReturns success confirmation or the connection error.",
		Annotations: readOnly,
	}, d.handleTestConnection)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
