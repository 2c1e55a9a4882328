package mcptools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// batchResult is one element's outcome within a batch call. Content is
// only populated for batch_read_notes; Error is populated on failure.
type batchResult struct {
	Path    string `json:"path"`
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

func marshalBatchResults(results []batchResult) *mcp.CallToolResult {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return textResult("error encoding batch results")
	}
	return textResult(string(data))
}

type batchReadNotesInput struct {
	Paths []string `json:"paths" jsonschema:"Note paths to read"`
}

// handleBatchReadNotes processes each path sequentially and
// independently: one path's failure never aborts the rest.
func (d *Dispatcher) handleBatchReadNotes(ctx context.Context, req *mcp.CallToolRequest, input batchReadNotesInput) (*mcp.CallToolResult, any, error) {
	results := make([]batchResult, 0, len(input.Paths))
	for _, path := range input.Paths {
		content, err := d.readNote(ctx, path)
		if err != nil {
			results = append(results, batchResult{Path: path, Success: false, Error: err.Error()})
			continue
		}
		results = append(results, batchResult{Path: path, Success: true, Content: content})
	}
	return marshalBatchResults(results), nil, nil
}

type noteWrite struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type batchWriteNotesInput struct {
	Notes []noteWrite `json:"notes" jsonschema:"List of {path, content} to write"`
}

func (d *Dispatcher) handleBatchWriteNotes(ctx context.Context, req *mcp.CallToolRequest, input batchWriteNotesInput) (*mcp.CallToolResult, any, error) {
	results := make([]batchResult, 0, len(input.Notes))
	for _, n := range input.Notes {
		if err := d.writeNote(ctx, n.Path, n.Content); err != nil {
			results = append(results, batchResult{Path: n.Path, Success: false, Error: err.Error()})
			continue
		}
		results = append(results, batchResult{Path: n.Path, Success: true})
	}
	return marshalBatchResults(results), nil, nil
}

type batchAppendToNotesInput struct {
	Notes []noteWrite `json:"notes" jsonschema:"List of {path, content} to append"`
}

func (d *Dispatcher) handleBatchAppendToNotes(ctx context.Context, req *mcp.CallToolRequest, input batchAppendToNotesInput) (*mcp.CallToolResult, any, error) {
	results := make([]batchResult, 0, len(input.Notes))
	for _, n := range input.Notes {
		if err := d.appendToNote(ctx, n.Path, n.Content); err != nil {
			results = append(results, batchResult{Path: n.Path, Success: false, Error: err.Error()})
			continue
		}
		results = append(results, batchResult{Path: n.Path, Success: true})
	}
	return marshalBatchResults(results), nil, nil
}

type batchDeleteNotesInput struct {
	Paths []string `json:"paths" jsonschema:"Note paths to delete"`
}

func (d *Dispatcher) handleBatchDeleteNotes(ctx context.Context, req *mcp.CallToolRequest, input batchDeleteNotesInput) (*mcp.CallToolResult, any, error) {
	results := make([]batchResult, 0, len(input.Paths))
	for _, path := range input.Paths {
		if err := d.deleteNote(ctx, path); err != nil {
			results = append(results, batchResult{Path: path, Success: false, Error: err.Error()})
			continue
		}
		results = append(results, batchResult{Path: path, Success: true})
	}
	return marshalBatchResults(results), nil, nil
}
