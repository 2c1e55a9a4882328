package mcptools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/olifog/yamos/internal/pathvalidate"
	"github.com/olifog/yamos/internal/yerr"
)

type listNotesInput struct {
	Prefix string `json:"prefix,omitempty" jsonschema:"Optional path prefix filter"`
}

func (d *Dispatcher) handleListNotes(ctx context.Context, req *mcp.CallToolRequest, input listNotesInput) (*mcp.CallToolResult, any, error) {
	paths, err := d.db.ListNotes(ctx)
	if err != nil {
		return textResult(fmt.Sprintf("error listing notes: %v", err)), nil, nil
	}

	filtered := paths[:0]
	for _, p := range paths {
		if input.Prefix == "" || strings.HasPrefix(p, input.Prefix) {
			filtered = append(filtered, p)
		}
	}
	sort.Strings(filtered)

	if len(filtered) == 0 {
		return textResult("no notes found"), nil, nil
	}
	return textResult(strings.Join(filtered, "\n")), nil, nil
}

type readNoteInput struct {
	Path string `json:"path" jsonschema:"Note path relative to the vault root"`
}

func (d *Dispatcher) handleReadNote(ctx context.Context, req *mcp.CallToolRequest, input readNoteInput) (*mcp.CallToolResult, any, error) {
	content, err := d.readNote(ctx, input.Path)
	if err != nil {
		return textResult(fmt.Sprintf("error: %v", err)), nil, nil
	}
	return textResult(content), nil, nil
}

func (d *Dispatcher) readNote(ctx context.Context, path string) (string, error) {
	if err := pathvalidate.Validate(path); err != nil {
		return "", err
	}
	doc, err := d.db.GetNote(ctx, path)
	if err != nil {
		return "", err
	}
	return d.db.DecodeContent(ctx, doc)
}

type writeNoteInput struct {
	Path    string `json:"path" jsonschema:"Note path relative to the vault root"`
	Content string `json:"content" jsonschema:"New note content"`
}

func (d *Dispatcher) handleWriteNote(ctx context.Context, req *mcp.CallToolRequest, input writeNoteInput) (*mcp.CallToolResult, any, error) {
	if err := d.writeNote(ctx, input.Path, input.Content); err != nil {
		return textResult(fmt.Sprintf("error: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("wrote %s", input.Path)), nil, nil
}

func (d *Dispatcher) writeNote(ctx context.Context, path, content string) error {
	if err := pathvalidate.Validate(path); err != nil {
		return err
	}
	return d.db.SaveNote(ctx, path, content)
}

type appendToNoteInput struct {
	Path    string `json:"path" jsonschema:"Note path relative to the vault root"`
	Content string `json:"content" jsonschema:"Content to append"`
}

func (d *Dispatcher) handleAppendToNote(ctx context.Context, req *mcp.CallToolRequest, input appendToNoteInput) (*mcp.CallToolResult, any, error) {
	if err := d.appendToNote(ctx, input.Path, input.Content); err != nil {
		return textResult(fmt.Sprintf("error: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("appended to %s", input.Path)), nil, nil
}

func (d *Dispatcher) appendToNote(ctx context.Context, path, content string) error {
	if err := pathvalidate.Validate(path); err != nil {
		return err
	}
	return d.db.AppendToNote(ctx, path, content)
}

type editNoteInput struct {
	Path      string `json:"path" jsonschema:"Note path relative to the vault root"`
	OldString string `json:"old_string" jsonschema:"Exact text to replace, must occur exactly once"`
	NewString string `json:"new_string" jsonschema:"Replacement text"`
}

func (d *Dispatcher) handleEditNote(ctx context.Context, req *mcp.CallToolRequest, input editNoteInput) (*mcp.CallToolResult, any, error) {
	if err := d.editNote(ctx, input.Path, input.OldString, input.NewString); err != nil {
		return textResult(fmt.Sprintf("error: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("edited %s", input.Path)), nil, nil
}

// editNote enforces unique-context replacement: old_string must occur
// in the note's decoded content exactly once.
func (d *Dispatcher) editNote(ctx context.Context, path, oldString, newString string) error {
	if err := pathvalidate.Validate(path); err != nil {
		return err
	}
	if oldString == newString {
		return yerr.New(yerr.InvalidRequest, "old_string and new_string must differ")
	}
	if oldString == "" {
		return yerr.New(yerr.InvalidRequest, "old_string must not be empty")
	}

	content, err := d.readNote(ctx, path)
	if err != nil {
		return err
	}

	count := strings.Count(content, oldString)
	switch {
	case count == 0:
		return yerr.New(yerr.NotFound, "old_string not found, match must be exact including whitespace")
	case count > 1:
		return yerr.New(yerr.InvalidRequest, fmt.Sprintf("old_string is not unique: found %d occurrences, provide more surrounding context", count))
	}

	updated := strings.Replace(content, oldString, newString, 1)
	return d.db.SaveNote(ctx, path, updated)
}

type insertLinesInput struct {
	Path    string `json:"path" jsonschema:"Note path relative to the vault root"`
	Line    int    `json:"line" jsonschema:"1-indexed line number to insert after (0 inserts at the very start)"`
	Content string `json:"content" jsonschema:"Content to insert"`
}

func (d *Dispatcher) handleInsertLines(ctx context.Context, req *mcp.CallToolRequest, input insertLinesInput) (*mcp.CallToolResult, any, error) {
	if err := d.insertLines(ctx, input.Path, input.Line, input.Content); err != nil {
		return textResult(fmt.Sprintf("error: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("inserted into %s at line %d", input.Path, input.Line)), nil, nil
}

func (d *Dispatcher) insertLines(ctx context.Context, path string, line int, content string) error {
	if err := pathvalidate.Validate(path); err != nil {
		return err
	}
	if line < 0 {
		return yerr.New(yerr.InvalidRequest, "line must be >= 0")
	}

	existing, err := d.readNote(ctx, path)
	if err != nil {
		return err
	}

	lines := splitLines(existing)
	if line > len(lines) {
		return yerr.New(yerr.InvalidRequest, fmt.Sprintf("line %d is past the end of the note (%d lines)", line, len(lines)))
	}

	inserted := splitLines(content)
	merged := make([]string, 0, len(lines)+len(inserted))
	merged = append(merged, lines[:line]...)
	merged = append(merged, inserted...)
	merged = append(merged, lines[line:]...)

	return d.db.SaveNote(ctx, path, strings.Join(merged, "\n"))
}

type deleteLinesInput struct {
	Path      string `json:"path" jsonschema:"Note path relative to the vault root"`
	StartLine int    `json:"start_line" jsonschema:"1-indexed first line to delete"`
	EndLine   int    `json:"end_line" jsonschema:"1-indexed last line to delete (inclusive)"`
}

func (d *Dispatcher) handleDeleteLines(ctx context.Context, req *mcp.CallToolRequest, input deleteLinesInput) (*mcp.CallToolResult, any, error) {
	if err := d.deleteLines(ctx, input.Path, input.StartLine, input.EndLine); err != nil {
		return textResult(fmt.Sprintf("error: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("deleted lines %d-%d from %s", input.StartLine, input.EndLine, input.Path)), nil, nil
}

func (d *Dispatcher) deleteLines(ctx context.Context, path string, startLine, endLine int) error {
	if err := pathvalidate.Validate(path); err != nil {
		return err
	}
	if startLine < 1 || endLine < startLine {
		return yerr.New(yerr.InvalidRequest, "start_line must be >= 1 and end_line must be >= start_line")
	}

	existing, err := d.readNote(ctx, path)
	if err != nil {
		return err
	}

	lines := splitLines(existing)
	if startLine > len(lines) {
		return yerr.New(yerr.InvalidRequest, fmt.Sprintf("start_line %d is past the end of the note (%d lines)", startLine, len(lines)))
	}
	end := endLine
	if end > len(lines) {
		end = len(lines)
	}

	merged := make([]string, 0, len(lines))
	merged = append(merged, lines[:startLine-1]...)
	merged = append(merged, lines[end:]...)

	return d.db.SaveNote(ctx, path, strings.Join(merged, "\n"))
}

type deleteNoteInput struct {
	Path string `json:"path" jsonschema:"Note path relative to the vault root"`
}

func (d *Dispatcher) handleDeleteNote(ctx context.Context, req *mcp.CallToolRequest, input deleteNoteInput) (*mcp.CallToolResult, any, error) {
	if err := d.deleteNote(ctx, input.Path); err != nil {
		return textResult(fmt.Sprintf("error: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("deleted %s", input.Path)), nil, nil
}

func (d *Dispatcher) deleteNote(ctx context.Context, path string) error {
	if err := pathvalidate.Validate(path); err != nil {
		return err
	}
	return d.db.DeleteNote(ctx, path)
}

type testConnectionInput struct{}

func (d *Dispatcher) handleTestConnection(ctx context.Context, req *mcp.CallToolRequest, input testConnectionInput) (*mcp.CallToolResult, any, error) {
	if err := d.db.TestConnection(ctx); err != nil {
		return textResult(fmt.Sprintf("connection failed: %v", err)), nil, nil
	}
	return textResult("connection ok"), nil, nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
