package mcptools

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/olifog/yamos/internal/search"
)

func textContentOf(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		return ""
	}
	return tc.Text
}

func TestHandleSearchNotesFindsByTitle(t *testing.T) {
	d := newTestDispatcher(t)
	d.index.Upsert("Projects/roadmap.md", search.Entry{
		Path: "Projects/roadmap.md", Title: "Roadmap", Content: "future plans",
	}, "1")

	result, _, err := d.handleSearchNotes(context.Background(), nil, searchNotesInput{Query: "roadmap"})
	if err != nil {
		t.Fatalf("handleSearchNotes: %v", err)
	}
	body := textContentOf(result)
	if !strings.Contains(body, "Projects/roadmap.md") {
		t.Fatalf("expected match, got %q", body)
	}
}

func TestHandleSearchNotesNoMatches(t *testing.T) {
	d := newTestDispatcher(t)
	result, _, err := d.handleSearchNotes(context.Background(), nil, searchNotesInput{Query: "nonexistent"})
	if err != nil {
		t.Fatalf("handleSearchNotes: %v", err)
	}
	if textContentOf(result) != "no matches" {
		t.Fatalf("got %q", textContentOf(result))
	}
}
