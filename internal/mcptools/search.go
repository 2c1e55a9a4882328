package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/olifog/yamos/internal/search"
)

type searchNotesInput struct {
	Query         string `json:"query" jsonschema:"Search query"`
	SearchContent *bool  `json:"search_content,omitempty" jsonschema:"Whether to search note content in addition to titles (default true)"`
	Limit         int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 20)"`
}

func (d *Dispatcher) handleSearchNotes(ctx context.Context, req *mcp.CallToolRequest, input searchNotesInput) (*mcp.CallToolResult, any, error) {
	opts := search.DefaultOptions()
	if input.SearchContent != nil {
		opts.SearchContent = *input.SearchContent
	}
	if input.Limit > 0 {
		opts.Limit = input.Limit
	}

	results := d.index.Search(input.Query, opts)
	if len(results) == 0 {
		return textResult("no matches"), nil, nil
	}

	var sb strings.Builder
	for _, r := range results {
		fmt.Fprintf(&sb, "%s (%s) [score %d]\n", r.Path, r.Title, r.Score)
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "  %s\n", r.Snippet)
		}
	}
	return textResult(sb.String()), nil, nil
}
