package search

import "testing"

func TestUpsertAndSearchByTitle(t *testing.T) {
	idx := New()
	idx.Upsert("notes/hello.md", Entry{Path: "notes/hello.md", Title: "Hello World", Content: "nothing relevant"}, "1")

	results := idx.Search("hello", DefaultOptions())
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Path != "notes/hello.md" {
		t.Errorf("unexpected path %q", results[0].Path)
	}
}

func TestSearchMatchesContentAndSetsSnippet(t *testing.T) {
	idx := New()
	idx.Upsert("notes/a.md", Entry{Path: "notes/a.md", Title: "A", Content: "the quick brown fox jumps over the lazy dog"}, "1")

	results := idx.Search("quick brown", DefaultOptions())
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Snippet == "" {
		t.Errorf("expected non-empty snippet")
	}
}

func TestSearchTitleWeightedOverContent(t *testing.T) {
	idx := New()
	idx.Upsert("notes/title-match.md", Entry{Path: "notes/title-match.md", Title: "project plan", Content: "irrelevant filler text"}, "1")
	idx.Upsert("notes/content-match.md", Entry{Path: "notes/content-match.md", Title: "unrelated", Content: "a project plan is mentioned here"}, "2")

	results := idx.Search("project plan", DefaultOptions())
	if len(results) < 2 {
		t.Fatalf("expected at least 2 results, got %d", len(results))
	}
	if results[0].Path != "notes/title-match.md" {
		t.Errorf("expected title match to rank first, got %q first", results[0].Path)
	}
}

func TestSearchEmptyQueryReturnsNil(t *testing.T) {
	idx := New()
	idx.Upsert("notes/a.md", Entry{Path: "notes/a.md", Title: "A"}, "1")
	if got := idx.Search("", DefaultOptions()); got != nil {
		t.Errorf("expected nil for empty query, got %v", got)
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	idx := New()
	for i := 0; i < 30; i++ {
		path := "notes/" + string(rune('a'+i)) + ".md"
		idx.Upsert(path, Entry{Path: path, Title: "match me"}, "1")
	}
	opts := DefaultOptions()
	opts.Limit = 5
	results := idx.Search("match", opts)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
}

func TestRemoveDeletesEntryAndAdvancesSeq(t *testing.T) {
	idx := New()
	idx.Upsert("notes/a.md", Entry{Path: "notes/a.md", Title: "A"}, "1")
	idx.Remove("notes/a.md", "2")
	if idx.Len() != 0 {
		t.Errorf("expected index to be empty after remove")
	}
	if idx.LastSeq() != "2" {
		t.Errorf("expected lastSeq to advance to 2, got %q", idx.LastSeq())
	}
}

func TestSearchContentDisabledSkipsContentMatches(t *testing.T) {
	idx := New()
	idx.Upsert("notes/a.md", Entry{Path: "notes/a.md", Title: "unrelated", Content: "needle in haystack"}, "1")

	opts := Options{Limit: 20, SearchContent: false}
	results := idx.Search("needle", opts)
	if len(results) != 0 {
		t.Errorf("expected no results with content search disabled, got %d", len(results))
	}
}

func TestReplaceAllSwapsContents(t *testing.T) {
	idx := New()
	idx.Upsert("notes/old.md", Entry{Path: "notes/old.md", Title: "old"}, "1")

	idx.ReplaceAll(map[string]Entry{
		"notes/new.md": {Path: "notes/new.md", Title: "new"},
	}, "now")

	if idx.Len() != 1 {
		t.Fatalf("expected 1 entry after replace, got %d", idx.Len())
	}
	if _, matched := fuzzyScore("old", "old"); !matched {
		t.Errorf("sanity check on fuzzyScore failed")
	}
	results := idx.Search("old", DefaultOptions())
	if len(results) != 0 {
		t.Errorf("expected old entry to be gone, got %d results", len(results))
	}
}
