package chunk

import (
	"strings"
	"testing"
)

func assembleFromChunks(t *testing.T, chunks []Chunk) string {
	t.Helper()
	byID := make(map[string]string, len(chunks))
	var order []string
	for _, c := range chunks {
		byID[c.ID] = c.Data
		order = append(order, c.ID)
	}
	content, err := Assemble(order, func(id string) (string, error) {
		return byID[id], nil
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return content
}

func TestSplitAssembleRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"short",
		strings.Repeat("a", 31),
		strings.Repeat("a", 32),
		strings.Repeat("a", 33),
		strings.Repeat("a", 500),
	}
	for _, c := range cases {
		chunks, err := Split(c)
		if err != nil {
			t.Fatalf("Split(%q): %v", c, err)
		}
		if len(chunks) == 0 {
			t.Fatalf("Split(%q) produced no chunks", c)
		}
		got := assembleFromChunks(t, chunks)
		if got != c {
			t.Fatalf("round-trip mismatch: want %q got %q", c, got)
		}
	}
}

func TestSplitNeverExceedsUTF8Boundary(t *testing.T) {
	content := strings.Repeat("a", 30) + "🌍" + strings.Repeat("b", 30)
	chunks, err := Split(content)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	for _, c := range chunks {
		if strings.ToValidUTF8(c.Data, "�") != c.Data {
			t.Fatalf("chunk %q is not valid utf8", c.Data)
		}
	}
	got := assembleFromChunks(t, chunks)
	if got != content {
		t.Fatalf("round-trip mismatch: want %q got %q", content, got)
	}
}

func TestSplitProducesAtLeastOneChunk(t *testing.T) {
	chunks, err := Split("")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("want 1 chunk for empty input, got %d", len(chunks))
	}
	if chunks[0].Data != "" {
		t.Fatalf("want empty chunk data, got %q", chunks[0].Data)
	}
}

func TestSplitChunkSizeBound(t *testing.T) {
	content := strings.Repeat("x", 500)
	chunks, err := Split(content)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	for _, c := range chunks {
		if len(c.Data) > Size {
			t.Fatalf("chunk exceeds %d bytes: %d", Size, len(c.Data))
		}
	}
}

func TestNewIDShape(t *testing.T) {
	id, err := NewID()
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}
	if !strings.HasPrefix(id, "h:") {
		t.Fatalf("id %q missing h: prefix", id)
	}
	rest := strings.TrimPrefix(id, "h:")
	if len(rest) != 13 {
		t.Fatalf("id suffix want 13 chars, got %d", len(rest))
	}
	for _, r := range rest {
		if !strings.ContainsRune(idCharset, r) {
			t.Fatalf("id contains char %q outside charset", r)
		}
	}
}

func TestAssembleSurfacesFetchError(t *testing.T) {
	_, err := Assemble([]string{"h:missing"}, func(id string) (string, error) {
		return "", errBoom
	})
	if err == nil {
		t.Fatal("want error when fetch fails")
	}
}

var errBoom = errFetch{}

type errFetch struct{}

func (errFetch) Error() string { return "boom" }
