package couchdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeBackend is a minimal in-memory stand-in for the document-store's
// HTTP API, enough to exercise save/get/decode/delete round trips.
type fakeBackend struct {
	docs map[string]map[string]any
}

func newFakeServer(t *testing.T) (*httptest.Server, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{docs: map[string]map[string]any{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/testdb", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/testdb/_all_docs", func(w http.ResponseWriter, r *http.Request) {
		rows := []map[string]any{}
		for id, doc := range fb.docs {
			rows = append(rows, map[string]any{
				"id":    id,
				"value": map[string]any{"rev": doc["_rev"]},
				"doc":   doc,
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"rows": rows})
	})
	mux.HandleFunc("/testdb/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/testdb/")
		switch r.Method {
		case http.MethodGet:
			doc, ok := fb.docs[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(doc)
		case http.MethodPut:
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			body["_rev"] = "1-rev"
			fb.docs[id] = body
			json.NewEncoder(w).Encode(map[string]any{"ok": true, "id": id, "rev": "1-rev"})
		case http.MethodDelete:
			delete(fb.docs, id)
			json.NewEncoder(w).Encode(map[string]any{"ok": true})
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, fb
}

func TestSaveGetDecodeRoundTrip(t *testing.T) {
	srv, _ := newFakeServer(t)
	c := New(srv.URL, "testdb", "user", "pass")

	if err := c.SaveNote(context.Background(), "Projects/foo.md", "hello world"); err != nil {
		t.Fatalf("SaveNote: %v", err)
	}

	doc, err := c.GetNote(context.Background(), "Projects/foo.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if doc.DocType != "plain" {
		t.Fatalf("want doc_type plain, got %s", doc.DocType)
	}

	content, err := c.DecodeContent(context.Background(), doc)
	if err != nil {
		t.Fatalf("DecodeContent: %v", err)
	}
	if content != "hello world" {
		t.Fatalf("want %q got %q", "hello world", content)
	}
}

func TestAppendToNote(t *testing.T) {
	srv, _ := newFakeServer(t)
	c := New(srv.URL, "testdb", "user", "pass")

	if err := c.SaveNote(context.Background(), "a.md", "line1"); err != nil {
		t.Fatalf("SaveNote: %v", err)
	}
	if err := c.AppendToNote(context.Background(), "a.md", "line2"); err != nil {
		t.Fatalf("AppendToNote: %v", err)
	}
	doc, err := c.GetNote(context.Background(), "a.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	content, err := c.DecodeContent(context.Background(), doc)
	if err != nil {
		t.Fatalf("DecodeContent: %v", err)
	}
	if content != "line1\nline2" {
		t.Fatalf("want %q got %q", "line1\nline2", content)
	}
}

func TestDeleteNoteIsSoftDelete(t *testing.T) {
	srv, fb := newFakeServer(t)
	c := New(srv.URL, "testdb", "user", "pass")

	if err := c.SaveNote(context.Background(), "a.md", "content"); err != nil {
		t.Fatalf("SaveNote: %v", err)
	}
	if err := c.DeleteNote(context.Background(), "a.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	doc := fb.docs["a.md"]
	if doc["deleted"] != true {
		t.Fatalf("want deleted=true, got %v", doc["deleted"])
	}
	if len(doc["children"].([]any)) == 0 {
		t.Fatalf("soft delete must retain chunks")
	}
}

func TestListNotesFiltersChunksAndDeleted(t *testing.T) {
	srv, _ := newFakeServer(t)
	c := New(srv.URL, "testdb", "user", "pass")

	if err := c.SaveNote(context.Background(), "visible.md", "hi"); err != nil {
		t.Fatalf("SaveNote: %v", err)
	}
	if err := c.SaveNote(context.Background(), "gone.md", "bye"); err != nil {
		t.Fatalf("SaveNote: %v", err)
	}
	if err := c.DeleteNote(context.Background(), "gone.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}

	ids, err := c.ListNotes(context.Background())
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	found := map[string]bool{}
	for _, id := range ids {
		found[id] = true
	}
	if !found["visible.md"] {
		t.Fatal("want visible.md in list")
	}
	if found["gone.md"] {
		t.Fatal("soft-deleted note must not be listed")
	}
}

func TestGetNoteNotFound(t *testing.T) {
	srv, _ := newFakeServer(t)
	c := New(srv.URL, "testdb", "user", "pass")
	_, err := c.GetNote(context.Background(), "missing.md")
	if err == nil {
		t.Fatal("want error for missing note")
	}
}
