package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/olifog/yamos/internal/couchdb"
)

func newWatcherFakeServer(t *testing.T) (*httptest.Server, map[string]map[string]any) {
	t.Helper()
	docs := map[string]map[string]any{}
	mux := http.NewServeMux()
	mux.HandleFunc("/testdb", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/testdb/_all_docs", func(w http.ResponseWriter, r *http.Request) {
		rows := []map[string]any{}
		for id, doc := range docs {
			rows = append(rows, map[string]any{
				"id":    id,
				"value": map[string]any{"rev": doc["_rev"]},
				"doc":   doc,
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"rows": rows})
	})
	mux.HandleFunc("/testdb/_changes", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/testdb/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/testdb/")
		switch r.Method {
		case http.MethodGet:
			doc, ok := docs[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(doc)
		case http.MethodPut:
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			body["_rev"] = "1-rev"
			docs[id] = body
			json.NewEncoder(w).Encode(map[string]any{"ok": true, "id": id, "rev": "1-rev"})
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, docs
}

func TestFullResyncLoadsEveryLiveNote(t *testing.T) {
	srv, _ := newWatcherFakeServer(t)
	db := couchdb.New(srv.URL, "testdb", "user", "pass")
	if err := db.SaveNote(context.Background(), "a.md", "# A Title\nbody"); err != nil {
		t.Fatalf("SaveNote: %v", err)
	}

	idx := New()
	w := NewWatcher(db, idx)
	if err := w.fullResync(context.Background()); err != nil {
		t.Fatalf("fullResync: %v", err)
	}

	if idx.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", idx.Len())
	}
	results := idx.Search("A Title", DefaultOptions())
	if len(results) != 1 {
		t.Fatalf("expected to find resynced note, got %d results", len(results))
	}
}

func TestProcessChangeSkipsSystemAndChunkDocs(t *testing.T) {
	idx := New()
	w := NewWatcher(nil, idx)

	if err := w.processChange(couchdb.ChangeEvent{Seq: "5", ID: "h:abc123"}); err != nil {
		t.Fatalf("processChange: %v", err)
	}
	if idx.LastSeq() != "5" {
		t.Errorf("expected seq to advance for chunk doc, got %q", idx.LastSeq())
	}
	if idx.Len() != 0 {
		t.Errorf("expected no entries indexed for a chunk doc")
	}
}

func TestProcessChangeHandlesHardDelete(t *testing.T) {
	idx := New()
	idx.Upsert("a.md", Entry{Path: "a.md", Title: "A"}, "1")
	w := NewWatcher(nil, idx)

	if err := w.processChange(couchdb.ChangeEvent{Seq: "2", ID: "a.md", Deleted: true}); err != nil {
		t.Fatalf("processChange: %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("expected note removed after hard delete")
	}
	if idx.LastSeq() != "2" {
		t.Errorf("expected seq advance, got %q", idx.LastSeq())
	}
}

func TestProcessChangeHandlesSoftDelete(t *testing.T) {
	idx := New()
	idx.Upsert("a.md", Entry{Path: "a.md", Title: "A"}, "1")
	w := NewWatcher(nil, idx)

	deletedDoc, _ := json.Marshal(map[string]any{
		"_id":     "a.md",
		"deleted": true,
		"type":    "plain",
	})
	if err := w.processChange(couchdb.ChangeEvent{Seq: "3", ID: "a.md", Doc: deletedDoc}); err != nil {
		t.Fatalf("processChange: %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("expected note removed after soft delete")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	srv, _ := newWatcherFakeServer(t)
	db := couchdb.New(srv.URL, "testdb", "user", "pass")
	idx := New()
	w := NewWatcher(db, idx)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
	if w.State() != StateStopped {
		t.Errorf("expected StateStopped, got %s", w.State())
	}
}
