package search

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/olifog/yamos/internal/couchdb"
	"github.com/olifog/yamos/internal/logging"
)

// State is one of the watcher's lifecycle states.
type State string

const (
	StateLoading      State = "loading"
	StateStreaming    State = "streaming"
	StateReconnecting State = "reconnecting"
	StateStopped      State = "stopped"
)

const reconnectDelay = 5 * time.Second

// Watcher consumes the document store's continuous change feed and keeps
// an Index eventually consistent with it. Cancellation is cooperative:
// the caller's context is observed at every stream read and sleep point.
type Watcher struct {
	db    *couchdb.Client
	index *Index

	stateMu sync.RWMutex
	state   State
}

// NewWatcher builds a Watcher over db, updating index.
func NewWatcher(db *couchdb.Client, index *Index) *Watcher {
	return &Watcher{db: db, index: index, state: StateLoading}
}

// State reports the watcher's current lifecycle state.
func (w *Watcher) State() State {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	return w.state
}

func (w *Watcher) setState(s State) {
	w.stateMu.Lock()
	w.state = s
	w.stateMu.Unlock()
}

// Run performs the initial full load, then streams the continuous change
// feed, reconnecting with backoff on transient errors and performing a
// full resync if the backend reports the sequence was compacted. It
// blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	log := logging.WithComponent("watcher")
	w.setState(StateLoading)
	if err := w.fullResync(ctx); err != nil {
		log.Warn().Err(err).Msg("initial full load failed")
	}

	for {
		select {
		case <-ctx.Done():
			w.setState(StateStopped)
			return nil
		default:
		}

		since := w.index.LastSeq()
		if since == "" {
			since = "now"
		}

		w.setState(StateStreaming)
		log.Info().Str("since", since).Msg("starting changes watcher")
		err := w.db.StreamChanges(ctx, since, w.processChange)

		if ctx.Err() != nil {
			w.setState(StateStopped)
			return nil
		}
		if errors.Is(err, couchdb.ErrSeqInvalid) {
			log.Warn().Msg("invalid seq, triggering full resync")
			if rerr := w.fullResync(ctx); rerr != nil {
				log.Warn().Err(rerr).Msg("full resync failed")
			}
			continue
		}

		if err == nil {
			log.Info().Msg("changes feed closed, reconnecting in 5s")
		} else {
			log.Warn().Err(err).Msg("changes feed error, reconnecting in 5s")
		}
		w.setState(StateReconnecting)
		select {
		case <-time.After(reconnectDelay):
		case <-ctx.Done():
			w.setState(StateStopped)
			return nil
		}
	}
}

func (w *Watcher) processChange(event couchdb.ChangeEvent) error {
	if strings.HasPrefix(event.ID, "h:") || strings.HasPrefix(event.ID, "_") {
		w.index.AdvanceSeq(event.Seq)
		return nil
	}

	if event.Deleted {
		w.index.Remove(event.ID, event.Seq)
		return nil
	}

	if len(event.Doc) == 0 {
		w.index.AdvanceSeq(event.Seq)
		return nil
	}

	var doc couchdb.NoteDoc
	if err := json.Unmarshal(event.Doc, &doc); err != nil {
		return err
	}

	if doc.Deleted != nil && *doc.Deleted {
		w.index.Remove(event.ID, event.Seq)
		return nil
	}

	// Decode content without holding the index lock.
	content, err := w.db.DecodeContent(context.Background(), &doc)
	if err != nil {
		return err
	}
	title := ExtractTitle(event.ID, content)
	w.index.Upsert(event.ID, Entry{
		Path:    event.ID,
		Title:   title,
		Content: content,
		Mtime:   doc.Mtime,
	}, event.Seq)
	return nil
}

// fullResync clears the index, reloads every live note, and resets the
// watermark to "now" (the backend's _all_docs carries no seq itself).
func (w *Watcher) fullResync(ctx context.Context) error {
	notes, err := w.db.GetAllNotesWithContent(ctx)
	if err != nil {
		return err
	}
	entries := make(map[string]Entry, len(notes))
	for path, n := range notes {
		entries[path] = Entry{
			Path:    n.Path,
			Title:   ExtractTitle(path, n.Content),
			Content: n.Content,
			Mtime:   n.Mtime,
		}
	}
	w.index.ReplaceAll(entries, "now")
	logging.WithComponent("watcher").Info().Int("count", len(entries)).Msg("full resync complete")
	return nil
}
