// Package search implements the gateway's in-memory fuzzy index over
// (path, title, content), kept eventually consistent by a change-feed
// watcher (see watcher.go).
package search

import (
	"strings"
	"sync"
)

// Entry is one note's indexed content.
type Entry struct {
	Path    string
	Title   string
	Content string
	Mtime   int64
}

// Result is a single search hit.
type Result struct {
	Path    string
	Title   string
	Score   int
	Snippet string
}

// Options controls a search call.
type Options struct {
	Limit         int
	SearchContent bool
}

// DefaultOptions mirrors the original implementation's defaults.
func DefaultOptions() Options {
	return Options{Limit: 20, SearchContent: true}
}

// Index is the in-memory fuzzy index, guarded by a single read/write
// lock with writer-preference semantics. Readers (Search) never block
// each other; the lock scope for Upsert is a single insertion plus
// sequence advance.
type Index struct {
	mu      sync.RWMutex
	notes   map[string]Entry
	lastSeq string
}

// New returns an empty index.
func New() *Index {
	return &Index{notes: make(map[string]Entry)}
}

// Len reports the number of indexed notes.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.notes)
}

// LastSeq returns the current change-feed watermark.
func (idx *Index) LastSeq() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.lastSeq
}

// Upsert inserts or updates a note and advances the watermark under the
// same write-lock acquisition.
func (idx *Index) Upsert(path string, entry Entry, seq string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.notes[path] = entry
	idx.lastSeq = seq
}

// Remove deletes a note and advances the watermark under the same
// write-lock acquisition.
func (idx *Index) Remove(path string, seq string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.notes, path)
	idx.lastSeq = seq
}

// AdvanceSeq updates only the watermark, for events that carry no doc
// mutation (chunk/system docs).
func (idx *Index) AdvanceSeq(seq string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.lastSeq = seq
}

// Clear empties the index and resets the watermark, for full resync.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.notes = make(map[string]Entry)
	idx.lastSeq = ""
}

// ReplaceAll atomically swaps the index contents, for full resync.
func (idx *Index) ReplaceAll(entries map[string]Entry, seq string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.notes = entries
	idx.lastSeq = seq
}

// Search performs a fuzzy match over title (weighted 2x) and optionally
// content, sorted descending by combined score and truncated to Limit.
// An empty query returns no results.
func (idx *Index) Search(query string, opts Options) []Result {
	if query == "" {
		return nil
	}

	idx.mu.RLock()
	entries := make([]Entry, 0, len(idx.notes))
	for _, e := range idx.notes {
		entries = append(entries, e)
	}
	idx.mu.RUnlock()

	var results []Result
	for _, e := range entries {
		titleScore, titleMatched := fuzzyScore(e.Title, query)
		var contentScore int
		var contentMatched bool
		var snippet string
		if opts.SearchContent {
			contentScore, contentMatched = fuzzyScore(e.Content, query)
			if contentMatched {
				snippet = ExtractSnippet(e.Content, query)
			}
		}
		if !titleMatched && !contentMatched {
			continue
		}
		combined := 0
		if titleMatched {
			combined += saturatingMul2(titleScore)
		}
		if contentMatched {
			combined = saturatingAdd(combined, contentScore)
		}
		results = append(results, Result{
			Path:    e.Path,
			Title:   e.Title,
			Score:   combined,
			Snippet: snippet,
		})
	}

	sortResultsDescending(results)
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

func sortResultsDescending(results []Result) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}

func saturatingMul2(v int) int {
	const max = int(^uint(0) >> 1)
	if v > max/2 {
		return max
	}
	return v * 2
}

func saturatingAdd(a, b int) int {
	const max = int(^uint(0) >> 1)
	if a > max-b {
		return max
	}
	return a + b
}

// fuzzyScore is a hand-rolled smart-case subsequence matcher: the query
// is matched case-insensitively unless it contains an uppercase letter
// (in which case matching is exact-case), scoring higher for contiguous
// and earlier matches. No corpus repo provides a fuzzy-matching library,
// so this stands in for nucleo_matcher's role in the original.
func fuzzyScore(haystack, query string) (int, bool) {
	if query == "" || haystack == "" {
		return 0, false
	}
	h := haystack
	q := query
	if !hasUpper(query) {
		h = strings.ToLower(haystack)
		q = strings.ToLower(query)
	}

	hRunes := []rune(h)
	qRunes := []rune(q)

	score := 0
	hi := 0
	contiguous := 0
	matchedAny := false
	for _, qr := range qRunes {
		found := false
		for ; hi < len(hRunes); hi++ {
			if hRunes[hi] == qr {
				found = true
				matchedAny = true
				if contiguous > 0 {
					score += 3 // bonus for contiguous runs
				} else {
					score += 1
				}
				contiguous++
				hi++
				break
			}
			contiguous = 0
		}
		if !found {
			return 0, false
		}
	}
	if !matchedAny {
		return 0, false
	}
	// Earlier matches score slightly higher.
	score += max0(50 - hi)
	return score, true
}

func hasUpper(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
