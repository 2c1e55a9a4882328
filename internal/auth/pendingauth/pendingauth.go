// Package pendingauth implements the capacity-bounded store of
// in-flight authorization records keyed by consent-session code or
// authorization code, shared by the /authorize, /authorize/callback,
// and /token handlers.
package pendingauth

import (
	"container/list"
	"sync"
	"time"
)

const (
	// Capacity is the maximum number of pending records retained at
	// once; storing past this evicts the oldest entry first.
	Capacity = 1000
	// TTL is how long a pending record survives before cleanup_expired
	// purges it.
	TTL = 600 * time.Second
)

// Record is one in-flight authorization: either a consent session
// (keyed by session code, redirect_uri/client_id/PKCE challenge known,
// auth_code not yet minted) or an issued authorization code (same
// shape, reused once the user approves).
type Record struct {
	ClientID            string
	RedirectURI         string
	CodeChallenge       string
	CodeChallengeMethod string
	State               string
	Scope               string
	CreatedAt           time.Time
}

// Store is a capacity-bounded map with FIFO eviction order, guarded by
// a single mutex. The FIFO list and the map are always kept in sync
// under the same lock.
type Store struct {
	mu      sync.Mutex
	records map[string]*list.Element
	order   *list.List // list.Element.Value is fifoEntry
}

type fifoEntry struct {
	code   string
	record Record
}

// New returns an empty pending-authorization store.
func New() *Store {
	return &Store{
		records: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// StorePending inserts record under code, evicting the oldest entry
// first if the store is at capacity.
func (s *Store) StorePending(code string, record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[code]; ok {
		s.order.Remove(existing)
		delete(s.records, code)
	}

	for len(s.records) >= Capacity {
		oldest := s.order.Front()
		if oldest == nil {
			break
		}
		s.order.Remove(oldest)
		delete(s.records, oldest.Value.(fifoEntry).code)
	}

	elem := s.order.PushBack(fifoEntry{code: code, record: record})
	s.records[code] = elem
}

// TakePending removes and returns the pending record for code, if any.
func (s *Store) TakePending(code string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.records[code]
	if !ok {
		return Record{}, false
	}
	record := elem.Value.(fifoEntry).record
	s.order.Remove(elem)
	delete(s.records, code)
	return record, true
}

// CleanupExpired purges every record whose age is TTL or more.
func (s *Store) CleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var next *list.Element
	for elem := s.order.Front(); elem != nil; elem = next {
		next = elem.Next()
		entry := elem.Value.(fifoEntry)
		if now.Sub(entry.record.CreatedAt) >= TTL {
			s.order.Remove(elem)
			delete(s.records, entry.code)
		}
	}
}

// Len reports the number of pending records currently stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
