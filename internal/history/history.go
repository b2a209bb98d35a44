// Package history keeps the ordered log of delivered notifications.
package history

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"shopbuzz/internal/order"
	"shopbuzz/internal/storage"
	logx "shopbuzz/pkg/logx"
)

// StorageKey is the durable blob key for history plus the last-sent marker.
const StorageKey = "notification-history"

// MaxEntries caps the history list; appending beyond it evicts the oldest.
const MaxEntries = 50

// Entry is one delivered notification. ID matches the delivery identifier
// returned by the notifier channel. Read starts false and only ever flips to
// true.
type Entry struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	Timestamp int64       `json:"timestamp"` // epoch milliseconds
	Read      bool        `json:"read"`
	Order     order.Order `json:"order"`
}

type blob struct {
	History              []Entry `json:"history"`
	LastNotificationTime int64   `json:"lastNotificationTime"` // epoch ms, 0 = never
}

// Store holds the capped, newest-first history list and the throttle's
// last-sent scalar. Both live in the same durable blob.
//
// Like the settings store, a failing backend degrades to in-memory operation
// for the session instead of erroring out.
type Store struct {
	log     logx.Logger
	backend storage.Store // nil means in-memory only

	mu       sync.RWMutex
	entries  []Entry
	lastSent int64 // epoch ms, 0 = never
}

func NewStore(ctx context.Context, backend storage.Store, log logx.Logger) *Store {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Store{log: log, backend: backend}
	s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) {
	if s.backend == nil {
		return
	}
	raw, ok, err := s.backend.Get(ctx, StorageKey)
	if err != nil {
		s.log.Warn("history load failed; starting empty for this session", logx.Err(err))
		return
	}
	if !ok {
		return
	}
	var b blob
	if err := json.Unmarshal(raw, &b); err != nil {
		s.log.Warn("history blob corrupt; starting empty", logx.Err(err))
		return
	}
	if len(b.History) > MaxEntries {
		b.History = b.History[:MaxEntries]
	}
	s.mu.Lock()
	s.entries = b.History
	s.lastSent = b.LastNotificationTime
	s.mu.Unlock()
}

// Append inserts the entry at the front (newest first), evicts past the cap,
// and persists.
func (s *Store) Append(ctx context.Context, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]Entry{e}, s.entries...)
	if len(s.entries) > MaxEntries {
		s.entries = s.entries[:MaxEntries]
	}
	s.persistLocked(ctx)
}

// MarkRead flips the matching entry to read. Idempotent; a missing id is a
// no-op, not an error.
func (s *Store) MarkRead(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			if !s.entries[i].Read {
				s.entries[i].Read = true
				s.persistLocked(ctx)
			}
			return
		}
	}
}

// Clear empties the list and persists the empty state.
//
// The last-sent marker is deliberately left alone: clearing history is a
// display action, not a throttle reset. A clear followed by a refresh still
// honors the configured frequency.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.persistLocked(ctx)
}

// Touch records the time of a successful send.
func (s *Store) Touch(ctx context.Context, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSent = t.UnixMilli()
	s.persistLocked(ctx)
}

// LastNotificationTime returns the last successful send time.
// The zero time means "never".
func (s *Store) LastNotificationTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSent == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.lastSent)
}

// Entries returns a newest-first copy of the list.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]Entry, len(s.entries))
	copy(cp, s.entries)
	return cp
}

// Len returns the current history length.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// UnreadCount returns how many entries are still unread.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for i := range s.entries {
		if !s.entries[i].Read {
			n++
		}
	}
	return n
}

// persistLocked writes the blob while the caller holds mu, so concurrent
// mutators (simulator appends, API mark-reads) cannot land their Puts out of
// order and leave a stale snapshot on disk.
func (s *Store) persistLocked(ctx context.Context) {
	if s.backend == nil {
		return
	}
	raw, err := json.Marshal(blob{History: s.entries, LastNotificationTime: s.lastSent})
	if err != nil {
		s.log.Error("history marshal failed", logx.Err(err))
		return
	}
	if err := s.backend.Put(ctx, StorageKey, raw); err != nil {
		s.log.Warn("history persist failed; continuing in-memory", logx.Err(err))
	}
}
