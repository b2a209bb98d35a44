package settings

import (
	"context"
	"encoding/json"
	"sync"

	"shopbuzz/internal/storage"
	logx "shopbuzz/pkg/logx"
)

// StorageKey is the durable blob key for settings. It is distinct from the
// history store's key; the two blobs are independent.
const StorageKey = "notification-settings"

// Store keeps the current settings in memory and writes every mutation
// through to durable storage.
//
// A failing backend is a degraded mode, not a fatal one: mutations keep
// applying in memory for the session and the write error is logged.
type Store struct {
	log     logx.Logger
	backend storage.Store // nil means in-memory only

	mu  sync.RWMutex
	cur Settings
}

func NewStore(ctx context.Context, backend storage.Store, log logx.Logger) *Store {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Store{log: log, backend: backend, cur: Defaults()}
	s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) {
	if s.backend == nil {
		return
	}
	blob, ok, err := s.backend.Get(ctx, StorageKey)
	if err != nil {
		s.log.Warn("settings load failed; using defaults for this session", logx.Err(err))
		return
	}
	if !ok {
		return
	}
	var loaded Settings
	if err := json.Unmarshal(blob, &loaded); err != nil {
		s.log.Warn("settings blob corrupt; using defaults", logx.Err(err))
		return
	}
	s.mu.Lock()
	s.cur = loaded
	s.mu.Unlock()
}

// Get returns the current settings record.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Update merges the patch into the current settings and persists the result.
// Unset patch fields are left untouched.
func (s *Store) Update(ctx context.Context, p Patch) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = p.apply(s.cur)
	s.persistLocked(ctx)
	return s.cur
}

// Reset restores the fixed defaults and persists them.
func (s *Store) Reset(ctx context.Context) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = Defaults()
	s.persistLocked(ctx)
	return s.cur
}

// persistLocked writes while the caller holds mu; overlapping updates must
// persist in the order they applied.
func (s *Store) persistLocked(ctx context.Context) {
	if s.backend == nil {
		return
	}
	blob, err := json.Marshal(s.cur)
	if err != nil {
		s.log.Error("settings marshal failed", logx.Err(err))
		return
	}
	if err := s.backend.Put(ctx, StorageKey, blob); err != nil {
		s.log.Warn("settings persist failed; continuing in-memory", logx.Err(err))
	}
}
