package storage

import (
	"context"
	"sync"
)

// memStore keeps blobs in process memory. Used for the "memory" driver and
// as the degraded-mode target when the durable backend is unavailable.
type memStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemory returns a session-only Store.
func NewMemory() Store {
	return &memStore{blobs: map[string][]byte{}}
}

func (s *memStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, true, nil
}

func (s *memStore) Put(ctx context.Context, key string, blob []byte) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(blob))
	copy(cp, blob)
	s.blobs[key] = cp
	return nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *memStore) Close() error { return nil }
