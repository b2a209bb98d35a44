package settings

import (
	"context"
	"errors"
	"testing"

	"shopbuzz/internal/storage"
	logx "shopbuzz/pkg/logx"
)

func TestGetReturnsDefaultsOnFirstAccess(t *testing.T) {
	s := NewStore(context.Background(), storage.NewMemory(), logx.Nop())
	got := s.Get()
	if got != Defaults() {
		t.Fatalf("first access should return defaults, got %+v", got)
	}
}

func TestUpdateMergesAndLeavesRestUntouched(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, storage.NewMemory(), logx.Nop())

	name := "Acme"
	min := 42.5
	s.Update(ctx, Patch{StoreName: &name, MinOrderAmount: &min})

	got := s.Get()
	if got.StoreName != "Acme" || got.MinOrderAmount != 42.5 {
		t.Fatalf("patched fields not applied: %+v", got)
	}
	def := Defaults()
	if got.Frequency != def.Frequency || got.NotificationBody != def.NotificationBody || got.Enabled != def.Enabled {
		t.Fatalf("unpatched fields changed: %+v", got)
	}
}

func TestUpdatePersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()

	s := NewStore(ctx, backend, logx.Nop())
	enabled := false
	freq := FrequencyDaily
	s.Update(ctx, Patch{Enabled: &enabled, Frequency: &freq})

	// Simulate a process restart by building a fresh store on the same backend.
	s2 := NewStore(ctx, backend, logx.Nop())
	got := s2.Get()
	if got.Enabled || got.Frequency != FrequencyDaily {
		t.Fatalf("settings not durable across restart: %+v", got)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	s := NewStore(ctx, backend, logx.Nop())

	name := "Changed"
	s.Update(ctx, Patch{StoreName: &name})
	s.Reset(ctx)

	if s.Get() != Defaults() {
		t.Fatalf("reset did not restore defaults: %+v", s.Get())
	}
	s2 := NewStore(ctx, backend, logx.Nop())
	if s2.Get() != Defaults() {
		t.Fatalf("reset not persisted: %+v", s2.Get())
	}
}

// failingStore errors on every operation, standing in for an unavailable
// backend.
type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errors.New("backend down")
}
func (failingStore) Put(ctx context.Context, key string, blob []byte) error {
	return errors.New("backend down")
}
func (failingStore) Delete(ctx context.Context, key string) error { return errors.New("backend down") }
func (failingStore) Close() error                                 { return nil }

func TestDegradedModeKeepsWorkingInMemory(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, failingStore{}, logx.Nop())

	if s.Get() != Defaults() {
		t.Fatalf("degraded store should start from defaults")
	}
	name := "Still Works"
	s.Update(ctx, Patch{StoreName: &name})
	if s.Get().StoreName != "Still Works" {
		t.Fatalf("in-memory update lost in degraded mode: %+v", s.Get())
	}
}
