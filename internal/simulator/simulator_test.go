package simulator

import (
	"context"
	"sync"
	"testing"

	"shopbuzz/internal/delivery"
	"shopbuzz/internal/history"
	logx "shopbuzz/pkg/logx"
)

type fakeRefresher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context) (*history.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil, f.err
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestTickCallsRefresh(t *testing.T) {
	f := &fakeRefresher{}
	s := New(Config{Enabled: true}, f, logx.Nop())

	s.tick(context.Background())
	if f.callCount() != 1 {
		t.Fatalf("tick refreshed %d times, want 1", f.callCount())
	}

	// A throttled tick is a quiet no-op, not a failure.
	f.err = delivery.ErrThrottled
	s.tick(context.Background())
	if f.callCount() != 2 {
		t.Fatalf("throttled tick skipped the refresh call")
	}
}

func TestTickSkipsAfterCancel(t *testing.T) {
	f := &fakeRefresher{}
	s := New(Config{Enabled: true}, f, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.tick(ctx)
	if f.callCount() != 0 {
		t.Fatalf("tick fired on a canceled context")
	}
}

func TestStartDisabledIsNoop(t *testing.T) {
	s := New(Config{Enabled: false}, &fakeRefresher{}, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("disabled start: %v", err)
	}
	if s.c != nil {
		t.Fatalf("disabled simulator started a cron")
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New(Config{Enabled: true, Spec: "not a schedule"}, &fakeRefresher{}, logx.Nop())
	if err := s.Start(context.Background()); err == nil {
		s.Stop(context.Background())
		t.Fatalf("invalid cron spec accepted")
	}
}

func TestApplyRestartsOnSpecChange(t *testing.T) {
	ctx := context.Background()
	s := New(Config{Enabled: true, Spec: "@every 1h"}, &fakeRefresher{}, logx.Nop())
	t.Cleanup(func() { s.Stop(context.Background()) })

	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	first := s.c
	if first == nil {
		t.Fatalf("simulator did not start")
	}

	s.Apply(ctx, Config{Enabled: true, Spec: "@every 2h"})
	if s.c == nil {
		t.Fatalf("spec change stopped the simulator for good")
	}
	if s.c == first {
		t.Fatalf("spec change did not restart the cron")
	}

	// Unchanged config leaves the running cron alone.
	second := s.c
	s.Apply(ctx, Config{Enabled: true, Spec: "@every 2h"})
	if s.c != second {
		t.Fatalf("no-op apply restarted the cron")
	}

	s.Apply(ctx, Config{Enabled: false, Spec: "@every 2h"})
	if s.c != nil {
		t.Fatalf("disable did not stop the cron")
	}
}
