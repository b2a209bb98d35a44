package delivery

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"shopbuzz/internal/eventbus"
	"shopbuzz/internal/history"
	"shopbuzz/internal/notify"
	"shopbuzz/internal/order"
	"shopbuzz/internal/settings"
	"shopbuzz/internal/storage"
	logx "shopbuzz/pkg/logx"
)

// fakeSender counts sends and can be told to fail or deny permission.
type fakeSender struct {
	mu      sync.Mutex
	sends   int32
	fail    bool
	granted bool
}

func (f *fakeSender) RequestPermission(ctx context.Context) (bool, error) {
	return f.granted, nil
}

func (f *fakeSender) Send(ctx context.Context, n notify.Notification) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("channel exploded")
	}
	f.sends++
	return "d-" + strconv.Itoa(int(f.sends)), nil
}

func (f *fakeSender) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int(f.sends)
}

func newService(t *testing.T, sender notify.Sender, rps int) (*Service, *settings.Store, *history.Store) {
	t.Helper()
	ctx := context.Background()
	st := settings.NewStore(ctx, storage.NewMemory(), logx.Nop())
	hist := history.NewStore(ctx, storage.NewMemory(), logx.Nop())
	gen := order.NewGenerator()
	svc := New(Config{SendsPerSec: rps}, st, hist, sender, gen, eventbus.New(), logx.Nop())
	return svc, st, hist
}

func TestDeliverAppendsAndTouches(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{granted: true}
	svc, st, hist := newService(t, sender, 1000)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	entry, err := svc.TriggerTest(ctx)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if entry.ID != "d-1" {
		t.Fatalf("history id should match delivery id, got %s", entry.ID)
	}
	if entry.Read {
		t.Fatalf("new entry must start unread")
	}
	if entry.Title != st.Get().NotificationTitle {
		t.Fatalf("title mismatch: %q", entry.Title)
	}
	if hist.Len() != 1 {
		t.Fatalf("history length %d, want 1", hist.Len())
	}
	if hist.LastNotificationTime().IsZero() {
		t.Fatalf("throttle marker not touched after send")
	}
}

func TestDeliverFailureLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{granted: true, fail: true}
	svc, _, hist := newService(t, sender, 1000)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := svc.TriggerTest(ctx)
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if hist.Len() != 0 {
		t.Fatalf("failed delivery created a history entry")
	}
	if !hist.LastNotificationTime().IsZero() {
		t.Fatalf("failed delivery touched the throttle marker")
	}
}

func TestPermissionDeniedShortCircuits(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{granted: false}
	svc, _, hist := newService(t, sender, 1000)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := svc.TriggerTest(ctx); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if _, err := svc.Refresh(ctx); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("refresh should also be denied, got %v", err)
	}
	if hist.Len() != 0 || sender.sendCount() != 0 {
		t.Fatalf("denied permission still caused side effects")
	}
}

func TestRefreshHonorsThrottle(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{granted: true}
	svc, st, _ := newService(t, sender, 1000)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	freq := settings.FrequencyHourly
	st.Update(ctx, settings.Patch{Frequency: &freq})

	if _, err := svc.Refresh(ctx); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if _, err := svc.Refresh(ctx); !errors.Is(err, ErrThrottled) {
		t.Fatalf("second refresh should throttle, got %v", err)
	}
	if sender.sendCount() != 1 {
		t.Fatalf("throttled refresh sent anyway: %d sends", sender.sendCount())
	}
}

func TestConcurrentRefreshAdmitsOneSend(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{granted: true}
	svc, st, _ := newService(t, sender, 1000)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	freq := settings.FrequencyDaily
	st.Update(ctx, settings.Patch{Frequency: &freq})

	const n = 16
	var delivered atomic.Int32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.Refresh(ctx); err == nil {
				delivered.Add(1)
			}
		}()
	}
	wg.Wait()

	if delivered.Load() != 1 {
		t.Fatalf("double-tap race: %d deliveries, want 1", delivered.Load())
	}
	if sender.sendCount() != 1 {
		t.Fatalf("%d sends reached the channel, want 1", sender.sendCount())
	}
}

func TestRateLimiterCapsBursts(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{granted: true}
	svc, _, _ := newService(t, sender, 1)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := svc.TriggerTest(ctx); err != nil {
		t.Fatalf("first test send: %v", err)
	}
	if _, err := svc.TriggerTest(ctx); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("burst should hit the limiter, got %v", err)
	}
}

func TestSentEventPublished(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{granted: true}

	st := settings.NewStore(ctx, storage.NewMemory(), logx.Nop())
	hist := history.NewStore(ctx, storage.NewMemory(), logx.Nop())
	bus := eventbus.New()
	svc := New(Config{SendsPerSec: 1000}, st, hist, sender, order.NewGenerator(), bus, logx.Nop())
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	ch, unsub := bus.Subscribe(4)
	defer unsub()

	if _, err := svc.TriggerTest(ctx); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	select {
	case ev := <-ch:
		if ev.Type != eventbus.TypeNotificationSent {
			t.Fatalf("unexpected event type %q", ev.Type)
		}
		if _, ok := ev.Data.(history.Entry); !ok {
			t.Fatalf("event payload is %T, want history.Entry", ev.Data)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event published")
	}
}
