// Package delivery orchestrates one simulated order notification end to end:
// generate, render, send, record.
package delivery

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"shopbuzz/internal/eventbus"
	"shopbuzz/internal/history"
	"shopbuzz/internal/notify"
	"shopbuzz/internal/order"
	"shopbuzz/internal/settings"
	"shopbuzz/internal/throttle"
	logx "shopbuzz/pkg/logx"
)

var (
	// ErrPermissionDenied means the notifier channel declined permission at
	// startup; no delivery can happen this session.
	ErrPermissionDenied = errors.New("notification permission denied")

	// ErrDeliveryFailed wraps a channel send error. The failed delivery
	// leaves no trace: no history entry, no throttle update.
	ErrDeliveryFailed = errors.New("delivery failed")

	// ErrThrottled means the frequency policy denied the refresh.
	ErrThrottled = errors.New("throttled by frequency policy")

	// ErrRateLimited means the per-second send limiter denied the trigger.
	ErrRateLimited = errors.New("send rate exceeded")
)

type Config struct {
	// SendsPerSec caps raw send volume independent of the frequency policy,
	// so a realtime frequency plus a scripted trigger can't flood the
	// channel. <= 0 means 1.
	SendsPerSec int
}

type Service struct {
	cfg      Config
	settings *settings.Store
	history  *history.Store
	sender   notify.Sender
	gen      *order.Generator
	bus      eventbus.Bus
	log      logx.Logger
	now      func() time.Time

	limiter *rate.Limiter

	// mu serializes the throttle check and the send that follows, so two
	// overlapping triggers can't both pass the gate before either records a
	// send.
	mu      sync.Mutex
	granted bool
	asked   bool
}

func New(cfg Config, st *settings.Store, hist *history.Store, sender notify.Sender, gen *order.Generator, bus eventbus.Bus, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	rps := cfg.SendsPerSec
	if rps <= 0 {
		rps = 1
	}
	return &Service{
		cfg:      cfg,
		settings: st,
		history:  hist,
		sender:   sender,
		gen:      gen,
		bus:      bus,
		log:      log,
		now:      time.Now,
		limiter:  rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Start asks the channel for permission once. A denial is remembered and
// short-circuits every later trigger without touching the stores.
func (s *Service) Start(ctx context.Context) error {
	granted, err := s.sender.RequestPermission(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.granted = granted
	s.asked = true
	s.mu.Unlock()
	if !granted {
		s.log.Warn("notification permission denied; deliveries disabled")
	}
	return nil
}

// Refresh is the pull-to-refresh trigger: it consults the throttle policy
// and, if permitted, delivers one notification. Check and delivery happen
// under one lock.
func (s *Service) Refresh(ctx context.Context) (*history.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.settings.Get()
	if !throttle.ShouldSend(cur, s.history.LastNotificationTime(), s.now()) {
		return nil, ErrThrottled
	}
	return s.deliverLocked(ctx, cur)
}

// TriggerTest is the "send test notification" action. It bypasses the
// frequency policy but still counts against the send limiter and still
// records history and the last-sent marker.
func (s *Service) TriggerTest(ctx context.Context) (*history.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deliverLocked(ctx, s.settings.Get())
}

func (s *Service) deliverLocked(ctx context.Context, cur settings.Settings) (*history.Entry, error) {
	if s.asked && !s.granted {
		return nil, ErrPermissionDenied
	}
	if !s.limiter.Allow() {
		return nil, ErrRateLimited
	}

	o := s.gen.Generate(cur.StoreName, cur.MinOrderAmount)
	n := notify.Notification{
		Title: cur.NotificationTitle,
		Body:  notify.RenderBody(cur.NotificationBody, o),
		Color: cur.NotificationColor,
		Order: o,
	}

	id, err := s.sender.Send(ctx, n)
	if err != nil {
		s.log.Warn("notification send failed", logx.Err(err))
		return nil, errors.Join(ErrDeliveryFailed, err)
	}

	now := s.now()
	entry := history.Entry{
		ID:        id,
		Title:     n.Title,
		Body:      n.Body,
		Timestamp: now.UnixMilli(),
		Read:      false,
		Order:     o,
	}
	// Append before touch: the last-sent marker must never point at a send
	// that has no history entry.
	s.history.Append(ctx, entry)
	s.history.Touch(ctx, now)

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeNotificationSent, Data: entry})
	}
	s.log.Debug("notification delivered",
		logx.String("delivery_id", id),
		logx.Float64("amount", o.Amount),
		logx.Int("items", o.Items),
	)
	return &entry, nil
}
