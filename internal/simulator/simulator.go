// Package simulator drives the automatic refresh cadence: a cron schedule
// that plays the role of the original app's pull-to-refresh gesture.
package simulator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"shopbuzz/internal/delivery"
	"shopbuzz/internal/history"
	logx "shopbuzz/pkg/logx"
)

const defaultSpec = "@every 1m"

type Config struct {
	Enabled  bool
	Spec     string
	Timezone string
}

// Refresher is the throttle-checked trigger the simulator fires.
type Refresher interface {
	Refresh(ctx context.Context) (*history.Entry, error)
}

type Service struct {
	log logx.Logger

	mu      sync.Mutex
	cfg     Config
	deliver Refresher
	parser  cron.Parser

	c      *cron.Cron
	runCtx context.Context
	cancel context.CancelFunc
}

func New(cfg Config, deliver Refresher, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:     cfg,
		deliver: deliver,
		log:     log,
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(ctx)
}

func (s *Service) startLocked(ctx context.Context) error {
	if s.c != nil || !s.cfg.Enabled {
		return nil
	}

	loc := time.Local
	if tz := strings.TrimSpace(s.cfg.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			s.log.Warn("invalid simulator timezone; using local", logx.String("tz", tz), logx.Err(err))
		} else {
			loc = l
		}
	}

	spec := strings.TrimSpace(s.cfg.Spec)
	if spec == "" {
		spec = defaultSpec
	}
	sched, err := s.parser.Parse(spec)
	if err != nil {
		return err
	}

	s.runCtx, s.cancel = context.WithCancel(ctx)
	runCtx := s.runCtx

	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))
	s.c.Schedule(sched, cron.FuncJob(func() { s.tick(runCtx) }))
	s.c.Start()
	s.log.Info("simulator started", logx.String("spec", spec), logx.String("tz", loc.String()))
	return nil
}

func (s *Service) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	_, err := s.deliver.Refresh(ctx)
	switch {
	case err == nil:
		// delivered; the delivery service logs details
	case errors.Is(err, delivery.ErrThrottled),
		errors.Is(err, delivery.ErrRateLimited),
		errors.Is(err, delivery.ErrPermissionDenied):
		s.log.Debug("simulator tick skipped", logx.Err(err))
	default:
		s.log.Warn("simulator delivery failed", logx.Err(err))
	}
}

func (s *Service) Stop(ctx context.Context) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Service) stopLocked() {
	if s.c == nil {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	<-s.c.Stop().Done()
	s.c = nil
	s.log.Info("simulator stopped")
}

// Apply reconfigures the schedule during hot reload. A changed spec or
// timezone restarts the cron; toggling Enabled starts/stops it.
func (s *Service) Apply(ctx context.Context, cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.cfg.Spec != cfg.Spec || s.cfg.Timezone != cfg.Timezone || s.cfg.Enabled != cfg.Enabled
	s.cfg = cfg
	if !changed {
		return
	}
	s.stopLocked()
	if cfg.Enabled {
		if err := s.startLocked(ctx); err != nil {
			s.log.Warn("simulator restart failed", logx.Err(err))
		}
	}
}
