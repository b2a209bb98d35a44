// Package app wires the services together and owns their lifecycle.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"shopbuzz/internal/api"
	"shopbuzz/internal/config"
	"shopbuzz/internal/delivery"
	"shopbuzz/internal/eventbus"
	"shopbuzz/internal/history"
	"shopbuzz/internal/notify"
	"shopbuzz/internal/notify/telegram"
	"shopbuzz/internal/order"
	"shopbuzz/internal/settings"
	"shopbuzz/internal/simulator"
	"shopbuzz/internal/storage"
	logx "shopbuzz/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager
	logs   *logx.Service
	log    logx.Logger

	store    storage.Store // nil when storage is disabled
	bus      eventbus.Bus
	settings *settings.Store
	history  *history.Store
	deliver  *delivery.Service
	sim      *simulator.Service
	api      *api.Service

	cfgCh  chan *config.Config
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logs, log := logx.New(loggingConfig(cfg))
	mgr.SetLogger(log.With(logx.String("svc", "config")))

	store, err := openStorage(cfg, log)
	if err != nil {
		// StorageUnavailable is a degraded mode, not a startup failure:
		// fall back to in-memory stores for this session.
		log.Warn("storage unavailable; running in-memory", logx.Err(err))
		store = nil
	}

	ctx := context.Background()
	bus := eventbus.New()
	settingsStore := settings.NewStore(ctx, store, log.With(logx.String("svc", "settings")))
	historyStore := history.NewStore(ctx, store, log.With(logx.String("svc", "history")))

	sender, err := buildSender(cfg.Notifier, log)
	if err != nil {
		return nil, fmt.Errorf("notifier: %w", err)
	}

	deliver := delivery.New(
		delivery.Config{SendsPerSec: cfg.Notifier.SendsPerSec},
		settingsStore, historyStore, sender, order.NewGenerator(), bus,
		log.With(logx.String("svc", "delivery")),
	)

	sim := simulator.New(simulatorConfig(cfg), deliver, log.With(logx.String("svc", "simulator")))

	apiCfg, err := apiConfig(cfg)
	if err != nil {
		return nil, err
	}
	apiSvc := api.New(apiCfg, settingsStore, historyStore, deliver, bus, log.With(logx.String("svc", "api")))

	return &App{
		cfgMgr:   mgr,
		logs:     logs,
		log:      log,
		store:    store,
		bus:      bus,
		settings: settingsStore,
		history:  historyStore,
		deliver:  deliver,
		sim:      sim,
		api:      apiSvc,
	}, nil
}

// Logger returns the root logger (for main).
func (a *App) Logger() logx.Logger { return a.log }

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.deliver.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("notifier permission: %w", err)
	}

	if err := a.sim.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("simulator: %w", err)
	}
	a.api.Start(runCtx)

	// Config hot reload: watch the file and re-apply the sections that
	// support it. Storage driver changes need a restart.
	a.cfgCh = a.cfgMgr.Subscribe(1)
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		_ = a.cfgMgr.Watch(runCtx)
	}()
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-runCtx.Done():
				return
			case cfg, ok := <-a.cfgCh:
				if !ok {
					return
				}
				a.applyConfig(runCtx, cfg)
			}
		}
	}()

	a.log.Info("shopbuzz started")
	return nil
}

func (a *App) applyConfig(ctx context.Context, cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.logs.Apply(loggingConfig(cfg))
	a.sim.Apply(ctx, simulatorConfig(cfg))
	if apiCfg, err := apiConfig(cfg); err == nil {
		a.api.Reconfigure(ctx, apiCfg)
	} else {
		a.log.Warn("api config rejected on reload", logx.Err(err))
	}

	// The blob layer is opened once at startup; driver/path edits apply on
	// the next start.
}

func (a *App) Stop(ctx context.Context) error {
	a.sim.Stop(ctx)
	a.api.Stop(ctx)
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	if a.cfgCh != nil {
		a.cfgMgr.Unsubscribe(a.cfgCh)
		a.cfgCh = nil
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	a.log.Info("shopbuzz stopped")
	_ = a.logs.Close()
	return nil
}

// ---- config translation ----

func loggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func openStorage(cfg *config.Config, log logx.Logger) (storage.Store, error) {
	if cfg.Storage == nil {
		return nil, nil
	}
	busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return nil, err
	}
	return storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, log.With(logx.String("svc", "storage")))
}

func buildSender(cfg config.NotifierConfig, log logx.Logger) (notify.Sender, error) {
	// Same normalization as config.Validate, so a channel that validates
	// also resolves here.
	switch strings.ToLower(strings.TrimSpace(cfg.Channel)) {
	case "", "console":
		return notify.NewConsoleSender(log.With(logx.String("svc", "notify"))), nil
	case "telegram":
		if cfg.Telegram == nil {
			return nil, fmt.Errorf("telegram channel selected but notifier.telegram is missing")
		}
		return telegram.New(telegram.Config{
			Token:  cfg.Telegram.Token,
			ChatID: cfg.Telegram.ChatID,
		}, log.With(logx.String("svc", "notify")))
	default:
		return nil, fmt.Errorf("unknown notifier channel %q", cfg.Channel)
	}
}

func simulatorConfig(cfg *config.Config) simulator.Config {
	return simulator.Config{
		Enabled:  cfg.Simulator.Enabled,
		Spec:     cfg.Simulator.Spec,
		Timezone: cfg.Simulator.Timezone,
	}
}

func apiConfig(cfg *config.Config) (api.Config, error) {
	read, err := config.ParseDurationField("api.read_timeout", cfg.API.ReadTimeout)
	if err != nil {
		return api.Config{}, err
	}
	write, err := config.ParseDurationField("api.write_timeout", cfg.API.WriteTimeout)
	if err != nil {
		return api.Config{}, err
	}
	idle, err := config.ParseDurationField("api.idle_timeout", cfg.API.IdleTimeout)
	if err != nil {
		return api.Config{}, err
	}
	return api.Config{
		Enabled:       cfg.API.Enabled,
		Addr:          cfg.API.Addr,
		Token:         cfg.API.Token,
		AllowInsecure: cfg.API.AllowInsecure,
		ReadTimeout:   read,
		WriteTimeout:  write,
		IdleTimeout:   idle,
	}, nil
}
