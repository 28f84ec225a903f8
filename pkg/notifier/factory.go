package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/teamdocs/notifier/pkg/alerts"
	"github.com/teamdocs/notifier/pkg/bridge"
	"github.com/teamdocs/notifier/pkg/dispatch"
	"github.com/teamdocs/notifier/pkg/locks"
	"github.com/teamdocs/notifier/pkg/notification"
	"github.com/teamdocs/notifier/pkg/routing"
	"github.com/teamdocs/notifier/pkg/schedule"
	"github.com/teamdocs/notifier/pkg/sentlog"
	"github.com/teamdocs/notifier/pkg/targets"
	"github.com/teamdocs/notifier/pkg/templates"
)

// Config gathers the collaborators of a Service.
type Config struct {
	Bridge     *bridge.Bridge
	Locks      *locks.Manager
	Dispatcher *dispatch.Dispatcher
	Events     schedule.Repository
	Targets    targets.Repository
	Templates  templates.Repository
	SentLog    sentlog.Repository
	Alerts     alerts.Repository
	Items      dispatch.ItemDirectory
	Admin      bridge.AdminChecker
	Logger     *slog.Logger

	// ReclaimAfter, when positive, lets a sweep recover scheduled-event
	// claims orphaned by a crashed process.
	ReclaimAfter time.Duration
}

// New builds the service and wires the lock manager into the bridge: the
// lock and unlock dispatch hooks, the TTL-expiry hook and the
// all-locked-items initial-state provider.
func New(cfg Config) (*Service, error) {
	switch {
	case cfg.Bridge == nil:
		return nil, errors.New("notifier: bridge is required")
	case cfg.Locks == nil:
		return nil, errors.New("notifier: lock manager is required")
	case cfg.Dispatcher == nil:
		return nil, errors.New("notifier: dispatcher is required")
	case cfg.Events == nil:
		return nil, errors.New("notifier: scheduled event repository is required")
	case cfg.Targets == nil:
		return nil, errors.New("notifier: target repository is required")
	case cfg.Templates == nil:
		return nil, errors.New("notifier: template repository is required")
	case cfg.SentLog == nil:
		return nil, errors.New("notifier: sent-notification repository is required")
	case cfg.Alerts == nil:
		return nil, errors.New("notifier: alert repository is required")
	case cfg.Items == nil:
		return nil, errors.New("notifier: item directory is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Admin == nil {
		cfg.Admin = func(context.Context, string, string) (bool, error) { return false, nil }
	}

	var sweeperOpts []schedule.SweeperOption
	if cfg.ReclaimAfter > 0 {
		sweeperOpts = append(sweeperOpts, schedule.WithReclaimAfter(cfg.ReclaimAfter))
	}
	sweeper := schedule.NewSweeper(cfg.Events, cfg.Dispatcher.Dispatch, cfg.Logger, sweeperOpts...)

	wireLockHooks(cfg.Bridge, cfg.Locks)

	return &Service{
		bridge:     cfg.Bridge,
		dispatcher: cfg.Dispatcher,
		sweeper:    sweeper,
		events:     cfg.Events,
		targets:    cfg.Targets,
		templates:  cfg.Templates,
		sent:       cfg.SentLog,
		alerts:     cfg.Alerts,
		items:      cfg.Items,
		admin:      cfg.Admin,
		log:        cfg.Logger,
		now:        time.Now,
	}, nil
}

func wireLockHooks(b *bridge.Bridge, m *locks.Manager) {
	b.RegisterHook(notification.TypeItemLocked, lockHook(m, false))
	b.RegisterHook(notification.TypeOverrideItemLock, lockHook(m, true))

	b.RegisterHook(notification.TypeItemReleased, func(ctx context.Context, key routing.Key, body json.RawMessage) notification.HookResult {
		var release notification.ItemRelease
		if err := json.Unmarshal(body, &release); err != nil {
			return notification.HookResult{Interrupt: true}
		}
		return m.Unlock(ctx, key.AccountID(), release)
	})

	b.RegisterHook(notification.TypeKeyExpired, m.ExpiryHook)

	b.RegisterProvider(routing.TypeAccount, func(ctx context.Context, key routing.Key) (*notification.ServiceNotification, error) {
		return m.Locks(ctx, key.AccountID())
	})
}

func lockHook(m *locks.Manager, override bool) bridge.DispatchHook {
	return func(ctx context.Context, key routing.Key, body json.RawMessage) notification.HookResult {
		var lock notification.ItemLock
		if err := json.Unmarshal(body, &lock); err != nil {
			return notification.HookResult{Interrupt: true}
		}
		return m.Lock(ctx, key.AccountID(), lock, override)
	}
}
