package locks

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/teamdocs/notifier/pkg/logger"
	"github.com/teamdocs/notifier/pkg/notification"
	"github.com/teamdocs/notifier/pkg/routing"
)

// ExpiryHook is the dispatch hook for KEY_EXPIRED events. When the expired
// key is a lock key it publishes an ITEM_RELEASED notification on the
// account channel, re-entering the normal fan-out path so admin filtering
// and subscription routing apply uniformly. The KEY_EXPIRED event itself
// is always interrupted: clients never see it.
func (m *Manager) ExpiryHook(ctx context.Context, key routing.Key, raw json.RawMessage) notification.HookResult {
	var body notification.KeyExpired
	if err := json.Unmarshal(raw, &body); err != nil {
		m.log.LogAttrs(ctx, slog.LevelWarn, "malformed key expiry event", logger.Error(err))
		return notification.HookResult{Interrupt: true}
	}

	parts := strings.Split(body.Key, ":")
	if len(parts) < 3 || parts[0] != lockKeyPrefix {
		return notification.HookResult{Interrupt: true}
	}
	itemID := parts[2]

	released, err := notification.NewServiceNotification(
		notification.TypeItemReleased,
		notification.ItemRelease{ItemID: itemID},
	)
	if err != nil {
		return notification.HookResult{Interrupt: true}
	}
	payload, err := json.Marshal(released)
	if err != nil {
		return notification.HookResult{Interrupt: true}
	}
	if err := m.store.Publish(ctx, key.Channel(), payload); err != nil {
		m.log.LogAttrs(ctx, slog.LevelError, "item release publish failed",
			slog.String("key", body.Key), logger.Error(err))
	} else {
		m.log.LogAttrs(ctx, slog.LevelDebug, "expired lock released",
			slog.String("item_id", itemID))
	}
	return notification.HookResult{Interrupt: true}
}
