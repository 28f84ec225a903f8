package locks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teamdocs/notifier/pkg/logger"
	"github.com/teamdocs/notifier/pkg/notification"
	"github.com/teamdocs/notifier/pkg/store"
)

const (
	// lockTTLSeconds bounds how long an abandoned lock survives.
	lockTTLSeconds = 600

	// lockKeyPrefix tags every lock key; the expiry hook uses it to tell
	// lock keys apart from other expiring keys.
	lockKeyPrefix = "itemlocks"

	// migrationSetKey records the accounts whose index set was already
	// seeded from a key-space scan.
	migrationSetKey = "itemlocks-migrations-account-set-2025-09"
)

const (
	hashFieldUserID      = "userId"
	hashFieldLogin       = "login"
	hashFieldDisplayName = "displayName"
	hashFieldWindowID    = "windowId"
)

// Manager arbitrates item locks for all accounts.
type Manager struct {
	store store.Store
	log   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates a lock manager over the given store.
func NewManager(s store.Store, opts ...Option) *Manager {
	m := &Manager{store: s, log: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// optionsDigest serializes the lock options into the key segment that
// separates otherwise identical locks.
func optionsDigest(lockVisibleByInitiator bool) string {
	if lockVisibleByInitiator {
		return "1"
	}
	return "0"
}

func parseOptionsDigest(digest string) bool {
	return strings.HasPrefix(digest, "1")
}

func lockKey(accountID, itemID, digest string) string {
	return fmt.Sprintf("%s:%s:%s:%s", lockKeyPrefix, accountID, itemID, digest)
}

func accountSetKey(accountID string) string {
	return "itemlocks-by-account:" + accountID
}

// Lock attempts to acquire the lock for the item described by body.
//
// Without override, an existing lock is refreshed and the result carries an
// override payload describing the current holder, so the bridge broadcasts
// the real holder instead of creating a duplicate. Store failures interrupt
// the dispatch rather than propagate: the live-update path must keep
// functioning when the store hiccups.
func (m *Manager) Lock(ctx context.Context, accountID string, body notification.ItemLock, override bool) notification.HookResult {
	if err := m.ensureAccountSet(ctx, accountID); err != nil {
		m.log.LogAttrs(ctx, slog.LevelError, "item lock migration failed",
			logger.AccountID(accountID), logger.Error(err))
		return notification.HookResult{Interrupt: true}
	}

	key := lockKey(accountID, body.ItemID, optionsDigest(body.LockVisibleByInitiator))

	if !override {
		existing, err := m.store.HGetAll(ctx, key)
		if err != nil {
			m.log.LogAttrs(ctx, slog.LevelError, "item lock read failed",
				slog.String("key", key), logger.Error(err))
			return notification.HookResult{Interrupt: true}
		}
		if len(existing) > 0 {
			// Extend-on-touch: reset the TTL and answer with the current
			// holder's identity.
			if err := m.store.Expire(ctx, key, lockTTLSeconds); err != nil {
				m.log.LogAttrs(ctx, slog.LevelError, "item lock ttl refresh failed",
					slog.String("key", key), logger.Error(err))
				return notification.HookResult{Interrupt: true}
			}
			holder := notification.ItemLock{
				ItemID: body.ItemID,
				User: notification.LockUser{
					ID:          existing[hashFieldUserID],
					Login:       existing[hashFieldLogin],
					DisplayName: existing[hashFieldDisplayName],
				},
				WindowID: existing[hashFieldWindowID],
			}
			sn, err := notification.NewServiceNotification(notification.TypeItemLocked, holder)
			if err != nil {
				return notification.HookResult{Interrupt: true}
			}
			sn.WindowID = holder.WindowID
			return notification.HookResult{Override: &sn}
		}
	}

	if err := m.createLock(ctx, accountID, key, body); err != nil {
		m.log.LogAttrs(ctx, slog.LevelError, "item lock write failed",
			slog.String("key", key), logger.Error(err))
		return notification.HookResult{Interrupt: true}
	}
	return notification.HookResult{}
}

func (m *Manager) createLock(ctx context.Context, accountID, key string, body notification.ItemLock) error {
	if err := m.store.HSet(ctx, key, map[string]string{
		hashFieldUserID:      body.User.ID,
		hashFieldLogin:       body.User.Login,
		hashFieldDisplayName: body.User.DisplayName,
		hashFieldWindowID:    body.WindowID,
	}); err != nil {
		return err
	}
	if err := m.store.Expire(ctx, key, lockTTLSeconds); err != nil {
		return err
	}
	if err := m.store.SAdd(ctx, accountSetKey(accountID), key); err != nil {
		return err
	}
	m.log.LogAttrs(ctx, slog.LevelDebug, "item lock acquired", slog.String("key", key))
	return nil
}

// Unlock releases the lock only when the caller's user id and window id
// both match the stored holder. A stale or duplicate release from an older
// editing session must not evict a newer lock, so mismatches interrupt
// silently.
func (m *Manager) Unlock(ctx context.Context, accountID string, body notification.ItemRelease) notification.HookResult {
	if err := m.ensureAccountSet(ctx, accountID); err != nil {
		m.log.LogAttrs(ctx, slog.LevelError, "item lock migration failed",
			logger.AccountID(accountID), logger.Error(err))
		return notification.HookResult{Interrupt: true}
	}

	key := lockKey(accountID, body.ItemID, optionsDigest(body.LockVisibleByInitiator))
	fields, err := m.store.HGetAll(ctx, key)
	if err != nil {
		m.log.LogAttrs(ctx, slog.LevelError, "item lock read failed",
			slog.String("key", key), logger.Error(err))
		return notification.HookResult{Interrupt: true}
	}

	if fields[hashFieldUserID] != body.UserID || fields[hashFieldWindowID] != body.WindowID {
		return notification.HookResult{Interrupt: true}
	}

	if err := m.store.Del(ctx, key); err != nil {
		m.log.LogAttrs(ctx, slog.LevelError, "item lock release failed",
			slog.String("key", key), logger.Error(err))
		return notification.HookResult{Interrupt: true}
	}
	if err := m.store.SRem(ctx, accountSetKey(accountID), key); err != nil {
		m.log.LogAttrs(ctx, slog.LevelWarn, "item lock index cleanup failed",
			slog.String("key", key), logger.Error(err))
	}
	m.log.LogAttrs(ctx, slog.LevelDebug, "item lock released", slog.String("key", key))
	return notification.HookResult{}
}

// Locks returns the ALL_LOCKED_ITEMS snapshot for an account, or nil when
// no valid lock exists so the bridge can skip an empty push.
//
// The account index may reference keys whose TTL already elapsed; those are
// excluded from the snapshot and purged from the index in one batched
// removal after the read.
func (m *Manager) Locks(ctx context.Context, accountID string) (*notification.ServiceNotification, error) {
	if err := m.ensureAccountSet(ctx, accountID); err != nil {
		return nil, err
	}

	setKey := accountSetKey(accountID)
	keys, err := m.store.SMembers(ctx, setKey)
	if err != nil {
		return nil, err
	}

	edits, stale, err := m.readLocks(ctx, keys)
	if err != nil {
		return nil, err
	}
	if len(stale) > 0 {
		if err := m.store.SRem(ctx, setKey, stale...); err != nil {
			m.log.LogAttrs(ctx, slog.LevelWarn, "stale lock index purge failed",
				logger.AccountID(accountID), logger.Error(err))
		}
	}

	if len(edits) == 0 {
		return nil, nil
	}
	sn, err := notification.NewServiceNotification(
		notification.TypeAllLockedItems,
		notification.AllItemLocks{Edits: edits},
	)
	if err != nil {
		return nil, err
	}
	return &sn, nil
}

// readLocks resolves index entries into lock payloads and separately
// returns the stale keys so the caller can purge them in one batch.
func (m *Manager) readLocks(ctx context.Context, keys []string) ([]notification.ItemLock, []string, error) {
	var (
		edits []notification.ItemLock
		stale []string
	)
	for _, key := range keys {
		parts := strings.Split(key, ":")
		if len(parts) != 4 {
			stale = append(stale, key)
			continue
		}
		fields, err := m.store.HGetAll(ctx, key)
		if err != nil {
			return nil, nil, err
		}
		if len(fields) == 0 {
			stale = append(stale, key)
			continue
		}
		edits = append(edits, notification.ItemLock{
			ItemID: parts[2],
			User: notification.LockUser{
				ID:          fields[hashFieldUserID],
				Login:       fields[hashFieldLogin],
				DisplayName: fields[hashFieldDisplayName],
			},
			WindowID:               fields[hashFieldWindowID],
			LockVisibleByInitiator: parseOptionsDigest(parts[3]),
		})
	}
	return edits, stale, nil
}

// ensureAccountSet seeds the per-account index from a key-space scan the
// first time any lock operation touches the account. The migration marker
// keeps the scan a one-time cost per account.
func (m *Manager) ensureAccountSet(ctx context.Context, accountID string) error {
	migrated, err := m.store.SIsMember(ctx, migrationSetKey, accountID)
	if err != nil {
		return err
	}
	if migrated {
		return nil
	}

	keys, err := m.store.ScanKeys(ctx, fmt.Sprintf("*%s:%s:*", lockKeyPrefix, accountID))
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		if err := m.store.SAdd(ctx, accountSetKey(accountID), keys...); err != nil {
			return err
		}
	}
	return m.store.SAdd(ctx, migrationSetKey, accountID)
}
