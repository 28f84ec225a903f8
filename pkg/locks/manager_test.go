package locks_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamdocs/notifier/pkg/locks"
	"github.com/teamdocs/notifier/pkg/notification"
	"github.com/teamdocs/notifier/pkg/routing"
	"github.com/teamdocs/notifier/pkg/store"
)

func holder(userID, windowID string) notification.ItemLock {
	return notification.ItemLock{
		ItemID: "doc-1",
		User: notification.LockUser{
			ID:          userID,
			Login:       userID + "@example.com",
			DisplayName: "User " + userID,
		},
		WindowID: windowID,
	}
}

func TestManager_Lock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("first holder wins", func(t *testing.T) {
		t.Parallel()
		s := store.NewMemoryStore()
		m := locks.NewManager(s)

		res := m.Lock(ctx, "aid", holder("u1", "w1"), false)
		assert.False(t, res.Interrupt)
		assert.Nil(t, res.Override)

		fields, err := s.HGetAll(ctx, "itemlocks:aid:doc-1:0")
		require.NoError(t, err)
		assert.Equal(t, "u1", fields["userId"])
		assert.Greater(t, s.TTL("itemlocks:aid:doc-1:0"), 0*time.Second)
	})

	t.Run("second holder gets existing identity and refreshes ttl", func(t *testing.T) {
		t.Parallel()
		s := store.NewMemoryStore()
		m := locks.NewManager(s)

		require.False(t, m.Lock(ctx, "aid", holder("u1", "w1"), false).Interrupt)

		res := m.Lock(ctx, "aid", holder("u2", "w2"), false)
		assert.False(t, res.Interrupt)
		require.NotNil(t, res.Override)
		assert.Equal(t, notification.TypeItemLocked, res.Override.Type)

		var body notification.ItemLock
		require.NoError(t, json.Unmarshal(res.Override.Body, &body))
		assert.Equal(t, "u1", body.User.ID)
		assert.Equal(t, "w1", body.WindowID)
		assert.Equal(t, "w1", res.Override.WindowID)

		// The original holder still owns the record.
		fields, err := s.HGetAll(ctx, "itemlocks:aid:doc-1:0")
		require.NoError(t, err)
		assert.Equal(t, "u1", fields["userId"])
		assert.Greater(t, s.TTL("itemlocks:aid:doc-1:0"), 599*time.Second)
	})

	t.Run("override replaces holder", func(t *testing.T) {
		t.Parallel()
		s := store.NewMemoryStore()
		m := locks.NewManager(s)

		require.False(t, m.Lock(ctx, "aid", holder("u1", "w1"), false).Interrupt)

		res := m.Lock(ctx, "aid", holder("u2", "w2"), true)
		assert.False(t, res.Interrupt)
		assert.Nil(t, res.Override)

		fields, err := s.HGetAll(ctx, "itemlocks:aid:doc-1:0")
		require.NoError(t, err)
		assert.Equal(t, "u2", fields["userId"])
		assert.Equal(t, "w2", fields["windowId"])
	})

	t.Run("repeated lock by same holder keeps one record", func(t *testing.T) {
		t.Parallel()
		s := store.NewMemoryStore()
		m := locks.NewManager(s)

		require.False(t, m.Lock(ctx, "aid", holder("u1", "w1"), false).Interrupt)
		res := m.Lock(ctx, "aid", holder("u1", "w1"), false)
		require.NotNil(t, res.Override)

		keys, err := s.SMembers(ctx, "itemlocks-by-account:aid")
		require.NoError(t, err)
		assert.Len(t, keys, 1)
	})

	t.Run("distinct options create distinct locks", func(t *testing.T) {
		t.Parallel()
		s := store.NewMemoryStore()
		m := locks.NewManager(s)

		visible := holder("u1", "w1")
		visible.LockVisibleByInitiator = true
		require.False(t, m.Lock(ctx, "aid", holder("u1", "w1"), false).Interrupt)
		require.False(t, m.Lock(ctx, "aid", visible, false).Interrupt)

		keys, err := s.SMembers(ctx, "itemlocks-by-account:aid")
		require.NoError(t, err)
		assert.Len(t, keys, 2)
	})
}

func TestManager_Unlock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	release := func(userID, windowID string) notification.ItemRelease {
		return notification.ItemRelease{ItemID: "doc-1", UserID: userID, WindowID: windowID}
	}

	t.Run("matching holder releases", func(t *testing.T) {
		t.Parallel()
		s := store.NewMemoryStore()
		m := locks.NewManager(s)

		require.False(t, m.Lock(ctx, "aid", holder("u1", "w1"), false).Interrupt)
		res := m.Unlock(ctx, "aid", release("u1", "w1"))
		assert.False(t, res.Interrupt)

		fields, err := s.HGetAll(ctx, "itemlocks:aid:doc-1:0")
		require.NoError(t, err)
		assert.Empty(t, fields)
	})

	t.Run("stale release does not evict newer lock", func(t *testing.T) {
		t.Parallel()
		s := store.NewMemoryStore()
		m := locks.NewManager(s)

		require.False(t, m.Lock(ctx, "aid", holder("u1", "w1"), false).Interrupt)
		// Same user, older window: a leftover tab closing must not unlock.
		res := m.Unlock(ctx, "aid", release("u1", "w0"))
		assert.True(t, res.Interrupt)

		fields, err := s.HGetAll(ctx, "itemlocks:aid:doc-1:0")
		require.NoError(t, err)
		assert.Equal(t, "u1", fields["userId"])
	})

	t.Run("different user cannot release", func(t *testing.T) {
		t.Parallel()
		s := store.NewMemoryStore()
		m := locks.NewManager(s)

		require.False(t, m.Lock(ctx, "aid", holder("u1", "w1"), false).Interrupt)
		assert.True(t, m.Unlock(ctx, "aid", release("u2", "w1")).Interrupt)
	})
}

func TestManager_Locks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("nil when empty", func(t *testing.T) {
		t.Parallel()
		m := locks.NewManager(store.NewMemoryStore())
		sn, err := m.Locks(ctx, "aid")
		require.NoError(t, err)
		assert.Nil(t, sn)
	})

	t.Run("snapshot lists valid locks", func(t *testing.T) {
		t.Parallel()
		s := store.NewMemoryStore()
		m := locks.NewManager(s)

		first := holder("u1", "w1")
		second := holder("u2", "w2")
		second.ItemID = "doc-2"
		require.False(t, m.Lock(ctx, "aid", first, false).Interrupt)
		require.False(t, m.Lock(ctx, "aid", second, false).Interrupt)

		sn, err := m.Locks(ctx, "aid")
		require.NoError(t, err)
		require.NotNil(t, sn)
		assert.Equal(t, notification.TypeAllLockedItems, sn.Type)

		var body notification.AllItemLocks
		require.NoError(t, json.Unmarshal(sn.Body, &body))
		assert.Len(t, body.Edits, 2)
	})

	t.Run("stale index entries purged on read", func(t *testing.T) {
		t.Parallel()
		s := store.NewMemoryStore()
		m := locks.NewManager(s)

		require.False(t, m.Lock(ctx, "aid", holder("u1", "w1"), false).Interrupt)
		s.ExpireNow("itemlocks:aid:doc-1:0")

		sn, err := m.Locks(ctx, "aid")
		require.NoError(t, err)
		assert.Nil(t, sn)

		keys, err := s.SMembers(ctx, "itemlocks-by-account:aid")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}

func TestManager_MigrationSeedsIndex(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()

	// A lock written before the account index existed.
	require.NoError(t, s.HSet(ctx, "itemlocks:aid:doc-9:0", map[string]string{
		"userId": "u9", "login": "u9@example.com", "displayName": "User u9", "windowId": "w9",
	}))

	m := locks.NewManager(s)
	sn, err := m.Locks(ctx, "aid")
	require.NoError(t, err)
	require.NotNil(t, sn)

	var body notification.AllItemLocks
	require.NoError(t, json.Unmarshal(sn.Body, &body))
	require.Len(t, body.Edits, 1)
	assert.Equal(t, "doc-9", body.Edits[0].ItemID)

	// The scan runs once per account.
	migrated, err := s.SIsMember(ctx, "itemlocks-migrations-account-set-2025-09", "aid")
	require.NoError(t, err)
	assert.True(t, migrated)
}

func TestManager_ExpiryHook(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := store.NewMemoryStore()
	m := locks.NewManager(s)

	key := routing.AccountKey("aid")
	messages, err := s.PSubscribe(ctx, routing.ChannelPrefix+"*")
	require.NoError(t, err)

	raw, _ := json.Marshal(notification.KeyExpired{Key: "itemlocks:aid:doc-1:0"})
	res := m.ExpiryHook(ctx, key, raw)
	assert.True(t, res.Interrupt)

	msg := <-messages
	assert.Equal(t, key.Channel(), msg.Channel)

	var sn notification.ServiceNotification
	require.NoError(t, json.Unmarshal(msg.Payload, &sn))
	assert.Equal(t, notification.TypeItemReleased, sn.Type)

	var body notification.ItemRelease
	require.NoError(t, json.Unmarshal(sn.Body, &body))
	assert.Equal(t, "doc-1", body.ItemID)

	// Non-lock keys are swallowed without publishing.
	raw, _ = json.Marshal(notification.KeyExpired{Key: "sessions:aid:s-1"})
	assert.True(t, m.ExpiryHook(ctx, key, raw).Interrupt)
	select {
	case extra := <-messages:
		t.Fatalf("unexpected publish: %s", extra.Payload)
	default:
	}
}
