package notifier_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamdocs/notifier/pkg/alerts"
	"github.com/teamdocs/notifier/pkg/bridge"
	"github.com/teamdocs/notifier/pkg/dispatch"
	"github.com/teamdocs/notifier/pkg/locks"
	"github.com/teamdocs/notifier/pkg/logger"
	"github.com/teamdocs/notifier/pkg/mailer"
	"github.com/teamdocs/notifier/pkg/notification"
	"github.com/teamdocs/notifier/pkg/notifier"
	"github.com/teamdocs/notifier/pkg/routing"
	"github.com/teamdocs/notifier/pkg/schedule"
	"github.com/teamdocs/notifier/pkg/sentlog"
	"github.com/teamdocs/notifier/pkg/store"
	"github.com/teamdocs/notifier/pkg/targets"
	"github.com/teamdocs/notifier/pkg/templates"
)

type staticAccounts struct{ members []string }

func (a staticAccounts) Members(context.Context, string) ([]string, error) { return a.members, nil }
func (a staticAccounts) Groups(context.Context, string) ([]string, error)  { return nil, nil }

type staticUsers struct{ users map[string]dispatch.User }

func (u staticUsers) Users(_ context.Context, ids []string) ([]dispatch.User, error) {
	var out []dispatch.User
	for _, id := range ids {
		if user, ok := u.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

type staticItems struct{}

func (staticItems) Ancestors(_ context.Context, itemID string) ([]string, error) {
	return []string{itemID}, nil
}
func (staticItems) Descendants(_ context.Context, itemID string) ([]string, error) {
	return []string{itemID}, nil
}
func (staticItems) Title(context.Context, string) (string, error) { return "Guide", nil }

type staticDomains struct{}

func (staticDomains) ReadDomain(context.Context, string) (string, error) {
	return "docs.example.com", nil
}

type env struct {
	service *notifier.Service
	bridge  *bridge.Bridge
	store   *store.MemoryStore
	events  *schedule.MemoryRepository
	sender  *countingSender
}

type countingSender struct{ batches []mailer.Batch }

func (s *countingSender) SendBatch(_ context.Context, batch mailer.Batch) error {
	s.batches = append(s.batches, batch)
	return nil
}

func newEnv(t *testing.T, admin bridge.AdminChecker) *env {
	t.Helper()

	log := logger.New()
	mem := store.NewMemoryStore()
	t.Cleanup(func() { _ = mem.Close() })

	b := bridge.New(mem, bridge.WithLogger(log), bridge.WithAdminChecker(admin))
	users := staticUsers{users: map[string]dispatch.User{
		"user-1": {ID: "user-1", DisplayName: "Ada", Email: "ada@example.com"},
	}}
	items := staticItems{}
	targetRepo := targets.NewMemoryRepository()
	sender := &countingSender{}
	sentRepo := sentlog.NewMemoryRepository()

	dispatcher := dispatch.NewDispatcher(
		dispatch.NewTargetResolver(staticAccounts{members: []string{"user-1"}}, users, items, dispatch.TargetRepositoryFinder{Repo: targetRepo}),
		users, items, staticDomains{}, sender, sentRepo, log,
	)

	events := schedule.NewMemoryRepository()
	svc, err := notifier.New(notifier.Config{
		Bridge:     b,
		Locks:      locks.NewManager(mem, locks.WithLogger(log)),
		Dispatcher: dispatcher,
		Events:     events,
		Targets:    targetRepo,
		Templates:  templates.NewMemoryRepository(),
		SentLog:    sentRepo,
		Alerts:     alerts.NewMemoryRepository(),
		Items:      items,
		Admin:      admin,
		Logger:     log,
	})
	require.NoError(t, err)

	return &env{service: svc, bridge: b, store: mem, events: events, sender: sender}
}

func TestService_SendNotification(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := newEnv(t, nil)

	custom := notification.Notification{
		AccountID: "acc-1",
		Kind:      notification.KindCustom,
		Targets:   []notification.SimpleTarget{{NotifierKind: notification.NotifierUserEmail, TargetID: "user-1"}},
		Subject:   "Hello",
		Text:      "Hi [[name]]",
	}

	t.Run("immediate", func(t *testing.T) {
		require.NoError(t, e.service.SendNotification(ctx, custom, nil))
		require.Len(t, e.sender.batches, 1)
		assert.Equal(t, "Hello", e.sender.batches[0].Subject)
	})

	t.Run("scheduled", func(t *testing.T) {
		sendAt := time.Now().Add(time.Hour)
		require.NoError(t, e.service.SendNotification(ctx, custom, &sendAt))
		assert.Len(t, e.sender.batches, 1, "nothing sent until the sweep")

		found, err := e.events.Find(ctx, schedule.Filter{AccountID: "acc-1"})
		require.NoError(t, err)
		assert.Len(t, found, 1)
	})
}

func TestService_UpdateScheduledNotification(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := newEnv(t, nil)

	n := notification.Notification{AccountID: "acc-1", Kind: notification.KindPublish, ItemID: "doc-1"}

	t.Run("not found", func(t *testing.T) {
		err := e.service.UpdateScheduledNotification(ctx, uuid.NewString(), n, time.Now())
		assert.ErrorIs(t, err, schedule.ErrEventNotFound)
	})

	t.Run("claimed", func(t *testing.T) {
		event, err := e.events.Insert(ctx, schedule.Event{
			ID: uuid.NewString(), AccountID: "acc-1", Kind: n.Kind,
			SendAt: time.Now().Add(time.Hour), Created: time.Now(), Notification: n,
		})
		require.NoError(t, err)
		won, err := e.events.Claim(ctx, event.ID)
		require.NoError(t, err)
		require.True(t, won)

		err = e.service.UpdateScheduledNotification(ctx, event.ID, n, time.Now())
		assert.ErrorIs(t, err, schedule.ErrEventClaimed)
	})

	t.Run("pending", func(t *testing.T) {
		event, err := e.events.Insert(ctx, schedule.Event{
			ID: uuid.NewString(), AccountID: "acc-1", Kind: n.Kind,
			SendAt: time.Now().Add(time.Hour), Created: time.Now(), Notification: n,
		})
		require.NoError(t, err)

		newSendAt := time.Now().Add(2 * time.Hour)
		require.NoError(t, e.service.UpdateScheduledNotification(ctx, event.ID, n, newSendAt))

		got, err := e.events.GetByID(ctx, event.ID)
		require.NoError(t, err)
		assert.WithinDuration(t, newSendAt, got.SendAt, time.Second)
	})

	t.Run("invalid replacement rejected", func(t *testing.T) {
		event, err := e.events.Insert(ctx, schedule.Event{
			ID: uuid.NewString(), AccountID: "acc-1", Kind: n.Kind,
			SendAt: time.Now().Add(time.Hour), Created: time.Now(), Notification: n,
		})
		require.NoError(t, err)

		// A custom notification without targets can never dispatch; storing
		// it would make every future sweep of this event fail.
		bad := notification.Notification{AccountID: "acc-1", Kind: notification.KindCustom}
		err = e.service.UpdateScheduledNotification(ctx, event.ID, bad, time.Now().Add(time.Hour))
		require.Error(t, err)

		got, err := e.events.GetByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, n.Kind, got.Notification.Kind, "stored event must be untouched")
	})
}

func TestService_AlertBroadcast(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := newEnv(t, nil)

	messages, err := e.store.PSubscribe(ctx, routing.ChannelPrefix+"*")
	require.NoError(t, err)

	created, err := e.service.CreateAlert(ctx, alerts.Alert{
		Message:    "maintenance window tonight",
		AccountIDs: []string{"acc-1"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	select {
	case msg := <-messages:
		assert.Equal(t, routing.AccountKey("acc-1").Channel(), msg.Channel)
		var sn notification.ServiceNotification
		require.NoError(t, json.Unmarshal(msg.Payload, &sn))
		assert.Equal(t, notification.TypeAlertChange, sn.Type)
	case <-time.After(time.Second):
		t.Fatal("no alert change broadcast")
	}

	t.Run("expired alert change is silent", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		_, err := e.service.CreateAlert(ctx, alerts.Alert{Message: "old", EndDate: &past})
		require.NoError(t, err)

		select {
		case msg := <-messages:
			t.Fatalf("unexpected broadcast on %s", msg.Channel)
		case <-time.After(100 * time.Millisecond):
		}
	})
}

func TestService_FindActiveAlerts_AdminFiltering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	admin := func(_ context.Context, userID, _ string) (bool, error) {
		return userID == "admin-1", nil
	}
	e := newEnv(t, admin)

	_, err := e.service.CreateAlert(ctx, alerts.Alert{Message: "for everyone", AccountIDs: []string{"acc-1"}})
	require.NoError(t, err)
	_, err = e.service.CreateAlert(ctx, alerts.Alert{Message: "for admins", AdminsOnly: true, AccountIDs: []string{"acc-1"}})
	require.NoError(t, err)

	visible, err := e.service.FindActiveAlerts(ctx, "acc-1", "user-1")
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "for everyone", visible[0].Message)

	visible, err = e.service.FindActiveAlerts(ctx, "acc-1", "admin-1")
	require.NoError(t, err)
	assert.Len(t, visible, 2)
}

func TestService_LockHookWiring(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := newEnv(t, nil)

	lock := notification.ItemLock{
		ItemID:   "doc-1",
		User:     notification.LockUser{ID: "user-1", Login: "ada", DisplayName: "Ada"},
		WindowID: "win-1",
	}
	body, err := notification.NewServiceNotification(notification.TypeItemLocked, lock)
	require.NoError(t, err)

	require.NoError(t, e.bridge.Dispatch(ctx, notification.Event{
		RoutingKey: routing.AccountKey("acc-1"),
		Body:       body,
	}))

	fields, err := e.store.HGetAll(ctx, "itemlocks:acc-1:doc-1:0")
	require.NoError(t, err)
	assert.Equal(t, "user-1", fields["userId"])
	assert.Equal(t, "win-1", fields["windowId"])
}

func TestService_RunScheduledEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := newEnv(t, nil)

	sendAt := time.Now().Add(-time.Minute)
	require.NoError(t, e.service.SendNotification(ctx, notification.Notification{
		AccountID: "acc-1",
		Kind:      notification.KindCustom,
		Targets:   []notification.SimpleTarget{{NotifierKind: notification.NotifierUserEmail, TargetID: "user-1"}},
		Subject:   "Due now",
		Text:      "Hi [[name]]",
	}, &sendAt))

	require.NoError(t, e.service.RunScheduledEvents(ctx))
	require.Len(t, e.sender.batches, 1)
	assert.Equal(t, "Due now", e.sender.batches[0].Subject)

	remaining, err := e.events.Find(ctx, schedule.Filter{AccountID: "acc-1"})
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
