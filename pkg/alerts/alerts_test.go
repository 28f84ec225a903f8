package alerts_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamdocs/notifier/pkg/alerts"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestAlert_ActiveAt(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tests := []struct {
		name  string
		alert alerts.Alert
		want  bool
	}{
		{"no dates", alerts.Alert{}, true},
		{"between dates", alerts.Alert{StartDate: timePtr(now.Add(-time.Hour)), EndDate: timePtr(now.Add(time.Hour))}, true},
		{"before start", alerts.Alert{StartDate: timePtr(now.Add(time.Hour))}, false},
		{"after end", alerts.Alert{EndDate: timePtr(now.Add(-time.Hour))}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.alert.ActiveAt(now))
		})
	}
}

func TestAlert_ActiveOrSoon(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tests := []struct {
		name  string
		alert alerts.Alert
		want  bool
	}{
		{"active now", alerts.Alert{}, true},
		{"starts in two hours", alerts.Alert{StartDate: timePtr(now.Add(2 * time.Hour))}, true},
		{"starts in four hours", alerts.Alert{StartDate: timePtr(now.Add(4 * time.Hour))}, false},
		{"already ended", alerts.Alert{EndDate: timePtr(now.Add(-time.Minute))}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.alert.ActiveOrSoon(now))
		})
	}
}

func TestMemoryRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now()
	repo := alerts.NewMemoryRepository()

	scoped := alerts.Alert{ID: uuid.NewString(), Message: "maintenance tonight", AccountIDs: []string{"acc-1"}}
	global := alerts.Alert{ID: uuid.NewString(), Message: "new release"}
	expired := alerts.Alert{ID: uuid.NewString(), Message: "old news", EndDate: timePtr(now.Add(-time.Hour))}

	for _, a := range []alerts.Alert{scoped, global, expired} {
		_, err := repo.Insert(ctx, a)
		require.NoError(t, err)
	}

	t.Run("active for account", func(t *testing.T) {
		found, err := repo.ActiveForAccount(ctx, "acc-1", now)
		require.NoError(t, err)
		assert.Len(t, found, 2)

		found, err = repo.ActiveForAccount(ctx, "acc-2", now)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, global.ID, found[0].ID)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := repo.Get(ctx, uuid.NewString())
		assert.ErrorIs(t, err, alerts.ErrAlertNotFound)
	})

	t.Run("put replaces", func(t *testing.T) {
		scoped.Message = "maintenance moved to tomorrow"
		_, err := repo.Put(ctx, scoped)
		require.NoError(t, err)

		got, err := repo.Get(ctx, scoped.ID)
		require.NoError(t, err)
		assert.Equal(t, "maintenance moved to tomorrow", got.Message)
	})

	t.Run("put missing", func(t *testing.T) {
		_, err := repo.Put(ctx, alerts.Alert{ID: uuid.NewString()})
		assert.ErrorIs(t, err, alerts.ErrAlertNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, expired.ID))
		assert.ErrorIs(t, repo.Delete(ctx, expired.ID), alerts.ErrAlertNotFound)

		all, err := repo.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}
