package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamdocs/notifier/pkg/store"
)

func TestMemoryStore_HashesAndExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()

	require.NoError(t, s.HSet(ctx, "locks:a:1", map[string]string{"userId": "u1", "login": "u1@x"}))
	require.NoError(t, s.Expire(ctx, "locks:a:1", 600))

	fields, err := s.HGetAll(ctx, "locks:a:1")
	require.NoError(t, err)
	assert.Equal(t, "u1", fields["userId"])
	assert.Greater(t, s.TTL("locks:a:1"), 599*time.Second)

	s.ExpireNow("locks:a:1")
	fields, err = s.HGetAll(ctx, "locks:a:1")
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestMemoryStore_Sets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()

	require.NoError(t, s.SAdd(ctx, "idx", "a", "b", "c"))
	require.NoError(t, s.SRem(ctx, "idx", "b"))

	members, err := s.SMembers(ctx, "idx")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, members)

	ok, err := s.SIsMember(ctx, "idx", "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SIsMember(ctx, "idx", "b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_PubSub(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := store.NewMemoryStore()

	messages, err := s.PSubscribe(ctx, "notifications:*")
	require.NoError(t, err)

	require.NoError(t, s.Publish(ctx, "notifications:account:a", []byte("one")))
	require.NoError(t, s.Publish(ctx, "other:channel", []byte("ignored")))
	require.NoError(t, s.Publish(ctx, "notifications:all", []byte("two")))

	msg := <-messages
	assert.Equal(t, "notifications:account:a", msg.Channel)
	assert.Equal(t, []byte("one"), msg.Payload)

	msg = <-messages
	assert.Equal(t, "notifications:all", msg.Channel)
	assert.Equal(t, []byte("two"), msg.Payload)
}

func TestMemoryStore_PublishRacesUnsubscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 200 {
			if err := s.Publish(ctx, "notifications:all", []byte("x")); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	// Subscribers whose contexts are cancelled mid-stream must not blow up
	// a concurrent publish.
	for range 50 {
		subCtx, cancel := context.WithCancel(context.Background())
		_, err := s.PSubscribe(subCtx, "notifications:*")
		require.NoError(t, err)
		cancel()
	}
	<-done
}

func TestMemoryStore_ExpireNowRacesUnsubscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 200 {
			if err := s.HSet(ctx, "itemlocks:a:doc:1", map[string]string{"userId": "u"}); err != nil {
				t.Error(err)
				return
			}
			s.ExpireNow("itemlocks:a:doc:1")
		}
	}()

	for range 50 {
		subCtx, cancel := context.WithCancel(context.Background())
		_, err := s.SubscribeExpired(subCtx)
		require.NoError(t, err)
		cancel()
	}
	<-done
}

func TestMemoryStore_SubscribeExpired(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := store.NewMemoryStore()

	expired, err := s.SubscribeExpired(ctx)
	require.NoError(t, err)

	require.NoError(t, s.HSet(ctx, "itemlocks:a:doc:1", map[string]string{"userId": "u"}))
	s.ExpireNow("itemlocks:a:doc:1")

	assert.Equal(t, "itemlocks:a:doc:1", <-expired)
}

func TestMemoryStore_ScanKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemoryStore()

	require.NoError(t, s.HSet(ctx, "itemlocks:a:doc-1:1", map[string]string{"userId": "u"}))
	require.NoError(t, s.HSet(ctx, "itemlocks:b:doc-2:1", map[string]string{"userId": "u"}))

	keys, err := s.ScanKeys(ctx, "*itemlocks:a:*")
	require.NoError(t, err)
	assert.Equal(t, []string{"itemlocks:a:doc-1:1"}, keys)
}
