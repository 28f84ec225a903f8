package store

import "context"

// PatternMessage is one message received on a pattern subscription.
type PatternMessage struct {
	Pattern string
	Channel string
	Payload []byte
}

// Store is the shared broadcast store consumed by the lock manager and the
// pub/sub bridge. All operations must be safe for concurrent use.
//
// The subscription channels returned by PSubscribe and SubscribeExpired
// are closed when the provided context is cancelled. Messages received on
// one channel preserve their arrival order.
type Store interface {
	// HGetAll returns all fields of a hash, or an empty map when the key
	// does not exist (or its TTL has expired).
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// HSet writes the given fields into a hash, creating it if needed.
	HSet(ctx context.Context, key string, fields map[string]string) error
	// Expire sets the TTL of a key in seconds.
	Expire(ctx context.Context, key string, seconds int64) error
	// Del removes keys.
	Del(ctx context.Context, keys ...string) error

	// SAdd adds members to a set.
	SAdd(ctx context.Context, key string, members ...string) error
	// SRem removes members from a set.
	SRem(ctx context.Context, key string, members ...string) error
	// SMembers returns all members of a set.
	SMembers(ctx context.Context, key string) ([]string, error)
	// SIsMember reports set membership.
	SIsMember(ctx context.Context, key, member string) (bool, error)

	// ScanKeys returns every key matching a glob pattern.
	ScanKeys(ctx context.Context, pattern string) ([]string, error)

	// Publish sends a payload on a channel.
	Publish(ctx context.Context, channel string, payload []byte) error
	// PSubscribe subscribes to all channels matching a glob pattern.
	PSubscribe(ctx context.Context, pattern string) (<-chan PatternMessage, error)
	// SubscribeExpired streams the names of keys whose TTL elapsed.
	SubscribeExpired(ctx context.Context) (<-chan string, error)
}
