package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/teamdocs/notifier/pkg/logger"
	"github.com/teamdocs/notifier/pkg/notification"
	"github.com/teamdocs/notifier/pkg/routing"
	"github.com/teamdocs/notifier/pkg/store"
)

// DispatchHook intercepts a notification type before it is published.
// The zero HookResult lets the dispatch proceed unchanged.
type DispatchHook func(ctx context.Context, key routing.Key, body json.RawMessage) notification.HookResult

// StateProvider supplies a newly subscribing connection with the current
// snapshot of some shared state. A nil notification means nothing to push.
type StateProvider func(ctx context.Context, key routing.Key) (*notification.ServiceNotification, error)

// AdminChecker reports whether a user administers an account. The bridge
// caches the answer on the connection and re-checks it on each new
// account-scoped subscription.
type AdminChecker func(ctx context.Context, userID, accountID string) (bool, error)

// permissions is the cached snapshot consulted by adminsOnly filtering.
type permissions struct {
	accountID string
	isAdmin   bool
}

type connection struct {
	conn   Conn
	userID string
	perms  *permissions
}

// Bridge multiplexes live connections over the shared broadcast store.
type Bridge struct {
	store      store.Store
	registry   *Registry
	hooks      map[notification.ServiceType]DispatchHook
	providers  map[routing.Type][]StateProvider
	adminCheck AdminChecker
	log        *slog.Logger

	mu    sync.RWMutex
	conns map[string]*connection
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the bridge logger.
func WithLogger(log *slog.Logger) Option {
	return func(b *Bridge) {
		if log != nil {
			b.log = log
		}
	}
}

// WithAdminChecker sets the admin lookup used for permission snapshots.
// Without one, no connection is ever considered an admin.
func WithAdminChecker(check AdminChecker) Option {
	return func(b *Bridge) { b.adminCheck = check }
}

// New creates a bridge over the given store with a fresh registry.
func New(s store.Store, opts ...Option) *Bridge {
	b := &Bridge{
		store:     s,
		hooks:     make(map[notification.ServiceType]DispatchHook),
		providers: make(map[routing.Type][]StateProvider),
		log:       slog.Default(),
		conns:     make(map[string]*connection),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.registry = NewRegistry(b.log)
	return b
}

// Registry exposes the bridge's subscription registry.
func (b *Bridge) Registry() *Registry {
	return b.registry
}

// RegisterHook installs the dispatch hook for a notification type.
func (b *Bridge) RegisterHook(t notification.ServiceType, hook DispatchHook) {
	b.hooks[t] = hook
}

// RegisterProvider installs an initial-state provider for a routing key type.
func (b *Bridge) RegisterProvider(t routing.Type, provider StateProvider) {
	b.providers[t] = append(b.providers[t], provider)
}

// Run consumes the store's pattern subscription and expiry stream until the
// context is cancelled. It must be running for any fan-out to happen.
func (b *Bridge) Run(ctx context.Context) error {
	messages, err := b.store.PSubscribe(ctx, routing.ChannelPrefix+"*")
	if err != nil {
		return fmt.Errorf("bridge: pattern subscribe: %w", err)
	}
	expired, err := b.store.SubscribeExpired(ctx)
	if err != nil {
		return fmt.Errorf("bridge: expiry subscribe: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		b.fanOutLoop(ctx, messages)
	}()
	go func() {
		defer wg.Done()
		b.expiryLoop(ctx, expired)
	}()
	wg.Wait()
	return ctx.Err()
}

// fanOutLoop pushes store messages to the subscribed connections.
// A single loop per pattern preserves per-channel arrival order.
func (b *Bridge) fanOutLoop(ctx context.Context, messages <-chan store.PatternMessage) {
	for msg := range messages {
		var sn notification.ServiceNotification
		if err := json.Unmarshal(msg.Payload, &sn); err != nil {
			b.log.LogAttrs(ctx, slog.LevelWarn, "unparseable channel message",
				logger.Channel(msg.Channel), logger.Error(err))
			continue
		}
		connIDs := b.registry.ConnIDs(msg.Channel)
		b.sendRaw(ctx, connIDs, msg.Payload, sn.AdminsOnly)
	}
}

// expiryLoop turns TTL-expiry notifications into KEY_EXPIRED dispatches on
// the owning account's routing key, so the registered hook (and with it all
// normal filtering) decides what clients see.
func (b *Bridge) expiryLoop(ctx context.Context, expired <-chan string) {
	for key := range expired {
		parts := strings.Split(key, ":")
		if len(parts) < 2 || parts[1] == "" {
			continue
		}
		sn, err := notification.NewServiceNotification(
			notification.TypeKeyExpired,
			notification.KeyExpired{Key: key},
		)
		if err != nil {
			continue
		}
		if err := b.Dispatch(ctx, notification.Event{
			RoutingKey: routing.AccountKey(parts[1]),
			Body:       sn,
		}); err != nil {
			b.log.LogAttrs(ctx, slog.LevelError, "expiry dispatch failed",
				slog.String("key", key), logger.Error(err))
		}
	}
}

// Connect registers a live connection and acknowledges it. The returned id
// ties subsequent HandleMessage and Disconnect calls to this connection.
func (b *Bridge) Connect(ctx context.Context, conn Conn, userID string) string {
	connID := uuid.NewString()
	b.mu.Lock()
	b.conns[connID] = &connection{conn: conn, userID: userID}
	b.mu.Unlock()

	b.push(ctx, connID, notification.ServiceNotification{Type: notification.TypeConnectionSuccess})
	b.log.LogAttrs(ctx, slog.LevelDebug, "connection established",
		logger.ConnID(connID), logger.UserID(userID))
	return connID
}

// Disconnect removes a connection and all its subscriptions. In-flight
// fan-outs that already read the registry may still attempt a send; those
// fail silently.
func (b *Bridge) Disconnect(connID string) {
	b.mu.Lock()
	delete(b.conns, connID)
	b.mu.Unlock()
	b.registry.DropConn(connID)
}

// HandleMessage processes one inbound frame from a connection.
func (b *Bridge) HandleMessage(ctx context.Context, connID string, raw []byte) error {
	var msg notification.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	switch msg.Type {
	case notification.MessageSubscribe:
		return b.subscribe(ctx, connID, msg.Body)
	case notification.MessageUnsubscribe:
		return b.unsubscribe(ctx, connID, msg.Body)
	case notification.MessageDispatch:
		var event notification.Event
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedFrame, err)
		}
		return b.Dispatch(ctx, event)
	default:
		return fmt.Errorf("%w: unknown frame type %d", ErrMalformedFrame, msg.Type)
	}
}

// Dispatch publishes a notification on its routing key's channel, giving
// the registered hook a chance to interrupt or rewrite it first.
func (b *Bridge) Dispatch(ctx context.Context, event notification.Event) error {
	sn := event.Body
	if hook, ok := b.hooks[sn.Type]; ok {
		result := hook(ctx, event.RoutingKey, sn.Body)
		if result.Interrupt {
			return nil
		}
		if result.Override != nil {
			sn = *result.Override
		}
	}
	return b.publish(ctx, event.RoutingKey, sn)
}

func (b *Bridge) publish(ctx context.Context, key routing.Key, sn notification.ServiceNotification) error {
	payload, err := json.Marshal(sn)
	if err != nil {
		return fmt.Errorf("bridge: marshal notification: %w", err)
	}
	return b.store.Publish(ctx, key.Channel(), payload)
}

func (b *Bridge) subscribe(ctx context.Context, connID string, body json.RawMessage) error {
	keys, err := parseRoutingKeys(body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	// Every subscription implicitly covers the all-accounts scope.
	keys = append(keys, routing.AllKey())

	channels := make([]string, len(keys))
	for i, key := range keys {
		channels[i] = key.Channel()
	}
	b.registry.Add(connID, channels)
	b.acknowledge(ctx, connID)
	b.refreshPermissions(ctx, connID, keys)
	b.runProviders(ctx, connID, keys)
	return nil
}

func (b *Bridge) unsubscribe(ctx context.Context, connID string, body json.RawMessage) error {
	keys, err := parseRoutingKeys(body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	channels := make([]string, len(keys))
	for i, key := range keys {
		channels[i] = key.Channel()
	}
	b.registry.Remove(connID, channels)

	b.mu.Lock()
	if c, ok := b.conns[connID]; ok {
		c.perms = nil
	}
	b.mu.Unlock()

	b.acknowledge(ctx, connID)
	return nil
}

// acknowledge pushes the connection's full current subscription list.
func (b *Bridge) acknowledge(ctx context.Context, connID string) {
	channels := b.registry.Channels(connID)
	keys := make([]routing.Key, 0, len(channels))
	for _, channel := range channels {
		key, err := routing.ParseChannel(channel)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sn, err := notification.NewServiceNotification(notification.TypeRoutingKeysUpdate, keys)
	if err != nil {
		return
	}
	b.push(ctx, connID, sn)
}

// refreshPermissions recomputes the connection's admin snapshot using the
// first account-scoped key: one directory lookup per subscribe call, not
// one per key.
func (b *Bridge) refreshPermissions(ctx context.Context, connID string, keys []routing.Key) {
	b.mu.RLock()
	c, ok := b.conns[connID]
	b.mu.RUnlock()
	if !ok || c.userID == "" || b.adminCheck == nil {
		return
	}
	for _, key := range keys {
		if key.Type != routing.TypeAccount {
			continue
		}
		accountID := key.AccountID()
		isAdmin, err := b.adminCheck(ctx, c.userID, accountID)
		if err != nil {
			b.log.LogAttrs(ctx, slog.LevelError, "admin check failed",
				logger.UserID(c.userID), logger.AccountID(accountID), logger.Error(err))
			return
		}
		b.mu.Lock()
		if cur, ok := b.conns[connID]; ok {
			cur.perms = &permissions{accountID: accountID, isAdmin: isAdmin}
		}
		b.mu.Unlock()
		return
	}
}

// runProviders pushes non-empty initial-state snapshots to the subscribing
// connection only.
func (b *Bridge) runProviders(ctx context.Context, connID string, keys []routing.Key) {
	for _, key := range keys {
		for _, provider := range b.providers[key.Type] {
			sn, err := provider(ctx, key)
			if err != nil {
				b.log.LogAttrs(ctx, slog.LevelError, "initial state provider failed",
					logger.ConnID(connID), logger.Error(err))
				continue
			}
			if sn != nil {
				b.push(ctx, connID, *sn)
			}
		}
	}
}

func (b *Bridge) push(ctx context.Context, connID string, sn notification.ServiceNotification) {
	payload, err := json.Marshal(sn)
	if err != nil {
		return
	}
	b.sendRaw(ctx, []string{connID}, payload, sn.AdminsOnly)
}

// sendRaw delivers a serialized notification to each connection, honoring
// the adminsOnly flag against the cached permission snapshot. A connection
// without a snapshot is not an admin.
func (b *Bridge) sendRaw(ctx context.Context, connIDs []string, payload []byte, adminsOnly bool) {
	for _, connID := range connIDs {
		b.mu.RLock()
		c, ok := b.conns[connID]
		var perms *permissions
		if ok {
			perms = c.perms
		}
		b.mu.RUnlock()
		if !ok {
			continue
		}
		if adminsOnly && (perms == nil || !perms.isAdmin) {
			continue
		}
		if err := c.conn.Send(payload); err != nil {
			b.log.LogAttrs(ctx, slog.LevelWarn, "connection send failed",
				logger.ConnID(connID), logger.Error(err))
			b.Disconnect(connID)
		}
	}
}

// parseRoutingKeys accepts the lenient wire form: each element is either a
// routing key object or a bare account id string.
func parseRoutingKeys(raw json.RawMessage) ([]routing.Key, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	keys := make([]routing.Key, 0, len(items)+1)
	for _, item := range items {
		var accountID string
		if err := json.Unmarshal(item, &accountID); err == nil {
			keys = append(keys, routing.AccountKey(accountID))
			continue
		}
		var key routing.Key
		if err := json.Unmarshal(item, &key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}
