package store

import (
	"context"
	"maps"
	"path"
	"slices"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and local development.
// TTLs are enforced lazily on access; ExpireNow forces an expiry and fires
// the expired-key stream the way a redis keyevent notification would.
type MemoryStore struct {
	mu       sync.Mutex
	hashes   map[string]map[string]string
	sets     map[string]map[string]struct{}
	deadline map[string]time.Time

	subs    []*memorySub
	expired []chan string
	closed  bool
}

type memorySub struct {
	pattern string
	ch      chan PatternMessage
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hashes:   make(map[string]map[string]string),
		sets:     make(map[string]map[string]struct{}),
		deadline: make(map[string]time.Time),
	}
}

// Close drops all subscriptions.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, sub := range s.subs {
		close(sub.ch)
	}
	for _, ch := range s.expired {
		close(ch)
	}
	s.subs = nil
	s.expired = nil
	return nil
}

// dropIfExpired removes a key whose deadline passed. Lazy expiry does not
// fire the expired stream; only ExpireNow does, which keeps tests
// deterministic.
func (s *MemoryStore) dropIfExpired(key string) {
	if dl, ok := s.deadline[key]; ok && time.Now().After(dl) {
		delete(s.hashes, key)
		delete(s.sets, key)
		delete(s.deadline, key)
	}
}

// ExpireNow removes a key as if its TTL elapsed and notifies the
// expired-key subscribers. Test hook.
func (s *MemoryStore) ExpireNow(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hashes, key)
	delete(s.sets, key)
	delete(s.deadline, key)
	for _, ch := range s.expired {
		// Deliver under the lock: a cancelled subscriber closes its channel
		// under the same lock, so the send can never hit a closed channel.
		// A full buffer drops the event, as redis pub/sub would.
		select {
		case ch <- key:
		default:
		}
	}
}

// TTL returns the remaining lifetime of a key, or zero when none is set.
// Test hook.
func (s *MemoryStore) TTL(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	dl, ok := s.deadline[key]
	if !ok {
		return 0
	}
	return time.Until(dl)
}

func (s *MemoryStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropIfExpired(key)
	fields, ok := s.hashes[key]
	if !ok {
		return map[string]string{}, nil
	}
	return maps.Clone(fields), nil
}

func (s *MemoryStore) HSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropIfExpired(key)
	hash, ok := s.hashes[key]
	if !ok {
		hash = make(map[string]string, len(fields))
		s.hashes[key] = hash
	}
	maps.Copy(hash, fields)
	return nil
}

func (s *MemoryStore) Expire(_ context.Context, key string, seconds int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadline[key] = time.Now().Add(time.Duration(seconds) * time.Second)
	return nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.hashes, key)
		delete(s.sets, key)
		delete(s.deadline, key)
	}
	return nil
}

func (s *MemoryStore) SAdd(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropIfExpired(key)
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{}, len(members))
		s.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) SRem(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		return nil
	}
	for _, m := range members {
		delete(set, m)
	}
	if len(set) == 0 {
		delete(s.sets, key)
	}
	return nil
}

func (s *MemoryStore) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropIfExpired(key)
	set, ok := s.sets[key]
	if !ok {
		return nil, nil
	}
	members := slices.Collect(maps.Keys(set))
	slices.Sort(members)
	return members, nil
}

func (s *MemoryStore) SIsMember(_ context.Context, key, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropIfExpired(key)
	set, ok := s.sets[key]
	if !ok {
		return false, nil
	}
	_, found := set[member]
	return found, nil
}

func (s *MemoryStore) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for key := range s.hashes {
		s.dropIfExpired(key)
		if _, ok := s.hashes[key]; !ok {
			continue
		}
		if matched, _ := path.Match(pattern, key); matched {
			keys = append(keys, key)
		}
	}
	for key := range s.sets {
		if matched, _ := path.Match(pattern, key); matched && !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (s *MemoryStore) Publish(_ context.Context, channel string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	for _, sub := range s.subs {
		if matched, _ := path.Match(sub.pattern, channel); matched {
			// Deliver under the lock so the send cannot race a cancelled
			// subscriber closing its channel. A full buffer drops the
			// message, as redis pub/sub would.
			select {
			case sub.ch <- PatternMessage{Pattern: sub.pattern, Channel: channel, Payload: payload}:
			default:
			}
		}
	}
	return nil
}

func (s *MemoryStore) PSubscribe(ctx context.Context, pattern string) (<-chan PatternMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	sub := &memorySub{pattern: pattern, ch: make(chan PatternMessage, 64)}
	s.subs = append(s.subs, sub)

	context.AfterFunc(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if i := slices.Index(s.subs, sub); i >= 0 {
			s.subs = slices.Delete(s.subs, i, i+1)
			close(sub.ch)
		}
	})
	return sub.ch, nil
}

func (s *MemoryStore) SubscribeExpired(ctx context.Context) (<-chan string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	ch := make(chan string, 64)
	s.expired = append(s.expired, ch)

	context.AfterFunc(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if i := slices.Index(s.expired, ch); i >= 0 {
			s.expired = slices.Delete(s.expired, i, i+1)
			close(ch)
		}
	})
	return ch, nil
}
