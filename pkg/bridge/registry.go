package bridge

import (
	"log/slog"
	"slices"
	"sync"
)

// Registry tracks which connections subscribe to which store channels.
// The mapping is many-to-many and mutated only by subscribe, unsubscribe
// and disconnect; every fan-out reads it.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]map[string]struct{}
	log      *slog.Logger
}

// NewRegistry creates an empty subscription registry. Callers construct a
// fresh registry per bridge; there is no shared global.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		channels: make(map[string]map[string]struct{}),
		log:      log,
	}
}

// Add subscribes a connection to the given channels.
func (r *Registry) Add(connID string, channels []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, channel := range channels {
		subs, ok := r.channels[channel]
		if !ok {
			subs = make(map[string]struct{})
			r.channels[channel] = subs
		}
		subs[connID] = struct{}{}
	}
}

// Remove unsubscribes a connection from the given channels. Unknown
// channels are logged and skipped.
func (r *Registry) Remove(connID string, channels []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, channel := range channels {
		subs, ok := r.channels[channel]
		if !ok {
			r.log.Warn("unsubscribe from unknown channel", "channel", channel)
			continue
		}
		delete(subs, connID)
		if len(subs) == 0 {
			delete(r.channels, channel)
		}
	}
}

// ConnIDs returns the connections currently subscribed to a channel.
func (r *Registry) ConnIDs(channel string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs, ok := r.channels[channel]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Channels returns every channel a connection subscribes to.
func (r *Registry) Channels(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var channels []string
	for channel, subs := range r.channels {
		if _, ok := subs[connID]; ok {
			channels = append(channels, channel)
		}
	}
	slices.Sort(channels)
	return channels
}

// DropConn removes a connection from every channel.
func (r *Registry) DropConn(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for channel, subs := range r.channels {
		delete(subs, connID)
		if len(subs) == 0 {
			delete(r.channels, channel)
		}
	}
}
