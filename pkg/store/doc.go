// Package store adapts the shared external TTL-keyed store backing the
// real-time coordination core. It exposes the small slice of functionality
// the lock manager and the pub/sub bridge need: hashes with expiry, sets,
// key scanning, publish, pattern subscriptions, and a stream of TTL-expiry
// events.
//
// Two implementations ship: RedisStore for production and MemoryStore for
// tests and local development. The redis server must have keyspace
// notifications enabled (notify-keyspace-events "Ex") for SubscribeExpired
// to deliver anything.
package store
