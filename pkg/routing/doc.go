// Package routing defines the routing key value type that identifies a
// logical broadcast scope: a single account, or all accounts.
//
// A routing key maps deterministically onto exactly one store channel name,
// so publishers and the fan-out loop always agree on where a notification
// travels:
//
//	key := routing.AccountKey("aid-123")
//	channel := key.Channel() // "notifications:account:aid-123"
//
// Keys are immutable value types and safe to copy.
package routing
