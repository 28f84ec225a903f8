// Package targets stores notification targets: the durable registrations
// that say which user or group should be notified for a given notification
// kind, optionally scoped to one item. Item-scoped dispatch looks targets
// up by the full ancestor chain, so a target registered on a collection
// applies to every descendant document.
package targets
