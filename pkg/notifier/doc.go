// Package notifier is the service facade: it maps the upstream HTTP-level
// operations onto the dispatcher, the scheduled dispatch queue, the
// repositories and the live-connection bridge, and owns the hook and
// initial-state wiring between the bridge and the item lock manager.
package notifier
