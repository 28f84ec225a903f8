// Package bridge connects live client connections to the shared broadcast
// store. It owns every connection in the process, turns inbound connection
// frames into store publishes, and fans store messages back out to the
// connections subscribed to the matching channel.
//
// Two extension points shape dispatches:
//
//   - Dispatch hooks intercept a notification type before it is published.
//     A hook can suppress the publish or substitute a different payload;
//     the item lock manager uses this to answer a redundant lock request
//     with the real current holder.
//   - Initial-state providers run when a connection subscribes and push a
//     snapshot of shared state (for example the currently-held locks) to
//     just that connection.
//
// The bridge also consumes the store's TTL-expiry stream and re-enters
// expired keys through the normal dispatch path, so lock expiry reaches
// clients with the same routing and admin filtering as every other
// notification.
//
// Connection state is process-local and never persisted; reconnecting
// clients re-establish their subscriptions.
package bridge
