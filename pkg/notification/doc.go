// Package notification holds the wire contract shared by the pub/sub
// bridge, the item lock manager and the dispatcher: notification kinds,
// the service notification envelope pushed to clients, the frames clients
// send over a live connection, and the dispatch-hook result type.
//
// The numeric type codes are part of the client protocol and must not be
// renumbered.
package notification
