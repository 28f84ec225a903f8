// Package locks implements distributed, TTL-bounded mutual exclusion over
// editable items, backed by the shared broadcast store.
//
// A lock key is derived from the account, the item and a digest of the
// lock options, so the same item can carry independent locks for distinct
// option sets. At most one live lock exists per key; a second acquisition
// attempt refreshes the TTL and answers with the existing holder instead
// of erroring ("extend-on-touch"). Locks self-expire after ten minutes;
// the bridge turns the store's expiry notification into an item-released
// broadcast.
//
// The per-account index set exists only to enumerate locks cheaply. It may
// contain stale keys whose TTL already elapsed; Locks reconciles it lazily
// on read.
package locks
