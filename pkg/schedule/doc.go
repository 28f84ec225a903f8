// Package schedule is the durable queue of notifications to be sent at or
// after a future time. Records move PENDING -> CLAIMED -> deleted; claiming
// is a single conditional update so concurrent sweeps never dispatch the
// same record twice. A recoverable dispatch failure unclaims the record for
// a later sweep; a missing target item deletes it without retry.
package schedule
