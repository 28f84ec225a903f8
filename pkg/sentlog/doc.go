// Package sentlog persists the append-only record of every delivered
// notification: who it went to, the rendered message, and the template
// variables filled in per recipient. Records are written once after a
// successful send and never mutated; they serve read-back and audit, not
// dispatch decisions.
package sentlog
