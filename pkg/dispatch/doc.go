// Package dispatch turns a domain notification into delivered mail: the
// target resolver produces the recipient list, the tag resolver fills
// template variables, the mail transport sends one batch, and a durable
// sent-notification record is appended for audit.
package dispatch
