// Package mailer sends templated notification mail in batches. Message
// bodies carry [[tag]] placeholders; each recipient brings its own
// variable map, substituted right before send, so one batch can address
// many users with personalized content.
//
// The Postmark implementation is used in production; DevSender logs
// instead of sending and keeps local development free of mail credentials.
package mailer
