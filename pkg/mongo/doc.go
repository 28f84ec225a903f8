// Package mongo manages the MongoDB connection backing the notification
// repositories: env-driven configuration, connect with retry, and a ping
// health check for the readiness endpoint.
package mongo
