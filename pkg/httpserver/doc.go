// Package httpserver wraps net/http with graceful shutdown, configurable
// timeouts and health-check handlers for the notification daemon's HTTP
// surface.
//
// Signal handling stays with the daemon: Run blocks until its context is
// cancelled or serving fails, then shuts the server down within the
// configured deadline. Construction goes through New or NewFromConfig
// with Option helpers. Listen failures are wrapped with ErrStart,
// shutdown failures with ErrShutdown, so callers can use errors.Is.
package httpserver
