package httpserver

import "errors"

var (
	// ErrStart wraps listener and serve failures.
	ErrStart = errors.New("httpserver: server start failed")
	// ErrShutdown wraps graceful shutdown failures.
	ErrShutdown = errors.New("httpserver: graceful shutdown failed")
)
