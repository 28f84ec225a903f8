package bridge

import "errors"

var (
	ErrUnknownConnection = errors.New("bridge: unknown connection")
	ErrMalformedFrame    = errors.New("bridge: malformed frame")
	ErrBridgeClosed      = errors.New("bridge: bridge is closed")
)
