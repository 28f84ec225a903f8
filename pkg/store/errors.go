package store

import "errors"

var (
	ErrFailedToParseConnString = errors.New("store: failed to parse redis connection string")
	ErrStoreNotReady           = errors.New("store: redis did not become ready within the given time period")
	ErrStoreClosed             = errors.New("store: store is closed")
	ErrHealthcheckFailed       = errors.New("store: redis healthcheck failed")
)
