package mongo

import "errors"

var (
	ErrConnect     = errors.New("mongo: connect failed")
	ErrHealthcheck = errors.New("mongo: ping failed")
)
