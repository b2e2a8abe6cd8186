package session

import "errors"

// ErrRedisUnavailable wraps every Redis I/O failure returned by this package.
var ErrRedisUnavailable = errors.New("redis unavailable")
