package rate

import "errors"

var (
	// ErrRateLimited is returned once a login attempt budget is spent.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps counter I/O failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
