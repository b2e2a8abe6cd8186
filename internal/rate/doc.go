// Package rate provides the Redis-backed login throttle used by goSession.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys:
//   - <prefix>:u:<username> counts failures per username
//   - <prefix>:ip:<ip> counts failures per client IP
//
// A username or IP is blocked once its counter reaches MaxLoginAttempts and stays
// blocked until the window expires or a successful login resets it.
//
// # What this package must NOT do
//
//   - Decide whether a credential is valid.
//   - Be imported outside the goSession module.
package rate
