// Package session provides the Redis-backed state that decides whether an otherwise
// well-signed credential is still usable.
//
// # Architecture boundaries
//
// This package owns two adapters:
//
//   - [RevocationStore]: a blacklist of access token ids. Presence of a key is the
//     only signal; values are empty.
//   - [RefreshRegistry]: one Redis set per subject holding the refresh token ids that
//     are currently live for that subject.
//
// Neither adapter interprets tokens or evaluates expiry. Policy belongs to the Engine.
//
// # What this package must NOT do
//
//   - Import goSession or jwt (no upward imports).
//   - Undo a revocation. There is no delete operation on [RevocationStore].
//   - Swallow Redis failures. Every I/O error wraps [ErrRedisUnavailable].
package session
