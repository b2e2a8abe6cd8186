// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunIssue, RunValidateAccess, RunRotateByRefresh, etc.) accepts
// a typed dependency struct and returns a result value. Flows never return bare
// errors: a result carries a [Failure] kind for the root package to map onto its
// public sentinels, and token checks additionally report the internal [State].
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the token codec, revocation store, refresh
// registry, identity lookups and login limiter. They do NOT own any of these
// resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goSession (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency interfaces.
package flows
