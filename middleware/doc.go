// Package middleware adapts goSession engine validation to net/http.
//
//   - [Guard] validates the Authorization header and stores the principal in the
//     request context.
//   - [ClientIP] records the peer address for login throttling and auditing.
//
// Every decision is delegated to the engine; this package never parses tokens
// or talks to Redis itself.
package middleware
