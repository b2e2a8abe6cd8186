// Package goSession issues and checks stateful JWT session credentials: a
// short-lived access token linked to a long-lived refresh token, with a Redis
// blacklist of revoked access ids and a Redis set of live refresh ids per
// principal.
//
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build].
//
// # Credential states
//
// A presented access token is checked in a fixed order: signature and claim
// shape, blacklist, expiry, then refresh registry membership. A token whose
// refresh id is gone (after logout, logout-all or rotation elsewhere) is
// orphaned; detecting one blacklists its id. Every non-valid state surfaces as
// [ErrUnauthorized]. Cache and identity store failures surface as
// [ErrInfrastructureUnavailable] and never authorize anything.
//
// # Architecture boundaries
//
// goSession is the public surface. Flow orchestration, login throttling, audit
// dispatch and logging setup live under internal/. Storage adapters live in
// session (Redis) and identity/sqlite, identity/postgres.
package goSession
