// Package jwt encodes and decodes the signed access and refresh credentials used by
// goSession.
//
// Tokens are HS256-signed JWTs carrying a closed claim record per token kind. [Codec.Decode]
// verifies the signature and the structural shape of the claims only; expiry is left to
// the caller, which needs the decoded claims even for expired tokens.
//
// # What this package must NOT do
//
//   - Consult revocation or registry state.
//   - Read the wall clock during decode.
package jwt
