package flows

import (
	"context"

	"github.com/MrEthical07/goSession/jwt"
)

// AccessResult is the outcome of access token validation.
type AccessResult struct {
	State   State
	Failure Failure
	Err     error
	Claims  *jwt.AccessClaims
	// OrphanRevokeErr is set when an orphaned token was detected but the
	// proactive blacklist write failed. The verdict is unchanged.
	OrphanRevokeErr error
}

// RunValidateAccess checks, in order: signature and shape, blacklist, expiry and
// refresh registry membership. An orphaned token is blacklisted on detection so
// later checks stop at the blacklist lookup.
func RunValidateAccess(ctx context.Context, tokenStr string, deps TokenDeps) AccessResult {
	claims, err := deps.DecodeAccess(tokenStr)
	if err != nil {
		return AccessResult{State: StateMalformed, Failure: FailureUnauthorized, Err: err}
	}

	revoked, err := deps.Revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return AccessResult{Failure: FailureUnavailable, Err: err, Claims: claims}
	}
	if revoked {
		return AccessResult{State: StateRevoked, Failure: FailureUnauthorized, Claims: claims}
	}

	if claims.Expired(deps.Now()) {
		return AccessResult{State: StateExpired, Failure: FailureUnauthorized, Claims: claims}
	}

	live, err := deps.Registry.Contains(ctx, claims.SubjectID, claims.RefreshID)
	if err != nil {
		return AccessResult{Failure: FailureUnavailable, Err: err, Claims: claims}
	}
	if !live {
		return AccessResult{
			State:           StateOrphaned,
			Failure:         FailureUnauthorized,
			Claims:          claims,
			OrphanRevokeErr: deps.Revocations.Revoke(ctx, claims.TokenID),
		}
	}

	return AccessResult{State: StateValid, Claims: claims}
}

// RefreshResult is the outcome of refresh token validation.
type RefreshResult struct {
	State   State
	Failure Failure
	Err     error
	Claims  *jwt.RefreshClaims
}

// RunValidateRefresh checks signature and shape, expiry and registry membership.
// The blacklist only holds access ids and is not consulted.
func RunValidateRefresh(ctx context.Context, tokenStr string, deps TokenDeps) RefreshResult {
	claims, err := deps.DecodeRefresh(tokenStr)
	if err != nil {
		return RefreshResult{State: StateMalformed, Failure: FailureUnauthorized, Err: err}
	}

	if claims.Expired(deps.Now()) {
		return RefreshResult{State: StateExpired, Failure: FailureUnauthorized, Claims: claims}
	}

	live, err := deps.Registry.Contains(ctx, claims.SubjectID, claims.TokenID)
	if err != nil {
		return RefreshResult{Failure: FailureUnavailable, Err: err, Claims: claims}
	}
	if !live {
		return RefreshResult{State: StateRevoked, Failure: FailureUnauthorized, Claims: claims}
	}

	return RefreshResult{State: StateValid, Claims: claims}
}
