package flows

import (
	"context"

	"github.com/MrEthical07/goSession/jwt"
)

// RevokeResult reports the outcome of a logout flow.
type RevokeResult struct {
	Failure Failure
	Err     error
}

// RunRevokeCurrent blacklists the presented access id and drops its linked refresh
// id. Other sessions of the subject are untouched.
func RunRevokeCurrent(ctx context.Context, claims *jwt.AccessClaims, deps TokenDeps) RevokeResult {
	if err := deps.Revocations.Revoke(ctx, claims.TokenID); err != nil {
		return RevokeResult{Failure: FailureUnavailable, Err: err}
	}
	if err := deps.Registry.Remove(ctx, claims.SubjectID, claims.RefreshID); err != nil {
		return RevokeResult{Failure: FailureUnavailable, Err: err}
	}
	return RevokeResult{}
}

// RunRevokeAll blacklists the presented access id and clears every refresh id of
// the subject. Other access tokens are not blacklisted here; each one is caught as
// orphaned on its next validation.
func RunRevokeAll(ctx context.Context, claims *jwt.AccessClaims, deps TokenDeps) RevokeResult {
	if err := deps.Revocations.Revoke(ctx, claims.TokenID); err != nil {
		return RevokeResult{Failure: FailureUnavailable, Err: err}
	}
	if err := deps.Registry.Clear(ctx, claims.SubjectID); err != nil {
		return RevokeResult{Failure: FailureUnavailable, Err: err}
	}
	return RevokeResult{}
}

// RunListSessions returns the live refresh ids of subjectID.
func RunListSessions(ctx context.Context, subjectID string, deps TokenDeps) ([]string, Failure, error) {
	ids, err := deps.Registry.Members(ctx, subjectID)
	if err != nil {
		return nil, FailureUnavailable, err
	}
	return ids, FailureNone, nil
}
