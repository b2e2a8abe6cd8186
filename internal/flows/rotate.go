package flows

import (
	"context"

	"github.com/MrEthical07/goSession/jwt"
)

// RunRotateByRefresh consumes a validated refresh token: its id leaves the registry
// and a brand-new pair is issued. Access tokens linked to the old id become
// orphaned.
func RunRotateByRefresh(ctx context.Context, claims *jwt.RefreshClaims, subject Subject, deps TokenDeps) IssueResult {
	if err := deps.Registry.Remove(ctx, claims.SubjectID, claims.TokenID); err != nil {
		return IssueResult{Failure: FailureUnavailable, Err: err}
	}
	return RunIssue(ctx, subject, deps)
}

// RunRotateByAccess consumes a validated access token: the access id is
// blacklisted, its linked refresh id leaves the registry and a brand-new pair is
// issued.
//
// The caller validated claims in an earlier round trip; replays racing that
// window each issue a pair.
func RunRotateByAccess(ctx context.Context, claims *jwt.AccessClaims, subject Subject, deps TokenDeps) IssueResult {
	if res := RunRevokeCurrent(ctx, claims, deps); res.Failure != FailureNone {
		return IssueResult{Failure: res.Failure, Err: res.Err}
	}
	return RunIssue(ctx, subject, deps)
}

// ReissueResult carries a replacement access token bound to an existing session.
type ReissueResult struct {
	Failure     Failure
	Err         error
	AccessToken string
	AccessID    string
}

// RunReissueAccess blacklists the presented access id and issues a new access
// token for subject linked to the same refresh id. The session is not rotated.
func RunReissueAccess(ctx context.Context, claims *jwt.AccessClaims, subject Subject, deps TokenDeps) ReissueResult {
	if err := deps.Revocations.Revoke(ctx, claims.TokenID); err != nil {
		return ReissueResult{Failure: FailureUnavailable, Err: err}
	}
	access, accessID, err := issueAccess(subject, claims.RefreshID, deps.Now(), deps)
	if err != nil {
		return ReissueResult{Failure: FailureIssue, Err: err}
	}
	return ReissueResult{AccessToken: access, AccessID: accessID}
}
