package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/jwt"
)

// IssueResult carries a freshly minted pair or failure metadata.
type IssueResult struct {
	Failure      Failure
	Err          error
	AccessToken  string
	RefreshToken string
	AccessID     string
	RefreshID    string
}

// RunIssue mints a new access/refresh pair for subject and records the refresh id
// as live. Existing sessions of the subject are left alone.
func RunIssue(ctx context.Context, subject Subject, deps TokenDeps) IssueResult {
	if subject.ID == "" {
		return IssueResult{Failure: FailureIssue, Err: errors.New("subject id required")}
	}
	now := deps.Now()

	refreshID, err := deps.NewTokenID()
	if err != nil {
		return IssueResult{Failure: FailureIssue, Err: err}
	}
	refresh, err := deps.EncodeRefresh(jwt.RefreshClaims{
		SubjectID: subject.ID,
		TokenID:   refreshID,
		ExpiresAt: now.Add(deps.RefreshTTL),
		IssuedAt:  now,
	})
	if err != nil {
		return IssueResult{Failure: FailureIssue, Err: err}
	}

	access, accessID, err := issueAccess(subject, refreshID, now, deps)
	if err != nil {
		return IssueResult{Failure: FailureIssue, Err: err}
	}

	// Registration happens last so a failed encode never leaves a dangling member.
	if err := deps.Registry.Add(ctx, subject.ID, refreshID); err != nil {
		return IssueResult{Failure: FailureUnavailable, Err: err}
	}

	return IssueResult{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessID:     accessID,
		RefreshID:    refreshID,
	}
}

func issueAccess(subject Subject, refreshID string, now time.Time, deps TokenDeps) (string, string, error) {
	accessID, err := deps.NewTokenID()
	if err != nil {
		return "", "", err
	}
	access, err := deps.EncodeAccess(jwt.AccessClaims{
		SubjectID: subject.ID,
		Username:  subject.Username,
		Email:     subject.Email,
		TokenID:   accessID,
		RefreshID: refreshID,
		ExpiresAt: now.Add(deps.AccessTTL),
		IssuedAt:  now,
		CreatedAt: subject.CreatedAt,
	})
	if err != nil {
		return "", "", err
	}
	return access, accessID, nil
}
