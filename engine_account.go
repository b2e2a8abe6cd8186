package goSession

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/internal/flows"
)

const maxUsernameBytes = 150

// Register creates a principal. The password is hashed before it reaches the
// identity store. A taken username yields [ErrConflict].
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*Principal, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}

	res := flows.RunRegister(ctx, req.Username, req.Email, req.Password, e.flows.Register)
	if res.Failure != flows.FailureNone {
		err := e.failureError(res.Failure, res.Err)
		if res.Failure == flows.FailureConflict {
			e.metricInc(MetricRegisterConflict)
			e.emitAudit(ctx, auditEventRegisterConflict, false, "", "", err, nil)
		}
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, res.Subject.ID, "", nil, nil)
	return &Principal{
		ID:        res.Subject.ID,
		Username:  res.Subject.Username,
		Email:     res.Subject.Email,
		CreatedAt: res.Subject.CreatedAt,
		IsActive:  true,
	}, nil
}

// Login authenticates username and password and issues a new session. Unknown
// usernames, wrong passwords and inactive principals all yield
// [ErrInvalidCredentials]. Repeated failures are throttled per username and,
// when enabled, per client IP (see [WithClientIP]).
func (e *Engine) Login(ctx context.Context, username, password string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}
	ip := clientIPFromContext(ctx)

	res := flows.RunLogin(ctx, username, password, ip, e.flows.Login)
	switch res.Failure {
	case flows.FailureNone:
	case flows.FailureRateLimited:
		err := e.failureError(res.Failure, res.Err)
		e.metricInc(MetricLoginRateLimited)
		e.emitAudit(ctx, auditEventLoginRateLimited, false, res.Subject.ID, "", err, nil)
		return TokenPair{}, err
	default:
		err := e.failureError(res.Failure, res.Err)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.Subject.ID, "", err, nil)
		return TokenPair{}, err
	}

	issued := flows.RunIssue(ctx, res.Subject, e.flows.Token)
	if issued.Failure != flows.FailureNone {
		err := e.failureError(issued.Failure, issued.Err)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.Subject.ID, "", err, nil)
		return TokenPair{}, err
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricTokenPairIssued)
	e.emitAudit(ctx, auditEventLoginSuccess, true, res.Subject.ID, issued.AccessID, nil, nil)
	return TokenPair{AccessToken: issued.AccessToken, RefreshToken: issued.RefreshToken}, nil
}

// UpdateIdentity applies upd to the principal behind a valid access token and
// returns the updated principal with a replacement access token. The presented
// access token is blacklisted; the refresh session is kept.
func (e *Engine) UpdateIdentity(ctx context.Context, token string, upd ProfileUpdate) (*Principal, string, error) {
	claims, rec, err := e.validateAccess(ctx, token)
	if err != nil {
		return nil, "", err
	}

	change, err := e.identityUpdate(upd)
	if err != nil {
		return nil, "", err
	}

	if !change.Empty() {
		rec, err = e.identity.Update(ctx, rec.ID, change)
		if err != nil {
			switch {
			case errors.Is(err, identity.ErrConflict):
				err = ErrConflict
			case errors.Is(err, identity.ErrNotFound):
				err = ErrUnauthorized
			default:
				err = e.failureError(flows.FailureUnavailable, err)
			}
			e.emitAudit(ctx, auditEventIdentityUpdated, false, claims.SubjectID, claims.TokenID, err, nil)
			return nil, "", err
		}
	}

	res := flows.RunReissueAccess(ctx, claims, subjectFromRecord(rec), e.flows.Token)
	if res.Failure != flows.FailureNone {
		err := e.failureError(res.Failure, res.Err)
		e.emitAudit(ctx, auditEventIdentityUpdated, false, claims.SubjectID, claims.TokenID, err, nil)
		return nil, "", err
	}

	e.metricInc(MetricIdentityUpdated)
	e.emitAudit(ctx, auditEventIdentityUpdated, true, claims.SubjectID, claims.TokenID, nil, func() map[string]string {
		return map[string]string{"fields": strings.Join(changedFields(change), ",")}
	})
	return principalFromRecord(rec), res.AccessToken, nil
}

// identityUpdate validates upd and hashes a new password. Nil and empty fields
// are dropped.
func (e *Engine) identityUpdate(upd ProfileUpdate) (identity.Update, error) {
	var out identity.Update
	if upd.Username != nil && *upd.Username != "" {
		if err := validateUsername(*upd.Username); err != nil {
			return identity.Update{}, err
		}
		v := *upd.Username
		out.Username = &v
	}
	if upd.Email != nil && *upd.Email != "" {
		if err := validateEmail(*upd.Email); err != nil {
			return identity.Update{}, err
		}
		v := *upd.Email
		out.Email = &v
	}
	if upd.Password != nil && *upd.Password != "" {
		if err := e.hasher.CheckPolicy(*upd.Password); err != nil {
			return identity.Update{}, fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
		}
		hash, err := e.hasher.Hash(*upd.Password)
		if err != nil {
			return identity.Update{}, fmt.Errorf("%w: %v", ErrTokenIssue, err)
		}
		out.PasswordHash = &hash
	}
	return out, nil
}

func changedFields(u identity.Update) []string {
	var fields []string
	if u.Username != nil {
		fields = append(fields, "username")
	}
	if u.Email != nil {
		fields = append(fields, "email")
	}
	if u.PasswordHash != nil {
		fields = append(fields, "password")
	}
	return fields
}

func validateUsername(username string) error {
	if strings.TrimSpace(username) != username || username == "" {
		return fmt.Errorf("%w: username must be non-empty without surrounding spaces", ErrInvalidProfile)
	}
	if len(username) > maxUsernameBytes {
		return fmt.Errorf("%w: username too long", ErrInvalidProfile)
	}
	return nil
}

// validateEmail accepts a bare address only, not a display-name form.
func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email", ErrInvalidProfile)
	}
	return nil
}
