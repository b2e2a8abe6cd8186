package goSession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/internal"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/password"
)

// Engine issues, validates, rotates and revokes session credentials.
//
// Engine is immutable after Build and safe for concurrent use. It holds no
// per-subject state; every decision is made against the revocation store, the
// refresh registry and the identity store.
type Engine struct {
	config      Config
	codec       *jwt.Codec
	revocations RevocationStore
	registry    RefreshRegistry
	identity    IdentityStore
	hasher      *password.Argon2
	dummyHash   string
	limiter     *rate.Limiter
	audit       *internalaudit.Dispatcher
	metrics     *Metrics
	logger      *slog.Logger
	clock       func() time.Time
	flows       flows.Deps
}

// Close drains the audit dispatcher. It does not close the Redis client or the
// identity store, which are owned by the caller.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped because the buffer
// was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns the current metric values.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) now() time.Time {
	if e == nil || e.clock == nil {
		return time.Now()
	}
	return e.clock()
}

func (e *Engine) ready() bool {
	return e != nil && e.codec != nil && e.identity != nil
}

func (e *Engine) buildFlowDeps() flows.Deps {
	deps := flows.Deps{
		Token: flows.TokenDeps{
			DecodeAccess:  e.codec.DecodeAccess,
			DecodeRefresh: e.codec.DecodeRefresh,
			EncodeAccess:  e.codec.EncodeAccess,
			EncodeRefresh: e.codec.EncodeRefresh,
			NewTokenID:    internal.NewTokenID,
			Now:           e.now,
			AccessTTL:     e.config.JWT.AccessTTL,
			RefreshTTL:    e.config.JWT.RefreshTTL,
			Revocations:   e.revocations,
			Registry:      e.registry,
		},
		Login: flows.LoginDeps{
			FindByUsername: func(ctx context.Context, username string) (flows.LoginRecord, error) {
				rec, err := e.identity.FindByUsername(ctx, username)
				if err != nil {
					return flows.LoginRecord{}, err
				}
				return flows.LoginRecord{
					Subject:      subjectFromRecord(rec),
					PasswordHash: rec.PasswordHash,
					Active:       rec.IsActive,
				}, nil
			},
			VerifyPassword: e.hasher.Verify,
			DummyHash:      e.dummyHash,
			Warn:           e.logger.Warn,
			NotFound:       identity.ErrNotFound,
			RateLimited:    rate.ErrRateLimited,
		},
		Register: flows.RegisterDeps{
			ValidatePassword: e.hasher.CheckPolicy,
			HashPassword:     e.hasher.Hash,
			NewPrincipalID:   internal.NewPrincipalID,
			Now:              e.now,
			Create: func(ctx context.Context, p flows.NewPrincipal) error {
				return e.identity.Create(ctx, identity.Record{
					ID:           p.ID,
					Username:     p.Username,
					Email:        p.Email,
					PasswordHash: p.PasswordHash,
					CreatedAt:    p.CreatedAt,
					IsActive:     true,
				})
			},
			Conflict: identity.ErrConflict,
		},
	}
	// A typed nil must not reach the interface field.
	if e.limiter != nil {
		deps.Login.Limiter = e.limiter
	}
	return deps
}

// failureError maps a flow failure to the public error taxonomy.
func (e *Engine) failureError(f flows.Failure, err error) error {
	switch f {
	case flows.FailureNone:
		return nil
	case flows.FailureUnauthorized:
		return ErrUnauthorized
	case flows.FailureUnavailable:
		e.metricInc(MetricInfrastructureError)
		return fmt.Errorf("%w: %v", ErrInfrastructureUnavailable, err)
	case flows.FailureIssue:
		return fmt.Errorf("%w: %v", ErrTokenIssue, err)
	case flows.FailureInvalidCredentials:
		return ErrInvalidCredentials
	case flows.FailureRateLimited:
		return ErrLoginRateLimited
	case flows.FailureConflict:
		return ErrConflict
	case flows.FailureInvalidInput:
		return fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	default:
		return ErrUnauthorized
	}
}

// loadPrincipal resolves subjectID. A missing principal is unauthorized.
func (e *Engine) loadPrincipal(ctx context.Context, subjectID string) (identity.Record, error) {
	rec, err := e.identity.FindByID(ctx, subjectID)
	if err == nil {
		return rec, nil
	}
	if errors.Is(err, identity.ErrNotFound) {
		return identity.Record{}, ErrUnauthorized
	}
	return identity.Record{}, e.failureError(flows.FailureUnavailable, err)
}

func subjectFromRecord(rec identity.Record) flows.Subject {
	return flows.Subject{
		ID:        rec.ID,
		Username:  rec.Username,
		Email:     rec.Email,
		CreatedAt: rec.CreatedAt,
	}
}

func subjectFromPrincipal(p Principal) flows.Subject {
	return flows.Subject{
		ID:        p.ID,
		Username:  p.Username,
		Email:     p.Email,
		CreatedAt: p.CreatedAt,
	}
}

// IssueTokenPair mints a new session for p. Other sessions of p are left alone,
// so a principal may hold several at once.
func (e *Engine) IssueTokenPair(ctx context.Context, p Principal) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}
	res := flows.RunIssue(ctx, subjectFromPrincipal(p), e.flows.Token)
	if res.Failure != flows.FailureNone {
		return TokenPair{}, e.failureError(res.Failure, res.Err)
	}

	e.metricInc(MetricTokenPairIssued)
	e.emitAudit(ctx, auditEventTokenPairIssued, true, p.ID, res.AccessID, nil, nil)
	return TokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}, nil
}

// ValidateAccess checks an access token and returns the principal it was issued
// to. Every non-valid credential yields [ErrUnauthorized]; cache or store
// failures yield [ErrInfrastructureUnavailable].
//
// Detecting an orphaned token, one whose refresh session is gone, blacklists its
// id as a side effect.
func (e *Engine) ValidateAccess(ctx context.Context, token string) (*Principal, error) {
	_, rec, err := e.validateAccess(ctx, token)
	if err != nil {
		return nil, err
	}
	return principalFromRecord(rec), nil
}

func (e *Engine) validateAccess(ctx context.Context, token string) (*jwt.AccessClaims, identity.Record, error) {
	if !e.ready() {
		return nil, identity.Record{}, ErrEngineNotReady
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
		defer func() { e.metrics.Observe(MetricValidateLatency, time.Since(start)) }()
	}

	res := flows.RunValidateAccess(ctx, token, e.flows.Token)
	e.recordValidation(ctx, res)

	if res.Failure != flows.FailureNone {
		err := e.failureError(res.Failure, res.Err)
		var subjectID string
		if res.Claims != nil {
			subjectID = res.Claims.SubjectID
		}
		e.emitAudit(ctx, auditEventAccessRejected, false, subjectID, "", err, nil)
		return nil, identity.Record{}, err
	}

	rec, err := e.loadPrincipal(ctx, res.Claims.SubjectID)
	if err != nil {
		e.emitAudit(ctx, auditEventAccessRejected, false, res.Claims.SubjectID, "", err, nil)
		return nil, identity.Record{}, err
	}
	return res.Claims, rec, nil
}

func (e *Engine) recordValidation(ctx context.Context, res flows.AccessResult) {
	switch res.State {
	case flows.StateValid:
		e.metricInc(MetricValidateSuccess)
	case flows.StateMalformed:
		e.metricInc(MetricValidateMalformed)
	case flows.StateExpired:
		e.metricInc(MetricValidateExpired)
	case flows.StateRevoked:
		e.metricInc(MetricValidateRevoked)
	case flows.StateOrphaned:
		e.metricInc(MetricValidateOrphaned)
		if res.OrphanRevokeErr != nil {
			e.logger.WarnContext(ctx, "goSession: orphaned access token could not be blacklisted",
				"subject_id", res.Claims.SubjectID,
				"error", res.OrphanRevokeErr,
			)
			return
		}
		e.metricInc(MetricOrphanRevoked)
		e.emitAudit(ctx, auditEventOrphanRevoked, true, res.Claims.SubjectID, res.Claims.TokenID, nil, nil)
	}
}

// ValidateRefresh checks a refresh token: signature, expiry and registry
// membership. The blacklist is not consulted for refresh tokens.
func (e *Engine) ValidateRefresh(ctx context.Context, token string) (*jwt.RefreshClaims, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	res := flows.RunValidateRefresh(ctx, token, e.flows.Token)
	if res.Failure != flows.FailureNone {
		return nil, e.failureError(res.Failure, res.Err)
	}
	return res.Claims, nil
}

// RotateByRefresh consumes a valid refresh token and returns a brand-new pair.
// The presented refresh token stops working immediately and access tokens
// linked to it become orphaned.
func (e *Engine) RotateByRefresh(ctx context.Context, token string) (TokenPair, error) {
	claims, err := e.ValidateRefresh(ctx, token)
	if err != nil {
		e.metricInc(MetricRotateRefreshFailure)
		e.emitAudit(ctx, auditEventRotateRefresh, false, "", "", err, nil)
		return TokenPair{}, err
	}

	rec, err := e.loadPrincipal(ctx, claims.SubjectID)
	if err != nil {
		e.metricInc(MetricRotateRefreshFailure)
		e.emitAudit(ctx, auditEventRotateRefresh, false, claims.SubjectID, claims.TokenID, err, nil)
		return TokenPair{}, err
	}

	res := flows.RunRotateByRefresh(ctx, claims, subjectFromRecord(rec), e.flows.Token)
	if res.Failure != flows.FailureNone {
		err := e.failureError(res.Failure, res.Err)
		e.metricInc(MetricRotateRefreshFailure)
		e.emitAudit(ctx, auditEventRotateRefresh, false, claims.SubjectID, claims.TokenID, err, nil)
		return TokenPair{}, err
	}

	e.metricInc(MetricRotateRefreshSuccess)
	e.metricInc(MetricTokenPairIssued)
	e.emitAudit(ctx, auditEventRotateRefresh, true, claims.SubjectID, claims.TokenID, nil, func() map[string]string {
		return map[string]string{"new_refresh_id": res.RefreshID}
	})
	return TokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}, nil
}

// RotateByAccess consumes a valid access token: the token is blacklisted, its
// refresh session is dropped and a brand-new pair is returned.
//
// Validation and consumption are separate cache calls. Concurrent calls with the
// same token can all pass validation before any of them blacklists it, and each
// then opens its own session. Every such session is independent and is ended
// by RevokeAll like any other.
func (e *Engine) RotateByAccess(ctx context.Context, token string) (TokenPair, error) {
	claims, rec, err := e.validateAccess(ctx, token)
	if err != nil {
		e.metricInc(MetricRotateAccessFailure)
		return TokenPair{}, err
	}

	res := flows.RunRotateByAccess(ctx, claims, subjectFromRecord(rec), e.flows.Token)
	if res.Failure != flows.FailureNone {
		err := e.failureError(res.Failure, res.Err)
		e.metricInc(MetricRotateAccessFailure)
		e.emitAudit(ctx, auditEventRotateAccess, false, claims.SubjectID, claims.TokenID, err, nil)
		return TokenPair{}, err
	}

	e.metricInc(MetricRotateAccessSuccess)
	e.metricInc(MetricTokenPairIssued)
	e.emitAudit(ctx, auditEventRotateAccess, true, claims.SubjectID, claims.TokenID, nil, func() map[string]string {
		return map[string]string{"new_refresh_id": res.RefreshID}
	})
	return TokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}, nil
}

// RevokeCurrent logs out the session behind a valid access token. Other
// sessions of the same principal keep working.
func (e *Engine) RevokeCurrent(ctx context.Context, token string) error {
	claims, _, err := e.validateAccess(ctx, token)
	if err != nil {
		return err
	}

	res := flows.RunRevokeCurrent(ctx, claims, e.flows.Token)
	if res.Failure != flows.FailureNone {
		err := e.failureError(res.Failure, res.Err)
		e.emitAudit(ctx, auditEventLogoutSession, false, claims.SubjectID, claims.TokenID, err, nil)
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogoutSession, true, claims.SubjectID, claims.TokenID, nil, nil)
	return nil
}

// RevokeAll logs out every session of the principal behind a valid access
// token. The presented token is blacklisted now; other access tokens are
// rejected as orphaned on their next use.
func (e *Engine) RevokeAll(ctx context.Context, token string) error {
	claims, _, err := e.validateAccess(ctx, token)
	if err != nil {
		return err
	}

	res := flows.RunRevokeAll(ctx, claims, e.flows.Token)
	if res.Failure != flows.FailureNone {
		err := e.failureError(res.Failure, res.Err)
		e.emitAudit(ctx, auditEventLogoutAll, false, claims.SubjectID, claims.TokenID, err, nil)
		return err
	}

	e.metricInc(MetricLogoutAll)
	e.emitAudit(ctx, auditEventLogoutAll, true, claims.SubjectID, claims.TokenID, nil, nil)
	return nil
}
