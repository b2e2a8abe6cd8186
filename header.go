package goSession

import (
	"context"
	"strings"
)

// Recognised credential schemes of the Authorization header.
const (
	SchemeBearer = "Bearer"
	SchemeJWT    = "JWT"
)

// CredentialFromHeader extracts the token from a "<scheme> <token>" header value.
// Only the Bearer and JWT schemes are accepted, case-sensitively. Any other
// shape returns ok=false and must be treated as malformed.
func CredentialFromHeader(header string) (token string, ok bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", false
	}
	switch parts[0] {
	case SchemeBearer, SchemeJWT:
		return parts[1], true
	default:
		return "", false
	}
}

// Authenticate parses an Authorization header value and validates the access
// token it carries. A missing or malformed header is [ErrUnauthorized].
func (e *Engine) Authenticate(ctx context.Context, header string) (*Principal, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	token, ok := CredentialFromHeader(header)
	if !ok {
		e.metricInc(MetricValidateMalformed)
		e.emitAudit(ctx, auditEventAccessRejected, false, "", "", ErrUnauthorized, nil)
		return nil, ErrUnauthorized
	}
	return e.ValidateAccess(ctx, token)
}
