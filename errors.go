package goSession

import "errors"

var (
	// ErrUnauthorized is returned for every credential that is not VALID:
	// malformed, expired, revoked, orphaned, or issued to a principal that no
	// longer exists. Callers cannot tell these apart.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInfrastructureUnavailable is returned when the revocation store, the
	// refresh registry or the identity store could not be reached. The
	// requested operation did not take effect.
	ErrInfrastructureUnavailable = errors.New("infrastructure unavailable")
	// ErrConflict is returned when a username is already taken.
	ErrConflict = errors.New("user with such name already exists")
	// ErrInvalidCredentials is returned by Login for an unknown username, a wrong
	// password or an inactive principal.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginRateLimited is returned once the failed-login budget is spent.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrInvalidProfile is returned for a malformed username or email.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrPasswordPolicy is returned when a password violates the length policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrTokenIssue is returned when a credential could not be minted locally.
	ErrTokenIssue = errors.New("token issue failed")
	// ErrEngineNotReady is returned by methods called on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
