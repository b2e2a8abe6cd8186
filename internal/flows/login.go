package flows

import (
	"context"
	"errors"
)

// LoginRecord is the flow-local view of a principal during login.
type LoginRecord struct {
	Subject      Subject
	PasswordHash string
	Active       bool
}

// LoginLimiter throttles failed logins. A nil limiter disables throttling.
type LoginLimiter interface {
	CheckLogin(ctx context.Context, username, ip string) error
	IncrementLogin(ctx context.Context, username, ip string) error
	ResetLogin(ctx context.Context, username, ip string) error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	FindByUsername func(context.Context, string) (LoginRecord, error)
	VerifyPassword func(password, encodedHash string) (bool, error)
	// DummyHash is verified when the username is unknown so that both paths cost
	// one hash computation.
	DummyHash string
	Limiter   LoginLimiter
	Warn      func(string, ...any)

	// NotFound is the identity lookup sentinel for an unknown username.
	NotFound error
	// RateLimited is the limiter sentinel for a spent budget.
	RateLimited error
}

// LoginResult carries the authenticated subject or failure metadata.
type LoginResult struct {
	Failure Failure
	Err     error
	Subject Subject
}

// RunLogin authenticates username and password. Unknown usernames, wrong passwords
// and inactive principals all produce FailureInvalidCredentials.
func RunLogin(ctx context.Context, username, password, ip string, deps LoginDeps) LoginResult {
	if username == "" || password == "" {
		return LoginResult{Failure: FailureInvalidCredentials}
	}

	if deps.Limiter != nil {
		if err := deps.Limiter.CheckLogin(ctx, username, ip); err != nil {
			if deps.RateLimited != nil && errors.Is(err, deps.RateLimited) {
				return LoginResult{Failure: FailureRateLimited, Err: err}
			}
			return LoginResult{Failure: FailureUnavailable, Err: err}
		}
	}

	rec, err := deps.FindByUsername(ctx, username)
	if err != nil {
		if deps.NotFound == nil || !errors.Is(err, deps.NotFound) {
			return LoginResult{Failure: FailureUnavailable, Err: err}
		}
		if deps.DummyHash != "" {
			_, _ = deps.VerifyPassword(password, deps.DummyHash)
		}
		return recordLoginFailure(ctx, username, ip, deps)
	}

	ok, err := deps.VerifyPassword(password, rec.PasswordHash)
	if err != nil {
		warn(deps.Warn, "goSession: stored password hash rejected by verifier", "subject_id", rec.Subject.ID)
		return recordLoginFailure(ctx, username, ip, deps)
	}
	if !ok || !rec.Active {
		res := recordLoginFailure(ctx, username, ip, deps)
		res.Subject = Subject{ID: rec.Subject.ID}
		return res
	}

	if deps.Limiter != nil {
		if err := deps.Limiter.ResetLogin(ctx, username, ip); err != nil {
			warn(deps.Warn, "goSession: login limiter reset failed", "error", err)
		}
	}

	return LoginResult{Subject: rec.Subject}
}

func recordLoginFailure(ctx context.Context, username, ip string, deps LoginDeps) LoginResult {
	if deps.Limiter != nil {
		if err := deps.Limiter.IncrementLogin(ctx, username, ip); err != nil {
			if deps.RateLimited != nil && errors.Is(err, deps.RateLimited) {
				return LoginResult{Failure: FailureRateLimited, Err: err}
			}
			warn(deps.Warn, "goSession: login limiter increment failed", "error", err)
		}
	}
	return LoginResult{Failure: FailureInvalidCredentials}
}

func warn(fn func(string, ...any), msg string, args ...any) {
	if fn != nil {
		fn(msg, args...)
	}
}
