package flows

import (
	"context"
	"errors"
	"time"
)

// NewPrincipal is the record handed to the identity store on registration.
type NewPrincipal struct {
	Subject
	PasswordHash string
}

// RegisterDeps captures registration dependencies.
type RegisterDeps struct {
	ValidatePassword func(string) error
	HashPassword     func(string) (string, error)
	NewPrincipalID   func(time.Time) (string, error)
	Now              func() time.Time
	Create           func(context.Context, NewPrincipal) error

	// Conflict is the identity store sentinel for a duplicate username.
	Conflict error
}

// RegisterResult carries the created subject or failure metadata.
type RegisterResult struct {
	Failure Failure
	Err     error
	Subject Subject
}

// RunRegister hashes the password, assigns a principal id and creates the record.
// Field syntax (email shape, username charset) is validated by the caller.
func RunRegister(ctx context.Context, username, email, password string, deps RegisterDeps) RegisterResult {
	if deps.ValidatePassword != nil {
		if err := deps.ValidatePassword(password); err != nil {
			return RegisterResult{Failure: FailureInvalidInput, Err: err}
		}
	}

	hash, err := deps.HashPassword(password)
	if err != nil {
		return RegisterResult{Failure: FailureIssue, Err: err}
	}

	now := deps.Now().UTC().Truncate(time.Second)
	id, err := deps.NewPrincipalID(now)
	if err != nil {
		return RegisterResult{Failure: FailureIssue, Err: err}
	}

	rec := NewPrincipal{
		Subject: Subject{
			ID:        id,
			Username:  username,
			Email:     email,
			CreatedAt: now,
		},
		PasswordHash: hash,
	}
	if err := deps.Create(ctx, rec); err != nil {
		if deps.Conflict != nil && errors.Is(err, deps.Conflict) {
			return RegisterResult{Failure: FailureConflict, Err: err}
		}
		return RegisterResult{Failure: FailureUnavailable, Err: err}
	}

	return RegisterResult{Subject: rec.Subject}
}
