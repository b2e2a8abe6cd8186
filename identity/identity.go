// Package identity defines the principal record and the store contract consumed by
// the goSession engine. Adapters live in the sqlite and postgres sub-packages.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no principal matches the lookup.
	ErrNotFound = errors.New("identity not found")
	// ErrConflict is returned when a username is already taken.
	ErrConflict = errors.New("identity already exists")
	// ErrUnavailable wraps driver and connection failures.
	ErrUnavailable = errors.New("identity store unavailable")
)

// Record is a stored principal including its password hash.
type Record struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	CreatedAt     time.Time
	IsSuperuser   bool
	IsTotpEnabled bool
	IsActive      bool
}

// Update lists the fields to change. Nil fields are left untouched.
type Update struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// Empty reports whether u changes nothing.
func (u Update) Empty() bool {
	return u.Username == nil && u.Email == nil && u.PasswordHash == nil
}

// Store persists principals.
type Store interface {
	FindByID(ctx context.Context, id string) (Record, error)
	FindByUsername(ctx context.Context, username string) (Record, error)
	Create(ctx context.Context, rec Record) error
	// Update applies u and returns the resulting record. An empty update returns
	// the current record.
	Update(ctx context.Context, id string, u Update) (Record, error)
}
