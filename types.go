package goSession

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/identity"
)

// Principal is an authenticated subject as seen by callers. It never carries the
// password hash.
type Principal struct {
	ID            string
	Username      string
	Email         string
	CreatedAt     time.Time
	IsSuperuser   bool
	IsTotpEnabled bool
	IsActive      bool
}

// TokenPair is an access token and the refresh token it is linked to.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterRequest is the input for [Engine.Register].
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// ProfileUpdate is the input for [Engine.UpdateIdentity]. A nil or empty field
// leaves the stored value unchanged.
type ProfileUpdate struct {
	Username *string
	Email    *string
	Password *string
}

// IdentityStore persists principals. The identity/sqlite and identity/postgres
// packages provide implementations.
type IdentityStore = identity.Store

// RevocationStore is the blacklist of access token ids. Entries are never
// removed by the engine; a TTL may expire them once every token they could
// match has expired. The session package provides the Redis implementation.
type RevocationStore interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string) error
}

// RefreshRegistry is the per-subject set of live refresh token ids. The session
// package provides the Redis implementation.
type RefreshRegistry interface {
	Add(ctx context.Context, subjectID, refreshID string) error
	Remove(ctx context.Context, subjectID, refreshID string) error
	Contains(ctx context.Context, subjectID, refreshID string) (bool, error)
	Members(ctx context.Context, subjectID string) ([]string, error)
	Clear(ctx context.Context, subjectID string) error
}

func principalFromRecord(rec identity.Record) *Principal {
	return &Principal{
		ID:            rec.ID,
		Username:      rec.Username,
		Email:         rec.Email,
		CreatedAt:     rec.CreatedAt,
		IsSuperuser:   rec.IsSuperuser,
		IsTotpEnabled: rec.IsTotpEnabled,
		IsActive:      rec.IsActive,
	}
}
