package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/jwt"
)

// Deps groups flow dependency sets. The root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Token    TokenDeps
	Login    LoginDeps
	Register RegisterDeps
}

// RevocationStore is the blacklist of access token ids.
type RevocationStore interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string) error
}

// RefreshRegistry is the per-subject set of live refresh token ids.
type RefreshRegistry interface {
	Add(ctx context.Context, subjectID, refreshID string) error
	Remove(ctx context.Context, subjectID, refreshID string) error
	Contains(ctx context.Context, subjectID, refreshID string) (bool, error)
	Members(ctx context.Context, subjectID string) ([]string, error)
	Clear(ctx context.Context, subjectID string) error
}

// TokenDeps captures everything needed to mint, check and retire credentials.
type TokenDeps struct {
	DecodeAccess  func(string) (*jwt.AccessClaims, error)
	DecodeRefresh func(string) (*jwt.RefreshClaims, error)
	EncodeAccess  func(jwt.AccessClaims) (string, error)
	EncodeRefresh func(jwt.RefreshClaims) (string, error)
	NewTokenID    func() (string, error)
	Now           func() time.Time
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Revocations   RevocationStore
	Registry      RefreshRegistry
}

// Subject is the projection of a principal that is embedded in credentials.
type Subject struct {
	ID        string
	Username  string
	Email     string
	CreatedAt time.Time
}
