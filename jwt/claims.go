package jwt

import (
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

// Kind tags the two credential shapes carried on the wire as the "type" claim.
type Kind string

const (
	// KindAccess marks short-lived access credentials.
	KindAccess Kind = "access"
	// KindRefresh marks long-lived refresh credentials.
	KindRefresh Kind = "refresh"
)

// Claims is the closed set of decoded claim records. The only implementations are
// [*AccessClaims] and [*RefreshClaims]; callers type-switch on the concrete value.
type Claims interface {
	Kind() Kind
	isClaims()
}

// AccessClaims is the decoded payload of an access token.
type AccessClaims struct {
	SubjectID string
	Username  string
	Email     string
	TokenID   string
	// RefreshID links the access token to the refresh session it was issued under.
	RefreshID string
	ExpiresAt time.Time
	IssuedAt  time.Time
	// CreatedAt is the principal creation time, carried for display purposes.
	CreatedAt time.Time
}

// Kind returns [KindAccess].
func (*AccessClaims) Kind() Kind { return KindAccess }

func (*AccessClaims) isClaims() {}

// Expired reports whether the token is expired at now. The boundary is exclusive:
// a token is valid only while now is strictly before ExpiresAt.
func (c *AccessClaims) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// RefreshClaims is the decoded payload of a refresh token.
type RefreshClaims struct {
	SubjectID string
	TokenID   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Kind returns [KindRefresh].
func (*RefreshClaims) Kind() Kind { return KindRefresh }

func (*RefreshClaims) isClaims() {}

// Expired reports whether the token is expired at now (exclusive boundary).
func (c *RefreshClaims) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// wireClaims is the JSON shape shared by both token kinds. Field names follow the
// established token format consumed by existing clients.
type wireClaims struct {
	Type      Kind   `json:"type"`
	UserID    string `json:"user_uuid"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	RefreshID string `json:"refresh_uuid,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
	gjwt.RegisteredClaims
}

func accessToWire(c AccessClaims, issuer string) wireClaims {
	w := wireClaims{
		Type:      KindAccess,
		UserID:    c.SubjectID,
		Username:  c.Username,
		Email:     c.Email,
		RefreshID: c.RefreshID,
		RegisteredClaims: gjwt.RegisteredClaims{
			ID:        c.TokenID,
			Issuer:    issuer,
			ExpiresAt: gjwt.NewNumericDate(c.ExpiresAt),
		},
	}
	if !c.IssuedAt.IsZero() {
		w.IssuedAt = gjwt.NewNumericDate(c.IssuedAt)
	}
	if !c.CreatedAt.IsZero() {
		w.CreatedAt = c.CreatedAt.Unix()
	}
	return w
}

func refreshToWire(c RefreshClaims, issuer string) wireClaims {
	w := wireClaims{
		Type:   KindRefresh,
		UserID: c.SubjectID,
		RegisteredClaims: gjwt.RegisteredClaims{
			ID:        c.TokenID,
			Issuer:    issuer,
			ExpiresAt: gjwt.NewNumericDate(c.ExpiresAt),
		},
	}
	if !c.IssuedAt.IsZero() {
		w.IssuedAt = gjwt.NewNumericDate(c.IssuedAt)
	}
	return w
}

func (w *wireClaims) toClaims() (Claims, error) {
	if w.ID == "" || w.UserID == "" || w.ExpiresAt == nil {
		return nil, errMissingClaims
	}

	var issuedAt time.Time
	if w.IssuedAt != nil {
		issuedAt = w.IssuedAt.Time
	}

	switch w.Type {
	case KindAccess:
		if w.RefreshID == "" {
			return nil, errMissingClaims
		}
		c := &AccessClaims{
			SubjectID: w.UserID,
			Username:  w.Username,
			Email:     w.Email,
			TokenID:   w.ID,
			RefreshID: w.RefreshID,
			ExpiresAt: w.ExpiresAt.Time,
			IssuedAt:  issuedAt,
		}
		if w.CreatedAt != 0 {
			c.CreatedAt = time.Unix(w.CreatedAt, 0).UTC()
		}
		return c, nil
	case KindRefresh:
		return &RefreshClaims{
			SubjectID: w.UserID,
			TokenID:   w.ID,
			ExpiresAt: w.ExpiresAt.Time,
			IssuedAt:  issuedAt,
		}, nil
	default:
		return nil, errUnknownKind
	}
}
