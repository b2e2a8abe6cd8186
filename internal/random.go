package internal

import (
	"crypto/rand"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewTokenID returns a random 128-bit identifier used as a token jti.
func NewTokenID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewPrincipalID returns a lexically time-ordered identifier for a new principal.
func NewPrincipalID(now time.Time) (string, error) {
	return newPrincipalIDFrom(now, rand.Reader)
}

func newPrincipalIDFrom(now time.Time, entropy io.Reader) (string, error) {
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
