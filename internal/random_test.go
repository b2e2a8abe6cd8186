package internal

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

func TestNewTokenIDIsUniqueUUIDv4(t *testing.T) {
	seen := make(map[string]struct{}, 256)
	for i := 0; i < 256; i++ {
		id, err := NewTokenID()
		if err != nil {
			t.Fatalf("new token id: %v", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			t.Fatalf("parse %q: %v", id, err)
		}
		if parsed.Version() != 4 {
			t.Fatalf("expected v4 uuid, got v%d", parsed.Version())
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate token id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestNewPrincipalIDCarriesTimestamp(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_123)
	id, err := NewPrincipalID(now)
	if err != nil {
		t.Fatalf("new principal id: %v", err)
	}
	parsed, err := ulid.Parse(id)
	if err != nil {
		t.Fatalf("parse %q: %v", id, err)
	}
	if parsed.Time() != ulid.Timestamp(now) {
		t.Fatalf("expected timestamp %d, got %d", ulid.Timestamp(now), parsed.Time())
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestNewPrincipalIDEntropyFailure(t *testing.T) {
	if _, err := newPrincipalIDFrom(time.Now(), failingReader{}); err == nil {
		t.Fatal("expected entropy failure to surface")
	}
	if _, err := newPrincipalIDFrom(time.Now(), bytes.NewReader(make([]byte, 16))); err != nil {
		t.Fatalf("expected deterministic entropy to work: %v", err)
	}
}
