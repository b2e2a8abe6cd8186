package flows

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/jwt"
)

var errCacheDown = errors.New("cache down")

type memRevocations struct {
	mu      sync.Mutex
	ids     map[string]int
	failGet bool
	failSet bool
}

func newMemRevocations() *memRevocations {
	return &memRevocations{ids: map[string]int{}}
}

func (m *memRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return false, errCacheDown
	}
	return m.ids[id] > 0, nil
}

func (m *memRevocations) Revoke(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errCacheDown
	}
	m.ids[id]++
	return nil
}

func (m *memRevocations) writes(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids[id]
}

type memRegistry struct {
	mu   sync.Mutex
	sets map[string]map[string]struct{}
	fail bool
}

func newMemRegistry() *memRegistry {
	return &memRegistry{sets: map[string]map[string]struct{}{}}
}

func (m *memRegistry) Add(_ context.Context, subject, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errCacheDown
	}
	if m.sets[subject] == nil {
		m.sets[subject] = map[string]struct{}{}
	}
	m.sets[subject][id] = struct{}{}
	return nil
}

func (m *memRegistry) Remove(_ context.Context, subject, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errCacheDown
	}
	delete(m.sets[subject], id)
	return nil
}

func (m *memRegistry) Contains(_ context.Context, subject, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return false, errCacheDown
	}
	_, ok := m.sets[subject][id]
	return ok, nil
}

func (m *memRegistry) Members(_ context.Context, subject string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, errCacheDown
	}
	out := make([]string, 0, len(m.sets[subject]))
	for id := range m.sets[subject] {
		out = append(out, id)
	}
	return out, nil
}

func (m *memRegistry) Clear(_ context.Context, subject string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errCacheDown
	}
	delete(m.sets, subject)
	return nil
}

type tokenHarness struct {
	deps TokenDeps
	rev  *memRevocations
	reg  *memRegistry
	now  time.Time
}

func newTokenHarness(t *testing.T) *tokenHarness {
	t.Helper()
	codec, err := jwt.NewCodec(jwt.Config{Secret: []byte("flows-test-secret-flows-test-secret")})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	h := &tokenHarness{
		rev: newMemRevocations(),
		reg: newMemRegistry(),
		now: time.Unix(1_700_000_000, 0),
	}
	var seq int
	h.deps = TokenDeps{
		DecodeAccess:  codec.DecodeAccess,
		DecodeRefresh: codec.DecodeRefresh,
		EncodeAccess:  codec.EncodeAccess,
		EncodeRefresh: codec.EncodeRefresh,
		NewTokenID: func() (string, error) {
			seq++
			return fmt.Sprintf("id-%d", seq), nil
		},
		Now:         func() time.Time { return h.now },
		AccessTTL:   15 * time.Minute,
		RefreshTTL:  30 * 24 * time.Hour,
		Revocations: h.rev,
		Registry:    h.reg,
	}
	return h
}

func (h *tokenHarness) issue(t *testing.T, subjectID string) IssueResult {
	t.Helper()
	res := RunIssue(context.Background(), Subject{ID: subjectID, Username: "user-" + subjectID}, h.deps)
	if res.Failure != FailureNone {
		t.Fatalf("issue: failure=%d err=%v", res.Failure, res.Err)
	}
	return res
}
