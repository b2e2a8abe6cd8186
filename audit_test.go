package goSession

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

type captureSink struct {
	events chan AuditEvent
}

func newCaptureSink(buffer int) *captureSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &captureSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *captureSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// next waits for the next event of eventType, skipping others.
func (s *captureSink) next(t *testing.T, eventType string) AuditEvent {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-s.events:
			if ev.EventType == eventType {
				return ev
			}
		case <-timeout:
			t.Fatalf("expected %s audit event", eventType)
			return AuditEvent{}
		}
	}
}

func withAuditSink(sink AuditSink) func(*Builder) {
	return func(b *Builder) { b.WithAuditSink(sink) }
}

func enableAudit(cfg *Config) {
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64
	cfg.Audit.DropIfFull = false
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := &countingSink{}
	h := newEngineHarness(t, func(cfg *Config) { cfg.Audit.Enabled = false }, withAuditSink(sink))
	h.register(t, "alice", "secret-pass")

	_, _ = h.engine.Login(WithClientIP(context.Background(), "203.0.113.1"), "alice", "wrong-password")
	h.engine.Close()

	if sink.Count() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.Count())
	}
}

func TestAuditLoginFailureFields(t *testing.T) {
	sink := newCaptureSink(32)
	h := newEngineHarness(t, enableAudit, withAuditSink(sink))
	p := h.register(t, "alice", "secret-pass")

	ctx := WithClientIP(context.Background(), "198.51.100.33")
	_, _ = h.engine.Login(ctx, "alice", "super-secret-password")

	ev := sink.next(t, auditEventLoginFailure)
	if ev.IP != "198.51.100.33" {
		t.Fatalf("expected IP 198.51.100.33, got %q", ev.IP)
	}
	if ev.SubjectID != p.ID {
		t.Fatalf("expected subject %s, got %q", p.ID, ev.SubjectID)
	}
	if ev.Success {
		t.Fatal("expected failed login event")
	}
	if ev.Error != string(auditErrInvalidCredentials) {
		t.Fatalf("expected coarse error code, got %q", ev.Error)
	}
	if !ev.Timestamp.Equal(h.clock().UTC()) {
		t.Fatalf("expected timestamp from engine clock, got %v", ev.Timestamp)
	}
}

func TestAuditRejectionDoesNotRevealState(t *testing.T) {
	sink := newCaptureSink(64)
	h := newEngineHarness(t, enableAudit, withAuditSink(sink))
	ctx := context.Background()
	h.register(t, "alice", "secret-pass")

	expired := h.login(t, "alice", "secret-pass")
	h.advance(15 * time.Minute)
	_, _ = h.engine.ValidateAccess(ctx, expired.AccessToken)
	expiredEvent := sink.next(t, auditEventAccessRejected)

	revoked := h.login(t, "alice", "secret-pass")
	if err := h.engine.RevokeCurrent(ctx, revoked.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, _ = h.engine.ValidateAccess(ctx, revoked.AccessToken)
	revokedEvent := sink.next(t, auditEventAccessRejected)

	if expiredEvent.Error != revokedEvent.Error || expiredEvent.Error != string(auditErrUnauthorized) {
		t.Fatalf("expected identical coarse codes, got %q and %q", expiredEvent.Error, revokedEvent.Error)
	}
}

func TestAuditOrphanRevoked(t *testing.T) {
	sink := newCaptureSink(64)
	h := newEngineHarness(t, enableAudit, withAuditSink(sink))
	ctx := context.Background()
	p := h.register(t, "alice", "secret-pass")
	pair := h.login(t, "alice", "secret-pass")

	if _, err := h.engine.RotateByRefresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	_, _ = h.engine.ValidateAccess(ctx, pair.AccessToken)

	ev := sink.next(t, auditEventOrphanRevoked)
	if ev.SubjectID != p.ID || ev.TokenID != h.accessID(t, pair.AccessToken) {
		t.Fatalf("unexpected orphan event: %+v", ev)
	}
}

func TestAuditRegisterConflict(t *testing.T) {
	sink := newCaptureSink(32)
	h := newEngineHarness(t, enableAudit, withAuditSink(sink))
	h.register(t, "alice", "secret-pass")

	_, _ = h.engine.Register(context.Background(), RegisterRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "secret-pass",
	})

	ev := sink.next(t, auditEventRegisterConflict)
	if ev.Error != string(auditErrDuplicate) {
		t.Fatalf("expected duplicate code, got %q", ev.Error)
	}
}

func TestAuditNoSecretsInEvents(t *testing.T) {
	sink := newCaptureSink(64)
	h := newEngineHarness(t, enableAudit, withAuditSink(sink))
	ctx := context.Background()

	sensitivePassword := "correct-password-123"
	p := h.register(t, "alice", sensitivePassword)
	pair := h.login(t, "alice", sensitivePassword)
	rotated, err := h.engine.RotateByRefresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	newEmail := "alice2@example.com"
	newPassword := "another-secret-456"
	_, updatedAccess, err := h.engine.UpdateIdentity(ctx, rotated.AccessToken, ProfileUpdate{Email: &newEmail, Password: &newPassword})
	if err != nil {
		t.Fatalf("update identity: %v", err)
	}
	if err := h.engine.RevokeAll(ctx, updatedAccess); err != nil {
		t.Fatalf("logout all: %v", err)
	}

	rec, err := h.store.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	h.engine.Close()

	secretNeedles := []string{
		sensitivePassword,
		newPassword,
		pair.AccessToken,
		pair.RefreshToken,
		rotated.AccessToken,
		rotated.RefreshToken,
		updatedAccess,
		rec.PasswordHash,
	}

	var events []AuditEvent
collect:
	for {
		select {
		case ev := <-sink.events:
			events = append(events, ev)
		default:
			break collect
		}
	}
	if len(events) == 0 {
		t.Fatal("expected at least one audit event")
	}

	for _, ev := range events {
		for _, needle := range secretNeedles {
			if strings.Contains(ev.Error, needle) || strings.Contains(ev.TokenID, needle) {
				t.Fatalf("sensitive value leaked in %s event", ev.EventType)
			}
			for k, v := range ev.Metadata {
				if strings.Contains(k, needle) || strings.Contains(v, needle) {
					t.Fatalf("sensitive value leaked in %s metadata", ev.EventType)
				}
			}
		}
	}
}

func TestAuditJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: auditEventLoginSuccess,
		SubjectID: "u1",
		IP:        "127.0.0.1",
		Success:   true,
	})

	if !buf.Contains("login_success") {
		t.Fatal("expected JSON log line to contain event type")
	}
	if !buf.Contains("\"u1\"") {
		t.Fatal("expected JSON log line to contain subject id")
	}
}

func TestAuditDroppedCounter(t *testing.T) {
	sink := newGateSink()
	h := newEngineHarness(t, func(cfg *Config) {
		cfg.Audit.Enabled = true
		cfg.Audit.BufferSize = 1
		cfg.Audit.DropIfFull = true
	}, withAuditSink(sink))
	defer close(sink.gate)

	for i := 0; i < 4; i++ {
		_, _ = h.engine.ValidateAccess(context.Background(), "garbage")
	}
	if h.engine.AuditDropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) Contains(v string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Contains(string(b.buf), v)
}

func newTestLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
