package goSession

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/internal/flows"
)

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	RedisAvailable    bool
	RedisLatency      time.Duration
	IdentityAvailable bool
}

type latencyPinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

type identityPinger interface {
	Ping(ctx context.Context) error
}

// ActiveSessionCount returns how many refresh sessions subjectID currently holds.
func (e *Engine) ActiveSessionCount(ctx context.Context, subjectID string) (int, error) {
	ids, err := e.ActiveRefreshIDs(ctx, subjectID)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// ActiveRefreshIDs lists the live refresh token ids of subjectID. The ids are
// opaque and carry no token material.
func (e *Engine) ActiveRefreshIDs(ctx context.Context, subjectID string) ([]string, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if subjectID == "" {
		return nil, nil
	}

	ids, failure, err := flows.RunListSessions(ctx, subjectID, e.flows.Token)
	if failure != flows.FailureNone {
		return nil, e.failureError(failure, err)
	}
	return ids, nil
}

// Health pings the refresh registry and the identity store when they support it.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if !e.ready() {
		return HealthStatus{}
	}

	var status HealthStatus
	if p, ok := e.registry.(latencyPinger); ok {
		latency, err := p.Ping(ctx)
		status.RedisAvailable = err == nil
		status.RedisLatency = latency
	}
	if p, ok := e.identity.(identityPinger); ok {
		status.IdentityAvailable = p.Ping(ctx) == nil
	} else {
		status.IdentityAvailable = true
	}
	return status
}

// LoginAttempts returns the failed-login counter for username. It is zero when
// throttling is disabled.
func (e *Engine) LoginAttempts(ctx context.Context, username string) (int, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}
	if e.limiter == nil || username == "" {
		return 0, nil
	}
	n, err := e.limiter.LoginAttempts(ctx, username)
	if err != nil {
		return 0, e.failureError(flows.FailureUnavailable, err)
	}
	return n, nil
}
