package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every engine counter in export order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricTokenPairIssued, Name: "gosession_token_pair_issued_total", Help: "Issued access/refresh pairs."},
	{ID: goSession.MetricValidateSuccess, Name: "gosession_validate_success_total", Help: "Access tokens accepted."},
	{ID: goSession.MetricValidateMalformed, Name: "gosession_validate_malformed_total", Help: "Access tokens rejected as malformed."},
	{ID: goSession.MetricValidateExpired, Name: "gosession_validate_expired_total", Help: "Access tokens rejected as expired."},
	{ID: goSession.MetricValidateRevoked, Name: "gosession_validate_revoked_total", Help: "Access tokens rejected as blacklisted."},
	{ID: goSession.MetricValidateOrphaned, Name: "gosession_validate_orphaned_total", Help: "Access tokens rejected because their refresh session is gone."},
	{ID: goSession.MetricOrphanRevoked, Name: "gosession_orphan_revoked_total", Help: "Orphaned access tokens written to the blacklist."},
	{ID: goSession.MetricRotateRefreshSuccess, Name: "gosession_rotate_refresh_success_total", Help: "Successful refresh-token rotations."},
	{ID: goSession.MetricRotateRefreshFailure, Name: "gosession_rotate_refresh_failure_total", Help: "Failed refresh-token rotations."},
	{ID: goSession.MetricRotateAccessSuccess, Name: "gosession_rotate_access_success_total", Help: "Successful access-token rotations."},
	{ID: goSession.MetricRotateAccessFailure, Name: "gosession_rotate_access_failure_total", Help: "Failed access-token rotations."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Single-session logout operations."},
	{ID: goSession.MetricLogoutAll, Name: "gosession_logout_all_total", Help: "Logout-all operations."},
	{ID: goSession.MetricIdentityUpdated, Name: "gosession_identity_updated_total", Help: "Profile updates."},
	{ID: goSession.MetricRegisterSuccess, Name: "gosession_register_success_total", Help: "Successful registrations."},
	{ID: goSession.MetricRegisterConflict, Name: "gosession_register_conflict_total", Help: "Registrations rejected for a taken username."},
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Successful login attempts."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Failed login attempts."},
	{ID: goSession.MetricLoginRateLimited, Name: "gosession_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: goSession.MetricInfrastructureError, Name: "gosession_infrastructure_error_total", Help: "Operations aborted by a cache or identity store failure."},
}

// HistogramDefs lists every engine histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricValidateLatency, Name: "gosession_validate_latency_seconds", Help: "Access token validation latency."},
}

// AuditDroppedName and AuditDroppedHelp describe the dispatcher drop counter.
const (
	AuditDroppedName = "gosession_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// BucketCount is the number of latency buckets including +Inf.
const BucketCount = len(goSession.HistogramBounds) + 1

// HistogramBoundSuffix names each bucket for exporters that flatten buckets
// into separate instruments.
var HistogramBoundSuffix = [BucketCount]string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// UpperBoundsSeconds returns the finite bucket bounds in seconds.
func UpperBoundsSeconds() []float64 {
	out := make([]float64, len(goSession.HistogramBounds))
	for i, b := range goSession.HistogramBounds {
		out[i] = b.Seconds()
	}
	return out
}

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
