package flows

// State is the validator's internal view of a presented credential.
type State int

const (
	// StateUnknown means evaluation stopped before a verdict, for example
	// because a cache call failed.
	StateUnknown State = iota
	StateValid
	StateMalformed
	StateRevoked
	StateExpired
	// StateOrphaned: not expired, not revoked, but the linked refresh id is gone.
	StateOrphaned
)

func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateMalformed:
		return "malformed"
	case StateRevoked:
		return "revoked"
	case StateExpired:
		return "expired"
	case StateOrphaned:
		return "orphaned"
	default:
		return "unknown"
	}
}

// Failure classifies flow failures for root-level mapping.
type Failure int

const (
	FailureNone Failure = iota
	// FailureUnauthorized covers every non-valid credential state and a missing principal.
	FailureUnauthorized
	// FailureUnavailable is a cache or identity store I/O failure.
	FailureUnavailable
	// FailureIssue is a local failure while minting a credential.
	FailureIssue
	FailureInvalidCredentials
	FailureRateLimited
	FailureConflict
	FailureInvalidInput
)
