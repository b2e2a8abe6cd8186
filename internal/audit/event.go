package audit

import "time"

// Event is one audit record. It never carries token strings or passwords.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	SubjectID string    `json:"subject_id,omitempty"`
	// TokenID is the jti of the credential the event concerns, when there is one.
	TokenID  string            `json:"token_id,omitempty"`
	IP       string            `json:"ip,omitempty"`
	Success  bool              `json:"success"`
	Error    string            `json:"error,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
