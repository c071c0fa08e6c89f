package domain

// SessionState is the lifecycle state of the session gate.
type SessionState string

const (
	StateUnresolved    SessionState = "unresolved"
	StateAnonymous     SessionState = "anonymous"
	StateAuthenticated SessionState = "authenticated"
)

// SessionSnapshot is a consistent read of the gate at one instant.
type SessionSnapshot struct {
	State           SessionState `json:"state"`
	IsLoading       bool         `json:"is_loading"`
	IsAuthenticated bool         `json:"is_authenticated"`
	SessionID       string       `json:"session_id,omitempty"`
	User            *Identity    `json:"user"`
}

// RestoreOutcome records what startup rehydration found in storage.
type RestoreOutcome string

const (
	RestoreRestored  RestoreOutcome = "restored"
	RestoreEmpty     RestoreOutcome = "empty"
	RestoreDiscarded RestoreOutcome = "discarded"
	RestoreFailed    RestoreOutcome = "failed"
)
