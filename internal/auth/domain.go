package auth

import "time"

// LoginResult is the principal returned by the recruitment backend.
type LoginResult struct {
	Token string   `json:"token"`
	ID    int64    `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// SessionEvent names a session lifecycle transition.
type SessionEvent string

const (
	// EventLogin marks a password login.
	EventLogin SessionEvent = "login"
	// EventResume marks a session restored from a bearer token.
	EventResume SessionEvent = "resume"
	// EventLogout marks an explicit logout.
	EventLogout SessionEvent = "logout"
)

// AuditEvent records one session lifecycle transition.
type AuditEvent struct {
	SessionID string       `json:"session_id"`
	UserID    int64        `json:"user_id"`
	Event     SessionEvent `json:"event"`
	IP        string       `json:"ip"`
	UserAgent string       `json:"user_agent"`
	At        time.Time    `json:"at"`
}
