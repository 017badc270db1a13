package domain

import (
	"time"
)

// SessionStatus is the lifecycle status the dashboard server reports for a session.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionIdle   SessionStatus = "idle"
	SessionEnded  SessionStatus = "ended"
)

// Session is one monitored agent session as listed by the dashboard server.
type Session struct {
	ID           string        `json:"id"`
	ProjectDir   string        `json:"project_dir"`
	Nickname     string        `json:"nickname"`
	Status       SessionStatus `json:"status"`
	StartedAt    time.Time     `json:"started_at"`
	LastEventAt  time.Time     `json:"last_event_at"`
	HasPending   bool          `json:"has_pending"`
	PendingCount int           `json:"pending_count"`
}

// DisplayName returns the nickname, falling back to the session ID.
func (s *Session) DisplayName() string {
	if s.Nickname != "" {
		return s.Nickname
	}
	return s.ID
}
