package domain

import "time"

// NotificationIdlePrompt is the notification subtype that waits for user input.
// It is the only sticky subtype.
const NotificationIdlePrompt = "idle_prompt"

// Notification is an ephemeral or sticky message shown to the user.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	SessionID string    `json:"session_id,omitempty"`
	Sticky    bool      `json:"sticky"`
	CreatedAt time.Time `json:"created_at"`
}

// IsSticky reports whether notifications of the given subtype persist until dismissed.
func IsSticky(notificationType string) bool {
	return notificationType == NotificationIdlePrompt
}
