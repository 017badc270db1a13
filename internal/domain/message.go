// Package domain holds the data model shared by the sync client components.
package domain

import (
	"encoding/json"
)

// MessageType tags an inbound stream message.
type MessageType string

const (
	MessageEvent            MessageType = "event"
	MessageApprovalRequest  MessageType = "approval_request"
	MessageApprovalResolved MessageType = "approval_resolved"
	MessageSessionUpdate    MessageType = "session_update"
	MessageNotification     MessageType = "notification"
)

// Message is a server-pushed frame. Only Type is required; arrival order is
// the only ordering guarantee.
type Message struct {
	Type      MessageType     `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NotificationData is the payload carried by a notification message.
type NotificationData struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NotificationPayload decodes Data as a notification payload. It reports
// false when Data is missing, is not an object, or carries neither a type
// nor a message.
func (m *Message) NotificationPayload() (NotificationData, bool) {
	var data NotificationData
	if len(m.Data) == 0 {
		return NotificationData{}, false
	}
	if err := json.Unmarshal(m.Data, &data); err != nil {
		return NotificationData{}, false
	}
	if data.Type == "" && data.Message == "" {
		return NotificationData{}, false
	}
	return data, true
}
