package view

import (
	"sync"

	"github.com/ashureev/hauslink/internal/domain"
)

// AuthGate is the visible state of the credential prompt.
type AuthGate struct {
	Shown  bool   `json:"shown"`
	Reason string `json:"reason,omitempty"`
}

// State is a point-in-time copy of everything a Snapshot has been told.
type State struct {
	Status        string                `json:"status"`
	AuthGate      AuthGate              `json:"auth_gate"`
	Notifications []domain.Notification `json:"notifications"`
	Refreshes     map[domain.Topic]int  `json:"refreshes"`
}

// Snapshot is an in-memory View. It is safe for concurrent use.
type Snapshot struct {
	mu            sync.Mutex
	status        string
	gate          AuthGate
	notifications []domain.Notification
	refreshes     map[domain.Topic]int
}

// NewSnapshot returns an empty Snapshot with the DISCONNECTED status.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		status:    domain.StatusDisconnected,
		refreshes: make(map[domain.Topic]int),
	}
}

// Refresh counts a refresh of topic.
func (s *Snapshot) Refresh(topic domain.Topic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes[topic]++
}

// ShowAuthGate marks the gate shown with reason.
func (s *Snapshot) ShowAuthGate(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = AuthGate{Shown: true, Reason: reason}
}

// HideAuthGate marks the gate hidden.
func (s *Snapshot) HideAuthGate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = AuthGate{}
}

// SetStatus records the status text.
func (s *Snapshot) SetStatus(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = text
}

// RenderNotification appends n to the rendered list.
func (s *Snapshot) RenderNotification(n domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
}

// RemoveNotification drops the notification with id, if present.
func (s *Snapshot) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// Refreshes returns how many times topic was refreshed.
func (s *Snapshot) Refreshes(topic domain.Topic) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes[topic]
}

// State returns a copy of the current state.
func (s *Snapshot) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	refreshes := make(map[domain.Topic]int, len(s.refreshes))
	for k, v := range s.refreshes {
		refreshes[k] = v
	}
	return State{
		Status:        s.status,
		AuthGate:      s.gate,
		Notifications: append([]domain.Notification{}, s.notifications...),
		Refreshes:     refreshes,
	}
}
