// Package view defines the rendering capability the sync core drives and a few
// implementations of it.
package view

import "github.com/ashureev/hauslink/internal/domain"

// View is the UI collaborator. Calls may arrive from the connection manager
// with its lock held, so implementations must not call back into the core.
type View interface {
	Refresh(topic domain.Topic)
	ShowAuthGate(reason string)
	HideAuthGate()
	SetStatus(text string)
	RenderNotification(n domain.Notification)
	RemoveNotification(id string)
}

// Multi fans every call out to each view in order.
type Multi []View

// Refresh forwards to every view in order.
func (m Multi) Refresh(topic domain.Topic) {
	for _, v := range m {
		v.Refresh(topic)
	}
}

// ShowAuthGate forwards to every view in order.
func (m Multi) ShowAuthGate(reason string) {
	for _, v := range m {
		v.ShowAuthGate(reason)
	}
}

// HideAuthGate forwards to every view in order.
func (m Multi) HideAuthGate() {
	for _, v := range m {
		v.HideAuthGate()
	}
}

// SetStatus forwards to every view in order.
func (m Multi) SetStatus(text string) {
	for _, v := range m {
		v.SetStatus(text)
	}
}

// RenderNotification forwards to every view in order.
func (m Multi) RenderNotification(n domain.Notification) {
	for _, v := range m {
		v.RenderNotification(n)
	}
}

// RemoveNotification forwards to every view in order.
func (m Multi) RemoveNotification(id string) {
	for _, v := range m {
		v.RemoveNotification(id)
	}
}
