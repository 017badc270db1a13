// Package notify manages the lifecycle of user-facing notifications: scoping
// to the focused session, rendering, and expiry.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/hauslink/internal/clock"
	"github.com/ashureev/hauslink/internal/domain"
	"github.com/google/uuid"
)

// DefaultTTL is how long a non-sticky notification stays visible.
const DefaultTTL = 5 * time.Second

// Renderer shows and removes notifications.
type Renderer interface {
	RenderNotification(n domain.Notification)
	RemoveNotification(id string)
}

// Options configures a Manager.
type Options struct {
	Renderer Renderer
	Clock    clock.Clock
	TTL      time.Duration
	Logger   *slog.Logger
	// NewID generates notification IDs; uuid.NewString when nil.
	NewID func() string
}

type entry struct {
	n     domain.Notification
	timer clock.Timer
}

// Manager owns the active notifications. Each one is shown at most once and
// removed at most once.
type Manager struct {
	renderer Renderer
	clock    clock.Clock
	ttl      time.Duration
	logger   *slog.Logger
	newID    func() string

	mu      sync.Mutex
	focused string
	active  map[string]*entry
	order   []string
	closed  bool
}

// New creates a Manager.
func New(opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Manager{
		renderer: opts.Renderer,
		clock:    opts.Clock,
		ttl:      opts.TTL,
		logger:   opts.Logger,
		newID:    opts.NewID,
		active:   make(map[string]*entry),
	}
}

// Focus sets the session the user is looking at. An empty ID clears focus.
func (m *Manager) Focus(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focused = sessionID
}

// Focused returns the focused session ID, or "" when none.
func (m *Manager) Focused() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focused
}

// OnNotification renders a notification message. Messages scoped to a session
// other than the focused one are dropped; with no focus every message renders.
// Non-sticky notifications are removed after the TTL.
func (m *Manager) OnNotification(msg domain.Message) {
	payload, ok := msg.NotificationPayload()
	if !ok {
		m.logger.Debug("Dropping malformed notification", "session_id", msg.SessionID)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	if m.focused != "" && msg.SessionID != "" && msg.SessionID != m.focused {
		m.logger.Debug("Dropping notification for unfocused session",
			"session_id", msg.SessionID, "focused", m.focused, "type", payload.Type)
		return
	}

	n := domain.Notification{
		ID:        m.newID(),
		Type:      payload.Type,
		Message:   payload.Message,
		SessionID: msg.SessionID,
		Sticky:    domain.IsSticky(payload.Type),
		CreatedAt: m.clock.Now(),
	}
	e := &entry{n: n}
	m.active[n.ID] = e
	m.order = append(m.order, n.ID)
	m.renderer.RenderNotification(n)

	if !n.Sticky {
		id := n.ID
		e.timer = m.clock.AfterFunc(m.ttl, func() { m.expire(id) })
	}
}

// Dismiss removes a notification immediately. Unknown or already removed IDs are ignored.
func (m *Manager) Dismiss(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(id)
}

// Active returns the visible notifications, oldest first.
func (m *Manager) Active() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Notification, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.active[id].n)
	}
	return out
}

// Close stops every expiry timer. Notifications already shown stay shown.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for _, e := range m.active {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
}

func (m *Manager) expire(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.removeLocked(id)
}

func (m *Manager) removeLocked(id string) bool {
	e, ok := m.active[id]
	if !ok {
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(m.active, id)
	for i, other := range m.order {
		if other == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.renderer.RemoveNotification(id)
	return true
}
