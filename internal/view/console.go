package view

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/hauslink/internal/domain"
)

const defaultFetchTimeout = 10 * time.Second

// FetchFunc reloads the data behind a topic.
type FetchFunc func(ctx context.Context) error

// Console renders to a structured logger. Refreshes run the topic's fetch
// hook in the background; overlapping fetches for one topic are allowed.
type Console struct {
	logger  *slog.Logger
	hooks   map[domain.Topic]FetchFunc
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewConsole creates a Console. A whole-body refresh without its own hook runs every hook.
func NewConsole(logger *slog.Logger, hooks map[domain.Topic]FetchFunc) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Console{
		logger:  logger,
		hooks:   hooks,
		timeout: defaultFetchTimeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Refresh logs the topic and starts its fetch hook.
func (c *Console) Refresh(topic domain.Topic) {
	c.logger.Debug("Refresh", "topic", topic)

	if hook, ok := c.hooks[topic]; ok {
		c.fetch(topic, hook)
		return
	}
	if topic == domain.TopicWholeBody {
		for t, hook := range c.hooks {
			c.fetch(t, hook)
		}
	}
}

func (c *Console) fetch(topic domain.Topic, hook FetchFunc) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
		defer cancel()
		if err := hook(ctx); err != nil {
			c.logger.Warn("Refresh failed", "topic", topic, "error", err)
		}
	}()
}

// ShowAuthGate logs that a login is required.
func (c *Console) ShowAuthGate(reason string) {
	if reason == "" {
		c.logger.Info("Login required")
		return
	}
	c.logger.Warn("Login required", "reason", reason)
}

// HideAuthGate logs at debug level.
func (c *Console) HideAuthGate() {
	c.logger.Debug("Auth gate hidden")
}

// SetStatus logs the connection status.
func (c *Console) SetStatus(text string) {
	c.logger.Info("Status", "status", text)
}

// RenderNotification logs the notification.
func (c *Console) RenderNotification(n domain.Notification) {
	c.logger.Info("Notification",
		"id", n.ID,
		"type", n.Type,
		"message", n.Message,
		"session_id", n.SessionID,
		"sticky", n.Sticky,
	)
}

// RemoveNotification logs at debug level.
func (c *Console) RemoveNotification(id string) {
	c.logger.Debug("Notification removed", "id", id)
}

// Close cancels running fetches and waits for them to return. Refreshes
// after Close are ignored.
func (c *Console) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}
