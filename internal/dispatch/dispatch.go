// Package dispatch routes decoded stream messages to view refreshes and the
// notification manager.
package dispatch

import (
	"encoding/json"
	"log/slog"

	"github.com/ashureev/hauslink/internal/domain"
)

// Refresher re-renders a UI region. Refreshes may overlap; implementations must be idempotent.
type Refresher interface {
	Refresh(topic domain.Topic)
}

// NotificationSink receives notification messages.
type NotificationSink interface {
	OnNotification(msg domain.Message)
}

// Dispatcher maps message types to side effects. It holds no state between messages.
type Dispatcher struct {
	refresher  Refresher
	sink       NotificationSink
	eventTopic domain.Topic
	logger     *slog.Logger
}

// New creates a Dispatcher. Event messages refresh eventTopic, which defaults
// to the session detail region.
func New(refresher Refresher, sink NotificationSink, eventTopic domain.Topic, logger *slog.Logger) *Dispatcher {
	if eventTopic == "" {
		eventTopic = domain.TopicSessionDetail
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		refresher:  refresher,
		sink:       sink,
		eventTopic: eventTopic,
		logger:     logger,
	}
}

// HandleFrame decodes one stream frame and dispatches it. Frames that are not
// a JSON message are dropped.
func (d *Dispatcher) HandleFrame(data []byte) {
	var msg domain.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		d.logger.Debug("Dropping malformed frame", "error", err, "size", len(data))
		return
	}
	d.Dispatch(msg)
}

// Dispatch applies the routing table for msg.Type. Unknown types are ignored.
func (d *Dispatcher) Dispatch(msg domain.Message) {
	switch msg.Type {
	case domain.MessageEvent:
		d.refresher.Refresh(d.eventTopic)
	case domain.MessageApprovalRequest:
		d.refresher.Refresh(domain.TopicSessionsList)
		d.refresher.Refresh(domain.TopicSessionDetail)
	case domain.MessageApprovalResolved:
		d.refresher.Refresh(domain.TopicSessionDetail)
	case domain.MessageSessionUpdate:
		d.refresher.Refresh(domain.TopicSessionsList)
	case domain.MessageNotification:
		d.sink.OnNotification(msg)
	default:
		d.logger.Debug("Ignoring message", "type", msg.Type, "session_id", msg.SessionID)
	}
}
