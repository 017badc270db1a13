package dispatch

import (
	"testing"

	"github.com/ashureev/hauslink/internal/domain"
)

type recorder struct {
	topics        []domain.Topic
	notifications []domain.Message
}

func (r *recorder) Refresh(topic domain.Topic) { r.topics = append(r.topics, topic) }

func (r *recorder) OnNotification(msg domain.Message) {
	r.notifications = append(r.notifications, msg)
}

func TestDispatch_Routing(t *testing.T) {
	tests := []struct {
		name          string
		frame         string
		eventTopic    domain.Topic
		wantTopics    []domain.Topic
		wantNotifying bool
	}{
		{
			name:       "event uses default topic",
			frame:      `{"type":"event","session_id":"s1"}`,
			wantTopics: []domain.Topic{domain.TopicSessionDetail},
		},
		{
			name:       "event uses configured topic",
			frame:      `{"type":"event"}`,
			eventTopic: domain.TopicWholeBody,
			wantTopics: []domain.Topic{domain.TopicWholeBody},
		},
		{
			name:       "approval request refreshes list and detail",
			frame:      `{"type":"approval_request","session_id":"s1","data":{"id":"a1"}}`,
			wantTopics: []domain.Topic{domain.TopicSessionsList, domain.TopicSessionDetail},
		},
		{
			name:       "approval resolved",
			frame:      `{"type":"approval_resolved"}`,
			wantTopics: []domain.Topic{domain.TopicSessionDetail},
		},
		{
			name:       "session update",
			frame:      `{"type":"session_update"}`,
			wantTopics: []domain.Topic{domain.TopicSessionsList},
		},
		{
			name:          "notification refreshes nothing",
			frame:         `{"type":"notification","session_id":"s1","data":{"type":"info","message":"hi"}}`,
			wantNotifying: true,
		},
		{name: "unknown type", frame: `{"type":"heartbeat"}`},
		{name: "missing type", frame: `{"session_id":"s1"}`},
		{name: "not json", frame: `approval_request`},
		{name: "json array", frame: `[1,2,3]`},
		{name: "empty", frame: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			d := New(r, r, tt.eventTopic, nil)

			d.HandleFrame([]byte(tt.frame))

			if len(r.topics) != len(tt.wantTopics) {
				t.Fatalf("topics = %v, want %v", r.topics, tt.wantTopics)
			}
			for i := range tt.wantTopics {
				if r.topics[i] != tt.wantTopics[i] {
					t.Errorf("topics[%d] = %q, want %q", i, r.topics[i], tt.wantTopics[i])
				}
			}
			if got := len(r.notifications) == 1; got != tt.wantNotifying {
				t.Errorf("notifications = %d, want forwarded=%v", len(r.notifications), tt.wantNotifying)
			}
		})
	}
}

func TestDispatch_NotificationPassedThrough(t *testing.T) {
	r := &recorder{}
	d := New(r, r, "", nil)

	d.HandleFrame([]byte(`{"type":"notification","session_id":"s9","data":{"type":"idle_prompt","message":"waiting"}}`))

	if len(r.notifications) != 1 {
		t.Fatalf("expected one notification, got %d", len(r.notifications))
	}
	msg := r.notifications[0]
	if msg.SessionID != "s9" {
		t.Errorf("SessionID = %q", msg.SessionID)
	}
	payload, ok := msg.NotificationPayload()
	if !ok {
		t.Fatal("payload did not decode")
	}
	if payload.Type != domain.NotificationIdlePrompt || payload.Message != "waiting" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestDispatch_OrderPreserved(t *testing.T) {
	r := &recorder{}
	d := New(r, r, "", nil)

	for _, f := range []string{
		`{"type":"session_update"}`,
		`{"type":"approval_resolved"}`,
		`{"type":"session_update"}`,
	} {
		d.HandleFrame([]byte(f))
	}

	want := []domain.Topic{domain.TopicSessionsList, domain.TopicSessionDetail, domain.TopicSessionsList}
	for i := range want {
		if r.topics[i] != want[i] {
			t.Fatalf("topics = %v, want %v", r.topics, want)
		}
	}
}
