// Package testutil provides a fake dashboard server for tests.
package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/hauslink/internal/domain"
	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

// RecordedDecision is an approval decision received by the fake server.
type RecordedDecision struct {
	ApprovalID    string
	Authorization string
	Decision      string
	Message       string
}

// FakeHaus mimics the dashboard server's verify, approvals, sessions and stream endpoints.
type FakeHaus struct {
	Server *httptest.Server

	mu             sync.Mutex
	tokens         map[string]bool
	verifyStatus   int // overrides the verify response when non-zero
	decisionStatus int
	sessions       []domain.Session
	decisions      []RecordedDecision
	conns          []*websocket.Conn
	verifyCalls    int
	dials          int

	connected chan *websocket.Conn
}

// NewFakeHaus starts a fake server that accepts the given tokens.
func NewFakeHaus(t testing.TB, tokens ...string) *FakeHaus {
	t.Helper()
	f := &FakeHaus{
		tokens:         make(map[string]bool),
		decisionStatus: http.StatusOK,
		connected:      make(chan *websocket.Conn, 16),
	}
	for _, tok := range tokens {
		f.tokens[tok] = true
	}

	r := chi.NewRouter()
	r.Post("/api/verify-token", f.handleVerify)
	r.Post("/api/approvals/{id}", f.handleApproval)
	r.Get("/api/sessions", f.handleSessions)
	r.Get("/api/sessions/{id}", f.handleSession)
	r.Get("/ws", f.handleStream)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Close)
	return f
}

// URL returns the server base URL.
func (f *FakeHaus) URL() string { return f.Server.URL }

// Close drops every stream and stops the server.
func (f *FakeHaus) Close() {
	f.mu.Lock()
	conns := f.conns
	f.conns = nil
	f.mu.Unlock()
	for _, c := range conns {
		_ = c.CloseNow()
	}
	f.Server.Close()
}

// AllowToken adds a valid token.
func (f *FakeHaus) AllowToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = true
}

// RevokeToken invalidates a token.
func (f *FakeHaus) RevokeToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
}

// SetVerifyStatus forces the verify endpoint to answer with status. Zero restores normal behaviour.
func (f *FakeHaus) SetVerifyStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyStatus = status
}

// SetDecisionStatus sets the status returned for approval decisions.
func (f *FakeHaus) SetDecisionStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decisionStatus = status
}

// SetSessions sets the session list.
func (f *FakeHaus) SetSessions(sessions ...domain.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = sessions
}

// Decisions returns the decisions received so far.
func (f *FakeHaus) Decisions() []RecordedDecision {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedDecision(nil), f.decisions...)
}

// VerifyCalls returns how many verify requests were received.
func (f *FakeHaus) VerifyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verifyCalls
}

// Dials returns how many stream handshakes were attempted.
func (f *FakeHaus) Dials() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dials
}

// WaitConnected blocks until a stream is accepted.
func (f *FakeHaus) WaitConnected(t testing.TB) *websocket.Conn {
	t.Helper()
	select {
	case c := <-f.connected:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for stream connection")
		return nil
	}
}

// Broadcast sends msg to every open stream.
func (f *FakeHaus) Broadcast(t testing.TB, msg any) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal broadcast: %v", err)
	}
	f.BroadcastRaw(t, data)
}

// BroadcastRaw sends data as a text frame to every open stream.
func (f *FakeHaus) BroadcastRaw(t testing.TB, data []byte) {
	t.Helper()
	f.mu.Lock()
	conns := append([]*websocket.Conn(nil), f.conns...)
	f.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, c := range conns {
		if err := c.Write(ctx, websocket.MessageText, data); err != nil {
			t.Logf("broadcast write: %v", err)
		}
	}
}

// CloseStreams closes every open stream with code.
func (f *FakeHaus) CloseStreams(code websocket.StatusCode, reason string) {
	f.mu.Lock()
	conns := f.conns
	f.conns = nil
	f.mu.Unlock()
	for _, c := range conns {
		_ = c.Close(code, reason)
	}
}

func (f *FakeHaus) valid(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return token != "" && f.tokens[token]
}

func (f *FakeHaus) handleVerify(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.verifyCalls++
	forced := f.verifyStatus
	f.mu.Unlock()

	if forced != 0 {
		http.Error(w, http.StatusText(forced), forced)
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if !f.valid(req.Token) {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (f *FakeHaus) handleApproval(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decision string `json:"decision"`
		Message  string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.decisions = append(f.decisions, RecordedDecision{
		ApprovalID:    chi.URLParam(r, "id"),
		Authorization: r.Header.Get("Authorization"),
		Decision:      req.Decision,
		Message:       req.Message,
	})
	status := f.decisionStatus
	f.mu.Unlock()

	if !f.valid(bearer(r)) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	w.WriteHeader(status)
}

func (f *FakeHaus) handleSessions(w http.ResponseWriter, r *http.Request) {
	if !f.valid(bearer(r)) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	f.mu.Lock()
	sessions := append([]domain.Session{}, f.sessions...)
	f.mu.Unlock()
	writeJSON(w, sessions)
}

func (f *FakeHaus) handleSession(w http.ResponseWriter, r *http.Request) {
	if !f.valid(bearer(r)) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.ID == id {
			writeJSON(w, s)
			return
		}
	}
	http.Error(w, "session not found", http.StatusNotFound)
}

func (f *FakeHaus) handleStream(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.dials++
	f.mu.Unlock()

	if !f.valid(r.URL.Query().Get("token")) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}

	f.mu.Lock()
	f.conns = append(f.conns, conn)
	f.mu.Unlock()
	select {
	case f.connected <- conn:
	default:
	}

	// Hold the handler open until the client goes away or the test closes the stream.
	for {
		if _, _, err := conn.Read(context.Background()); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
