package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/ashureev/hauslink/internal/domain"
	"github.com/ashureev/hauslink/internal/testutil"
	"github.com/containerd/errdefs"
)

func TestVerify(t *testing.T) {
	srv := testutil.NewFakeHaus(t, "good")
	c := New(srv.URL(), nil)
	ctx := context.Background()

	if err := c.Verify(ctx, "good"); err != nil {
		t.Fatalf("Verify(good) = %v", err)
	}
	if !c.VerifyToken(ctx, "good") {
		t.Error("VerifyToken(good) = false")
	}

	err := c.Verify(ctx, "bad")
	if !errdefs.IsUnauthorized(err) {
		t.Errorf("Verify(bad) = %v, want unauthorized", err)
	}
	if c.VerifyToken(ctx, "bad") {
		t.Error("VerifyToken(bad) = true")
	}

	if err := c.Verify(ctx, ""); !errors.Is(err, ErrEmptyToken) || !errdefs.IsUnauthorized(err) {
		t.Errorf("Verify(empty) = %v", err)
	}
}

func TestVerify_ServerFailureIsUnavailable(t *testing.T) {
	srv := testutil.NewFakeHaus(t, "good")
	srv.SetVerifyStatus(http.StatusServiceUnavailable)
	c := New(srv.URL(), nil)

	err := c.Verify(context.Background(), "good")
	if !errdefs.IsUnavailable(err) {
		t.Errorf("Verify with 503 = %v, want unavailable", err)
	}
	if errdefs.IsUnauthorized(err) {
		t.Error("503 must not be classified as unauthorized")
	}
}

func TestVerify_TransportFailureIsUnavailable(t *testing.T) {
	srv := testutil.NewFakeHaus(t, "good")
	base := srv.URL()
	srv.Close()

	err := New(base, nil).Verify(context.Background(), "good")
	if !errdefs.IsUnavailable(err) {
		t.Errorf("Verify against closed server = %v, want unavailable", err)
	}
}

func TestSubmitDecision(t *testing.T) {
	srv := testutil.NewFakeHaus(t, "tok")
	c := New(srv.URL(), nil)

	status, err := c.SubmitDecision(context.Background(), "tok", "appr-1", Decision{Decision: "deny", Message: "not now"})
	if err != nil || status != http.StatusOK {
		t.Fatalf("SubmitDecision = %d, %v", status, err)
	}

	got := srv.Decisions()
	if len(got) != 1 {
		t.Fatalf("decisions = %v", got)
	}
	if got[0].ApprovalID != "appr-1" || got[0].Decision != "deny" || got[0].Message != "not now" {
		t.Errorf("decision = %+v", got[0])
	}
	if got[0].Authorization != "Bearer tok" {
		t.Errorf("Authorization = %q", got[0].Authorization)
	}
}

func TestSubmitDecision_ErrorStatus(t *testing.T) {
	srv := testutil.NewFakeHaus(t, "tok")
	srv.SetDecisionStatus(http.StatusConflict)
	c := New(srv.URL(), nil)

	status, err := c.SubmitDecision(context.Background(), "tok", "gone", Decision{Decision: "allow"})
	if err == nil || status != http.StatusConflict {
		t.Errorf("SubmitDecision = %d, %v; want 409 error", status, err)
	}
	if _, err := c.SubmitDecision(context.Background(), "", "x", Decision{Decision: "allow"}); !errors.Is(err, ErrEmptyToken) {
		t.Errorf("empty token: %v", err)
	}
}

func TestSessions(t *testing.T) {
	srv := testutil.NewFakeHaus(t, "tok")
	srv.SetSessions(
		domain.Session{ID: "s1", Nickname: "api", Status: domain.SessionActive, PendingCount: 2, HasPending: true},
		domain.Session{ID: "s2", ProjectDir: "/src/web", Status: domain.SessionIdle},
	)
	c := New(srv.URL(), nil)
	ctx := context.Background()

	list, err := c.ListSessions(ctx, "tok")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(list) != 2 || list[0].DisplayName() != "api" || list[1].DisplayName() != "s2" {
		t.Errorf("ListSessions = %+v", list)
	}

	sess, err := c.GetSession(ctx, "tok", "s1")
	if err != nil || sess.PendingCount != 2 {
		t.Errorf("GetSession = %+v, %v", sess, err)
	}

	if _, err := c.GetSession(ctx, "tok", "missing"); !errdefs.IsNotFound(err) {
		t.Errorf("GetSession(missing) = %v, want not found", err)
	}
	if _, err := c.ListSessions(ctx, "wrong"); !errdefs.IsUnauthorized(err) {
		t.Errorf("ListSessions(wrong) = %v, want unauthorized", err)
	}
}

func TestStreamURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://127.0.0.1:8420", "ws://127.0.0.1:8420/ws?token=abc"},
		{"https://haus.example.com/", "wss://haus.example.com/ws?token=abc"},
		{"https://haus.example.com/prefix", "wss://haus.example.com/prefix/ws?token=abc"},
	}
	for _, tt := range tests {
		got, err := New(tt.base, nil).StreamURL("abc")
		if err != nil {
			t.Fatalf("StreamURL(%s): %v", tt.base, err)
		}
		if got != tt.want {
			t.Errorf("StreamURL(%s) = %s, want %s", tt.base, got, tt.want)
		}
	}

	if _, err := New("ftp://x", nil).StreamURL("abc"); err == nil {
		t.Error("expected error for ftp scheme")
	}
}

func TestBaseURL(t *testing.T) {
	if got := New("https://haus.example.com/", nil).BaseURL(); got != "https://haus.example.com" {
		t.Errorf("BaseURL() = %q", got)
	}
}
