package connection

import (
	"context"
	"testing"
	"time"

	"github.com/ashureev/hauslink/internal/client"
	"github.com/ashureev/hauslink/internal/testutil"
	"github.com/coder/websocket"
	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDialer(baseURL string) *WebsocketDialer {
	return &WebsocketDialer{URL: client.New(baseURL, nil).StreamURL}
}

func TestWebsocketDialer_ReadsFrames(t *testing.T) {
	haus := testutil.NewFakeHaus(t, "good")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := newDialer(haus.URL()).Dial(ctx, "good")
	require.NoError(t, err)
	defer s.Close()
	haus.WaitConnected(t)

	haus.BroadcastRaw(t, []byte(`{"type":"session_update"}`))
	data, err := s.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"session_update"}`, string(data))
}

func TestWebsocketDialer_RejectedHandshake(t *testing.T) {
	haus := testutil.NewFakeHaus(t, "good")

	_, err := newDialer(haus.URL()).Dial(context.Background(), "bad")
	require.Error(t, err)
	assert.True(t, errdefs.IsUnauthorized(err), "got %v", err)
	assert.Equal(t, 1, haus.Dials())
}

func TestWebsocketDialer_Unreachable(t *testing.T) {
	haus := testutil.NewFakeHaus(t)
	url := haus.URL()
	haus.Close()

	_, err := newDialer(url).Dial(context.Background(), "good")
	require.Error(t, err)
	assert.True(t, errdefs.IsUnavailable(err), "got %v", err)
}

func TestWebsocketStream_CloseCodes(t *testing.T) {
	tests := []struct {
		name         string
		code         websocket.StatusCode
		unauthorized bool
	}{
		{"policy violation", websocket.StatusPolicyViolation, true},
		{"application unauthorized", StatusUnauthorized, true},
		{"going away", websocket.StatusGoingAway, false},
		{"internal error", websocket.StatusInternalError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			haus := testutil.NewFakeHaus(t, "good")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			s, err := newDialer(haus.URL()).Dial(ctx, "good")
			require.NoError(t, err)
			defer s.Close()
			haus.WaitConnected(t)

			go haus.CloseStreams(tt.code, "bye")

			_, err = s.Read(ctx)
			require.Error(t, err)
			assert.Equal(t, tt.unauthorized, errdefs.IsUnauthorized(err), "got %v", err)
		})
	}
}

func TestIsUnauthorizedClose(t *testing.T) {
	assert.True(t, IsUnauthorizedClose(1008))
	assert.True(t, IsUnauthorizedClose(4001))
	assert.False(t, IsUnauthorizedClose(websocket.StatusNormalClosure))
	assert.False(t, IsUnauthorizedClose(-1))
}
