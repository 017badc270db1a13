package connection

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/containerd/errdefs"
)

// StatusUnauthorized is the application close code the server uses for a rejected credential.
const StatusUnauthorized websocket.StatusCode = 4001

const defaultReadLimit = 1 << 20

// IsUnauthorizedClose reports whether a close code means the credential was refused.
func IsUnauthorizedClose(code websocket.StatusCode) bool {
	return code == websocket.StatusPolicyViolation || code == StatusUnauthorized
}

// WebsocketDialer opens streams with github.com/coder/websocket.
type WebsocketDialer struct {
	// URL builds the stream URL carrying token.
	URL        func(token string) (string, error)
	HTTPClient *http.Client
	ReadLimit  int64
}

// Dial performs the websocket handshake. A 401/403 handshake rejection wraps
// errdefs.ErrUnauthenticated; every other failure wraps errdefs.ErrUnavailable.
func (d *WebsocketDialer) Dial(ctx context.Context, token string) (Stream, error) {
	target, err := d.URL(token)
	if err != nil {
		return nil, fmt.Errorf("build stream url: %w", err)
	}

	conn, resp, err := websocket.Dial(ctx, target, &websocket.DialOptions{
		HTTPClient: d.HTTPClient,
	})
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: handshake rejected with status %d", errdefs.ErrUnauthenticated, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: dial stream: %w", errdefs.ErrUnavailable, err)
	}

	limit := d.ReadLimit
	if limit <= 0 {
		limit = defaultReadLimit
	}
	conn.SetReadLimit(limit)

	return &wsStream{conn: conn}, nil
}

type wsStream struct {
	conn *websocket.Conn
}

// Read returns the next frame payload. A close with an unauthorized code wraps
// errdefs.ErrUnauthenticated.
func (s *wsStream) Read(ctx context.Context) ([]byte, error) {
	_, data, err := s.conn.Read(ctx)
	if err == nil {
		return data, nil
	}

	code := websocket.CloseStatus(err)
	if IsUnauthorizedClose(code) {
		return nil, fmt.Errorf("%w: stream closed with %d: %w", errdefs.ErrUnauthenticated, code, err)
	}
	if code != -1 {
		return nil, fmt.Errorf("stream closed with %d: %w", code, err)
	}
	return nil, fmt.Errorf("stream read: %w", err)
}

func (s *wsStream) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "client closing")
}
