// Package client talks to the dashboard server over HTTP: token verification,
// approval decisions and session lookups.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ashureev/hauslink/internal/domain"
	"github.com/containerd/errdefs"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBody       = 8 << 10
)

// ErrEmptyToken is returned when a request needs a credential and none was given.
var ErrEmptyToken = errors.New("empty token")

// Client is an HTTP client bound to one dashboard server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for baseURL. A nil httpClient gets a default with a timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StreamURL returns the websocket URL for token: http becomes ws, https becomes wss.
func (c *Client) StreamURL(token string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"token": []string{token}}.Encode()
	return u.String(), nil
}

// Verify checks token against the server with one round-trip and no retry.
// A nil error means the server accepted the token. A rejection wraps
// errdefs.ErrUnauthenticated; anything else (transport failure, unexpected
// status) wraps errdefs.ErrUnavailable because the check itself could not be made.
func (c *Client) Verify(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("verify token: %w: %w", ErrEmptyToken, errdefs.ErrUnauthenticated)
	}

	resp, err := c.postJSON(ctx, "/api/verify-token", "", map[string]string{"token": token})
	if err != nil {
		return fmt.Errorf("verify token: %w: %w", errdefs.ErrUnavailable, err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("verify token: %w: %s", errdefs.ErrUnauthenticated, readErrorBody(resp))
	default:
		return fmt.Errorf("verify token: %w: status %d: %s", errdefs.ErrUnavailable, resp.StatusCode, readErrorBody(resp))
	}
}

// VerifyToken reports whether the server confirmed token. Any failure,
// including a transport failure, is reported as false.
func (c *Client) VerifyToken(ctx context.Context, token string) bool {
	return c.Verify(ctx, token) == nil
}

// Decision values the server understands.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// Decision is the body of an approval decision.
type Decision struct {
	Decision string `json:"decision"`
	Message  string `json:"message,omitempty"`
}

// SubmitDecision posts a decision for approvalID and returns the response status.
func (c *Client) SubmitDecision(ctx context.Context, token, approvalID string, decision Decision) (int, error) {
	if token == "" {
		return 0, fmt.Errorf("submit decision: %w", ErrEmptyToken)
	}
	path := "/api/approvals/" + url.PathEscape(approvalID)
	resp, err := c.postJSON(ctx, path, token, decision)
	if err != nil {
		return 0, fmt.Errorf("submit decision: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("submit decision: status %d: %s", resp.StatusCode, readErrorBody(resp))
	}
	return resp.StatusCode, nil
}

// ListSessions returns every session the server knows about.
func (c *Client) ListSessions(ctx context.Context, token string) ([]domain.Session, error) {
	var sessions []domain.Session
	if err := c.getJSON(ctx, "/api/sessions", token, &sessions); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// GetSession returns one session.
func (c *Client) GetSession(ctx context.Context, token, sessionID string) (*domain.Session, error) {
	var sess domain.Session
	if err := c.getJSON(ctx, "/api/sessions/"+url.PathEscape(sessionID), token, &sess); err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	return &sess, nil
}

func (c *Client) postJSON(ctx context.Context, path, token string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.httpClient.Do(req)
}

func (c *Client) getJSON(ctx context.Context, path, token string, out any) error {
	if token == "" {
		return ErrEmptyToken
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", errdefs.ErrUnauthenticated, readErrorBody(resp))
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", errdefs.ErrNotFound, readErrorBody(resp))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("status %d: %s", resp.StatusCode, readErrorBody(resp))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readErrorBody(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return strings.TrimSpace(string(body))
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxErrorBody))
	_ = body.Close()
}
