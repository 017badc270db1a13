// Package connection owns the stream to the dashboard server: credential
// verification, connect, read, and reconnect with bounded exponential backoff.
package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/hauslink/internal/clock"
	"github.com/ashureev/hauslink/internal/domain"
	"github.com/ashureev/hauslink/internal/store"
	"github.com/containerd/errdefs"
)

// Auth gate reasons.
const (
	ReasonInvalidToken   = "Invalid token"
	ReasonSessionExpired = "Session expired. Please log in again."
)

var (
	// ErrClosed is returned by operations on a closed Manager.
	ErrClosed = errors.New("connection manager closed")
	// ErrEmptyCredential is returned when an empty credential is submitted.
	ErrEmptyCredential = errors.New("empty credential")
	// ErrNoCredential is returned by Reconnect when there is nothing to connect with.
	ErrNoCredential = errors.New("no credential")
)

// Verifier checks a credential against the server. An error satisfying
// errdefs.IsUnauthorized means the credential was rejected; any other error
// means the check could not be performed.
type Verifier interface {
	Verify(ctx context.Context, token string) error
}

// Stream is an open duplex connection.
type Stream interface {
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

// Dialer opens streams. Errors satisfying errdefs.IsUnauthorized mean the
// server refused the credential.
type Dialer interface {
	Dial(ctx context.Context, token string) (Stream, error)
}

// Gate is the part of the view the manager drives. It is called with the
// manager's lock held and must not call back into the Manager.
type Gate interface {
	SetStatus(text string)
	ShowAuthGate(reason string)
	HideAuthGate()
}

// Options configures a Manager.
type Options struct {
	Store         store.CredentialStore
	Verifier      Verifier
	Dialer        Dialer
	Gate          Gate
	OnFrame       func(data []byte)
	Backoff       Backoff
	Clock         clock.Clock
	Logger        *slog.Logger
	VerifyTimeout time.Duration
	DialTimeout   time.Duration
}

// Manager is the connection state machine. State and the retry counter are
// mutated only by its transition methods.
type Manager struct {
	store         store.CredentialStore
	verifier      Verifier
	dialer        Dialer
	gate          Gate
	onFrame       func(data []byte)
	backoff       Backoff
	clock         clock.Clock
	logger        *slog.Logger
	verifyTimeout time.Duration
	dialTimeout   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	state    domain.ConnectionState
	attempts int
	gen      uint64 // bumped whenever a credential, reconnect, logout or close supersedes in-flight work
	token    string
	retry    clock.Timer
	stream   Stream
	closed   bool
}

// New creates a Manager in the Unauthenticated state.
func New(opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Backoff == (Backoff{}) {
		opts.Backoff = DefaultBackoff()
	}
	if opts.VerifyTimeout <= 0 {
		opts.VerifyTimeout = 10 * time.Second
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 10 * time.Second
	}
	if opts.OnFrame == nil {
		opts.OnFrame = func([]byte) {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:         opts.Store,
		verifier:      opts.Verifier,
		dialer:        opts.Dialer,
		gate:          opts.Gate,
		onFrame:       opts.OnFrame,
		backoff:       opts.Backoff,
		clock:         opts.Clock,
		logger:        opts.Logger,
		verifyTimeout: opts.VerifyTimeout,
		dialTimeout:   opts.DialTimeout,
		ctx:           ctx,
		cancel:        cancel,
		state:         domain.StateUnauthenticated,
	}
}

// State returns the current connection state.
func (m *Manager) State() domain.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Attempts returns the retry counter.
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Start loads the stored credential. Without one the auth gate is shown and
// no connection is attempted; with one it is verified and the stream opened.
// Start is a no-op while already Connecting or Open.
func (m *Manager) Start(ctx context.Context) error {
	token, ok, err := m.store.GetCredential(ctx)
	if err != nil {
		m.logger.Warn("Failed to read stored credential, treating as logged out", "error", err)
		ok = false
	}
	token = strings.TrimSpace(token)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.state == domain.StateConnecting || m.state == domain.StateOpen {
		m.mu.Unlock()
		return nil
	}
	if !ok || token == "" {
		m.state = domain.StateUnauthenticated
		m.gate.ShowAuthGate("")
		m.mu.Unlock()
		m.logger.Info("No stored credential, waiting for login")
		return nil
	}
	gen := m.supersedeLocked(token)
	m.mu.Unlock()

	m.authenticate(ctx, gen, token)
	return nil
}

// SubmitCredential stores a new credential and restarts the cycle from
// Connecting, whatever the current state. Pending retries and any live stream
// are superseded.
func (m *Manager) SubmitCredential(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyCredential
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if err := m.store.SetCredential(ctx, token); err != nil {
		m.logger.Warn("Failed to persist credential, keeping it for this run only", "error", err)
	}
	gen := m.supersedeLocked(token)
	m.mu.Unlock()

	m.authenticate(ctx, gen, token)
	return nil
}

// Reconnect connects immediately with the current credential, overriding the
// backoff schedule. It is a no-op while Connecting or Open.
func (m *Manager) Reconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.state == domain.StateConnecting || m.state == domain.StateOpen {
		return nil
	}

	token := m.token
	if token == "" {
		if stored, ok, err := m.store.GetCredential(ctx); err == nil && ok {
			token = strings.TrimSpace(stored)
		}
	}
	if token == "" {
		m.state = domain.StateUnauthenticated
		m.gate.ShowAuthGate("")
		return ErrNoCredential
	}

	gen := m.supersedeLocked(token)
	m.logger.Info("Manual reconnect", "attempts", m.attempts)
	m.startLocked(gen, token)
	return nil
}

// Logout clears the credential, drops the stream without retrying and shows the auth gate.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.supersedeLocked("")
	wasOpen := m.state == domain.StateOpen
	m.state = domain.StateUnauthenticated
	err := m.store.ClearCredential(ctx)
	if wasOpen {
		m.gate.SetStatus(domain.StatusDisconnected)
	}
	m.gate.ShowAuthGate("")
	m.mu.Unlock()

	if err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// Close stops retries, closes the stream and waits for background work.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.supersedeLocked(m.token)
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
	return nil
}

// supersedeLocked invalidates in-flight work: it bumps the generation, stops
// the retry timer and closes the live stream in the background. The close is
// tracked by wg so Close waits for it.
func (m *Manager) supersedeLocked(token string) uint64 {
	m.gen++
	m.token = token
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
	stale := m.stream
	m.stream = nil
	if token != "" && !m.closed {
		m.state = domain.StateConnecting
	}
	if stale != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			_ = stale.Close()
		}()
	}
	return m.gen
}

func (m *Manager) authenticate(ctx context.Context, gen uint64, token string) {
	verifyCtx, cancel := context.WithTimeout(ctx, m.verifyTimeout)
	err := m.verifier.Verify(verifyCtx, token)
	cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.closed {
		return
	}

	switch {
	case err == nil:
		m.startLocked(gen, token)
	case errdefs.IsUnauthorized(err):
		m.logger.Warn("Credential rejected by server", "error", err)
		m.token = ""
		m.state = domain.StateUnauthenticated
		m.clearStoredLocked()
		m.gate.ShowAuthGate(ReasonInvalidToken)
	default:
		// The stream handshake checks the credential again.
		m.logger.Warn("Credential verification unavailable, connecting anyway", "error", err)
		m.startLocked(gen, token)
	}
}

func (m *Manager) startLocked(gen uint64, token string) {
	m.state = domain.StateConnecting
	m.wg.Add(1)
	go m.run(gen, token)
}

func (m *Manager) run(gen uint64, token string) {
	defer m.wg.Done()

	ctx, cancel := context.WithCancel(m.ctx)
	defer cancel()

	dialCtx, dialCancel := context.WithTimeout(ctx, m.dialTimeout)
	stream, err := m.dialer.Dial(dialCtx, token)
	dialCancel()
	if err != nil {
		m.handleClose(gen, err)
		return
	}

	if !m.opened(gen, stream) {
		_ = stream.Close()
		return
	}

	for {
		data, err := stream.Read(ctx)
		if err != nil {
			m.handleClose(gen, err)
			return
		}
		if !m.current(gen) {
			continue
		}
		m.onFrame(data)
	}
}

func (m *Manager) current(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen == m.gen && !m.closed
}

func (m *Manager) opened(gen uint64, stream Stream) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.closed {
		return false
	}
	m.state = domain.StateOpen
	m.attempts = 0
	m.stream = stream
	m.gate.SetStatus(domain.StatusConnected)
	m.gate.HideAuthGate()
	m.logger.Info("Stream connected")
	return true
}

func (m *Manager) handleClose(gen uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.closed {
		return
	}

	m.stream = nil
	m.gate.SetStatus(domain.StatusDisconnected)

	if errdefs.IsUnauthorized(err) {
		m.logger.Warn("Stream closed: credential no longer authorized", "error", err)
		m.state = domain.StateClosedUnauthorized
		m.token = ""
		m.clearStoredLocked()
		m.gate.ShowAuthGate(ReasonSessionExpired)
		return
	}

	m.logger.Info("Stream disconnected", "error", err)
	m.scheduleRetryLocked(gen)
}

func (m *Manager) scheduleRetryLocked(gen uint64) {
	m.state = domain.StateClosedRetrying
	if m.backoff.Exhausted(m.attempts) {
		m.logger.Warn("Reconnect attempts exhausted", "attempts", m.attempts)
		return
	}

	m.attempts++
	delay := m.backoff.Delay(m.attempts)
	m.logger.Info("Reconnecting", "attempt", m.attempts, "delay", delay)
	m.retry = m.clock.AfterFunc(delay, func() { m.retryFired(gen) })
}

func (m *Manager) retryFired(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// A superseded timer may still fire; only the current schedule may connect.
	if gen != m.gen || m.closed || m.state != domain.StateClosedRetrying {
		return
	}
	m.retry = nil
	m.startLocked(gen, m.token)
}

func (m *Manager) clearStoredLocked() {
	ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
	defer cancel()
	if err := m.store.ClearCredential(ctx); err != nil {
		m.logger.Warn("Failed to clear stored credential", "error", err)
	}
}
