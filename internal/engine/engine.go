// Package engine assembles the sync core: credential store, verifier,
// connection manager, dispatcher, notification manager and views.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/hauslink/internal/choices"
	"github.com/ashureev/hauslink/internal/client"
	"github.com/ashureev/hauslink/internal/clock"
	"github.com/ashureev/hauslink/internal/config"
	"github.com/ashureev/hauslink/internal/connection"
	"github.com/ashureev/hauslink/internal/dispatch"
	"github.com/ashureev/hauslink/internal/domain"
	"github.com/ashureev/hauslink/internal/notify"
	"github.com/ashureev/hauslink/internal/store"
	"github.com/ashureev/hauslink/internal/view"
)

const decisionTimeout = 10 * time.Second

var (
	// ErrMissingApprovalID is returned by Decide without an approval ID.
	ErrMissingApprovalID = errors.New("missing approval id")
	// ErrInvalidDecision is returned by Decide for an empty decision.
	ErrInvalidDecision = errors.New("missing decision")
)

// Deps are the engine's collaborators. Only Config, Store and Client are required.
type Deps struct {
	Config *config.Config
	Store  store.CredentialStore
	Client *client.Client
	// Dialer defaults to a websocket dialer for Client's stream URL.
	Dialer connection.Dialer
	Clock  clock.Clock
	Logger *slog.Logger
	// Views receive every render call alongside the engine's own snapshot.
	Views []view.View
	// Console adds a log-backed view that fetches session data on refresh.
	Console bool
}

// State is the engine's observable state.
type State struct {
	Connection string `json:"connection"`
	Attempts   int    `json:"attempts"`
	Focused    string `json:"focused_session,omitempty"`
	view.State
}

// Engine is the running sync client.
type Engine struct {
	cfg      *config.Config
	store    store.CredentialStore
	client   *client.Client
	logger   *slog.Logger
	snapshot *view.Snapshot
	view     view.Multi
	console  *view.Console
	notify   *notify.Manager
	dispatch *dispatch.Dispatcher
	conn     *connection.Manager

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	mu     sync.Mutex
	closed bool
}

// New wires the core. Nothing connects until Start or Run.
func New(deps Deps) (*Engine, error) {
	if deps.Config == nil || deps.Store == nil || deps.Client == nil {
		return nil, fmt.Errorf("engine: config, store and client are required")
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Dialer == nil {
		deps.Dialer = &connection.WebsocketDialer{URL: deps.Client.StreamURL}
	}

	e := &Engine{
		cfg:      deps.Config,
		store:    deps.Store,
		client:   deps.Client,
		logger:   deps.Logger,
		snapshot: view.NewSnapshot(),
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())

	e.view = append(view.Multi{e.snapshot}, deps.Views...)
	if deps.Console {
		e.console = view.NewConsole(deps.Logger.With("component", "view"), e.fetchHooks())
		e.view = append(e.view, e.console)
	}

	e.notify = notify.New(notify.Options{
		Renderer: e.view,
		Clock:    deps.Clock,
		TTL:      deps.Config.Notify.TTL,
		Logger:   deps.Logger.With("component", "notify"),
	})
	e.dispatch = dispatch.New(e.view, e.notify, deps.Config.EventTopic, deps.Logger.With("component", "dispatch"))
	e.conn = connection.New(connection.Options{
		Store:    deps.Store,
		Verifier: deps.Client,
		Dialer:   deps.Dialer,
		Gate:     e.view,
		OnFrame:  e.dispatch.HandleFrame,
		Backoff: connection.Backoff{
			Base:        deps.Config.Retry.Base,
			Cap:         deps.Config.Retry.Cap,
			MaxAttempts: deps.Config.Retry.MaxAttempts,
		},
		Clock:  deps.Clock,
		Logger: deps.Logger.With("component", "connection"),
	})
	return e, nil
}

// fetchHooks reload session data for the console view.
func (e *Engine) fetchHooks() map[domain.Topic]view.FetchFunc {
	return map[domain.Topic]view.FetchFunc{
		domain.TopicSessionsList: func(ctx context.Context) error {
			token, err := e.token(ctx)
			if err != nil {
				return err
			}
			sessions, err := e.client.ListSessions(ctx, token)
			if err != nil {
				return err
			}
			pending := 0
			for _, s := range sessions {
				pending += s.PendingCount
			}
			e.logger.Info("Sessions", "count", len(sessions), "pending_approvals", pending)
			return nil
		},
		domain.TopicSessionDetail: func(ctx context.Context) error {
			focused := e.notify.Focused()
			if focused == "" {
				return nil
			}
			token, err := e.token(ctx)
			if err != nil {
				return err
			}
			sess, err := e.client.GetSession(ctx, token, focused)
			if err != nil {
				return err
			}
			e.logger.Info("Session",
				"session_id", sess.ID,
				"name", sess.DisplayName(),
				"status", sess.Status,
				"pending_approvals", sess.PendingCount,
			)
			return nil
		},
	}
}

func (e *Engine) token(ctx context.Context) (string, error) {
	token, ok, err := e.store.GetCredential(ctx)
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	if !ok || token == "" {
		return "", connection.ErrNoCredential
	}
	return token, nil
}

// Start seeds the credential from configuration when none is stored, then
// starts the connection manager.
func (e *Engine) Start(ctx context.Context) error {
	if e.cfg.SeedToken != "" {
		if _, ok, err := e.store.GetCredential(ctx); err == nil && !ok {
			if err := e.store.SetCredential(ctx, e.cfg.SeedToken); err != nil {
				e.logger.Warn("Failed to store seed credential", "error", err)
			}
		}
	}
	return e.conn.Start(ctx)
}

// Run starts the engine and blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	e.Close()
	return nil
}

// SubmitCredential replaces the credential and reconnects.
func (e *Engine) SubmitCredential(ctx context.Context, token string) error {
	return e.conn.SubmitCredential(ctx, token)
}

// Logout forgets the credential and disconnects.
func (e *Engine) Logout(ctx context.Context) error {
	return e.conn.Logout(ctx)
}

// Reconnect connects now instead of waiting for the next retry.
func (e *Engine) Reconnect(ctx context.Context) error {
	return e.conn.Reconnect(ctx)
}

// Focus scopes notifications to sessionID. Empty clears focus.
func (e *Engine) Focus(sessionID string) {
	e.notify.Focus(sessionID)
}

// Dismiss removes a notification. It reports whether the notification was visible.
func (e *Engine) Dismiss(id string) bool {
	return e.notify.Dismiss(id)
}

// Decide submits an approval decision in the background. Whatever the
// outcome, the whole view is refreshed once the request completes.
func (e *Engine) Decide(ctx context.Context, approvalID, decision, message string) error {
	approvalID = strings.TrimSpace(approvalID)
	decision = strings.TrimSpace(decision)
	if approvalID == "" {
		return ErrMissingApprovalID
	}
	if decision == "" {
		return ErrInvalidDecision
	}

	token, err := e.token(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return connection.ErrClosed
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(e.ctx, decisionTimeout)
		defer cancel()

		status, err := e.client.SubmitDecision(ctx, token, approvalID, client.Decision{
			Decision: decision,
			Message:  message,
		})
		if err != nil {
			e.logger.Warn("Approval decision failed", "approval_id", approvalID, "decision", decision, "status", status, "error", err)
		} else {
			e.logger.Info("Approval decision sent", "approval_id", approvalID, "decision", decision, "status", status)
		}
		e.view.Refresh(domain.TopicWholeBody)
	}()
	return nil
}

// Choices extracts answer choices from prompt text.
func (e *Engine) Choices(text string) []domain.Choice {
	return choices.Parse(text)
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() State {
	return State{
		Connection: e.conn.State().String(),
		Attempts:   e.conn.Attempts(),
		Focused:    e.notify.Focused(),
		State:      e.snapshot.State(),
	}
}

// View returns the engine's own in-memory view.
func (e *Engine) View() *view.Snapshot {
	return e.snapshot
}

// Close stops the connection, notification timers and pending decisions.
func (e *Engine) Close() {
	e.once.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()

		_ = e.conn.Close()
		e.notify.Close()
		e.cancel()
		e.wg.Wait()
		if e.console != nil {
			e.console.Close()
		}
	})
}
