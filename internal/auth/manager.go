// Package auth owns the session lifecycle. State starts unknown,
// resolves optimistically from the stored session without a network
// round trip, and moves between authenticated and anonymous through
// login, logout, registration and backend 401s.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"contas/internal/api"
	"contas/internal/core"
	"contas/internal/log"
)

type State int

const (
	// StateUnknown means Restore has not run yet. Guarded operations
	// must not proceed until the state resolves.
	StateUnknown State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// SessionStore is the durable session storage the manager reads and
// writes. Implemented by internal/storage.
type SessionStore interface {
	SaveSession(ctx context.Context, token string, user core.User) error
	LoadSession(ctx context.Context) (token string, user core.User, ok bool, err error)
	ClearSession(ctx context.Context) error
}

type Manager struct {
	client *api.Client
	store  SessionStore
	logger *log.Logger

	mu    sync.RWMutex
	state State
	user  core.User
}

func NewManager(client *api.Client, store SessionStore, logger *log.Logger) *Manager {
	m := &Manager{
		client: client,
		store:  store,
		logger: logger.WithComponent(log.ComponentAuth),
		state:  StateUnknown,
	}
	client.SetUnauthorizedHandler(m.handleUnauthorized)
	return m
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// User returns the current user. Only meaningful while authenticated.
func (m *Manager) User() (core.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user, m.state == StateAuthenticated
}

// Restore resolves the initial state from the stored session. A stored
// token is trusted optimistically: no validation round trip, the first
// 401 corrects the mistake. Storage read errors resolve to anonymous
// rather than leaving the state stuck at unknown.
func (m *Manager) Restore(ctx context.Context) State {
	token, user, ok, err := m.store.LoadSession(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "session restore failed", log.FieldError, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil && ok && token != "" {
		m.state = StateAuthenticated
		m.user = user
	} else {
		m.state = StateAnonymous
		m.user = core.User{}
	}
	m.logger.DebugContext(ctx, "session restored", log.FieldAuthState, m.state.String())
	return m.state
}

type credentialsBody struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	AccessToken string `json:"accessToken"`
	Token       string `json:"token"`
	User        *struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

func (r sessionResponse) token() string {
	if r.AccessToken != "" {
		return r.AccessToken
	}
	return r.Token
}

// Login exchanges credentials for a session. A 2xx response missing
// the token or the user record counts as a failed login, not an
// error: ok is false and err is nil.
func (m *Manager) Login(ctx context.Context, email, password string) (bool, error) {
	var resp sessionResponse
	err := m.client.Post(ctx, "/auth/login", credentialsBody{Email: email, Password: password}, &resp)
	if err != nil {
		// A 401 here means rejected credentials, not an expired session.
		if errors.Is(err, api.ErrSessionExpired) {
			return false, nil
		}
		return false, err
	}
	if resp.token() == "" || resp.User == nil {
		m.logger.WarnContext(ctx, "login response missing token or user")
		return false, nil
	}
	return true, m.establish(ctx, resp)
}

// Register creates an account. Any 2xx response is a success; some
// backends answer with just the created user record and expect a
// separate login, so the session is only established when a token
// actually arrives.
func (m *Manager) Register(ctx context.Context, name, email, password string) (bool, error) {
	var resp sessionResponse
	err := m.client.Post(ctx, "/auth/register", credentialsBody{Name: name, Email: email, Password: password}, &resp)
	if err != nil {
		if api.StatusCode(err) == 400 || api.StatusCode(err) == 409 {
			m.logger.WarnContext(ctx, "registration rejected", log.FieldError, err)
			return false, nil
		}
		return false, err
	}
	if resp.token() != "" && resp.User != nil {
		return true, m.establish(ctx, resp)
	}
	m.logger.InfoContext(ctx, "account created, login required")
	return true, nil
}

func (m *Manager) establish(ctx context.Context, resp sessionResponse) error {
	user := core.User{ID: resp.User.ID, Name: resp.User.Name, Email: resp.User.Email}
	if err := m.store.SaveSession(ctx, resp.token(), user); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	m.mu.Lock()
	m.state = StateAuthenticated
	m.user = user
	m.mu.Unlock()
	// Re-arm the one-shot 401 handler for the new session.
	m.client.ResetUnauthorized()
	m.logger.InfoContext(ctx, "session established", log.FieldAuthState, StateAuthenticated.String())
	return nil
}

// Logout clears the session synchronously. There is no server-side
// session to revoke; the token simply stops being sent.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.ClearSession(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	m.mu.Lock()
	m.state = StateAnonymous
	m.user = core.User{}
	m.mu.Unlock()
	m.logger.InfoContext(ctx, "logged out")
	return nil
}

// CheckStatus refreshes the cached user record from the backend.
// Failures are reported but never tear the session down: transient
// errors must not log the user out, and a real 401 already goes
// through the client's unauthorized path.
func (m *Manager) CheckStatus(ctx context.Context) (core.User, error) {
	var raw json.RawMessage
	if err := m.client.Get(ctx, "/auth/me", nil, &raw); err != nil {
		return core.User{}, err
	}
	var dto struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		User  *struct {
			ID    int64  `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(raw, &dto); err != nil {
		return core.User{}, fmt.Errorf("decode user: %w", err)
	}
	user := core.User{ID: dto.ID, Name: dto.Name, Email: dto.Email}
	if dto.User != nil {
		user = core.User{ID: dto.User.ID, Name: dto.User.Name, Email: dto.User.Email}
	}

	m.mu.Lock()
	if m.state == StateAuthenticated {
		m.user = user
	}
	m.mu.Unlock()
	return user, nil
}

// handleUnauthorized runs when the API client sees a 401. The client
// has already cleared the stored session; here only the in-memory
// state flips.
func (m *Manager) handleUnauthorized() {
	m.mu.Lock()
	m.state = StateAnonymous
	m.user = core.User{}
	m.mu.Unlock()
	m.logger.Warn("session expired", log.FieldAuthState, StateAnonymous.String())
}
