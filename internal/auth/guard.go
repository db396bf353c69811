package auth

import (
	"context"
	"errors"

	"contas/internal/core"
)

// ErrLoginRequired is returned by the guard when a private operation
// runs without an authenticated session.
var ErrLoginRequired = errors.New("login required")

// Guard gates private operations on the auth state. Unknown state
// resolves via Restore before deciding, mirroring a route guard that
// blocks rendering until the session check finishes.
type Guard struct {
	manager *Manager
}

func NewGuard(manager *Manager) *Guard {
	return &Guard{manager: manager}
}

// Require resolves the auth state and returns ErrLoginRequired unless
// the session is authenticated.
func (g *Guard) Require(ctx context.Context) (core.User, error) {
	state := g.manager.State()
	if state == StateUnknown {
		state = g.manager.Restore(ctx)
	}
	if state != StateAuthenticated {
		return core.User{}, ErrLoginRequired
	}
	user, _ := g.manager.User()
	return user, nil
}
