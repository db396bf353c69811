package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contas/internal/api"
	"contas/internal/core"
	"contas/internal/log"
	"contas/internal/storage"
)

func quietLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "contas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newManager(t *testing.T, handler http.Handler) (*Manager, *storage.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store := openStore(t)
	client, err := api.NewClient(srv.URL, 5*time.Second, store, store, quietLogger())
	require.NoError(t, err)
	return NewManager(client, store, quietLogger()), store
}

func loginHandler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"invalid credentials"}`))
			return
		}
		w.Write([]byte(`{"accessToken":"tok-1","user":{"id":7,"name":"Maria","email":"maria@example.com"}}`))
	})
	return mux
}

func TestLoginPersistsSession(t *testing.T) {
	m, store := newManager(t, loginHandler(t))
	ctx := context.Background()

	ok, err := m.Login(ctx, "maria@example.com", "secret")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StateAuthenticated, m.State())

	user, authed := m.User()
	assert.True(t, authed)
	assert.Equal(t, "Maria", user.Name)

	token, stored, found, err := store.LoadSession(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, int64(7), stored.ID)
}

func TestLoginWrongPasswordIsNotAnError(t *testing.T) {
	m, _ := newManager(t, loginHandler(t))

	ok, err := m.Login(context.Background(), "maria@example.com", "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotEqual(t, StateAuthenticated, m.State())
}

func TestLoginMalformedResponseIsNotAnError(t *testing.T) {
	m, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"accessToken":"tok-1"}`)) // no user record
	}))

	ok, err := m.Login(context.Background(), "a@b.c", "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRestoreFromStoredSession(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveSession(ctx, "tok-9", core.User{ID: 9, Name: "Ana", Email: "ana@example.com"}))

	client, err := api.NewClient("http://localhost:0", time.Second, store, store, quietLogger())
	require.NoError(t, err)
	m := NewManager(client, store, quietLogger())

	assert.Equal(t, StateUnknown, m.State())
	// No network round trip: the stored token is trusted until a 401
	// proves otherwise.
	assert.Equal(t, StateAuthenticated, m.Restore(ctx))
	user, _ := m.User()
	assert.Equal(t, "Ana", user.Name)
}

func TestRestoreWithoutSessionIsAnonymous(t *testing.T) {
	store := openStore(t)
	client, err := api.NewClient("http://localhost:0", time.Second, store, store, quietLogger())
	require.NoError(t, err)
	m := NewManager(client, store, quietLogger())

	assert.Equal(t, StateAnonymous, m.Restore(context.Background()))
}

func TestLogoutClearsEverything(t *testing.T) {
	m, store := newManager(t, loginHandler(t))
	ctx := context.Background()

	ok, err := m.Login(ctx, "maria@example.com", "secret")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, m.Logout(ctx))
	assert.Equal(t, StateAnonymous, m.State())
	_, _, found, err := store.LoadSession(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUnauthorizedTearsDownOnce(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("POST /auth/login", loginHandler(t))
	mux.HandleFunc("GET /categories", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	store := openStore(t)
	client, err := api.NewClient(srv.URL, 5*time.Second, store, store, quietLogger())
	require.NoError(t, err)
	m := NewManager(client, store, quietLogger())
	ctx := context.Background()

	ok, err := m.Login(ctx, "maria@example.com", "secret")
	require.NoError(t, err)
	require.True(t, ok)

	var raw json.RawMessage
	err = client.Get(ctx, "/categories", nil, &raw)
	require.ErrorIs(t, err, api.ErrSessionExpired)

	assert.Equal(t, StateAnonymous, m.State())
	_, _, found, err := store.LoadSession(ctx)
	require.NoError(t, err)
	assert.False(t, found, "401 must clear the persisted session")
}

func TestRegisterEstablishesSession(t *testing.T) {
	m, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/register", r.URL.Path)
		w.Write([]byte(`{"token":"tok-2","user":{"id":3,"name":"Jo","email":"jo@example.com"}}`))
	}))

	ok, err := m.Register(context.Background(), "Jo", "jo@example.com", "pw123456")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StateAuthenticated, m.State())
}

func TestRegisterWithBareUserRecordSucceeds(t *testing.T) {
	m, store := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":9,"name":"Ana","email":"ana@example.com"}`))
	}))

	ok, err := m.Register(context.Background(), "Ana", "ana@example.com", "pw123456")
	require.NoError(t, err)
	assert.True(t, ok, "a 2xx response is a created account even without a token")

	// No token arrived, so no session: the user logs in separately.
	assert.NotEqual(t, StateAuthenticated, m.State())
	_, _, found, err := store.LoadSession(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRegisterRejectionIsNotAnError(t *testing.T) {
	m, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"email already registered"}`))
	}))

	ok, err := m.Register(context.Background(), "Jo", "jo@example.com", "pw123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckStatusRefreshesUserWithoutTeardown(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.Handle("POST /auth/login", loginHandler(t))
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id":7,"name":"Maria Silva","email":"maria@example.com"}`))
	})

	m, _ := newManager(t, mux)
	ctx := context.Background()
	ok, err := m.Login(ctx, "maria@example.com", "secret")
	require.NoError(t, err)
	require.True(t, ok)

	user, err := m.CheckStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", user.Name)
	cached, _ := m.User()
	assert.Equal(t, "Maria Silva", cached.Name)

	// A transient failure reports but never logs the user out.
	_, err = m.CheckStatus(ctx)
	require.Error(t, err)
	assert.Equal(t, StateAuthenticated, m.State())
}

func TestGuardBlocksAnonymous(t *testing.T) {
	store := openStore(t)
	client, err := api.NewClient("http://localhost:0", time.Second, store, store, quietLogger())
	require.NoError(t, err)
	m := NewManager(client, store, quietLogger())
	g := NewGuard(m)

	_, err = g.Require(context.Background())
	require.ErrorIs(t, err, ErrLoginRequired)
	// Require resolved the unknown state on the way.
	assert.Equal(t, StateAnonymous, m.State())
}

func TestGuardResolvesStoredSession(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveSession(ctx, "tok-5", core.User{ID: 5, Name: "Rui", Email: "rui@example.com"}))

	client, err := api.NewClient("http://localhost:0", time.Second, store, store, quietLogger())
	require.NoError(t, err)
	m := NewManager(client, store, quietLogger())

	user, err := NewGuard(m).Require(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Rui", user.Name)
}
