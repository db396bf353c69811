// Package storage persists the client's durable state in a local
// SQLite database: the session (access token plus the last-known user
// record) and per-user preferences. It is the desktop analog of the
// browser's localStorage and has exactly one writer, the running
// process.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"contas/internal/core"

	_ "modernc.org/sqlite"
)

// The session table holds at most one row.
const sessionRowID = 1

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSession stores the access token and the cached user record
// together. They share a lifecycle: created on login, destroyed on
// logout or a 401 response.
func (s *Store) SaveSession(ctx context.Context, token string, user core.User) error {
	if token == "" {
		return errors.New("empty access token")
	}
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session (id, access_token, user_json, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			user_json    = excluded.user_json,
			saved_at     = excluded.saved_at`,
		sessionRowID, token, string(userJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession returns the persisted token and user record. ok is false
// when no session is stored.
func (s *Store) LoadSession(ctx context.Context) (token string, user core.User, ok bool, err error) {
	var userJSON string
	row := s.db.QueryRowContext(ctx,
		`SELECT access_token, user_json FROM session WHERE id = ?`, sessionRowID)
	if err := row.Scan(&token, &userJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", core.User{}, false, nil
		}
		return "", core.User{}, false, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		// A corrupt record is treated as no session rather than an error
		// the caller has to untangle.
		return "", core.User{}, false, nil
	}
	return token, user, true, nil
}

// ClearSession removes the persisted token and user record.
func (s *Store) ClearSession(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM session WHERE id = ?`, sessionRowID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// AccessToken implements the token source consumed by the HTTP client.
func (s *Store) AccessToken(ctx context.Context) (string, bool) {
	token, _, ok, err := s.LoadSession(ctx)
	if err != nil || !ok {
		return "", false
	}
	return token, true
}

// SetPreference stores a small key/value preference (active wire
// convention, last-used filters).
func (s *Store) SetPreference(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}

// GetPreference returns the stored value, or "" when unset.
func (s *Store) GetPreference(ctx context.Context, key string) (string, error) {
	var value string
	row := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get preference %s: %w", key, err)
	}
	return value, nil
}
