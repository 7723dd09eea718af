// Package session keeps the login credential for the current terminal
// session. Each session scope holds at most one token.
package session

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// staleAfter is how long an untouched session row survives.
const staleAfter = 24 * time.Hour

// Store is a sqlite-backed credential store keyed by session scope.
type Store struct {
	db    *sql.DB
	scope string
}

// DefaultScope identifies the invoking shell.
func DefaultScope() string {
	return fmt.Sprintf("ppid-%d", os.Getppid())
}

func Open(dbPath, scope string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("session db path is empty")
	}
	if scope == "" {
		scope = DefaultScope()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, scope: scope}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.prune(time.Now()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
	scope TEXT PRIMARY KEY,
	token TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`
	_, err := s.db.Exec(ddl)
	return err
}

func (s *Store) prune(now time.Time) error {
	cutoff := now.Add(-staleAfter).UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`DELETE FROM sessions WHERE updated_at < ?;`, cutoff)
	return err
}

// Load returns the stored token, or "" when none is held.
func (s *Store) Load() (string, error) {
	var token string
	err := s.db.QueryRow(`SELECT token FROM sessions WHERE scope = ?;`, s.scope).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *Store) Save(token string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`INSERT INTO sessions (scope, token, updated_at) VALUES (?, ?, ?)
ON CONFLICT(scope) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at;`, s.scope, token, now)
	return err
}

func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE scope = ?;`, s.scope)
	return err
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}

// Memory is an in-process credential store.
type Memory struct {
	mu    sync.Mutex
	token string
	// Saves counts Save calls.
	Saves int
}

func (m *Memory) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *Memory) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.Saves++
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
