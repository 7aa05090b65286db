package store

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Keys owned by this client. Clear removes exactly these, so other state
// sharing the database is never touched.
const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
)

// TokenStore persists the opaque access/refresh credential pair in a small
// SQLite key-value table under the state directory. Tokens are never parsed
// here, only stored, returned, and discarded.
type TokenStore struct {
	db *sql.DB
}

// DefaultDir returns the per-user state directory for cicada.
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, herr := os.UserHomeDir()
		if herr != nil {
			return "", err
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "cicada"), nil
}

// Open creates the state directory if needed and opens the token database.
func Open(dir string) (*TokenStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "cicada.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &TokenStore{db: db}, nil
}

func (s *TokenStore) Close() error {
	return s.db.Close()
}

// Access returns the stored access token, reporting absence with ok=false.
func (s *TokenStore) Access() (string, bool) {
	return s.get(keyAccessToken)
}

// Refresh returns the stored refresh token, reporting absence with ok=false.
func (s *TokenStore) Refresh() (string, bool) {
	return s.get(keyRefreshToken)
}

func (s *TokenStore) SetAccess(token string) error {
	return s.set(keyAccessToken, token)
}

func (s *TokenStore) SetRefresh(token string) error {
	return s.set(keyRefreshToken, token)
}

// SetPair stores both credentials, as returned by a successful login.
func (s *TokenStore) SetPair(access, refresh string) error {
	if err := s.set(keyAccessToken, access); err != nil {
		return err
	}
	return s.set(keyRefreshToken, refresh)
}

// Clear removes both credentials. Safe to call when nothing is stored.
func (s *TokenStore) Clear() error {
	_, err := s.db.Exec(
		"DELETE FROM kv WHERE key IN (?, ?)",
		keyAccessToken,
		keyRefreshToken,
	)
	return err
}

func (s *TokenStore) get(key string) (string, bool) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}

func (s *TokenStore) set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO kv(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key,
		value,
	)
	return err
}
