// Package cache persists the last-known application snapshot and the active
// session to on-device durable storage.
//
// The backing store is embedded SQLite with WAL mode, one key-value table,
// three records: session, snapshot, known_accounts. The cache is the
// optimistic data source at startup — it renders immediately while the
// remote pull decides whether something newer exists — and it is also the
// retry buffer when the remote store is unreachable.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/hostflow/hostflow/internal/state"
)

const (
	recordSession       = "session"
	recordSnapshot      = "snapshot"
	recordKnownAccounts = "known_accounts"
)

// ErrMalformed reports that a cached record exists but can no longer be
// parsed. Callers skip that source and continue with whatever state they
// already have; they must not treat this as fatal.
var ErrMalformed = errors.New("cache: malformed record")

// ErrNotFound reports that no record of the requested kind is cached.
var ErrNotFound = errors.New("cache: record not found")

// Session is the persisted (email, password) pair that stands in for
// authentication. Its absence at startup means the user is logged out.
type Session struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Cache is the durable local store.
type Cache struct {
	conn *sql.DB
	path string
}

// Open creates or opens the cache database at path.
//
// The database is opened in embedded mode with WAL for concurrent reads.
// The caller MUST call Close() when done.
//
// Example:
//
//	c, err := cache.Open(filepath.Join(dataDir, "hostflow.db"))
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
func Open(path string) (*Cache, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	c := &Cache{conn: conn, path: path}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := c.initSchema(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`
	if _, err := c.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	if c.conn == nil {
		return nil
	}
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("failed to close cache database: %w", err)
	}
	c.conn = nil
	return nil
}

// Path returns the cache database location.
func (c *Cache) Path() string {
	return c.path
}

func (c *Cache) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize %s record: %w", key, err)
	}
	_, err = c.conn.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to write %s record: %w", key, err)
	}
	return nil
}

func (c *Cache) get(key string, out any) error {
	var value string
	err := c.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s record: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	return nil
}

// SaveSession persists the active credentials.
func (c *Cache) SaveSession(email, password string) error {
	return c.put(recordSession, Session{Email: email, Password: password})
}

// LoadSession returns the persisted session, ErrNotFound when logged out,
// or ErrMalformed when the record cannot be parsed.
func (c *Cache) LoadSession() (*Session, error) {
	var s Session
	if err := c.get(recordSession, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSnapshot persists the full application snapshot.
func (c *Cache) SaveSnapshot(snap state.Snapshot) error {
	return c.put(recordSnapshot, snap)
}

// LoadSnapshot returns the cached snapshot, ErrNotFound when none exists,
// or ErrMalformed when the stored JSON cannot be parsed.
func (c *Cache) LoadSnapshot() (*state.Snapshot, error) {
	var snap state.Snapshot
	if err := c.get(recordSnapshot, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// KnownAccounts returns the locally remembered registered emails. This is
// the fast path for account discovery; a miss still goes to the cloud
// registry. A malformed or absent record reads as empty.
func (c *Cache) KnownAccounts() []string {
	var accounts []string
	if err := c.get(recordKnownAccounts, &accounts); err != nil {
		return nil
	}
	return accounts
}

// AddKnownAccount remembers that an email has an account, deduplicated.
func (c *Cache) AddKnownAccount(email string) error {
	accounts := c.KnownAccounts()
	for _, a := range accounts {
		if a == email {
			return nil
		}
	}
	return c.put(recordKnownAccounts, append(accounts, email))
}

// Clear removes the session and snapshot records. The known-accounts hint
// survives sign-out: it only records that accounts exist, not their data.
func (c *Cache) Clear() error {
	_, err := c.conn.Exec(`DELETE FROM kv WHERE key IN (?, ?)`, recordSession, recordSnapshot)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
