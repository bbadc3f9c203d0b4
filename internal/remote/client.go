// Package remote is the client for the cloud key-value snapshot store.
//
// The store is a single opaque HTTP endpoint: GET /{bucket}/{key} returns a
// stored JSON blob or 404, POST /{bucket}/{key} overwrites it. There is no
// server-side authority beyond that — the derived key both names and guards
// the record, and writes are whole-snapshot overwrites.
//
// Failure philosophy: availability over alarm. A missing record is a normal
// outcome (ErrNotFound), anything else — network failure, 5xx, malformed
// body — is ErrUnreachable and callers degrade to local data. No retries or
// backoff here; a failed push is simply retried on the next debounce cycle.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hostflow/hostflow/internal/keys"
	"github.com/hostflow/hostflow/internal/state"
)

// DefaultBucket is the application-wide record namespace in the cloud store.
const DefaultBucket = "hostflow_v9_global_sync"

// ErrNotFound reports that no record exists under the requested key.
// Expected during discovery and first login on a new device; not a fault.
var ErrNotFound = errors.New("remote: record not found")

// ErrUnreachable reports that the store could not be used: network failure,
// a non-2xx response, or an unparseable body. Callers continue with local
// data and retry later.
var ErrUnreachable = errors.New("remote: store unreachable")

// Hints is the local fast path for account discovery, satisfied by the
// local cache. A nil Hints disables it.
type Hints interface {
	KnownAccounts() []string
	AddKnownAccount(email string) error
}

// Config holds client configuration.
type Config struct {
	// BaseURL of the key-value store, e.g. "https://kvdb.io".
	BaseURL string

	// Bucket is the application namespace under the store.
	Bucket string

	// Timeout bounds each request. The browser original let calls hang
	// forever; a CLI process cannot afford that.
	Timeout time.Duration

	// Hints is the optional local known-accounts cache.
	Hints Hints
}

// DefaultConfig returns sensible defaults pointing at the public store.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "https://kvdb.io",
		Bucket:  DefaultBucket,
		Timeout: 15 * time.Second,
	}
}

// Client talks to the cloud key-value store.
type Client struct {
	cfg  *Config
	http *http.Client
}

// New creates a store client. A nil config uses DefaultConfig.
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://kvdb.io"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

func (c *Client) url(key string) string {
	return fmt.Sprintf("%s/%s/%s", c.cfg.BaseURL, c.cfg.Bucket, key)
}

// Pull fetches the snapshot stored under the account's storage key.
// Returns ErrNotFound when no record exists, ErrUnreachable on any other
// failure.
func (c *Client) Pull(ctx context.Context, email, password string) (*state.Snapshot, error) {
	key := keys.StorageKey(email, password)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(key), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	var snap state.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: decoding snapshot: %v", ErrUnreachable, err)
	}
	return &snap, nil
}

// Push overwrites the account's stored snapshot with snap. The snapshot must
// carry a signed-in user; a logged-out push would publish an empty record
// over real data.
//
// Returns nil on an accepted write and ErrUnreachable otherwise. Callers
// treat failure as "sync pending", never fatal.
func (c *Client) Push(ctx context.Context, email, password string, snap state.Snapshot) error {
	if snap.CurrentUser == nil {
		return fmt.Errorf("%w: refusing to push snapshot without a user", ErrUnreachable)
	}

	key := keys.StorageKey(email, password)
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: encoding snapshot: %v", ErrUnreachable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(key), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}
	return nil
}

// discoveryRecord is the existence marker stored under a discovery key.
type discoveryRecord struct {
	Exists       bool  `json:"exists"`
	RegisteredAt int64 `json:"registeredAt"`
}

// CheckEmailExists reports whether an account with this email is known,
// consulting the local hint list before the cloud registry. Unreachable
// cloud reads as "does not exist" — signup remains possible offline.
func (c *Client) CheckEmailExists(ctx context.Context, email string) bool {
	clean := keys.NormalizeEmail(email)

	if c.cfg.Hints != nil {
		for _, known := range c.cfg.Hints.KnownAccounts() {
			if known == clean {
				return true
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(keys.DiscoveryKey(email)), nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}

	// Remember the hit locally for next time.
	if c.cfg.Hints != nil {
		_ = c.cfg.Hints.AddKnownAccount(clean)
	}
	return true
}

// RegisterEmail publishes the existence marker for a new account. The local
// hint is written first so discovery works immediately even when the cloud
// write is delayed; the error only reports the cloud side.
func (c *Client) RegisterEmail(ctx context.Context, email string) error {
	clean := keys.NormalizeEmail(email)

	if c.cfg.Hints != nil {
		_ = c.cfg.Hints.AddKnownAccount(clean)
	}

	body, err := json.Marshal(discoveryRecord{Exists: true, RegisteredAt: state.NowMillis()})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(keys.DiscoveryKey(email)), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}
	return nil
}
