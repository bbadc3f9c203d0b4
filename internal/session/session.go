// Package session manages the credential pair that stands in for
// authentication: login, signup, and sign-out lifecycles around the sync
// orchestrator.
//
// There is no session token. The (email, password) pair is persisted
// locally, and the storage key derived from it both names and guards the
// account's cloud record. That is a deliberate scope limitation inherited
// from the deployed data format, not a security design.
package session

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/hostflow/hostflow/internal/cache"
	"github.com/hostflow/hostflow/internal/keys"
	"github.com/hostflow/hostflow/internal/state"
	"github.com/hostflow/hostflow/internal/sync"
)

// Registrar publishes and checks account existence markers. Satisfied by
// *remote.Client.
type Registrar interface {
	CheckEmailExists(ctx context.Context, email string) bool
	RegisterEmail(ctx context.Context, email string) error
	Pull(ctx context.Context, email, password string) (*state.Snapshot, error)
}

// Manager coordinates login and logout across the cache, the store, and
// the sync orchestrator.
type Manager struct {
	store  *state.Store
	cache  *cache.Cache
	remote Registrar
	orch   *sync.Orchestrator
	logger *log.Logger
}

// New creates a session manager. If logger is nil a stderr logger is used.
func New(store *state.Store, localCache *cache.Cache, remoteStore Registrar, orch *sync.Orchestrator, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(os.Stderr, "[session] ", log.LstdFlags)
	}
	return &Manager{
		store:  store,
		cache:  localCache,
		remote: remoteStore,
		orch:   orch,
		logger: logger,
	}
}

// Login establishes a session for an existing account: the pulled remote
// snapshot (when present) becomes the working set, the credentials are
// persisted, and the orchestrator is armed so future edits push.
//
// When remoteSnap is nil (fresh signup, or an account with no cloud record
// yet) the freshly created state is kept and stamped now.
func (m *Manager) Login(user *state.User, email, password string, remoteSnap *state.Snapshot) error {
	email = keys.NormalizeEmail(email)

	if err := m.cache.SaveSession(email, password); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	// Arm before mutating so the login itself lands in the cache and
	// schedules the initial push.
	m.orch.Arm(email, password)

	if remoteSnap != nil {
		m.store.Apply(remoteSnap)
		device := remoteSnap.LastActiveDevice
		if device == "" {
			device = "Initial Sync"
		}
		at := remoteSnap.LastSyncedAt
		if at == 0 {
			at = state.NowMillis()
		}
		m.store.SetSynced(at, device)
	} else {
		m.store.SetSynced(state.NowMillis(), sync.DeviceName())
	}
	m.store.SetCurrentUser(user)

	m.logger.Printf("Signed in as %s", email)
	return nil
}

// Authenticate pulls the account record for (email, password) and returns
// the stored user when the credentials resolve to a real snapshot. A miss
// means a wrong password (the derived key names nothing) or an account with
// no cloud record.
func (m *Manager) Authenticate(ctx context.Context, email, password string) (*state.User, *state.Snapshot, error) {
	snap, err := m.remote.Pull(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	if snap.CurrentUser == nil {
		return nil, nil, fmt.Errorf("account record holds no user profile")
	}
	return snap.CurrentUser, snap, nil
}

// Signup creates a new account: the existence marker is published to the
// discovery namespace, then the session is established with fresh state.
// A failed marker write is logged, not fatal — discovery self-heals on the
// next successful register, and the account itself lives under the storage
// key.
func (m *Manager) Signup(ctx context.Context, user *state.User, email, password string) error {
	if err := m.remote.RegisterEmail(ctx, email); err != nil {
		m.logger.Printf("WARNING: cloud discovery registration delayed: %v", err)
	}
	return m.Login(user, email, password, nil)
}

// EmailExists reports whether an account with this email is already known,
// routing the login flow between password entry and signup.
func (m *Manager) EmailExists(ctx context.Context, email string) bool {
	return m.remote.CheckEmailExists(ctx, email)
}

// Logout clears the session and all local data. Callers must have obtained
// explicit user confirmation first — this discards the local cache (the
// remote copy is unaffected).
func (m *Manager) Logout() error {
	return m.orch.Logout()
}
