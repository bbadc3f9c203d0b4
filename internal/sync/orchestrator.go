// Package sync orchestrates snapshot persistence between live state, the
// local cache, and the cloud store.
//
// The orchestrator:
//  1. Bootstraps at startup: local cache first for an instant working set,
//     then a remote pull, keeping whichever snapshot is newer
//  2. Persists every state change to the local cache immediately
//  3. Debounces remote pushes, collapsing bursts of edits into one write
//  4. Exposes a manual force push and a clean sign-out path
//
// Ordering between devices is last-write-wins on the snapshot timestamp.
// There is no element-level merge: the device that pushes last with a newer
// stamp wins entirely, and interim edits from another device are gone unless
// it re-pulled first. Acceptable for a single small operator, documented
// here so nobody mistakes it for a conflict-free protocol.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	stdsync "sync"
	"time"

	"golang.org/x/mod/semver"

	"github.com/hostflow/hostflow/internal/cache"
	"github.com/hostflow/hostflow/internal/remote"
	"github.com/hostflow/hostflow/internal/state"
)

// Phase is the orchestrator's lifecycle state.
type Phase string

const (
	PhaseLoggedOut     Phase = "LOGGED_OUT"
	PhaseBootstrapping Phase = "BOOTSTRAPPING"
	PhaseReady         Phase = "READY"
)

// EventType classifies sync lifecycle events for observers.
type EventType string

const (
	EventBootstrapped EventType = "bootstrapped"
	EventPullApplied  EventType = "pull_applied"
	EventPushStarted  EventType = "push_started"
	EventPushComplete EventType = "push_complete"
	EventPushFailed   EventType = "push_failed"
	EventLoggedOut    EventType = "logged_out"
)

// Event is a sync lifecycle notification delivered to observers (the CLI
// status line, the dashboard broadcaster).
type Event struct {
	Type         EventType `json:"type"`
	At           time.Time `json:"at"`
	LastSyncedAt int64     `json:"lastSyncedAt,omitempty"`
	Device       string    `json:"device,omitempty"`
	Detail       string    `json:"detail,omitempty"`
}

// Store is the remote snapshot store the orchestrator pushes to and pulls
// from. Satisfied by *remote.Client.
type Store interface {
	Pull(ctx context.Context, email, password string) (*state.Snapshot, error)
	Push(ctx context.Context, email, password string, snap state.Snapshot) error
}

// Config holds orchestrator configuration.
type Config struct {
	// DebounceInterval is the quiet period after the last edit before a
	// remote push fires. Bursts of edits inside the window coalesce into
	// one write.
	DebounceInterval time.Duration

	// Device labels pushed snapshots; defaults to DeviceName().
	Device string

	// Logger for sync activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 5 * time.Second,
		Device:           DeviceName(),
		Logger:           log.New(os.Stderr, "[sync] ", log.LstdFlags),
	}
}

// Status is a point-in-time view of the orchestrator for display.
type Status struct {
	Phase        Phase
	PushPending  bool
	PushInFlight bool
	LastSyncedAt int64
	LastDevice   string
	LastError    string
}

// Orchestrator owns the decision of when a snapshot is durable (local cache)
// versus published (remote store). It is the only writer to either; domain
// code mutates the state.Store and nothing else.
type Orchestrator struct {
	store  *state.Store
	cache  *cache.Cache
	remote Store
	cfg    *Config

	mu           stdsync.Mutex
	phase        Phase
	email        string
	password     string
	timer        *time.Timer
	pushPending  bool
	pushInFlight bool
	manualQueued bool
	lastError    string
	observers    []func(Event)

	// inflight lets Close and tests wait for a push that already started.
	inflight stdsync.WaitGroup
}

// New creates an orchestrator and hooks it into the store's change
// notifications. A nil config uses DefaultConfig.
func New(store *state.Store, localCache *cache.Cache, remoteStore Store, cfg *Config) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = 5 * time.Second
	}
	if cfg.Device == "" {
		cfg.Device = DeviceName()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}

	o := &Orchestrator{
		store:  store,
		cache:  localCache,
		remote: remoteStore,
		cfg:    cfg,
		phase:  PhaseLoggedOut,
	}
	store.OnChange(o.onStateChange)
	return o
}

// Observe registers a callback for sync lifecycle events. Callbacks run on
// the goroutine that produced the event and must not block.
func (o *Orchestrator) Observe(fn func(Event)) {
	o.mu.Lock()
	o.observers = append(o.observers, fn)
	o.mu.Unlock()
}

func (o *Orchestrator) emit(ev Event) {
	ev.At = time.Now()
	o.mu.Lock()
	obs := make([]func(Event), len(o.observers))
	copy(obs, o.observers)
	o.mu.Unlock()
	for _, fn := range obs {
		fn(ev)
	}
}

// Bootstrap restores the working set at process start.
//
// If no session is persisted the orchestrator stays logged out. Otherwise:
// the cached snapshot is applied immediately (optimistic local-first), then
// the remote store is pulled and applied only when strictly newer than what
// is already live. Pull failures are non-fatal — local-only data is accepted
// and future edits still push.
func (o *Orchestrator) Bootstrap(ctx context.Context) error {
	sess, err := o.cache.LoadSession()
	if errors.Is(err, cache.ErrNotFound) {
		return nil
	}
	if err != nil {
		// A malformed session record cannot be recovered; treat as logged
		// out rather than crashing the console.
		o.cfg.Logger.Printf("WARNING: discarding unreadable session: %v", err)
		return nil
	}

	o.mu.Lock()
	o.phase = PhaseBootstrapping
	o.email = sess.Email
	o.password = sess.Password
	o.mu.Unlock()

	if snap, err := o.cache.LoadSnapshot(); err == nil {
		o.warnNewerWriter(snap)
		o.store.Apply(snap)
	} else if !errors.Is(err, cache.ErrNotFound) {
		o.cfg.Logger.Printf("WARNING: skipping local snapshot: %v", err)
	}

	remoteSnap, err := o.remote.Pull(ctx, sess.Email, sess.Password)
	switch {
	case err == nil:
		applied := o.store.LastSyncedAt()
		if applied == 0 || remoteSnap.LastSyncedAt > applied {
			o.warnNewerWriter(remoteSnap)
			o.store.Apply(remoteSnap)
			device := remoteSnap.LastActiveDevice
			if device == "" {
				device = "Cloud Vault"
			}
			o.store.SetSynced(remoteSnap.LastSyncedAt, device)
			o.emit(Event{Type: EventPullApplied, LastSyncedAt: remoteSnap.LastSyncedAt, Device: device})
			o.cfg.Logger.Printf("Applied remote snapshot from %s (t=%d)", device, remoteSnap.LastSyncedAt)
		} else {
			o.cfg.Logger.Printf("Remote snapshot not newer (remote=%d local=%d), keeping local", remoteSnap.LastSyncedAt, applied)
		}
	case errors.Is(err, remote.ErrNotFound):
		o.cfg.Logger.Printf("No remote snapshot yet for this account")
	default:
		// Unreachable store degrades to local-only; edits still queue.
		o.cfg.Logger.Printf("WARNING: remote pull failed, continuing with local data: %v", err)
	}

	o.mu.Lock()
	o.phase = PhaseReady
	o.mu.Unlock()
	o.emit(Event{Type: EventBootstrapped, LastSyncedAt: o.store.LastSyncedAt()})
	return nil
}

// Arm transitions to READY with fresh credentials, used right after login
// when there is no bootstrap to run. Future edits persist and push.
func (o *Orchestrator) Arm(email, password string) {
	o.mu.Lock()
	o.phase = PhaseReady
	o.email = email
	o.password = password
	o.mu.Unlock()
}

// Phase returns the current lifecycle phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Status reports the orchestrator state for display.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	snap := o.store.Snapshot()
	return Status{
		Phase:        o.phase,
		PushPending:  o.pushPending,
		PushInFlight: o.pushInFlight,
		LastSyncedAt: snap.LastSyncedAt,
		LastDevice:   snap.LastActiveDevice,
		LastError:    o.lastError,
	}
}

// onStateChange runs after every store mutation: the snapshot goes to the
// local cache synchronously, and the remote push timer is (re)armed. Arming
// cancels any previously pending timer so only the final edit of a burst
// schedules a push.
func (o *Orchestrator) onStateChange() {
	o.mu.Lock()
	if o.phase != PhaseReady {
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	if err := o.cache.SaveSnapshot(o.store.Snapshot()); err != nil {
		// Cache-full or I/O failure: the prior cached value remains, which
		// is survivable; say so instead of failing silently.
		o.cfg.Logger.Printf("WARNING: local cache write failed: %v", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.timer != nil {
		o.timer.Stop()
	}
	o.pushPending = true
	o.timer = time.AfterFunc(o.cfg.DebounceInterval, o.debouncedPush)
}

// debouncedPush fires when the quiet period elapses.
func (o *Orchestrator) debouncedPush() {
	o.mu.Lock()
	o.pushPending = false
	if o.phase != PhaseReady || o.pushInFlight {
		// An overlapping push is already underway; its completion handles
		// any queued follow-up.
		o.mu.Unlock()
		return
	}
	o.beginPushLocked()
	o.mu.Unlock()

	o.runPush(context.Background())
}

// ForcePush pushes the current snapshot immediately, bypassing the timer.
//
// At most one push runs at a time. If one is already in flight the request
// is queued — exactly one — and runs as soon as the in-flight push
// completes; queued=true tells the caller their push was deferred rather
// than silently dropped.
func (o *Orchestrator) ForcePush(ctx context.Context) (queued bool, err error) {
	o.mu.Lock()
	if o.phase != PhaseReady {
		o.mu.Unlock()
		return false, fmt.Errorf("not signed in")
	}
	if o.pushInFlight {
		o.manualQueued = true
		o.mu.Unlock()
		return true, nil
	}
	if o.timer != nil {
		o.timer.Stop()
		o.pushPending = false
	}
	o.beginPushLocked()
	o.mu.Unlock()

	return false, o.runPush(ctx)
}

// beginPushLocked marks a push in flight. Caller holds o.mu.
func (o *Orchestrator) beginPushLocked() {
	o.pushInFlight = true
	o.inflight.Add(1)
}

// runPush executes one remote write with a fresh timestamp. On success the
// orchestrator's notion of lastSyncedAt advances and the cache is updated to
// match; on failure it does not advance, so the next change or manual
// trigger retries with a new stamp.
func (o *Orchestrator) runPush(ctx context.Context) error {
	defer o.inflight.Done()

	o.mu.Lock()
	email, password := o.email, o.password
	o.mu.Unlock()

	now := state.NowMillis()
	snap := o.store.Snapshot()
	snap.LastSyncedAt = now
	snap.LastActiveDevice = o.cfg.Device

	o.emit(Event{Type: EventPushStarted, LastSyncedAt: now, Device: o.cfg.Device})
	err := o.remote.Push(ctx, email, password, snap)

	o.mu.Lock()
	o.pushInFlight = false
	rearm := o.manualQueued
	o.manualQueued = false
	if o.phase != PhaseReady {
		// Signed out while the push was in flight; drop everything.
		o.mu.Unlock()
		return err
	}
	if err != nil {
		o.lastError = err.Error()
	} else {
		o.lastError = ""
	}
	o.mu.Unlock()

	if err != nil {
		o.cfg.Logger.Printf("WARNING: push failed, will retry on next cycle: %v", err)
		o.emit(Event{Type: EventPushFailed, Detail: err.Error()})
	} else {
		o.store.SetSynced(now, o.cfg.Device)
		if cerr := o.cache.SaveSnapshot(o.store.Snapshot()); cerr != nil {
			o.cfg.Logger.Printf("WARNING: local cache write failed: %v", cerr)
		}
		o.cfg.Logger.Printf("Pushed snapshot (t=%d)", now)
		o.emit(Event{Type: EventPushComplete, LastSyncedAt: now, Device: o.cfg.Device})
	}

	if rearm {
		// A manual push arrived mid-flight; honor it now.
		o.mu.Lock()
		if o.phase != PhaseReady || o.pushInFlight {
			o.mu.Unlock()
			return err
		}
		o.beginPushLocked()
		o.mu.Unlock()
		return o.runPush(ctx)
	}
	return err
}

// Logout tears down the session: any pending debounce timer is cancelled so
// a stale push cannot fire after sign-out, local cache records are cleared,
// and live state resets to empty defaults. The remote copy is untouched.
func (o *Orchestrator) Logout() error {
	o.mu.Lock()
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.pushPending = false
	o.manualQueued = false
	o.phase = PhaseLoggedOut
	o.email = ""
	o.password = ""
	o.mu.Unlock()

	// Let any in-flight push drain; it will see LOGGED_OUT and discard.
	o.inflight.Wait()

	if err := o.cache.Clear(); err != nil {
		return fmt.Errorf("failed to clear local cache: %w", err)
	}
	o.store.Reset()
	o.emit(Event{Type: EventLoggedOut})
	o.cfg.Logger.Printf("Signed out, local state cleared")
	return nil
}

// Close cancels any pending work without clearing state. Used at process
// shutdown so a torn-down process cannot fire a late push.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.pushPending = false
	o.mu.Unlock()
	o.inflight.Wait()
}

// warnNewerWriter logs when a snapshot was written by a newer client
// version than this binary; the snapshot is still applied.
func (o *Orchestrator) warnNewerWriter(snap *state.Snapshot) {
	self := o.store.Snapshot().AppVersion
	if snap.AppVersion == "" || self == "" {
		return
	}
	if semver.IsValid(snap.AppVersion) && semver.IsValid(self) && semver.Compare(snap.AppVersion, self) > 0 {
		o.cfg.Logger.Printf("WARNING: snapshot written by newer client %s (this is %s)", snap.AppVersion, self)
	}
}

// DeviceName labels this device in pushed snapshots, the console analogue
// of the browser's user-agent sniffing.
func DeviceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "console"
	}
	var platform string
	switch runtime.GOOS {
	case "darwin":
		platform = "Mac"
	case "windows":
		platform = "Windows"
	case "linux":
		platform = "Linux"
	default:
		platform = runtime.GOOS
	}
	return fmt.Sprintf("%s Console (%s)", platform, host)
}
