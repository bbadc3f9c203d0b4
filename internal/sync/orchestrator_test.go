package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	stdsync "sync"
	"testing"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/hostflow/hostflow/internal/cache"
	"github.com/hostflow/hostflow/internal/remote"
	"github.com/hostflow/hostflow/internal/state"
)

// plantCorruptSnapshot writes an unparseable snapshot record straight into
// the cache database, simulating a truncated write.
func plantCorruptSnapshot(t *testing.T, c *cache.Cache) {
	t.Helper()

	db, err := sql.Open("sqlite3", "file:"+c.Path())
	if err != nil {
		t.Fatalf("failed to open cache db: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES ('snapshot', ?, 0)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		`{"allBookings": [{"id"`,
	)
	if err != nil {
		t.Fatalf("failed to plant corrupt snapshot: %v", err)
	}
}

// fakeRemote is an in-memory Store that counts pushes and can be programmed
// to fail, block, or return a canned snapshot.
type fakeRemote struct {
	mu        stdsync.Mutex
	snapshots map[string]state.Snapshot
	pushes    int
	pullErr   error
	pushErr   error
	blockPush chan struct{} // when non-nil, Push waits until closed
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{snapshots: make(map[string]state.Snapshot)}
}

func (f *fakeRemote) Pull(_ context.Context, email, password string) (*state.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	snap, ok := f.snapshots[email+":"+password]
	if !ok {
		return nil, remote.ErrNotFound
	}
	cp := snap
	return &cp, nil
}

func (f *fakeRemote) Push(_ context.Context, email, password string, snap state.Snapshot) error {
	f.mu.Lock()
	block := f.blockPush
	f.mu.Unlock()
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes++
	f.snapshots[email+":"+password] = snap
	return nil
}

func (f *fakeRemote) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushes
}

// setupOrchestrator wires a store, temp cache, fake remote, and a fast
// debounce interval for tests.
func setupOrchestrator(t *testing.T, remoteStore Store) (*Orchestrator, *state.Store, *cache.Cache) {
	t.Helper()

	store := state.NewStore(
		[]state.InventoryItem{{ID: "inv-1", Name: "Towels", Quantity: 10, MinThreshold: 4}},
		state.DefaultStayPackages(),
		"v1.0.0",
	)
	c, err := cache.Open(filepath.Join(t.TempDir(), "hostflow.db"))
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	o := New(store, c, remoteStore, &Config{
		DebounceInterval: 50 * time.Millisecond,
		Device:           "Test Console",
		Logger:           log.New(io.Discard, "", 0),
	})
	t.Cleanup(o.Close)
	return o, store, c
}

// signIn puts the orchestrator into READY with a user in the store, the
// state every push path requires.
func signIn(t *testing.T, o *Orchestrator, store *state.Store, c *cache.Cache) {
	t.Helper()
	if err := c.SaveSession("host@farmstay.in", "orchard-gate"); err != nil {
		t.Fatalf("failed to save session: %v", err)
	}
	o.Arm("host@farmstay.in", "orchard-gate")
	store.SetCurrentUser(&state.User{ID: "u1", Name: "Meera", Email: "host@farmstay.in"})
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestBootstrapNoSession(t *testing.T) {
	fr := newFakeRemote()
	o, _, _ := setupOrchestrator(t, fr)

	if err := o.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if o.Phase() != PhaseLoggedOut {
		t.Errorf("no session should stay logged out, got %s", o.Phase())
	}
}

func TestBootstrapRemoteNewerWins(t *testing.T) {
	fr := newFakeRemote()
	fr.snapshots["host@farmstay.in:orchard-gate"] = state.Snapshot{
		CurrentUser:      &state.User{ID: "u1", Name: "Meera"},
		Bookings:         []state.Booking{{ID: "remote-b", GuestName: "Ravi", CheckIn: "2026-08-02"}},
		LastSyncedAt:     2000,
		LastActiveDevice: "Tablet",
	}

	o, store, c := setupOrchestrator(t, fr)
	if err := c.SaveSession("host@farmstay.in", "orchard-gate"); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if err := c.SaveSnapshot(state.Snapshot{
		CurrentUser:  &state.User{ID: "u1", Name: "Meera"},
		Bookings:     []state.Booking{{ID: "local-b", GuestName: "Asha", CheckIn: "2026-08-01"}},
		LastSyncedAt: 1000,
	}); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	if err := o.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	if o.Phase() != PhaseReady {
		t.Fatalf("phase = %s, want READY", o.Phase())
	}
	bookings := store.Bookings(state.ActiveAll)
	if len(bookings) != 1 || bookings[0].ID != "remote-b" {
		t.Errorf("newer remote snapshot not applied: %+v", bookings)
	}
	if store.LastSyncedAt() != 2000 {
		t.Errorf("lastSyncedAt = %d, want 2000", store.LastSyncedAt())
	}
}

func TestBootstrapStaleRemoteIgnored(t *testing.T) {
	fr := newFakeRemote()
	fr.snapshots["host@farmstay.in:orchard-gate"] = state.Snapshot{
		CurrentUser:  &state.User{ID: "u1"},
		Bookings:     []state.Booking{{ID: "remote-b"}},
		LastSyncedAt: 500,
	}

	o, store, c := setupOrchestrator(t, fr)
	if err := c.SaveSession("host@farmstay.in", "orchard-gate"); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if err := c.SaveSnapshot(state.Snapshot{
		CurrentUser:  &state.User{ID: "u1"},
		Bookings:     []state.Booking{{ID: "local-b"}},
		LastSyncedAt: 1000,
	}); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	if err := o.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	bookings := store.Bookings(state.ActiveAll)
	if len(bookings) != 1 || bookings[0].ID != "local-b" {
		t.Errorf("stale remote snapshot overwrote local: %+v", bookings)
	}
	// Equal timestamps must also keep local: the rule is strictly greater.
	fr.snapshots["host@farmstay.in:orchard-gate"] = state.Snapshot{
		CurrentUser:  &state.User{ID: "u1"},
		Bookings:     []state.Booking{{ID: "equal-b"}},
		LastSyncedAt: 1000,
	}
	if err := o.Bootstrap(context.Background()); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if got := store.Bookings(state.ActiveAll); got[0].ID != "local-b" {
		t.Errorf("equal-timestamp remote snapshot applied: %+v", got)
	}
}

func TestBootstrapUnreachableRemoteNonFatal(t *testing.T) {
	fr := newFakeRemote()
	fr.pullErr = remote.ErrUnreachable

	o, store, c := setupOrchestrator(t, fr)
	if err := c.SaveSession("host@farmstay.in", "orchard-gate"); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if err := c.SaveSnapshot(state.Snapshot{
		CurrentUser:  &state.User{ID: "u1"},
		LastSyncedAt: 1000,
	}); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	if err := o.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap should not fail on unreachable store: %v", err)
	}
	if o.Phase() != PhaseReady {
		t.Errorf("phase = %s, want READY (local-only working set)", o.Phase())
	}

	// Edits made offline still push once the store is back.
	fr.mu.Lock()
	fr.pullErr = nil
	fr.mu.Unlock()
	store.AddBooking(state.Booking{ID: "b1", GuestName: "Asha", CheckIn: "2026-08-01"})
	waitFor(t, time.Second, func() bool { return fr.pushCount() == 1 }, "offline edit never pushed")
}

func TestBootstrapCorruptCacheFallsThroughToRemote(t *testing.T) {
	fr := newFakeRemote()
	fr.snapshots["host@farmstay.in:orchard-gate"] = state.Snapshot{
		CurrentUser:  &state.User{ID: "u1", Name: "Meera"},
		Bookings:     []state.Booking{{ID: "remote-b"}},
		LastSyncedAt: 2000,
	}

	o, store, c := setupOrchestrator(t, fr)
	if err := c.SaveSession("host@farmstay.in", "orchard-gate"); err != nil {
		t.Fatalf("save session: %v", err)
	}
	plantCorruptSnapshot(t, c)

	if err := o.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap should survive a corrupt cache: %v", err)
	}
	if got := store.Bookings(state.ActiveAll); len(got) != 1 || got[0].ID != "remote-b" {
		t.Errorf("remote snapshot not applied after cache corruption: %+v", got)
	}
}

func TestDebounceCoalescing(t *testing.T) {
	fr := newFakeRemote()
	o, store, c := setupOrchestrator(t, fr)
	signIn(t, o, store, c)

	// A burst of edits inside the quiet period.
	for i := 0; i < 10; i++ {
		store.AddTransaction(state.Transaction{ID: fmt.Sprintf("t-%d", i), Type: state.Income, Amount: 100})
	}

	waitFor(t, time.Second, func() bool { return fr.pushCount() >= 1 }, "debounced push never fired")
	// Allow another full quiet period to catch spurious extra pushes.
	time.Sleep(150 * time.Millisecond)

	if got := fr.pushCount(); got != 1 {
		t.Errorf("10 rapid edits produced %d pushes, want 1", got)
	}
}

func TestStateChangePersistsToCacheImmediately(t *testing.T) {
	fr := newFakeRemote()
	o, store, c := setupOrchestrator(t, fr)
	signIn(t, o, store, c)

	store.AddBooking(state.Booking{ID: "b1", GuestName: "Asha", CheckIn: "2026-08-01"})

	// The cache write is synchronous with the mutation, before any push.
	snap, err := c.LoadSnapshot()
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(snap.Bookings) != 1 {
		t.Errorf("cache snapshot missing the booking: %+v", snap.Bookings)
	}
	if fr.pushCount() != 0 {
		t.Error("push fired before the quiet period elapsed")
	}
}

func TestPushFailureDoesNotAdvanceTimestamp(t *testing.T) {
	fr := newFakeRemote()
	fr.pushErr = remote.ErrUnreachable
	o, store, c := setupOrchestrator(t, fr)
	signIn(t, o, store, c)

	before := store.LastSyncedAt()
	store.AddBooking(state.Booking{ID: "b1", GuestName: "Asha", CheckIn: "2026-08-01"})

	waitFor(t, time.Second, func() bool { return o.Status().LastError != "" }, "push failure never recorded")
	if store.LastSyncedAt() != before {
		t.Error("failed push advanced lastSyncedAt")
	}

	// The store recovers; the next edit retries with a fresh stamp.
	fr.mu.Lock()
	fr.pushErr = nil
	fr.mu.Unlock()
	store.AddBooking(state.Booking{ID: "b2", GuestName: "Ravi", CheckIn: "2026-08-02"})
	waitFor(t, time.Second, func() bool { return fr.pushCount() == 1 }, "retry push never fired")
	if store.LastSyncedAt() <= before {
		t.Error("successful retry did not advance lastSyncedAt")
	}
}

func TestForcePushImmediate(t *testing.T) {
	fr := newFakeRemote()
	o, store, c := setupOrchestrator(t, fr)
	signIn(t, o, store, c)

	queued, err := o.ForcePush(context.Background())
	if err != nil {
		t.Fatalf("force push: %v", err)
	}
	if queued {
		t.Error("nothing in flight, push should have run immediately")
	}
	if fr.pushCount() != 1 {
		t.Errorf("push count = %d, want 1", fr.pushCount())
	}
}

func TestForcePushQueuedWhileInFlight(t *testing.T) {
	fr := newFakeRemote()
	fr.blockPush = make(chan struct{})
	o, store, c := setupOrchestrator(t, fr)
	signIn(t, o, store, c)

	// Start a push that blocks inside the fake remote.
	done := make(chan struct{})
	go func() {
		_, _ = o.ForcePush(context.Background())
		close(done)
	}()
	waitFor(t, time.Second, func() bool { return o.Status().PushInFlight }, "first push never started")

	// A second request while in flight queues instead of dropping.
	queued, err := o.ForcePush(context.Background())
	if err != nil {
		t.Fatalf("queued force push: %v", err)
	}
	if !queued {
		t.Error("expected the second push to be queued")
	}

	fr.mu.Lock()
	release := fr.blockPush
	fr.blockPush = nil
	fr.mu.Unlock()
	close(release)

	<-done
	waitFor(t, time.Second, func() bool { return fr.pushCount() == 2 }, "queued push never ran")
}

func TestForcePushRequiresSession(t *testing.T) {
	fr := newFakeRemote()
	o, _, _ := setupOrchestrator(t, fr)

	if _, err := o.ForcePush(context.Background()); err == nil {
		t.Error("force push while logged out should fail")
	}
}

func TestLogoutCancelsPendingPush(t *testing.T) {
	fr := newFakeRemote()
	o, store, c := setupOrchestrator(t, fr)
	signIn(t, o, store, c)

	// Arm the debounce timer, then sign out before it fires.
	store.AddBooking(state.Booking{ID: "b1", GuestName: "Asha", CheckIn: "2026-08-01"})
	if err := o.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}

	time.Sleep(120 * time.Millisecond)
	if fr.pushCount() != 0 {
		t.Error("a stale push fired after logout")
	}

	if _, err := c.LoadSession(); !errors.Is(err, cache.ErrNotFound) {
		t.Error("session survived logout")
	}
	if store.CurrentUser() != nil {
		t.Error("live state survived logout")
	}
	if o.Phase() != PhaseLoggedOut {
		t.Errorf("phase = %s, want LOGGED_OUT", o.Phase())
	}
}

func TestTwoDeviceLastWriteWins(t *testing.T) {
	// Device A pushes at t=1000; device B, which pulled at t=900, pushes at
	// t=1100. A third pull sees B's snapshot wholesale — device A's interim
	// edits are gone. Expected behavior, documented data-loss mode.
	fr := newFakeRemote()
	key := "host@farmstay.in:orchard-gate"

	fr.snapshots[key] = state.Snapshot{
		CurrentUser:  &state.User{ID: "u1"},
		Bookings:     []state.Booking{{ID: "from-a"}},
		LastSyncedAt: 1000,
	}
	fr.snapshots[key] = state.Snapshot{
		CurrentUser:  &state.User{ID: "u1"},
		Bookings:     []state.Booking{{ID: "from-b"}},
		LastSyncedAt: 1100,
	}

	o, store, c := setupOrchestrator(t, fr)
	if err := c.SaveSession("host@farmstay.in", "orchard-gate"); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if err := o.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	got := store.Bookings(state.ActiveAll)
	if len(got) != 1 || got[0].ID != "from-b" {
		t.Errorf("expected device B's snapshot in full, got %+v", got)
	}
}

func TestObserversSeePushLifecycle(t *testing.T) {
	fr := newFakeRemote()
	o, store, c := setupOrchestrator(t, fr)

	var mu stdsync.Mutex
	var seen []EventType
	o.Observe(func(ev Event) {
		mu.Lock()
		seen = append(seen, ev.Type)
		mu.Unlock()
	})

	signIn(t, o, store, c)
	if _, err := o.ForcePush(context.Background()); err != nil {
		t.Fatalf("force push: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	var started, completed bool
	for _, ev := range seen {
		if ev == EventPushStarted {
			started = true
		}
		if ev == EventPushComplete {
			completed = true
		}
	}
	if !started || !completed {
		t.Errorf("missing push lifecycle events, saw %v", seen)
	}
}
