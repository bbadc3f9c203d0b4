package daemon

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hostflow/hostflow/internal/state"
)

// setupTestStore creates a store seeded with the default catalog.
func setupTestStore(t *testing.T) *state.Store {
	t.Helper()

	inv, err := state.DefaultInventory()
	if err != nil {
		t.Fatalf("Failed to load default inventory: %v", err)
	}
	return state.NewStore(inv, state.DefaultStayPackages(), "1.0.0")
}

// setupInbox creates a temporary inbox directory.
func setupInbox(t *testing.T) string {
	t.Helper()

	inbox := filepath.Join(t.TempDir(), "inbox")
	if err := os.MkdirAll(inbox, 0o755); err != nil {
		t.Fatalf("Failed to create inbox dir: %v", err)
	}
	return inbox
}

// dropRecord writes a check-in record into the inbox like a kiosk would.
func dropRecord(t *testing.T, inbox, name string, rec *CheckInRecord) {
	t.Helper()

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Failed to marshal record: %v", err)
	}
	if err := os.WriteFile(filepath.Join(inbox, name), data, 0o644); err != nil {
		t.Fatalf("Failed to write record: %v", err)
	}
}

func testConfig() *Config {
	return &Config{
		DebounceInterval: 50 * time.Millisecond,
		Logger:           log.New(io.Discard, "", 0),
	}
}

func validRecord() *CheckInRecord {
	return &CheckInRecord{
		PropertyID:  "prop-1",
		GuestName:   "Priya Nair",
		Email:       "priya@example.com",
		Phone:       "+91 98000 00000",
		CheckIn:     "2026-03-10",
		CheckOut:    "2026-03-12",
		GuestsCount: 2,
		TotalPrice:  9000,
	}
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func TestNew(t *testing.T) {
	store := setupTestStore(t)
	inbox := setupInbox(t)

	tests := []struct {
		name    string
		store   *state.Store
		inbox   string
		wantErr bool
	}{
		{name: "valid configuration", store: store, inbox: inbox, wantErr: false},
		{name: "nil store", store: nil, inbox: inbox, wantErr: true},
		{name: "empty inbox dir", store: store, inbox: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.store, tt.inbox)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if d != nil {
				defer d.Stop()
			}
		})
	}
}

func TestDrainImportsWaitingRecords(t *testing.T) {
	store := setupTestStore(t)
	inbox := setupInbox(t)

	dropRecord(t, inbox, "checkin-1.json", validRecord())
	rec2 := validRecord()
	rec2.GuestName = "Arjun Mehta"
	rec2.Email = "arjun@example.com"
	dropRecord(t, inbox, "checkin-2.json", rec2)

	d, err := NewWithConfig(store, inbox, testConfig())
	if err != nil {
		t.Fatalf("Failed to create daemon: %v", err)
	}
	defer d.Stop()

	if err := os.MkdirAll(filepath.Join(inbox, "processed"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(inbox, "failed"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := d.DrainInbox(); err != nil {
		t.Fatalf("DrainInbox() error = %v", err)
	}

	bookings := store.Bookings("prop-1")
	if len(bookings) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(bookings))
	}
	if got := len(store.Guests("prop-1")); got != 2 {
		t.Errorf("expected 2 guests, got %d", got)
	}
	if got := len(store.Transactions("prop-1")); got != 2 {
		t.Errorf("expected 2 ledger entries, got %d", got)
	}

	// Inbox itself should be empty now
	entries, err := os.ReadDir(inbox)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			t.Errorf("unprocessed file left in inbox: %s", e.Name())
		}
	}
}

func TestWatcherImportsNewDrop(t *testing.T) {
	store := setupTestStore(t)
	inbox := setupInbox(t)

	d, err := NewWithConfig(store, inbox, testConfig())
	if err != nil {
		t.Fatalf("Failed to create daemon: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Start(ctx)
	}()

	// Wait for watcher to come up
	time.Sleep(100 * time.Millisecond)

	dropRecord(t, inbox, "kiosk-drop.json", validRecord())

	waitFor(t, 2*time.Second, func() bool {
		return len(store.Bookings("prop-1")) == 1
	})

	b := store.Bookings("prop-1")[0]
	if b.GuestName != "Priya Nair" {
		t.Errorf("expected imported guest name, got %q", b.GuestName)
	}
	if b.Status != state.BookingCheckedIn {
		t.Errorf("expected CHECKED_IN status, got %q", b.Status)
	}
	if b.Source != "Kiosk" {
		t.Errorf("expected Kiosk source default, got %q", b.Source)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Daemon error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Daemon did not shut down within timeout")
	}
}

func TestRepeatGuestMergesCRMRecord(t *testing.T) {
	store := setupTestStore(t)
	inbox := setupInbox(t)

	store.UpsertGuest(state.Guest{
		ID:         "guest-existing",
		PropertyID: "prop-1",
		Name:       "Priya Nair",
		Email:      "priya@example.com",
		TotalStays: 3,
	})

	dropRecord(t, inbox, "repeat.json", validRecord())

	d, err := NewWithConfig(store, inbox, testConfig())
	if err != nil {
		t.Fatalf("Failed to create daemon: %v", err)
	}
	defer d.Stop()

	if err := os.MkdirAll(filepath.Join(inbox, "processed"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(inbox, "failed"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := d.DrainInbox(); err != nil {
		t.Fatalf("DrainInbox() error = %v", err)
	}

	guests := store.Guests("prop-1")
	if len(guests) != 1 {
		t.Fatalf("expected guest merge, got %d guests", len(guests))
	}
	if guests[0].ID != "guest-existing" {
		t.Errorf("merge should keep original guest ID, got %q", guests[0].ID)
	}
	if guests[0].TotalStays != 4 {
		t.Errorf("expected stay count bumped to 4, got %d", guests[0].TotalStays)
	}
}

func TestInvalidRecordQuarantined(t *testing.T) {
	store := setupTestStore(t)
	inbox := setupInbox(t)

	// Unparseable JSON
	if err := os.WriteFile(filepath.Join(inbox, "garble.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Parseable but missing required fields
	bad := validRecord()
	bad.GuestName = ""
	dropRecord(t, inbox, "incomplete.json", bad)

	d, err := NewWithConfig(store, inbox, testConfig())
	if err != nil {
		t.Fatalf("Failed to create daemon: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Start(ctx)
	}()

	<-ctx.Done()
	if err := <-errCh; err != nil {
		t.Fatalf("Daemon error: %v", err)
	}

	if got := len(store.Bookings("prop-1")); got != 0 {
		t.Errorf("invalid records must not create bookings, got %d", got)
	}

	failed, err := os.ReadDir(filepath.Join(inbox, "failed"))
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 2 {
		t.Errorf("expected 2 quarantined files, got %d", len(failed))
	}
}

func TestNonJsonFilesIgnored(t *testing.T) {
	store := setupTestStore(t)
	inbox := setupInbox(t)

	if err := os.WriteFile(filepath.Join(inbox, "README.txt"), []byte("not a record"), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := NewWithConfig(store, inbox, testConfig())
	if err != nil {
		t.Fatalf("Failed to create daemon: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Start(ctx)
	}()

	<-ctx.Done()
	if err := <-errCh; err != nil {
		t.Errorf("Daemon error: %v", err)
	}

	if got := len(store.Bookings("prop-1")); got != 0 {
		t.Errorf("expected no bookings from non-JSON files, got %d", got)
	}
	if _, err := os.Stat(filepath.Join(inbox, "README.txt")); err != nil {
		t.Errorf("non-JSON file should be left alone: %v", err)
	}
}

func TestGracefulShutdown(t *testing.T) {
	store := setupTestStore(t)
	inbox := setupInbox(t)

	d, err := NewWithConfig(store, inbox, testConfig())
	if err != nil {
		t.Fatalf("Failed to create daemon: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Daemon shutdown error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Daemon did not shut down within timeout")
	}
}
