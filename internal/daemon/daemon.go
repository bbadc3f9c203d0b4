// Package daemon provides the inbox daemon that imports kiosk check-in
// records into the live console state.
//
// The daemon:
// 1. Watches the inbox directory for dropped check-in JSON files
// 2. Imports each record as a booking, guest, and ledger entry
// 3. Archives processed files so a restart never double-imports
// 4. Handles graceful shutdown
//
// The front-desk kiosk writes one JSON file per completed check-in; the
// daemon is the only reader. Mutations go through the state store, so the
// sync layer picks them up the same way it picks up interactive edits.
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/hostflow/hostflow/internal/state"
)

// CheckInRecord is the wire format a kiosk drops into the inbox.
type CheckInRecord struct {
	PropertyID  string  `json:"propertyId"`
	GuestName   string  `json:"guestName"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	CheckIn     string  `json:"checkIn"`  // YYYY-MM-DD
	CheckOut    string  `json:"checkOut"` // YYYY-MM-DD
	GuestsCount int     `json:"guestsCount"`
	TotalPrice  float64 `json:"totalPrice"`
	Source      string  `json:"source,omitempty"`
	CottageName string  `json:"cottageName,omitempty"`
	IDType      string  `json:"idType,omitempty"`
	IDNumber    string  `json:"idNumber,omitempty"`
}

// Config holds configuration for the daemon.
type Config struct {
	// DebounceInterval is how long to wait before processing file changes.
	// Kiosks write records atomically but editors and copies may not, so
	// rapid writes to one file get batched together.
	DebounceInterval time.Duration

	// Logger for daemon activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 250 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon watches the inbox directory and imports check-in records.
type Daemon struct {
	store    *state.Store
	inboxDir string
	config   *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time // filepath -> timestamp
	changeQueueMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Daemon instance.
//
// The daemon requires:
//   - store: the live state store mutations flow into
//   - inboxDir: directory the kiosk drops check-in JSON files into
//
// Use Start() to begin watching and importing.
func New(store *state.Store, inboxDir string) (*Daemon, error) {
	return NewWithConfig(store, inboxDir, DefaultConfig())
}

// NewWithConfig creates a daemon with custom configuration.
func NewWithConfig(store *state.Store, inboxDir string, config *Config) (*Daemon, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if inboxDir == "" {
		return nil, fmt.Errorf("inboxDir cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		store:       store,
		inboxDir:    inboxDir,
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start begins the daemon's operation.
//
// The daemon will:
// 1. Import any records already waiting in the inbox
// 2. Start watching for new drops
// 3. Process drops with debouncing
//
// This blocks until ctx is cancelled or an error occurs.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting inbox daemon")

	if err := os.MkdirAll(d.processedDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create processed directory: %w", err)
	}
	if err := os.MkdirAll(d.failedDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create failed directory: %w", err)
	}

	// Drain anything that arrived while we were down
	if err := d.DrainInbox(); err != nil {
		return fmt.Errorf("initial inbox drain failed: %w", err)
	}

	if err := d.watcher.Add(d.inboxDir); err != nil {
		return fmt.Errorf("failed to watch inbox directory: %w", err)
	}

	d.config.Logger.Printf("Watching: %s", d.inboxDir)

	d.wg.Add(2)
	go d.watchFileEvents()
	go d.processChangeQueue()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping inbox daemon")

	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()

	d.config.Logger.Println("Inbox daemon stopped")
	return nil
}

// DrainInbox imports every record currently sitting in the inbox.
//
// Called on startup and usable for a one-shot import without running the
// watcher.
func (d *Daemon) DrainInbox() error {
	entries, err := os.ReadDir(d.inboxDir)
	if err != nil {
		return fmt.Errorf("failed to read inbox: %w", err)
	}

	imported := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(d.inboxDir, entry.Name())
		if err := d.importFile(path); err != nil {
			d.config.Logger.Printf("Warning: failed to import %s: %v", entry.Name(), err)
			continue
		}
		imported++
	}

	if imported > 0 {
		d.config.Logger.Printf("Imported %d waiting check-in records", imported)
	}
	return nil
}

// watchFileEvents monitors filesystem events and queues changes.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}

			// A kiosk drop shows up as Create, or Create+Write when the
			// writer isn't atomic
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			if filepath.Ext(event.Name) != ".json" {
				continue
			}

			d.config.Logger.Printf("Inbox event: %s %s", event.Op, event.Name)
			d.queueChange(event.Name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// queueChange adds a file to the change queue with debouncing.
func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	d.changeQueue[path] = time.Now()
}

// processChangeQueue processes queued drops with debouncing.
func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.processPendingChanges()
		}
	}
}

// processPendingChanges imports files that have been quiet for long enough.
func (d *Daemon) processPendingChanges() {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	now := time.Now()
	for path, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			continue
		}

		delete(d.changeQueue, path)

		// The file may already be gone if a drain raced the event
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		if err := d.importFile(path); err != nil {
			d.config.Logger.Printf("Error importing %s: %v", path, err)
		}
	}
}

// importFile reads one check-in record, applies it to the store, and
// archives the file. Unreadable or invalid records move to failed/ so the
// operator can inspect them.
func (d *Daemon) importFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read record: %w", err)
	}

	var rec CheckInRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		d.quarantine(path)
		return fmt.Errorf("failed to parse record: %w", err)
	}

	if err := d.applyRecord(&rec); err != nil {
		d.quarantine(path)
		return fmt.Errorf("invalid record: %w", err)
	}

	dest := filepath.Join(d.processedDir(), d.archiveName(path))
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("failed to archive record: %w", err)
	}

	d.config.Logger.Printf("Imported check-in for %s (%s to %s)", rec.GuestName, rec.CheckIn, rec.CheckOut)
	return nil
}

// applyRecord turns a record into a booking, a guest entry, and, when money
// changed hands, a ledger entry.
func (d *Daemon) applyRecord(rec *CheckInRecord) error {
	guestID := "guest-" + uuid.NewString()

	booking := state.Booking{
		ID:          "bk-" + uuid.NewString(),
		PropertyID:  rec.PropertyID,
		GuestID:     guestID,
		GuestName:   strings.TrimSpace(rec.GuestName),
		CheckIn:     rec.CheckIn,
		CheckOut:    rec.CheckOut,
		Status:      state.BookingCheckedIn,
		TotalPrice:  rec.TotalPrice,
		GuestsCount: rec.GuestsCount,
		Source:      rec.Source,
		CottageName: rec.CottageName,
	}
	if booking.GuestsCount <= 0 {
		booking.GuestsCount = 1
	}
	if booking.Source == "" {
		booking.Source = "Kiosk"
	}
	if err := booking.Validate(); err != nil {
		return err
	}

	d.store.AddBooking(booking)

	d.store.UpsertGuest(state.Guest{
		ID:         guestID,
		PropertyID: rec.PropertyID,
		Name:       booking.GuestName,
		Email:      strings.TrimSpace(strings.ToLower(rec.Email)),
		Phone:      strings.TrimSpace(rec.Phone),
		Rating:     5,
		TotalStays: 1,
		LastStay:   rec.CheckIn,
		IDType:     rec.IDType,
		IDNumber:   rec.IDNumber,
	})

	if rec.TotalPrice > 0 {
		d.store.AddTransaction(state.Transaction{
			ID:          "txn-" + uuid.NewString(),
			PropertyID:  rec.PropertyID,
			Date:        rec.CheckIn,
			Type:        state.Income,
			Category:    "Booking",
			Amount:      rec.TotalPrice,
			Description: fmt.Sprintf("Kiosk check-in: %s", booking.GuestName),
		})
	}

	return nil
}

// quarantine moves a bad record to failed/ instead of deleting it.
func (d *Daemon) quarantine(path string) {
	dest := filepath.Join(d.failedDir(), d.archiveName(path))
	if err := os.Rename(path, dest); err != nil {
		d.config.Logger.Printf("Error quarantining %s: %v", path, err)
	}
}

// archiveName prefixes the filename with a timestamp so repeated kiosk
// filenames never collide in the archive.
func (d *Daemon) archiveName(path string) string {
	return fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(path))
}

func (d *Daemon) processedDir() string {
	return filepath.Join(d.inboxDir, "processed")
}

func (d *Daemon) failedDir() string {
	return filepath.Join(d.inboxDir, "failed")
}
