package state

import (
	"sync"
)

// Store is the injected state container. All live domain data lives here,
// guarded by a single mutex; views and commands mutate through its methods
// and never touch storage directly. Every mutation fires the change hooks,
// which is how the sync layer learns that a new snapshot needs persisting.
type Store struct {
	mu sync.Mutex

	currentUser      *User
	properties       []PropertyConfig
	activePropertyID string
	currentView      View
	bookings         []Booking
	transactions     []Transaction
	guests           []Guest
	staffLogs        []StaffLog
	inventory        []InventoryItem
	stayPackages     []StayPackage
	lastSyncedAt     int64
	lastActiveDevice string

	defaultInventory []InventoryItem
	defaultPackages  []StayPackage
	appVersion       string

	onChange []func()
}

// NewStore creates a store seeded with the default inventory catalog and
// stay packages. defaultInventory is what a brand-new account starts with
// and what an empty incoming inventory list must never erase.
func NewStore(defaultInventory []InventoryItem, packages []StayPackage, appVersion string) *Store {
	s := &Store{
		defaultInventory: defaultInventory,
		defaultPackages:  packages,
		appVersion:       appVersion,
	}
	s.resetLocked()
	return s
}

// OnChange registers a hook invoked after every mutation. Hooks run outside
// the store lock so they may call Snapshot().
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.Lock()
	hooks := make([]func(), len(s.onChange))
	copy(hooks, s.onChange)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// resetLocked restores empty defaults. Caller holds no lock requirement
// beyond not racing mutators; used from NewStore and Reset.
func (s *Store) resetLocked() {
	s.currentUser = nil
	s.properties = nil
	s.activePropertyID = ActiveAll
	s.currentView = ViewDashboard
	s.bookings = nil
	s.transactions = nil
	s.guests = nil
	s.staffLogs = nil
	s.inventory = append([]InventoryItem(nil), s.defaultInventory...)
	s.stayPackages = append([]StayPackage(nil), s.defaultPackages...)
	s.lastSyncedAt = 0
	s.lastActiveDevice = ""
}

// Reset clears the store back to logged-out defaults. Used on sign-out.
func (s *Store) Reset() {
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
}

// Snapshot captures the full current state. Collections are copied and
// emitted non-nil, so every serialized snapshot is total (possibly-empty
// lists, never absent ones).
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ActivePropertyID: s.activePropertyID,
		CurrentView:      s.currentView,
		Properties:       copyList(s.properties),
		Bookings:         copyList(s.bookings),
		Transactions:     copyList(s.transactions),
		Guests:           copyList(s.guests),
		StaffLogs:        copyList(s.staffLogs),
		Inventory:        copyList(s.inventory),
		StayPackages:     copyList(s.stayPackages),
		LastSyncedAt:     s.lastSyncedAt,
		LastActiveDevice: s.lastActiveDevice,
		AppVersion:       s.appVersion,
	}
	if s.currentUser != nil {
		u := *s.currentUser
		snap.CurrentUser = &u
	}
	return snap
}

func copyList[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// Apply rehydrates the store from an incoming snapshot, field by field.
//
// Presence rules: a field overwrites the live value only when the incoming
// snapshot carries it (non-nil pointer, non-nil slice, non-empty scalar).
// Absent fields leave live state untouched, so a partially-populated cache
// record degrades instead of wiping data.
//
// Inventory is the one deliberate asymmetry: an incoming list that is
// present but EMPTY is also skipped, because a stale or half-initialized
// remote snapshot must not erase the richer local catalog. Empty bookings,
// guests, and transactions DO replace — an empty list there is a legitimate
// end state for a new property.
//
// Apply does not fire change hooks: rehydration restores persisted state,
// it does not create new state to sync.
func (s *Store) Apply(in *Snapshot) {
	if in == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.CurrentUser != nil {
		u := *in.CurrentUser
		s.currentUser = &u
	}
	if in.Properties != nil {
		s.properties = copyList(in.Properties)
	}
	if in.ActivePropertyID != "" {
		s.activePropertyID = in.ActivePropertyID
	}
	if in.CurrentView != "" {
		s.currentView = in.CurrentView
	}
	if in.Bookings != nil {
		s.bookings = copyList(in.Bookings)
	}
	if in.Transactions != nil {
		s.transactions = copyList(in.Transactions)
	}
	if in.Guests != nil {
		s.guests = copyList(in.Guests)
	}
	if in.StaffLogs != nil {
		s.staffLogs = copyList(in.StaffLogs)
	}
	if len(in.Inventory) > 0 {
		s.inventory = copyList(in.Inventory)
	}
	if in.StayPackages != nil {
		s.stayPackages = copyList(in.StayPackages)
	}
	if in.LastSyncedAt > 0 {
		s.lastSyncedAt = in.LastSyncedAt
	}
	if in.LastActiveDevice != "" {
		s.lastActiveDevice = in.LastActiveDevice
	}
}

// LastSyncedAt reports the timestamp of the last applied or pushed snapshot.
func (s *Store) LastSyncedAt() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSyncedAt
}

// SetSynced records a successful push or applied pull.
func (s *Store) SetSynced(at int64, device string) {
	s.mu.Lock()
	s.lastSyncedAt = at
	s.lastActiveDevice = device
	s.mu.Unlock()
}

// CurrentUser returns the signed-in user, or nil when logged out.
func (s *Store) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentUser == nil {
		return nil
	}
	u := *s.currentUser
	return &u
}

// SetCurrentUser installs the operator profile (login, signup).
func (s *Store) SetCurrentUser(u *User) {
	s.mu.Lock()
	if u == nil {
		s.currentUser = nil
	} else {
		cp := *u
		s.currentUser = &cp
	}
	s.mu.Unlock()
	s.notify()
}

// SetCurrentView records the active console section.
func (s *Store) SetCurrentView(v View) {
	s.mu.Lock()
	s.currentView = v
	s.mu.Unlock()
	s.notify()
}

// Properties returns the portfolio.
func (s *Store) Properties() []PropertyConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyList(s.properties)
}

// AddProperty appends a property and makes it active.
func (s *Store) AddProperty(p PropertyConfig) {
	s.mu.Lock()
	s.properties = append(s.properties, p)
	s.activePropertyID = p.ID
	s.mu.Unlock()
	s.notify()
}

// UpdateProperty replaces the property with a matching ID.
func (s *Store) UpdateProperty(p PropertyConfig) {
	s.mu.Lock()
	for i := range s.properties {
		if s.properties[i].ID == p.ID {
			s.properties[i] = p
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// ActivePropertyID returns the portfolio selector ("all" or a property id).
func (s *Store) ActivePropertyID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activePropertyID
}

// SetActiveProperty switches the portfolio selector.
func (s *Store) SetActiveProperty(id string) {
	s.mu.Lock()
	s.activePropertyID = id
	s.mu.Unlock()
	s.notify()
}

// resolvePropertyLocked maps the "all" selector onto a concrete property for
// records that need an owner, matching the console's fallback behavior.
func (s *Store) resolvePropertyLocked(id string) string {
	if id != "" && id != ActiveAll {
		return id
	}
	if s.activePropertyID != ActiveAll {
		return s.activePropertyID
	}
	if len(s.properties) > 0 {
		return s.properties[0].ID
	}
	return "prop-1"
}

// Bookings returns bookings, filtered to the property when id is not "all".
func (s *Store) Bookings(propertyID string) []Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterByProperty(s.bookings, propertyID, func(b Booking) string { return b.PropertyID })
}

// AddBooking prepends a booking, stamping it with the active property.
func (s *Store) AddBooking(b Booking) {
	s.mu.Lock()
	b.PropertyID = s.resolvePropertyLocked(b.PropertyID)
	s.bookings = append([]Booking{b}, s.bookings...)
	s.mu.Unlock()
	s.notify()
}

// UpdateBooking replaces the booking with a matching ID.
func (s *Store) UpdateBooking(b Booking) {
	s.mu.Lock()
	for i := range s.bookings {
		if s.bookings[i].ID == b.ID {
			s.bookings[i] = b
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// DeleteBooking removes a booking by ID.
func (s *Store) DeleteBooking(id string) {
	s.mu.Lock()
	s.bookings = deleteByID(s.bookings, id, func(b Booking) string { return b.ID })
	s.mu.Unlock()
	s.notify()
}

// Transactions returns ledger entries, filtered by property.
func (s *Store) Transactions(propertyID string) []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterByProperty(s.transactions, propertyID, func(t Transaction) string { return t.PropertyID })
}

// AddTransaction prepends a ledger entry.
func (s *Store) AddTransaction(t Transaction) {
	s.mu.Lock()
	t.PropertyID = s.resolvePropertyLocked(t.PropertyID)
	s.transactions = append([]Transaction{t}, s.transactions...)
	s.mu.Unlock()
	s.notify()
}

// UpdateTransaction replaces the entry with a matching ID.
func (s *Store) UpdateTransaction(t Transaction) {
	s.mu.Lock()
	for i := range s.transactions {
		if s.transactions[i].ID == t.ID {
			s.transactions[i] = t
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// DeleteTransaction removes a ledger entry by ID.
func (s *Store) DeleteTransaction(id string) {
	s.mu.Lock()
	s.transactions = deleteByID(s.transactions, id, func(t Transaction) string { return t.ID })
	s.mu.Unlock()
	s.notify()
}

// Guests returns CRM records, filtered by property.
func (s *Store) Guests(propertyID string) []Guest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterByProperty(s.guests, propertyID, func(g Guest) string { return g.PropertyID })
}

// UpsertGuest adds a guest, or merges into an existing record when the
// email or phone already matches one (repeat visitors keep one CRM entry).
func (s *Store) UpsertGuest(g Guest) {
	s.mu.Lock()
	g.PropertyID = s.resolvePropertyLocked(g.PropertyID)

	merged := false
	for i := range s.guests {
		ex := s.guests[i]
		if (g.Email != "" && ex.Email == g.Email) || (g.Phone != "" && ex.Phone == g.Phone) {
			g.ID = ex.ID
			g.TotalStays = ex.TotalStays + 1
			s.guests[i] = g
			merged = true
			break
		}
	}
	if !merged {
		s.guests = append([]Guest{g}, s.guests...)
	}
	s.mu.Unlock()
	s.notify()
}

// DeleteGuest removes a CRM record by ID.
func (s *Store) DeleteGuest(id string) {
	s.mu.Lock()
	s.guests = deleteByID(s.guests, id, func(g Guest) string { return g.ID })
	s.mu.Unlock()
	s.notify()
}

// StaffLogs returns staff-portal audit entries, filtered by property.
func (s *Store) StaffLogs(propertyID string) []StaffLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterByProperty(s.staffLogs, propertyID, func(l StaffLog) string { return l.PropertyID })
}

// AddStaffLog prepends an audit entry.
func (s *Store) AddStaffLog(l StaffLog) {
	s.mu.Lock()
	l.PropertyID = s.resolvePropertyLocked(l.PropertyID)
	s.staffLogs = append([]StaffLog{l}, s.staffLogs...)
	s.mu.Unlock()
	s.notify()
}

// Inventory returns stock lines, filtered by property.
func (s *Store) Inventory(propertyID string) []InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterByProperty(s.inventory, propertyID, func(i InventoryItem) string { return i.PropertyID })
}

// AddInventoryItem appends a stock line.
func (s *Store) AddInventoryItem(item InventoryItem) {
	s.mu.Lock()
	s.inventory = append(s.inventory, item)
	s.mu.Unlock()
	s.notify()
}

// AdjustInventory changes a stock line's quantity by delta, floored at zero.
// Returns false when no item has that ID.
func (s *Store) AdjustInventory(id string, delta int) bool {
	s.mu.Lock()
	found := false
	for i := range s.inventory {
		if s.inventory[i].ID == id {
			q := s.inventory[i].Quantity + delta
			if q < 0 {
				q = 0
			}
			s.inventory[i].Quantity = q
			found = true
			break
		}
	}
	s.mu.Unlock()
	if found {
		s.notify()
	}
	return found
}

// DeleteInventoryItem removes a stock line by ID.
func (s *Store) DeleteInventoryItem(id string) {
	s.mu.Lock()
	s.inventory = deleteByID(s.inventory, id, func(i InventoryItem) string { return i.ID })
	s.mu.Unlock()
	s.notify()
}

// StayPackages returns the offered stay products.
func (s *Store) StayPackages() []StayPackage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyList(s.stayPackages)
}

// SetStayPackages replaces the offered stay products.
func (s *Store) SetStayPackages(pkgs []StayPackage) {
	s.mu.Lock()
	s.stayPackages = copyList(pkgs)
	s.mu.Unlock()
	s.notify()
}

func filterByProperty[T any](in []T, propertyID string, key func(T) string) []T {
	if propertyID == "" || propertyID == ActiveAll {
		return copyList(in)
	}
	var out []T
	for _, v := range in {
		if key(v) == propertyID {
			out = append(out, v)
		}
	}
	return out
}

func deleteByID[T any](in []T, id string, key func(T) string) []T {
	out := in[:0]
	for _, v := range in {
		if key(v) != id {
			out = append(out, v)
		}
	}
	return out
}
