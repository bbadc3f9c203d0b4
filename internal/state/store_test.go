package state

import (
	"encoding/json"
	"testing"
)

// newTestStore builds a store with a small known default catalog.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	defaults := []InventoryItem{
		{ID: "inv-1", Name: "Bath Towels", Category: CategoryLinen, Quantity: 10, MinThreshold: 4},
		{ID: "inv-2", Name: "Toiletry Kits", Category: CategoryConsumables, Quantity: 30, MinThreshold: 10},
	}
	return NewStore(defaults, DefaultStayPackages(), "v1.0.0")
}

func TestApplyEmptyInventoryKeepsCatalog(t *testing.T) {
	s := newTestStore(t)

	incoming := &Snapshot{
		Inventory: []InventoryItem{}, // present but empty
		Bookings:  []Booking{},
	}
	s.Apply(incoming)

	if got := len(s.Inventory(ActiveAll)); got != 2 {
		t.Errorf("empty incoming inventory erased the local catalog: %d items left", got)
	}
}

func TestApplyEmptyBookingsReplaces(t *testing.T) {
	s := newTestStore(t)
	s.AddBooking(Booking{ID: "b1", GuestName: "Asha", CheckIn: "2026-08-01"})

	s.Apply(&Snapshot{Bookings: []Booking{}})

	if got := len(s.Bookings(ActiveAll)); got != 0 {
		t.Errorf("empty incoming bookings should replace, %d left", got)
	}
}

func TestApplyAbsentFieldsUntouched(t *testing.T) {
	s := newTestStore(t)
	s.SetCurrentUser(&User{ID: "u1", Name: "Meera", Email: "m@x.in"})
	s.AddBooking(Booking{ID: "b1", GuestName: "Asha", CheckIn: "2026-08-01"})

	// A snapshot deserialized from JSON with missing collections has nil
	// slices; those fields must not be overwritten.
	var incoming Snapshot
	if err := json.Unmarshal([]byte(`{"activePropertyId":"prop-9"}`), &incoming); err != nil {
		t.Fatalf("failed to unmarshal snapshot: %v", err)
	}
	s.Apply(&incoming)

	if len(s.Bookings(ActiveAll)) != 1 {
		t.Error("absent bookings field wiped live bookings")
	}
	if s.CurrentUser() == nil {
		t.Error("absent currentUser field wiped live user")
	}
	if got := s.ActivePropertyID(); got != "prop-9" {
		t.Errorf("present activePropertyId not applied: %q", got)
	}
}

func TestApplyDoesNotNotify(t *testing.T) {
	s := newTestStore(t)
	fired := 0
	s.OnChange(func() { fired++ })

	s.Apply(&Snapshot{Bookings: []Booking{{ID: "b1"}}})

	if fired != 0 {
		t.Errorf("Apply fired %d change hooks; rehydration must not re-trigger sync", fired)
	}
}

func TestSnapshotIsTotal(t *testing.T) {
	s := newTestStore(t)
	snap := s.Snapshot()

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("failed to marshal snapshot: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to round-trip snapshot: %v", err)
	}

	for _, field := range []string{
		"properties", "allBookings", "allTransactions", "allGuests",
		"allStaffLogs", "allInventory", "stayPackages",
	} {
		v, ok := raw[field]
		if !ok {
			t.Errorf("snapshot field %q absent; snapshots must be total", field)
			continue
		}
		if string(v) == "null" {
			t.Errorf("snapshot field %q serialized as null", field)
		}
	}
}

func TestUpsertGuestMergesByEmail(t *testing.T) {
	s := newTestStore(t)
	s.UpsertGuest(Guest{ID: "g1", Name: "Ravi", Email: "ravi@x.in", TotalStays: 1})
	s.UpsertGuest(Guest{ID: "g2", Name: "Ravi K", Email: "ravi@x.in", TotalStays: 1})

	guests := s.Guests(ActiveAll)
	if len(guests) != 1 {
		t.Fatalf("expected merged guest record, got %d", len(guests))
	}
	if guests[0].ID != "g1" {
		t.Errorf("merge should keep the original ID, got %q", guests[0].ID)
	}
	if guests[0].Name != "Ravi K" {
		t.Errorf("merge should take the newer fields, got name %q", guests[0].Name)
	}
	if guests[0].TotalStays != 2 {
		t.Errorf("merge should bump total stays, got %d", guests[0].TotalStays)
	}
}

func TestMutationsNotify(t *testing.T) {
	s := newTestStore(t)
	fired := 0
	s.OnChange(func() { fired++ })

	s.AddBooking(Booking{ID: "b1", GuestName: "Asha", CheckIn: "2026-08-01"})
	s.AddTransaction(Transaction{ID: "t1", Type: Income, Amount: 4500})
	s.AdjustInventory("inv-1", -2)

	if fired != 3 {
		t.Errorf("expected 3 change notifications, got %d", fired)
	}
}

func TestAdjustInventoryFloorsAtZero(t *testing.T) {
	s := newTestStore(t)
	if !s.AdjustInventory("inv-1", -100) {
		t.Fatal("known item reported missing")
	}
	for _, it := range s.Inventory(ActiveAll) {
		if it.ID == "inv-1" && it.Quantity != 0 {
			t.Errorf("quantity went negative: %d", it.Quantity)
		}
	}
	if s.AdjustInventory("no-such-item", 1) {
		t.Error("unknown item reported adjusted")
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	s := newTestStore(t)
	s.SetCurrentUser(&User{ID: "u1"})
	s.AddBooking(Booking{ID: "b1"})
	s.AdjustInventory("inv-1", -5)

	s.Reset()

	if s.CurrentUser() != nil {
		t.Error("user survived reset")
	}
	if len(s.Bookings(ActiveAll)) != 0 {
		t.Error("bookings survived reset")
	}
	inv := s.Inventory(ActiveAll)
	if len(inv) != 2 || inv[0].Quantity != 10 {
		t.Error("reset did not restore the default catalog")
	}
}

func TestPropertyFiltering(t *testing.T) {
	s := newTestStore(t)
	s.AddProperty(PropertyConfig{ID: "prop-1", Name: "Cedar Farm"})
	s.AddProperty(PropertyConfig{ID: "prop-2", Name: "River Lodge"})

	s.SetActiveProperty("prop-1")
	s.AddBooking(Booking{ID: "b1", GuestName: "Asha", CheckIn: "2026-08-01"})
	s.SetActiveProperty("prop-2")
	s.AddBooking(Booking{ID: "b2", GuestName: "Ravi", CheckIn: "2026-08-02"})

	if got := len(s.Bookings("prop-1")); got != 1 {
		t.Errorf("prop-1 filter: want 1 booking, got %d", got)
	}
	if got := len(s.Bookings(ActiveAll)); got != 2 {
		t.Errorf("all filter: want 2 bookings, got %d", got)
	}
}

func TestDefaultInventoryCatalog(t *testing.T) {
	items, err := DefaultInventory()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("embedded catalog is empty")
	}
	for _, it := range items {
		if it.ID == "" || it.Name == "" {
			t.Errorf("catalog item missing id or name: %+v", it)
		}
	}
}
