package state

import "time"

// Snapshot is the full application state at a point in time: the unit of
// both local persistence and cloud synchronization.
//
// A snapshot produced by this application is always total — every collection
// is present, possibly empty. Merging is therefore whole-field replacement,
// never element-level reconciliation; two snapshots are ordered only by
// LastSyncedAt (last write wins). Field names on the wire match the records
// already stored by earlier HostFlow clients.
type Snapshot struct {
	CurrentUser      *User            `json:"currentUser,omitempty"`
	Properties       []PropertyConfig `json:"properties"`
	ActivePropertyID string           `json:"activePropertyId,omitempty"`
	CurrentView      View             `json:"currentView,omitempty"`
	Bookings         []Booking        `json:"allBookings"`
	Transactions     []Transaction    `json:"allTransactions"`
	Guests           []Guest          `json:"allGuests"`
	StaffLogs        []StaffLog       `json:"allStaffLogs"`
	Inventory        []InventoryItem  `json:"allInventory"`
	StayPackages     []StayPackage    `json:"stayPackages"`

	// LastSyncedAt is milliseconds since epoch, stamped at push time.
	LastSyncedAt int64 `json:"lastSyncedAt,omitempty"`

	// LastActiveDevice labels the device that produced this snapshot.
	LastActiveDevice string `json:"lastActiveDevice,omitempty"`

	// AppVersion records the writing client, e.g. "v1.2.0".
	AppVersion string `json:"appVersion,omitempty"`
}

// NowMillis returns the current wall clock as milliseconds since epoch, the
// timestamp unit used throughout the snapshot protocol.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
