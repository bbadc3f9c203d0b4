// Package state holds the HostFlow domain model and the mutable state
// container the rest of the application works against.
//
// The unit of persistence and synchronization is the Snapshot: one aggregate
// carrying the signed-in user, the property portfolio, and every domain
// collection, stamped with a last-synced timestamp. Nothing below this
// package touches storage; mutations go through the Store and the sync
// layer decides when the resulting Snapshot becomes durable.
package state

import (
	"fmt"
	"time"
)

// View identifies the console section last used, carried in the snapshot so
// a second device resumes where the first left off.
type View string

const (
	ViewDashboard   View = "Dashboard"
	ViewCounter     View = "Check-in Counter"
	ViewBookings    View = "Bookings"
	ViewGuests      View = "Guests"
	ViewInventory   View = "Inventory"
	ViewFinancials  View = "Financials"
	ViewInsights    View = "AI Strategy"
	ViewStaffPortal View = "Staff Portal"
)

// ActiveAll selects the whole portfolio instead of a single property.
const ActiveAll = "all"

// UserRole classifies the operator account.
type UserRole string

const (
	RoleAirbnbHost   UserRole = "AIRBNB_HOST"
	RoleHotelManager UserRole = "HOTEL_MANAGER"
	RoleHomestay     UserRole = "HOMESTAY_OWNER"
)

// User is the authenticated operator profile stored inside the snapshot.
type User struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone,omitempty"`
	PhotoURL   string   `json:"photoURL,omitempty"`
	Provider   string   `json:"provider,omitempty"`
	IsVerified bool     `json:"isVerified"`
	Role       UserRole `json:"role,omitempty"`
	DOB        string   `json:"dob,omitempty"`
	CreatedAt  string   `json:"createdAt,omitempty"`
}

// PropertyConfig describes one managed property in the portfolio.
type PropertyConfig struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ManagerName  string `json:"managerName,omitempty"`
	ManagerEmail string `json:"managerEmail,omitempty"`
	ManagerPhone string `json:"managerPhone,omitempty"`
	AirbnbURL    string `json:"airbnbUrl,omitempty"`
	IsConfigured bool   `json:"isConfigured"`
}

// BookingStatus tracks a booking through its stay lifecycle.
type BookingStatus string

const (
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingCheckedIn  BookingStatus = "CHECKED_IN"
	BookingCheckedOut BookingStatus = "CHECKED_OUT"
	BookingCancelled  BookingStatus = "CANCELLED"
)

// Booking is one reserved or active stay.
type Booking struct {
	ID          string        `json:"id"`
	PropertyID  string        `json:"propertyId"`
	GuestID     string        `json:"guestId"`
	GuestName   string        `json:"guestName"`
	CheckIn     string        `json:"checkIn"`  // YYYY-MM-DD
	CheckOut    string        `json:"checkOut"` // YYYY-MM-DD
	Status      BookingStatus `json:"status"`
	TotalPrice  float64       `json:"totalPrice"`
	GuestsCount int           `json:"guestsCount"`
	Source      string        `json:"source,omitempty"`
	CottageName string        `json:"cottageName,omitempty"`
}

// TransactionType splits the ledger into income and expense.
type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

// Transaction is one ledger entry.
type Transaction struct {
	ID          string          `json:"id"`
	PropertyID  string          `json:"propertyId"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Type        TransactionType `json:"type"`
	Category    string          `json:"category,omitempty"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// Guest is a CRM record built up across stays.
type Guest struct {
	ID            string  `json:"id"`
	PropertyID    string  `json:"propertyId"`
	Name          string  `json:"name"`
	Email         string  `json:"email,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	Rating        float64 `json:"rating"`
	TotalStays    int     `json:"totalStays"`
	LastStay      string  `json:"lastStay,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	Avatar        string  `json:"avatar,omitempty"`
	IDType        string  `json:"idType,omitempty"`
	IDNumber      string  `json:"idNumber,omitempty"`
	VehicleNumber string  `json:"vehicleNumber,omitempty"`
	IDFileName    string  `json:"idFileName,omitempty"`
}

// StaffLog records a staff-portal action for the audit trail.
type StaffLog struct {
	ID         string `json:"id"`
	PropertyID string `json:"propertyId"`
	Type       string `json:"type"` // FINANCIAL, OPERATIONAL
	Action     string `json:"action"`
	Timestamp  string `json:"timestamp"`
}

// InventoryCategory groups inventory items.
type InventoryCategory string

const (
	CategoryUsables     InventoryCategory = "Usables"
	CategoryConsumables InventoryCategory = "Consumables"
	CategoryLinen       InventoryCategory = "Linen"
	CategoryMaintenance InventoryCategory = "Maintenance"
)

// StockStatus is derived from quantity against the restock threshold.
type StockStatus string

const (
	InStock    StockStatus = "IN_STOCK"
	LowStock   StockStatus = "LOW_STOCK"
	OutOfStock StockStatus = "OUT_OF_STOCK"
)

// InventoryItem is one tracked stock line.
type InventoryItem struct {
	ID           string            `json:"id"`
	PropertyID   string            `json:"propertyId,omitempty"`
	Name         string            `json:"name"`
	Category     InventoryCategory `json:"category"`
	Quantity     int               `json:"quantity"`
	MinThreshold int               `json:"minThreshold"`
	Unit         string            `json:"unit,omitempty"`
	UnitCost     float64           `json:"unitCost,omitempty"`
}

// Status derives the stock level for display and restock alerts.
func (i InventoryItem) Status() StockStatus {
	switch {
	case i.Quantity == 0:
		return OutOfStock
	case i.Quantity <= i.MinThreshold:
		return LowStock
	default:
		return InStock
	}
}

// StayPackage is an offered stay product the check-in counter sells.
type StayPackage struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Desc     string `json:"desc,omitempty"`
	IconType string `json:"iconType,omitempty"`
}

// Validate checks the fields every booking must carry before it enters the
// working set.
func (b *Booking) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("id is required")
	}
	if b.GuestName == "" {
		return fmt.Errorf("guest name is required")
	}
	if b.CheckIn == "" {
		return fmt.Errorf("check-in date is required")
	}
	if _, err := time.Parse("2006-01-02", b.CheckIn); err != nil {
		return fmt.Errorf("check-in date must be YYYY-MM-DD (got %q)", b.CheckIn)
	}
	if b.CheckOut != "" {
		if _, err := time.Parse("2006-01-02", b.CheckOut); err != nil {
			return fmt.Errorf("check-out date must be YYYY-MM-DD (got %q)", b.CheckOut)
		}
	}
	if b.TotalPrice < 0 {
		return fmt.Errorf("total price cannot be negative (got %v)", b.TotalPrice)
	}
	return nil
}
