package model

import "time"

// AvailabilityRule is one recurring-looking availability entry: an explicit
// list of calendar dates sharing a single working window. A provider may have
// many rules, but application-level validation keeps their date lists disjoint.
type AvailabilityRule struct {
	ID            string
	ProviderID    string
	SelectedDates []time.Time // UTC calendar dates, midnight
	StartTime     string      // "HH:MM:SS"
	EndTime       string      // "HH:MM:SS"
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AvailabilityOverride opens or closes a single date, optionally replacing
// the working window for that date. Uniqueness per (provider, date) is an
// application expectation, not a storage constraint.
type AvailabilityOverride struct {
	ID           string
	ProviderID   string
	OverrideDate time.Time // UTC calendar date, midnight
	StartTime    string    // "HH:MM:SS", may be empty
	EndTime      string    // "HH:MM:SS", may be empty
	IsAvailable  bool
	CreatedAt    time.Time
}

// BlockedDate hard-closes a date regardless of rules and overrides.
type BlockedDate struct {
	ID          string
	ProviderID  string
	BlockedDate time.Time // UTC calendar date, midnight
	Reason      string
	CreatedAt   time.Time
}

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// Booking is the read model the calendar consumes. Only confirmed bookings
// occupy calendar time.
type Booking struct {
	ID         string
	ProviderID string
	UserID     string
	ServiceID  string
	StartTime  time.Time
	EndTime    time.Time
	Status     BookingStatus
}
