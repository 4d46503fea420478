package model

import "time"

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// ActiveStatuses are the statuses that occupy calendar time and therefore
// conflict with new requests.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed}

type Booking struct {
	ID          string
	ProviderID  string
	UserID      string
	ServiceID   string
	StartTime   time.Time
	EndTime     time.Time
	Status      BookingStatus
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
