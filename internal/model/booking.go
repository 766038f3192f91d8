package model

import "time"

const (
	ClassTypePrivate        = "private"
	ClassTypePrivateSession = "private_session"
	ClassTypeWeightlifting  = "weightlifting"
)

const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking is a client's reservation of a class or private session.
// Date is YYYY-MM-DD, StartTime and EndTime are HH:MM in venue time.
type Booking struct {
	ID          int64      `json:"id"`
	ClientID    int64      `json:"client_id"`
	UserID      string     `json:"user_id" validate:"omitempty,email"`
	ClassType   string     `json:"class_type" validate:"required"`
	ClassTitle  string     `json:"class_title"`
	Instructor  string     `json:"instructor"`
	Location    string     `json:"location"`
	Date        string     `json:"date" validate:"required,min=10"`
	StartTime   string     `json:"start_time"`
	EndTime     string     `json:"end_time"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// IsPrivate reports whether the booking is a one-on-one session
func (b *Booking) IsPrivate() bool {
	return b.ClassType == ClassTypePrivate || b.ClassType == ClassTypePrivateSession
}

// IsCancelled reports whether the booking was cancelled
func (b *Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}

// SessionType returns the ledger counter the booking draws from
func (b *Booking) SessionType() SessionType {
	if b.IsPrivate() {
		return SessionTypePrivate
	}
	return SessionTypeGroup
}
