package model

import "time"

type SessionType string

const (
	SessionTypeGroup   SessionType = "group"   // weightlifting classes
	SessionTypePrivate SessionType = "private" // personal training
)

// Valid reports whether t names a known counter
func (t SessionType) Valid() bool {
	return t == SessionTypeGroup || t == SessionTypePrivate
}

// Client is an account holder. Email is the cross-reference key for bookings and purchases.
type Client struct {
	ID                                int64     `json:"id"`
	Email                             string    `json:"email" validate:"required,email"`
	Name                              string    `json:"name"`
	Phone                             string    `json:"phone"`
	WeightliftingClassesRemaining     int       `json:"weightlifting_classes_remaining"`
	PersonalTrainingSessionsRemaining int       `json:"personal_training_sessions_remaining"`
	Version                           int64     `json:"version"`
	CreatedAt                         time.Time `json:"created_at"`
	UpdatedAt                         time.Time `json:"updated_at"`

	// Derived, not stored
	WeightliftingClassesBooked int `json:"weightlifting_classes_booked"`
}

// Remaining returns the counter for the given session type
func (c *Client) Remaining(t SessionType) int {
	if t == SessionTypePrivate {
		return c.PersonalTrainingSessionsRemaining
	}
	return c.WeightliftingClassesRemaining
}

// SetRemaining sets the counter for the given session type, clamping at zero
func (c *Client) SetRemaining(t SessionType, value int) {
	if value < 0 {
		value = 0
	}
	if t == SessionTypePrivate {
		c.PersonalTrainingSessionsRemaining = value
		return
	}
	c.WeightliftingClassesRemaining = value
}
