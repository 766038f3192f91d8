package model

import "time"

const (
	CheckoutStatusPending   = "pending"
	CheckoutStatusCompleted = "completed"
	CheckoutStatusExpired   = "expired"
)

// CheckoutSession tracks a payment gateway session until it is confirmed or expires
type CheckoutSession struct {
	ID          string     `json:"session_id"`
	ClientID    int64      `json:"client_id"`
	PackageCode string     `json:"package_code"`
	Status      string     `json:"status"`
	URL         string     `json:"url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CheckoutRequest is what the gateway needs to open a hosted checkout page
type CheckoutRequest struct {
	ClientEmail string
	Package     Package
}

// PaymentConfirmation is the gateway's server-side view of a checkout session
type PaymentConfirmation struct {
	SessionID   string
	Paid        bool
	AmountPaid  Money
	PackageCode string
	ClientEmail string
}
