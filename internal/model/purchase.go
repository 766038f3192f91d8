package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	PaymentMethodCash         = "cash"
	PaymentMethodCheck        = "check"
	PaymentMethodStripe       = "stripe"
	PaymentMethodVenmo        = "venmo"
	PaymentMethodZelle        = "zelle"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodOther        = "other"
)

const (
	PaymentStatusCompleted = "completed"
	PaymentStatusPending   = "pending"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusFailed    = "failed"
)

var paymentMethods = map[string]bool{
	PaymentMethodCash:         true,
	PaymentMethodCheck:        true,
	PaymentMethodStripe:       true,
	PaymentMethodVenmo:        true,
	PaymentMethodZelle:        true,
	PaymentMethodBankTransfer: true,
	PaymentMethodOther:        true,
}

var paymentStatuses = map[string]bool{
	PaymentStatusCompleted: true,
	PaymentStatusPending:   true,
	PaymentStatusRefunded:  true,
	PaymentStatusFailed:    true,
}

// IsPaymentMethod reports whether s is an accepted payment method
func IsPaymentMethod(s string) bool {
	return paymentMethods[s]
}

// IsPaymentStatus reports whether s is an accepted payment status
func IsPaymentStatus(s string) bool {
	return paymentStatuses[s]
}

// Purchase is a client paying for a bundle of sessions
type Purchase struct {
	ID               uuid.UUID   `json:"id"`
	ClientID         int64       `json:"client_id"`
	UserID           string      `json:"user_id" validate:"omitempty,email"`
	PackageType      string      `json:"package_type" validate:"required"`
	SessionType      SessionType `json:"session_type"`
	SessionsIncluded int         `json:"sessions_included" validate:"gte=0"`
	AmountPaid       Money       `json:"amount_paid" validate:"gte=0"`
	PaymentMethod    string      `json:"payment_method"`
	PaymentStatus    string      `json:"payment_status"`
	PurchaseDate     time.Time   `json:"purchase_date"`
	Notes            string      `json:"notes,omitempty"`
	ExternalRef      *string     `json:"external_ref,omitempty"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// LedgerContribution is the number of sessions this purchase currently adds to the
// client's counter. Only completed payments contribute.
func (p *Purchase) LedgerContribution() int {
	if p.PaymentStatus != PaymentStatusCompleted {
		return 0
	}
	return p.SessionsIncluded
}
