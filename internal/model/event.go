package model

import (
	"time"

	"github.com/google/uuid"
)

type PurchaseEventType string

const (
	PurchaseEventRecorded PurchaseEventType = "purchase.recorded"
	PurchaseEventUpdated  PurchaseEventType = "purchase.updated"
	PurchaseEventDeleted  PurchaseEventType = "purchase.deleted"
)

// PurchaseEvent is emitted after a purchase mutation has been committed
type PurchaseEvent struct {
	EventID       uuid.UUID         `json:"event_id"`
	Type          PurchaseEventType `json:"type"`
	Purchase      Purchase          `json:"purchase"`
	ClientEmail   string            `json:"client_email"`
	SessionsDelta int               `json:"sessions_delta"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

func NewPurchaseEvent(t PurchaseEventType, p Purchase, email string, delta int) PurchaseEvent {
	return PurchaseEvent{
		EventID:       uuid.New(),
		Type:          t,
		Purchase:      p,
		ClientEmail:   email,
		SessionsDelta: delta,
		OccurredAt:    time.Now().UTC(),
	}
}
