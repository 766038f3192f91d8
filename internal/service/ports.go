package service

import (
	"context"

	"github.com/Freeeeeet/coach_portal/internal/model"
)

// PaymentGateway opens hosted checkout pages and confirms them server-side.
//
//go:generate mockgen -destination=mocks/mock_ports.go -package=mocks -source=ports.go
type PaymentGateway interface {
	CreateCheckout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error)
	Confirm(ctx context.Context, sessionID string) (*model.PaymentConfirmation, error)
}

// EventSink receives purchase events after the change has been committed
type EventSink interface {
	Publish(ctx context.Context, event model.PurchaseEvent) error
}
