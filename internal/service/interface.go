package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/google/uuid"
)

// Repository ports. Implemented by internal/repository (Postgres) and
// internal/repository/memory. Lookups return (nil, nil) when nothing matches.

// TxManager runs fn atomically; repositories called with the ctx passed to fn
// take part in the same transaction.
type TxManager interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ClientRepository interface {
	Upsert(ctx context.Context, client *model.Client) error
	GetByID(ctx context.Context, id int64) (*model.Client, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Client, error)
	GetByEmail(ctx context.Context, email string) (*model.Client, error)
	List(ctx context.Context) ([]*model.Client, error)
	UpdateCounters(ctx context.Context, client *model.Client, expectedVersion int64) (bool, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	ListByClient(ctx context.Context, clientID int64) ([]model.Booking, error)
	Cancel(ctx context.Context, id int64, at time.Time) (bool, error)
	CountActiveGroup(ctx context.Context, clientID int64) (int, error)
}

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *model.Purchase) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	GetByExternalRef(ctx context.Context, ref string) (*model.Purchase, error)
	ListByClient(ctx context.Context, clientID int64) ([]model.Purchase, error)
	Update(ctx context.Context, purchase *model.Purchase) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CheckoutRepository interface {
	Create(ctx context.Context, session *model.CheckoutSession) error
	GetByIDForUpdate(ctx context.Context, id string) (*model.CheckoutSession, error)
	MarkStatus(ctx context.Context, id, status string, at time.Time) error
	ListPending(ctx context.Context, before time.Time) ([]model.CheckoutSession, error)
}
