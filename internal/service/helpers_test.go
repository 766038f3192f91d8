package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/Freeeeeet/coach_portal/internal/repository/memory"
	"github.com/Freeeeeet/coach_portal/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type env struct {
	store     *memory.Store
	ledger    *service.SessionLedger
	clients   *service.ClientService
	purchases *service.PurchaseService
	bookings  *service.BookingService
}

func newEnv(t *testing.T, events service.EventSink) *env {
	t.Helper()

	store := memory.NewStore()
	logger := zap.NewNop()
	ledger := service.NewSessionLedger(store, store.Clients(), logger)

	return &env{
		store:     store,
		ledger:    ledger,
		clients:   service.NewClientService(store.Clients(), store.Bookings(), logger),
		purchases: service.NewPurchaseService(store, store.Clients(), store.Purchases(), ledger, events, logger),
		bookings: service.NewBookingService(store, store.Clients(), store.Bookings(), ledger,
			service.DefaultCancellationPolicy(), time.UTC, logger),
	}
}

func (e *env) register(t *testing.T, email string) *model.Client {
	t.Helper()
	c, err := e.clients.Register(context.Background(), email, "Test Client", "")
	require.NoError(t, err)
	return c
}

func (e *env) client(t *testing.T, email string) *model.Client {
	t.Helper()
	c, err := e.clients.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return c
}

func (e *env) record(t *testing.T, email string, sessionType model.SessionType, sessions int) *model.Purchase {
	t.Helper()
	p, err := e.purchases.Record(context.Background(), service.RecordPurchaseInput{
		UserID:           email,
		PackageType:      "Pack",
		SessionType:      sessionType,
		SessionsIncluded: sessions,
		AmountPaid:       model.Money(sessions * 3000),
		PaymentMethod:    model.PaymentMethodCash,
	})
	require.NoError(t, err)
	return p
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}
