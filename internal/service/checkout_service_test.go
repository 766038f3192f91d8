package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/Freeeeeet/coach_portal/internal/service"
	"github.com/Freeeeeet/coach_portal/internal/service/mocks"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type checkoutEnv struct {
	*env
	gateway  *mocks.MockPaymentGateway
	checkout *service.CheckoutService
}

func newCheckoutEnv(t *testing.T, events service.EventSink) *checkoutEnv {
	t.Helper()

	e := newEnv(t, events)
	gateway := mocks.NewMockPaymentGateway(gomock.NewController(t))
	checkout := service.NewCheckoutService(e.store, e.store.Clients(), e.store.Checkouts(), e.store.Purchases(),
		e.purchases, gateway, zap.NewNop())

	return &checkoutEnv{env: e, gateway: gateway, checkout: checkout}
}

func (e *checkoutEnv) start(t *testing.T, email, packageCode, sessionID string) *model.CheckoutSession {
	t.Helper()
	e.gateway.EXPECT().
		CreateCheckout(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error) {
			assert.Equal(t, email, req.ClientEmail)
			assert.Equal(t, packageCode, req.Package.Code)
			return &model.CheckoutSession{ID: sessionID, URL: "https://checkout.stripe.com/c/pay/" + sessionID}, nil
		})

	session, err := e.checkout.Start(context.Background(), email, packageCode)
	require.NoError(t, err)
	return session
}

func TestCheckoutService_ProcessSuccessIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockEventSink(ctrl)
	sink.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	e := newCheckoutEnv(t, sink)
	c := e.register(t, "buyer@example.com")
	ctx := context.Background()

	session := e.start(t, c.Email, "intro_pack", "cs_test_1")
	assert.Equal(t, model.CheckoutStatusPending, session.Status)
	assert.Equal(t, c.ID, session.ClientID)

	e.gateway.EXPECT().Confirm(gomock.Any(), "cs_test_1").Return(&model.PaymentConfirmation{
		SessionID:   "cs_test_1",
		Paid:        true,
		AmountPaid:  15000,
		PackageCode: "intro_pack",
		ClientEmail: c.Email,
	}, nil).Times(1)

	first, err := e.checkout.ProcessSuccess(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentMethodStripe, first.PaymentMethod)
	assert.Equal(t, 5, first.SessionsIncluded)
	require.NotNil(t, first.ExternalRef)
	assert.Equal(t, "cs_test_1", *first.ExternalRef)

	second, err := e.checkout.ProcessSuccess(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	assert.Equal(t, 5, e.client(t, c.Email).WeightliftingClassesRemaining)
}

func TestCheckoutService_NotConfirmed(t *testing.T) {
	e := newCheckoutEnv(t, nil)
	c := e.register(t, "unpaid@example.com")
	ctx := context.Background()

	e.start(t, c.Email, "private_five", "cs_unpaid")

	e.gateway.EXPECT().Confirm(gomock.Any(), "cs_unpaid").
		Return(&model.PaymentConfirmation{SessionID: "cs_unpaid", Paid: false}, nil)
	_, err := e.checkout.ProcessSuccess(ctx, "cs_unpaid")
	assert.ErrorIs(t, err, model.ErrPaymentNotConfirmed)

	e.gateway.EXPECT().Confirm(gomock.Any(), "cs_unpaid").
		Return(nil, errors.New("stripe unavailable"))
	_, err = e.checkout.ProcessSuccess(ctx, "cs_unpaid")
	assert.ErrorIs(t, err, model.ErrPaymentNotConfirmed)

	assert.Equal(t, 0, e.client(t, c.Email).PersonalTrainingSessionsRemaining)

	_, err = e.checkout.ProcessSuccess(ctx, "")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestCheckoutService_StartValidation(t *testing.T) {
	e := newCheckoutEnv(t, nil)
	c := e.register(t, "start@example.com")
	ctx := context.Background()

	_, err := e.checkout.Start(ctx, c.Email, "lifetime_pass")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = e.checkout.Start(ctx, "ghost@example.com", "intro_pack")
	assert.ErrorIs(t, err, model.ErrClientNotFound)

	e.gateway.EXPECT().CreateCheckout(gomock.Any(), gomock.Any()).Return(nil, model.ErrNetwork)
	_, err = e.checkout.Start(ctx, c.Email, "intro_pack")
	assert.ErrorIs(t, err, model.ErrNetwork)
}

func TestCheckoutService_SweepPending(t *testing.T) {
	e := newCheckoutEnv(t, nil)
	c := e.register(t, "sweep@example.com")
	ctx := context.Background()

	t0 := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	e.store.SetClock(func() time.Time { return t0 })
	e.start(t, c.Email, "private_single", "cs_paid")
	e.start(t, c.Email, "intro_pack", "cs_abandoned")

	e.store.SetClock(func() time.Time { return t0.Add(70 * time.Minute) })
	e.start(t, c.Email, "intro_pack", "cs_recent")

	e.gateway.EXPECT().Confirm(gomock.Any(), "cs_paid").
		Return(&model.PaymentConfirmation{SessionID: "cs_paid", Paid: true, PackageCode: "private_single"}, nil)
	e.gateway.EXPECT().Confirm(gomock.Any(), "cs_abandoned").
		Return(&model.PaymentConfirmation{SessionID: "cs_abandoned", Paid: false}, nil)

	completed, expired, err := e.checkout.SweepPending(ctx, 30*time.Minute, time.Hour, t0.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, expired)

	got := e.client(t, c.Email)
	assert.Equal(t, 1, got.PersonalTrainingSessionsRemaining)
	assert.Equal(t, 0, got.WeightliftingClassesRemaining)

	paid, err := e.purchases.ListByClient(ctx, c.Email)
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, "90.00", paid[0].AmountPaid.String())

	// nothing old enough is left pending
	completed, expired, err = e.checkout.SweepPending(ctx, 30*time.Minute, time.Hour, t0.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, completed)
	assert.Zero(t, expired)
}
