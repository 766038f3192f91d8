package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/Freeeeeet/coach_portal/internal/repository/memory"
	"github.com/Freeeeeet/coach_portal/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var bookingNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func groupClass(email, date, start, end string) service.BookInput {
	return service.BookInput{
		UserID:     email,
		ClassType:  model.ClassTypeWeightlifting,
		ClassTitle: "Olympic Lifting",
		Instructor: "Coach",
		Location:   "Main Gym",
		Date:       date,
		StartTime:  start,
		EndTime:    end,
	}
}

func privateSession(email, date, start, end string) service.BookInput {
	in := groupClass(email, date, start, end)
	in.ClassType = model.ClassTypePrivateSession
	in.ClassTitle = "Personal Training"
	return in
}

func TestBookingService_IntroPackScenario(t *testing.T) {
	e := newEnv(t, nil)
	c := e.register(t, "intro@example.com")
	ctx := context.Background()

	pkg, ok := model.LookupPackage("intro_pack")
	require.True(t, ok)
	p, err := e.purchases.Record(ctx, service.RecordPurchaseInput{
		UserID:           c.Email,
		PackageType:      pkg.Title,
		SessionType:      pkg.SessionType,
		SessionsIncluded: pkg.Sessions,
		AmountPaid:       pkg.Price,
		PaymentMethod:    model.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, "150.00", p.AmountPaid.String())

	_, err = e.bookings.Book(ctx, groupClass(c.Email, "2025-06-11", "09:00", "10:00"), bookingNow)
	require.NoError(t, err)
	_, err = e.bookings.Book(ctx, groupClass(c.Email, "2025-06-12", "09:00", "10:00"), bookingNow)
	require.NoError(t, err)

	got := e.client(t, c.Email)
	assert.Equal(t, 3, got.WeightliftingClassesRemaining)
	assert.Equal(t, 2, got.WeightliftingClassesBooked)

	removed, err := e.purchases.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, removed)

	got = e.client(t, c.Email)
	assert.Equal(t, 0, got.WeightliftingClassesRemaining)
	assert.Equal(t, 2, got.WeightliftingClassesBooked)

	bookings, err := e.bookings.ListByClient(ctx, c.Email)
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
}

func TestBookingService_BookRequiresSessions(t *testing.T) {
	e := newEnv(t, nil)
	c := e.register(t, "empty@example.com")
	ctx := context.Background()

	_, err := e.bookings.Book(ctx, groupClass(c.Email, "2025-06-11", "09:00", "10:00"), bookingNow)
	assert.True(t, service.IsNoSessions(err))

	// group sessions do not pay for private ones
	e.record(t, c.Email, model.SessionTypeGroup, 2)
	_, err = e.bookings.Book(ctx, privateSession(c.Email, "2025-06-11", "15:00", "16:00"), bookingNow)
	assert.True(t, service.IsNoSessions(err))

	bookings, err := e.bookings.ListByClient(ctx, c.Email)
	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.Equal(t, 2, e.client(t, c.Email).WeightliftingClassesRemaining)
}

func TestBookingService_BookValidation(t *testing.T) {
	e := newEnv(t, nil)
	c := e.register(t, "valid@example.com")
	e.record(t, c.Email, model.SessionTypeGroup, 5)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    service.BookInput
		field string
	}{
		{name: "bad date", in: groupClass(c.Email, "2025-13-40", "09:00", "10:00"), field: "start_time"},
		{name: "missing start", in: groupClass(c.Email, "2025-06-11", "", "10:00"), field: "start_time"},
		{name: "missing end", in: groupClass(c.Email, "2025-06-11", "09:00", ""), field: "end_time"},
		{name: "end before start", in: groupClass(c.Email, "2025-06-11", "10:00", "09:00"), field: "end_time"},
		{name: "in the past", in: groupClass(c.Email, "2025-06-09", "09:00", "10:00"), field: "date"},
		{name: "no class type", in: service.BookInput{UserID: c.Email, Date: "2025-06-11", StartTime: "09:00", EndTime: "10:00"}, field: "class_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.bookings.Book(ctx, tt.in, bookingNow)
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	assert.Equal(t, 5, e.client(t, c.Email).WeightliftingClassesRemaining)

	_, err := e.bookings.Book(ctx, groupClass("ghost@example.com", "2025-06-11", "09:00", "10:00"), bookingNow)
	assert.ErrorIs(t, err, model.ErrClientNotFound)
}

func TestBookingService_CancelPolicy(t *testing.T) {
	e := newEnv(t, nil)
	c := e.register(t, "cancel@example.com")
	e.record(t, c.Email, model.SessionTypeGroup, 3)
	e.record(t, c.Email, model.SessionTypePrivate, 3)
	ctx := context.Background()

	group, err := e.bookings.Book(ctx, groupClass(c.Email, "2025-06-15", "09:00", "10:00"), bookingNow)
	require.NoError(t, err)
	early, err := e.bookings.Book(ctx, privateSession(c.Email, "2025-06-15", "15:00", "16:00"), bookingNow)
	require.NoError(t, err)
	late, err := e.bookings.Book(ctx, privateSession(c.Email, "2025-06-10", "20:00", "21:00"), bookingNow)
	require.NoError(t, err)

	got := e.client(t, c.Email)
	require.Equal(t, 2, got.WeightliftingClassesRemaining)
	require.Equal(t, 1, got.PersonalTrainingSessionsRemaining)

	_, credited, err := e.bookings.Cancel(ctx, group.ID, bookingNow)
	require.NoError(t, err)
	assert.False(t, credited)

	_, credited, err = e.bookings.Cancel(ctx, early.ID, bookingNow)
	require.NoError(t, err)
	assert.True(t, credited)

	_, credited, err = e.bookings.Cancel(ctx, late.ID, bookingNow)
	require.NoError(t, err)
	assert.False(t, credited)

	got = e.client(t, c.Email)
	assert.Equal(t, 2, got.WeightliftingClassesRemaining)
	assert.Equal(t, 2, got.PersonalTrainingSessionsRemaining)
	assert.Equal(t, 0, got.WeightliftingClassesBooked)

	// second cancel changes nothing
	b, credited, err := e.bookings.Cancel(ctx, early.ID, bookingNow.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, credited)
	assert.Equal(t, model.BookingStatusCancelled, b.Status)
	assert.Equal(t, 2, e.client(t, c.Email).PersonalTrainingSessionsRemaining)

	_, _, err = e.bookings.Cancel(ctx, 9999, bookingNow)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

// staleBookings hands out the booking as it was before any cancel, the way
// a second transaction sees it when both read before either writes
type staleBookings struct {
	*memory.BookingRepository
}

func (r staleBookings) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	b, err := r.BookingRepository.GetByID(ctx, id)
	if b != nil {
		b.Status = model.BookingStatusConfirmed
		b.CancelledAt = nil
	}
	return b, err
}

func TestBookingService_CancelRaceCreditsOnce(t *testing.T) {
	e := newEnv(t, nil)
	c := e.register(t, "race@example.com")
	e.record(t, c.Email, model.SessionTypePrivate, 2)
	ctx := context.Background()

	b, err := e.bookings.Book(ctx, privateSession(c.Email, "2025-06-15", "15:00", "16:00"), bookingNow)
	require.NoError(t, err)

	_, credited, err := e.bookings.Cancel(ctx, b.ID, bookingNow)
	require.NoError(t, err)
	require.True(t, credited)
	require.Equal(t, 2, e.client(t, c.Email).PersonalTrainingSessionsRemaining)

	logger := zap.NewNop()
	late := service.NewBookingService(e.store, e.store.Clients(), staleBookings{e.store.Bookings()}, e.ledger,
		service.DefaultCancellationPolicy(), time.UTC, logger)

	got, credited, err := late.Cancel(ctx, b.ID, bookingNow)
	require.NoError(t, err)
	assert.False(t, credited)
	assert.Equal(t, model.BookingStatusCancelled, got.Status)
	assert.Equal(t, 2, e.client(t, c.Email).PersonalTrainingSessionsRemaining)
}

func TestMemoryBookings_CancelReportsChange(t *testing.T) {
	e := newEnv(t, nil)
	c := e.register(t, "twice@example.com")
	e.record(t, c.Email, model.SessionTypeGroup, 1)
	ctx := context.Background()

	b, err := e.bookings.Book(ctx, groupClass(c.Email, "2025-06-15", "09:00", "10:00"), bookingNow)
	require.NoError(t, err)

	changed, err := e.store.Bookings().Cancel(ctx, b.ID, bookingNow)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = e.store.Bookings().Cancel(ctx, b.ID, bookingNow)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = e.store.Bookings().Cancel(ctx, 9999, bookingNow)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestBookingService_Overview(t *testing.T) {
	e := newEnv(t, nil)
	c := e.register(t, "overview@example.com")
	e.record(t, c.Email, model.SessionTypeGroup, 5)
	e.record(t, c.Email, model.SessionTypePrivate, 2)
	ctx := context.Background()

	bookedAt := bookingNow.Add(-72 * time.Hour)
	past, err := e.bookings.Book(ctx, groupClass(c.Email, "2025-06-08", "09:00", "10:00"), bookedAt)
	require.NoError(t, err)
	upcoming, err := e.bookings.Book(ctx, groupClass(c.Email, "2025-06-11", "09:00", "10:00"), bookedAt)
	require.NoError(t, err)
	private, err := e.bookings.Book(ctx, privateSession(c.Email, "2025-06-10", "11:00", "12:30"), bookedAt)
	require.NoError(t, err)
	cancelled, err := e.bookings.Book(ctx, groupClass(c.Email, "2025-06-12", "09:00", "10:00"), bookedAt)
	require.NoError(t, err)
	_, _, err = e.bookings.Cancel(ctx, cancelled.ID, bookedAt)
	require.NoError(t, err)

	overview, err := e.bookings.Overview(ctx, c.Email, bookingNow)
	require.NoError(t, err)

	view := overview.View
	require.Len(t, view.PastGroup, 1)
	assert.Equal(t, past.ID, view.PastGroup[0].ID)
	require.Len(t, view.UpcomingGroup, 1)
	assert.Equal(t, upcoming.ID, view.UpcomingGroup[0].ID)
	// ends at 12:30, still running at noon
	require.Len(t, view.UpcomingPrivate, 1)
	assert.Equal(t, private.ID, view.UpcomingPrivate[0].ID)
	assert.Empty(t, view.PastPrivate)
	assert.Equal(t, 1, view.CancelledCount)
	assert.Equal(t, 2, overview.Client.WeightliftingClassesBooked)

	_, err = e.bookings.Overview(ctx, "ghost@example.com", bookingNow)
	assert.ErrorIs(t, err, model.ErrClientNotFound)
}

func TestCancellationPolicy_Recredits(t *testing.T) {
	policy := service.DefaultCancellationPolicy()
	b := &model.Booking{ClassType: model.ClassTypePrivate, Date: "2025-06-11", StartTime: "12:00"}

	assert.True(t, policy.Recredits(b, time.UTC, bookingNow))
	assert.False(t, policy.Recredits(b, time.UTC, bookingNow.Add(time.Minute)))

	b.StartTime = ""
	assert.False(t, policy.Recredits(b, time.UTC, bookingNow))

	b.ClassType = model.ClassTypeWeightlifting
	b.StartTime = "12:00"
	assert.False(t, policy.Recredits(b, time.UTC, bookingNow))
}
