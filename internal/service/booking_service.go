package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/bookingview"
	"github.com/Freeeeeet/coach_portal/internal/model"
	"go.uber.org/zap"
)

// CancellationPolicy decides whether a cancelled booking gives its session back.
// Private sessions cancelled at least PrivateNotice before the start are
// re-credited; group classes never are.
type CancellationPolicy struct {
	PrivateNotice time.Duration
}

func DefaultCancellationPolicy() CancellationPolicy {
	return CancellationPolicy{PrivateNotice: 24 * time.Hour}
}

// Recredits reports whether cancelling b at now returns a session
func (p CancellationPolicy) Recredits(b *model.Booking, loc *time.Location, now time.Time) bool {
	if !b.IsPrivate() {
		return false
	}
	start, err := bookingview.Resolve(b.Date, b.StartTime, loc)
	if err != nil {
		return false
	}
	return start.Sub(now) >= p.PrivateNotice
}

// BookInput is a reservation request. UserID is the client email.
type BookInput struct {
	UserID     string
	ClassType  string
	ClassTitle string
	Instructor string
	Location   string
	Date       string
	StartTime  string
	EndTime    string
}

// Overview is what the account dashboard shows
type Overview struct {
	Client *model.Client    `json:"client"`
	View   bookingview.View `json:"bookings"`
}

type BookingService struct {
	tx       TxManager
	clients  ClientRepository
	bookings BookingRepository
	ledger   *SessionLedger
	policy   CancellationPolicy
	loc      *time.Location
	logger   *zap.Logger
}

func NewBookingService(
	tx TxManager,
	clients ClientRepository,
	bookings BookingRepository,
	ledger *SessionLedger,
	policy CancellationPolicy,
	loc *time.Location,
	logger *zap.Logger,
) *BookingService {
	if loc == nil {
		loc = time.Local
	}
	return &BookingService{
		tx:       tx,
		clients:  clients,
		bookings: bookings,
		ledger:   ledger,
		policy:   policy,
		loc:      loc,
		logger:   logger,
	}
}

// Location returns the venue time zone
func (s *BookingService) Location() *time.Location {
	return s.loc
}

// Book reserves a slot for the client and spends one session of the matching type
func (s *BookingService) Book(ctx context.Context, in BookInput, now time.Time) (*model.Booking, error) {
	booking := &model.Booking{
		ClassType:  strings.TrimSpace(in.ClassType),
		ClassTitle: in.ClassTitle,
		Instructor: in.Instructor,
		Location:   in.Location,
		Date:       strings.TrimSpace(in.Date),
		StartTime:  strings.TrimSpace(in.StartTime),
		EndTime:    strings.TrimSpace(in.EndTime),
		Status:     model.BookingStatusConfirmed,
	}
	if len(booking.Date) > 10 {
		booking.Date = booking.Date[:10]
	}
	if booking.ClassType == "" {
		return nil, model.NewValidationError("class_type", "is required")
	}

	start, err := bookingview.Resolve(booking.Date, booking.StartTime, s.loc)
	if err != nil {
		return nil, model.NewValidationError("start_time", err.Error())
	}
	end, err := bookingview.Resolve(booking.Date, booking.EndTime, s.loc)
	if err != nil {
		return nil, model.NewValidationError("end_time", err.Error())
	}
	if !end.After(start) {
		return nil, model.NewValidationError("end_time", "must be after start_time")
	}
	if !end.After(now) {
		return nil, model.NewValidationError("date", "slot is in the past")
	}

	client, err := s.clients.GetByEmail(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("book for %s: %w", in.UserID, model.ErrClientNotFound)
	}
	booking.ClientID = client.ID

	sessionType := booking.SessionType()
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		locked, err := s.clients.GetByIDForUpdate(ctx, client.ID)
		if err != nil {
			return fmt.Errorf("lock client: %w", err)
		}
		if locked == nil {
			return fmt.Errorf("book for %s: %w", in.UserID, model.ErrClientNotFound)
		}
		if locked.Remaining(sessionType) <= 0 {
			return model.NewValidationError("sessions", fmt.Sprintf("no %s sessions remaining", sessionType))
		}

		if err := s.bookings.Create(ctx, booking); err != nil {
			return err
		}

		if _, err := s.ledger.Adjust(ctx, client.ID, sessionType, -1); err != nil {
			return fmt.Errorf("spend session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	booking.UserID = client.Email
	s.logger.Info("Class booked",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("client_id", client.ID),
		zap.String("class_type", booking.ClassType),
		zap.String("date", booking.Date),
		zap.String("start_time", booking.StartTime),
	)

	return booking, nil
}

// Cancel marks a booking cancelled. Cancelling twice is a no-op.
// The returned flag tells whether a session was given back.
func (s *BookingService) Cancel(ctx context.Context, bookingID int64, now time.Time) (*model.Booking, bool, error) {
	var (
		booking  *model.Booking
		credited bool
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("get booking: %w", err)
		}
		if b == nil {
			return fmt.Errorf("booking %d: %w", bookingID, model.ErrNotFound)
		}
		booking = b

		if b.IsCancelled() {
			return nil
		}

		changed, err := s.bookings.Cancel(ctx, bookingID, now)
		if err != nil {
			return err
		}
		b.Status = model.BookingStatusCancelled
		if !changed {
			// a concurrent cancel got there first and owns the re-credit
			return nil
		}
		b.CancelledAt = &now

		if s.policy.Recredits(b, s.loc, now) {
			if _, err := s.ledger.Adjust(ctx, b.ClientID, b.SessionType(), 1); err != nil {
				return fmt.Errorf("re-credit session: %w", err)
			}
			credited = true
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	s.logger.Info("Booking cancelled",
		zap.Int64("booking_id", bookingID),
		zap.Int64("client_id", booking.ClientID),
		zap.Bool("recredited", credited),
	)

	return booking, credited, nil
}

// ListByClient returns every booking of the client, cancelled ones included
func (s *BookingService) ListByClient(ctx context.Context, email string) ([]model.Booking, error) {
	client, err := s.clients.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("list bookings for %s: %w", email, model.ErrClientNotFound)
	}
	return s.bookings.ListByClient(ctx, client.ID)
}

// Overview classifies the client's bookings relative to now
func (s *BookingService) Overview(ctx context.Context, email string, now time.Time) (*Overview, error) {
	client, err := s.clients.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("overview for %s: %w", email, model.ErrClientNotFound)
	}

	bookings, err := s.bookings.ListByClient(ctx, client.ID)
	if err != nil {
		return nil, err
	}

	view := bookingview.Classify(bookings, now, s.loc)
	s.logReview(client.ID, view.NeedsReview)
	client.WeightliftingClassesBooked = view.ActiveGroupCount()

	return &Overview{Client: client, View: view}, nil
}

func (s *BookingService) logReview(clientID int64, ids []int64) {
	for _, id := range ids {
		s.logger.Warn("Booking has no usable end time, needs manual review",
			zap.Int64("booking_id", id),
			zap.Int64("client_id", clientID),
		)
	}
}

// IsNoSessions reports the validation failure Book returns when the counter is empty
func IsNoSessions(err error) bool {
	var verr *model.ValidationError
	return errors.As(err, &verr) && verr.Field == "sessions"
}
