package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/Freeeeeet/coach_portal/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `b.id, b.client_id, c.email, b.class_type, b.class_title, b.instructor,
	b.location, b.date, b.start_time, b.end_time, b.status, b.created_at, b.cancelled_at`

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(pool)}
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var (
		b    model.Booking
		date time.Time
	)
	err := row.Scan(
		&b.ID,
		&b.ClientID,
		&b.UserID,
		&b.ClassType,
		&b.ClassTitle,
		&b.Instructor,
		&b.Location,
		&date,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.CreatedAt,
		&b.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	b.Date = date.Format("2006-01-02")
	return &b, nil
}

// Create создаёт новое бронирование
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	date, err := time.Parse("2006-01-02", booking.Date[:10])
	if err != nil {
		return fmt.Errorf("parse booking date: %w", err)
	}

	query := `
		INSERT INTO bookings (client_id, class_type, class_title, instructor, location, date, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err = r.QueryRow(
		ctx, query,
		booking.ClientID,
		booking.ClassType,
		booking.ClassTitle,
		booking.Instructor,
		booking.Location,
		date,
		booking.StartTime,
		booking.EndTime,
		booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		JOIN clients c ON c.id = b.client_id
		WHERE b.id = $1
	`

	b, err := scanBooking(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}
	return b, nil
}

// ListByClient получает все бронирования клиента, включая отменённые
func (r *BookingRepository) ListByClient(ctx context.Context, clientID int64) ([]model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		JOIN clients c ON c.id = b.client_id
		WHERE b.client_id = $1
		ORDER BY b.date DESC, b.start_time DESC
	`

	rows, err := r.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("get bookings by client: %w", err)
	}
	defer rows.Close()

	bookings := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}

// Cancel помечает бронирование отменённым. Возвращает false, если оно уже
// было отменено: UPDATE пропускает такие строки, поэтому из двух
// параллельных отмен сработает только одна.
func (r *BookingRepository) Cancel(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $1, cancelled_at = $2
		WHERE id = $3 AND status <> $1
	`

	affected, err := r.ExecAffected(ctx, query, model.BookingStatusCancelled, at, id)
	if err != nil {
		return false, fmt.Errorf("cancel booking: %w", err)
	}

	return affected > 0, nil
}

// CountActiveGroup считает неотменённые групповые бронирования клиента
func (r *BookingRepository) CountActiveGroup(ctx context.Context, clientID int64) (int, error) {
	query := `
		SELECT count(*)
		FROM bookings
		WHERE client_id = $1
		  AND status <> $2
		  AND class_type NOT IN ($3, $4)
	`

	var n int
	err := r.QueryRow(ctx, query, clientID, model.BookingStatusCancelled, model.ClassTypePrivate, model.ClassTypePrivateSession).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active group bookings: %w", err)
	}
	return n, nil
}
