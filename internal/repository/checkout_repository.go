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

const checkoutColumns = `id, client_id, package_code, status, url, created_at, completed_at`

type CheckoutRepository struct {
	*base.Repository
}

func NewCheckoutRepository(pool *pgxpool.Pool) *CheckoutRepository {
	return &CheckoutRepository{Repository: base.NewRepository(pool)}
}

func scanCheckout(row pgx.Row) (*model.CheckoutSession, error) {
	var s model.CheckoutSession
	err := row.Scan(&s.ID, &s.ClientID, &s.PackageCode, &s.Status, &s.URL, &s.CreatedAt, &s.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create сохраняет новую платёжную сессию
func (r *CheckoutRepository) Create(ctx context.Context, session *model.CheckoutSession) error {
	query := `
		INSERT INTO checkout_sessions (id, client_id, package_code, status, url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.QueryRow(ctx, query, session.ID, session.ClientID, session.PackageCode, session.Status, session.URL).
		Scan(&session.CreatedAt)
	if err != nil {
		return fmt.Errorf("create checkout session: %w", err)
	}
	return nil
}

// GetByIDForUpdate блокирует строку checkout до конца текущей транзакции
func (r *CheckoutRepository) GetByIDForUpdate(ctx context.Context, id string) (*model.CheckoutSession, error) {
	query := `SELECT ` + checkoutColumns + ` FROM checkout_sessions WHERE id = $1 FOR UPDATE`

	s, err := scanCheckout(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock checkout session: %w", err)
	}
	return s, nil
}

// MarkStatus меняет статус сессии
func (r *CheckoutRepository) MarkStatus(ctx context.Context, id, status string, at time.Time) error {
	query := `
		UPDATE checkout_sessions
		SET status = $1, completed_at = $2
		WHERE id = $3
	`

	affected, err := r.ExecAffected(ctx, query, status, at, id)
	if err != nil {
		return fmt.Errorf("mark checkout session: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("mark checkout session %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// ListPending возвращает незавершённые сессии, созданные раньше before
func (r *CheckoutRepository) ListPending(ctx context.Context, before time.Time) ([]model.CheckoutSession, error) {
	query := `
		SELECT ` + checkoutColumns + `
		FROM checkout_sessions
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
	`

	rows, err := r.Query(ctx, query, model.CheckoutStatusPending, before)
	if err != nil {
		return nil, fmt.Errorf("list pending checkout sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.CheckoutSession
	for rows.Next() {
		s, err := scanCheckout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkout session: %w", err)
		}
		sessions = append(sessions, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkout sessions: %w", err)
	}

	return sessions, nil
}
