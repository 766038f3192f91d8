package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/Freeeeeet/coach_portal/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const purchaseColumns = `p.id, p.client_id, c.email, p.package_type, p.session_type, p.sessions_included,
	p.amount_cents, p.payment_method, p.payment_status, p.purchase_date, p.notes, p.external_ref, p.updated_at`

type PurchaseRepository struct {
	*base.Repository
}

func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{Repository: base.NewRepository(pool)}
}

func scanPurchase(row pgx.Row) (*model.Purchase, error) {
	var (
		p     model.Purchase
		cents int64
	)
	err := row.Scan(
		&p.ID,
		&p.ClientID,
		&p.UserID,
		&p.PackageType,
		&p.SessionType,
		&p.SessionsIncluded,
		&cents,
		&p.PaymentMethod,
		&p.PaymentStatus,
		&p.PurchaseDate,
		&p.Notes,
		&p.ExternalRef,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.AmountPaid = model.Money(cents)
	return &p, nil
}

// Create сохраняет покупку
func (r *PurchaseRepository) Create(ctx context.Context, purchase *model.Purchase) error {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}

	query := `
		INSERT INTO purchases (id, client_id, package_type, session_type, sessions_included, amount_cents,
		                       payment_method, payment_status, purchase_date, notes, external_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		purchase.ID,
		purchase.ClientID,
		purchase.PackageType,
		purchase.SessionType,
		purchase.SessionsIncluded,
		purchase.AmountPaid.Cents(),
		purchase.PaymentMethod,
		purchase.PaymentStatus,
		purchase.PurchaseDate,
		purchase.Notes,
		purchase.ExternalRef,
	).Scan(&purchase.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return model.NewValidationError("external_ref", "already recorded")
		}
		return fmt.Errorf("create purchase: %w", err)
	}

	return nil
}

func (r *PurchaseRepository) getOne(ctx context.Context, where string, arg interface{}) (*model.Purchase, error) {
	query := `
		SELECT ` + purchaseColumns + `
		FROM purchases p
		JOIN clients c ON c.id = p.client_id
		WHERE ` + where

	p, err := scanPurchase(r.QueryRow(ctx, query, arg))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// GetByID получает покупку по ID
func (r *PurchaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	p, err := r.getOne(ctx, `p.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get purchase by id: %w", err)
	}
	return p, nil
}

// GetByIDForUpdate блокирует строку покупки до конца текущей транзакции
func (r *PurchaseRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	p, err := r.getOne(ctx, `p.id = $1 FOR UPDATE OF p`, id)
	if err != nil {
		return nil, fmt.Errorf("lock purchase: %w", err)
	}
	return p, nil
}

// GetByExternalRef находит покупку по идентификатору платёжной сессии
func (r *PurchaseRepository) GetByExternalRef(ctx context.Context, ref string) (*model.Purchase, error) {
	p, err := r.getOne(ctx, `p.external_ref = $1`, ref)
	if err != nil {
		return nil, fmt.Errorf("get purchase by external ref: %w", err)
	}
	return p, nil
}

// ListByClient получает покупки клиента, новые сверху
func (r *PurchaseRepository) ListByClient(ctx context.Context, clientID int64) ([]model.Purchase, error) {
	query := `
		SELECT ` + purchaseColumns + `
		FROM purchases p
		JOIN clients c ON c.id = p.client_id
		WHERE p.client_id = $1
		ORDER BY p.purchase_date DESC
	`

	rows, err := r.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("get purchases by client: %w", err)
	}
	defer rows.Close()

	purchases := []model.Purchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}

	return purchases, nil
}

// Update сохраняет редактируемые поля покупки
func (r *PurchaseRepository) Update(ctx context.Context, purchase *model.Purchase) error {
	query := `
		UPDATE purchases
		SET package_type = $1, session_type = $2, sessions_included = $3, amount_cents = $4,
		    payment_method = $5, payment_status = $6, notes = $7, updated_at = now()
		WHERE id = $8
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		purchase.PackageType,
		purchase.SessionType,
		purchase.SessionsIncluded,
		purchase.AmountPaid.Cents(),
		purchase.PaymentMethod,
		purchase.PaymentStatus,
		purchase.Notes,
		purchase.ID,
	).Scan(&purchase.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("update purchase %s: %w", purchase.ID, model.ErrNotFound)
		}
		return fmt.Errorf("update purchase: %w", err)
	}

	return nil
}

// Delete удаляет покупку
func (r *PurchaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("delete purchase %s: %w", id, model.ErrNotFound)
	}

	return nil
}
