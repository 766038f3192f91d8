package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/Freeeeeet/coach_portal/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clientColumns = `id, email, name, phone, weightlifting_classes_remaining,
	personal_training_sessions_remaining, version, created_at, updated_at`

type ClientRepository struct {
	*base.Repository
}

func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{Repository: base.NewRepository(pool)}
}

func scanClient(row pgx.Row) (*model.Client, error) {
	var c model.Client
	err := row.Scan(
		&c.ID,
		&c.Email,
		&c.Name,
		&c.Phone,
		&c.WeightliftingClassesRemaining,
		&c.PersonalTrainingSessionsRemaining,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Upsert создаёт клиента или обновляет имя и телефон существующего.
// Счётчики сессий здесь не трогаются.
func (r *ClientRepository) Upsert(ctx context.Context, client *model.Client) error {
	query := `
		INSERT INTO clients (email, name, phone)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, phone = EXCLUDED.phone, updated_at = now()
		RETURNING ` + clientColumns

	c, err := scanClient(r.QueryRow(ctx, query, client.Email, client.Name, client.Phone))
	if err != nil {
		return fmt.Errorf("upsert client: %w", err)
	}

	*client = *c
	return nil
}

// GetByID получает клиента по ID
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	c, err := scanClient(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client by id: %w", err)
	}
	return c, nil
}

// GetByIDForUpdate блокирует строку клиента до конца текущей транзакции
func (r *ClientRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 FOR UPDATE`

	c, err := scanClient(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock client: %w", err)
	}
	return c, nil
}

// GetByEmail получает клиента по email
func (r *ClientRepository) GetByEmail(ctx context.Context, email string) (*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE lower(email) = lower($1)`

	c, err := scanClient(r.QueryRow(ctx, query, email))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client by email: %w", err)
	}
	return c, nil
}

// List получает всех клиентов
func (r *ClientRepository) List(ctx context.Context) ([]*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY name, email`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []*model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}

	return clients, nil
}

// UpdateCounters записывает оба счётчика, если версия в базе всё ещё равна
// expectedVersion. Возвращает false, если версия уже изменилась.
func (r *ClientRepository) UpdateCounters(ctx context.Context, client *model.Client, expectedVersion int64) (bool, error) {
	query := `
		UPDATE clients
		SET weightlifting_classes_remaining = $1,
		    personal_training_sessions_remaining = $2,
		    version = version + 1,
		    updated_at = now()
		WHERE id = $3 AND version = $4
		RETURNING version, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		client.WeightliftingClassesRemaining,
		client.PersonalTrainingSessionsRemaining,
		client.ID,
		expectedVersion,
	).Scan(&client.Version, &client.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("update client counters: %w", err)
	}

	return true, nil
}
