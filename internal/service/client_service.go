package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"go.uber.org/zap"
)

type ClientService struct {
	clients  ClientRepository
	bookings BookingRepository
	logger   *zap.Logger
}

func NewClientService(clients ClientRepository, bookings BookingRepository, logger *zap.Logger) *ClientService {
	return &ClientService{
		clients:  clients,
		bookings: bookings,
		logger:   logger,
	}
}

// Register creates the client or updates name and phone by email
func (s *ClientService) Register(ctx context.Context, email, name, phone string) (*model.Client, error) {
	client := &model.Client{
		Email: strings.ToLower(strings.TrimSpace(email)),
		Name:  strings.TrimSpace(name),
		Phone: strings.TrimSpace(phone),
	}
	if err := model.Validate(client); err != nil {
		return nil, err
	}
	if err := s.clients.Upsert(ctx, client); err != nil {
		return nil, fmt.Errorf("upsert client: %w", err)
	}

	s.logger.Info("Client registered",
		zap.Int64("client_id", client.ID),
		zap.String("email", client.Email),
	)

	return client, nil
}

// GetByID returns the client with the derived booked count filled in
func (s *ClientService) GetByID(ctx context.Context, id int64) (*model.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("client %d: %w", id, model.ErrClientNotFound)
	}
	return client, s.fillBooked(ctx, client)
}

// GetByEmail returns the client with the derived booked count filled in
func (s *ClientService) GetByEmail(ctx context.Context, email string) (*model.Client, error) {
	client, err := s.clients.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("client %s: %w", email, model.ErrClientNotFound)
	}
	return client, s.fillBooked(ctx, client)
}

// List returns every client for the admin views
func (s *ClientService) List(ctx context.Context) ([]*model.Client, error) {
	clients, err := s.clients.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, c := range clients {
		if err := s.fillBooked(ctx, c); err != nil {
			return nil, err
		}
	}
	return clients, nil
}

func (s *ClientService) fillBooked(ctx context.Context, client *model.Client) error {
	n, err := s.bookings.CountActiveGroup(ctx, client.ID)
	if err != nil {
		return fmt.Errorf("count bookings: %w", err)
	}
	client.WeightliftingClassesBooked = n
	return nil
}
