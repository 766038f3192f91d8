package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/metrics"
	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordPurchaseInput is a new purchase entered by an admin or produced by checkout
type RecordPurchaseInput struct {
	UserID           string
	PackageType      string
	SessionType      model.SessionType
	SessionsIncluded int
	AmountPaid       model.Money
	PaymentMethod    string
	PaymentStatus    string
	Notes            string
	PurchaseDate     time.Time
	ExternalRef      *string
}

// UpdatePurchaseInput carries the fields an admin may edit. Nil means unchanged.
type UpdatePurchaseInput struct {
	PackageType      *string
	SessionType      *model.SessionType
	SessionsIncluded *int
	AmountPaid       *model.Money
	PaymentMethod    *string
	PaymentStatus    *string
	Notes            *string
}

type PurchaseService struct {
	tx        TxManager
	clients   ClientRepository
	purchases PurchaseRepository
	ledger    *SessionLedger
	events    EventSink
	logger    *zap.Logger
}

func NewPurchaseService(
	tx TxManager,
	clients ClientRepository,
	purchases PurchaseRepository,
	ledger *SessionLedger,
	events EventSink,
	logger *zap.Logger,
) *PurchaseService {
	return &PurchaseService{
		tx:        tx,
		clients:   clients,
		purchases: purchases,
		ledger:    ledger,
		events:    events,
		logger:    logger,
	}
}

func validatePurchase(p *model.Purchase) error {
	if strings.TrimSpace(p.PackageType) == "" {
		return model.NewValidationError("package_type", "is required")
	}
	if p.SessionsIncluded < 0 {
		return model.NewValidationError("sessions_included", "must not be negative")
	}
	if p.AmountPaid < 0 {
		return model.NewValidationError("amount_paid", "must not be negative")
	}
	if !p.SessionType.Valid() {
		return model.NewValidationError("session_type", fmt.Sprintf("unknown value %q", p.SessionType))
	}
	if !model.IsPaymentMethod(p.PaymentMethod) {
		return model.NewValidationError("payment_method", fmt.Sprintf("unknown value %q", p.PaymentMethod))
	}
	if !model.IsPaymentStatus(p.PaymentStatus) {
		return model.NewValidationError("payment_status", fmt.Sprintf("unknown value %q", p.PaymentStatus))
	}
	return nil
}

// Record saves a purchase and credits its sessions in one transaction
func (s *PurchaseService) Record(ctx context.Context, in RecordPurchaseInput) (*model.Purchase, error) {
	var purchase *model.Purchase
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		purchase, err = s.recordTx(ctx, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, model.NewPurchaseEvent(model.PurchaseEventRecorded, *purchase, purchase.UserID, purchase.LedgerContribution()))
	return purchase, nil
}

// recordTx does the work of Record without its own transaction or event, so
// checkout can fold it into a larger transaction.
func (s *PurchaseService) recordTx(ctx context.Context, in RecordPurchaseInput) (*model.Purchase, error) {
	purchase := &model.Purchase{
		PackageType:      strings.TrimSpace(in.PackageType),
		SessionType:      in.SessionType,
		SessionsIncluded: in.SessionsIncluded,
		AmountPaid:       in.AmountPaid,
		PaymentMethod:    in.PaymentMethod,
		PaymentStatus:    in.PaymentStatus,
		Notes:            in.Notes,
		PurchaseDate:     in.PurchaseDate,
		ExternalRef:      in.ExternalRef,
	}
	if purchase.SessionType == "" {
		purchase.SessionType = model.SessionTypeGroup
	}
	if purchase.PaymentStatus == "" {
		purchase.PaymentStatus = model.PaymentStatusCompleted
	}
	if purchase.PurchaseDate.IsZero() {
		purchase.PurchaseDate = time.Now().UTC()
	}

	if err := validatePurchase(purchase); err != nil {
		return nil, err
	}

	client, err := s.clients.GetByEmail(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("record purchase for %s: %w", in.UserID, model.ErrClientNotFound)
	}
	purchase.ClientID = client.ID
	purchase.UserID = client.Email

	if err := s.purchases.Create(ctx, purchase); err != nil {
		return nil, err
	}

	if _, err := s.ledger.Adjust(ctx, client.ID, purchase.SessionType, purchase.LedgerContribution()); err != nil {
		return nil, fmt.Errorf("credit sessions: %w", err)
	}

	metrics.PurchasesRecorded.WithLabelValues(purchase.PaymentMethod).Inc()
	s.logger.Info("Purchase recorded",
		zap.String("purchase_id", purchase.ID.String()),
		zap.Int64("client_id", client.ID),
		zap.String("package_type", purchase.PackageType),
		zap.Int("sessions_included", purchase.SessionsIncluded),
		zap.String("payment_method", purchase.PaymentMethod),
		zap.String("payment_status", purchase.PaymentStatus),
	)

	return purchase, nil
}

// Update edits a purchase. A change in the sessions it contributes is applied to
// the ledger as a delta, so sessions from other purchases are preserved.
func (s *PurchaseService) Update(ctx context.Context, id uuid.UUID, in UpdatePurchaseInput) (*model.Purchase, error) {
	var (
		updated *model.Purchase
		delta   int
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		current, err := s.purchases.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("purchase %s: %w", id, model.ErrNotFound)
		}

		next := *current
		if in.PackageType != nil {
			next.PackageType = strings.TrimSpace(*in.PackageType)
		}
		if in.SessionType != nil {
			next.SessionType = *in.SessionType
		}
		if in.SessionsIncluded != nil {
			next.SessionsIncluded = *in.SessionsIncluded
		}
		if in.AmountPaid != nil {
			next.AmountPaid = *in.AmountPaid
		}
		if in.PaymentMethod != nil {
			next.PaymentMethod = *in.PaymentMethod
		}
		if in.PaymentStatus != nil {
			next.PaymentStatus = *in.PaymentStatus
		}
		if in.Notes != nil {
			next.Notes = *in.Notes
		}

		if err := validatePurchase(&next); err != nil {
			return err
		}

		oldContribution := current.LedgerContribution()
		newContribution := next.LedgerContribution()

		if next.SessionType != current.SessionType {
			// moving between counters: take back from the old one, credit the new one
			if _, err := s.ledger.Adjust(ctx, current.ClientID, current.SessionType, -oldContribution); err != nil {
				return fmt.Errorf("debit sessions: %w", err)
			}
			if _, err := s.ledger.Adjust(ctx, next.ClientID, next.SessionType, newContribution); err != nil {
				return fmt.Errorf("credit sessions: %w", err)
			}
		} else if newContribution != oldContribution {
			if _, err := s.ledger.Adjust(ctx, current.ClientID, current.SessionType, newContribution-oldContribution); err != nil {
				return fmt.Errorf("adjust sessions: %w", err)
			}
		}
		delta = newContribution - oldContribution

		if err := s.purchases.Update(ctx, &next); err != nil {
			return err
		}

		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Purchase updated",
		zap.String("purchase_id", id.String()),
		zap.Int64("client_id", updated.ClientID),
		zap.Int("sessions_delta", delta),
	)
	s.emit(ctx, model.NewPurchaseEvent(model.PurchaseEventUpdated, *updated, updated.UserID, delta))

	return updated, nil
}

// Delete removes a purchase and takes back the sessions it contributed.
// It returns the number of sessions removed from the counter's perspective.
func (s *PurchaseService) Delete(ctx context.Context, id uuid.UUID) (int, error) {
	var deleted *model.Purchase
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		current, err := s.purchases.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("purchase %s: %w", id, model.ErrNotFound)
		}

		if _, err := s.ledger.Adjust(ctx, current.ClientID, current.SessionType, -current.LedgerContribution()); err != nil {
			return fmt.Errorf("debit sessions: %w", err)
		}

		if err := s.purchases.Delete(ctx, id); err != nil {
			return err
		}

		deleted = current
		return nil
	})
	if err != nil {
		return 0, err
	}

	removed := deleted.LedgerContribution()
	s.logger.Info("Purchase deleted",
		zap.String("purchase_id", id.String()),
		zap.Int64("client_id", deleted.ClientID),
		zap.Int("sessions_removed", removed),
	)
	s.emit(ctx, model.NewPurchaseEvent(model.PurchaseEventDeleted, *deleted, deleted.UserID, -removed))

	return removed, nil
}

// ListByClient returns the purchases of the client with the given email
func (s *PurchaseService) ListByClient(ctx context.Context, email string) ([]model.Purchase, error) {
	client, err := s.clients.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("list purchases for %s: %w", email, model.ErrClientNotFound)
	}

	return s.purchases.ListByClient(ctx, client.ID)
}

// GetByID returns one purchase
func (s *PurchaseService) GetByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	p, err := s.purchases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("purchase %s: %w", id, model.ErrNotFound)
	}
	return p, nil
}

func (s *PurchaseService) emit(ctx context.Context, event model.PurchaseEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish purchase event",
			zap.String("event_type", string(event.Type)),
			zap.String("purchase_id", event.Purchase.ID.String()),
			zap.Error(err),
		)
	}
}
