package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/metrics"
	"github.com/Freeeeeet/coach_portal/internal/model"
	"go.uber.org/zap"
)

type CheckoutService struct {
	tx        TxManager
	clients   ClientRepository
	checkouts CheckoutRepository
	purchases PurchaseRepository
	recorder  *PurchaseService
	gateway   PaymentGateway
	logger    *zap.Logger
}

func NewCheckoutService(
	tx TxManager,
	clients ClientRepository,
	checkouts CheckoutRepository,
	purchases PurchaseRepository,
	recorder *PurchaseService,
	gateway PaymentGateway,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		tx:        tx,
		clients:   clients,
		checkouts: checkouts,
		purchases: purchases,
		recorder:  recorder,
		gateway:   gateway,
		logger:    logger,
	}
}

// Start opens a hosted checkout page for one catalog package
func (s *CheckoutService) Start(ctx context.Context, email, packageCode string) (*model.CheckoutSession, error) {
	pkg, ok := model.LookupPackage(packageCode)
	if !ok {
		return nil, model.NewValidationError("package_code", fmt.Sprintf("unknown package %q", packageCode))
	}

	client, err := s.clients.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("checkout for %s: %w", email, model.ErrClientNotFound)
	}

	session, err := s.gateway.CreateCheckout(ctx, model.CheckoutRequest{
		ClientEmail: client.Email,
		Package:     pkg,
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}
	session.ClientID = client.ID
	session.PackageCode = pkg.Code
	session.Status = model.CheckoutStatusPending

	if err := s.checkouts.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Checkout started",
		zap.String("session_id", session.ID),
		zap.Int64("client_id", client.ID),
		zap.String("package_code", pkg.Code),
	)

	return session, nil
}

// ProcessSuccess confirms a checkout with the gateway and credits the package.
// Calling it again for the same session returns the purchase already recorded.
func (s *CheckoutService) ProcessSuccess(ctx context.Context, sessionID string) (*model.Purchase, error) {
	if sessionID == "" {
		return nil, model.NewValidationError("session_id", "is required")
	}

	existing, err := s.purchases.GetByExternalRef(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.PaymentConfirmations.WithLabelValues("duplicate").Inc()
		return existing, nil
	}

	confirmation, err := s.gateway.Confirm(ctx, sessionID)
	if err != nil {
		metrics.PaymentConfirmations.WithLabelValues("error").Inc()
		s.logger.Warn("Payment confirmation failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("confirm %s: %v: %w", sessionID, err, model.ErrPaymentNotConfirmed)
	}
	if !confirmation.Paid {
		metrics.PaymentConfirmations.WithLabelValues("unpaid").Inc()
		return nil, fmt.Errorf("checkout %s: %w", sessionID, model.ErrPaymentNotConfirmed)
	}

	purchase, created, err := s.credit(ctx, sessionID, confirmation)
	if err != nil {
		return nil, err
	}
	if !created {
		metrics.PaymentConfirmations.WithLabelValues("duplicate").Inc()
		return purchase, nil
	}

	metrics.PaymentConfirmations.WithLabelValues("paid").Inc()
	s.logger.Info("Checkout completed",
		zap.String("session_id", sessionID),
		zap.String("purchase_id", purchase.ID.String()),
		zap.Int64("client_id", purchase.ClientID),
	)
	s.recorder.emit(ctx, model.NewPurchaseEvent(model.PurchaseEventRecorded, *purchase, purchase.UserID, purchase.LedgerContribution()))

	return purchase, nil
}

func (s *CheckoutService) credit(ctx context.Context, sessionID string, confirmation *model.PaymentConfirmation) (*model.Purchase, bool, error) {
	var (
		purchase *model.Purchase
		created  bool
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		checkout, err := s.checkouts.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}

		// a concurrent call may have credited while we were talking to the gateway
		existing, err := s.purchases.GetByExternalRef(ctx, sessionID)
		if err != nil {
			return err
		}
		if existing != nil {
			purchase = existing
			return nil
		}

		packageCode := confirmation.PackageCode
		email := confirmation.ClientEmail
		if checkout != nil {
			packageCode = checkout.PackageCode
			client, err := s.clients.GetByID(ctx, checkout.ClientID)
			if err != nil {
				return fmt.Errorf("get client: %w", err)
			}
			if client != nil {
				email = client.Email
			}
		}

		pkg, ok := model.LookupPackage(packageCode)
		if !ok {
			return model.NewValidationError("package_code", fmt.Sprintf("unknown package %q", packageCode))
		}

		amount := confirmation.AmountPaid
		if amount == 0 {
			amount = pkg.Price
		}

		ref := sessionID
		purchase, err = s.recorder.recordTx(ctx, RecordPurchaseInput{
			UserID:           email,
			PackageType:      pkg.Title,
			SessionType:      pkg.SessionType,
			SessionsIncluded: pkg.Sessions,
			AmountPaid:       amount,
			PaymentMethod:    model.PaymentMethodStripe,
			PaymentStatus:    model.PaymentStatusCompleted,
			Notes:            "Stripe checkout " + sessionID,
			ExternalRef:      &ref,
		})
		if err != nil {
			return err
		}

		if checkout != nil {
			if err := s.checkouts.MarkStatus(ctx, sessionID, model.CheckoutStatusCompleted, time.Now().UTC()); err != nil {
				return err
			}
		}

		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return purchase, created, nil
}

// SweepPending re-confirms checkouts left pending longer than olderThan. Paid ones
// are credited; unpaid ones older than expireAfter are marked expired.
func (s *CheckoutService) SweepPending(ctx context.Context, olderThan, expireAfter time.Duration, now time.Time) (completed, expired int, err error) {
	pending, err := s.checkouts.ListPending(ctx, now.Add(-olderThan))
	if err != nil {
		return 0, 0, err
	}

	for _, cs := range pending {
		if ctx.Err() != nil {
			return completed, expired, ctx.Err()
		}

		_, err := s.ProcessSuccess(ctx, cs.ID)
		if err == nil {
			completed++
			continue
		}
		if !errors.Is(err, model.ErrPaymentNotConfirmed) {
			s.logger.Error("Failed to process pending checkout",
				zap.String("session_id", cs.ID),
				zap.Error(err),
			)
			continue
		}

		if now.Sub(cs.CreatedAt) < expireAfter {
			continue
		}
		if err := s.checkouts.MarkStatus(ctx, cs.ID, model.CheckoutStatusExpired, now); err != nil {
			s.logger.Error("Failed to expire checkout",
				zap.String("session_id", cs.ID),
				zap.Error(err),
			)
			continue
		}
		expired++
	}

	if completed > 0 || expired > 0 {
		s.logger.Info("Pending checkouts swept",
			zap.Int("completed", completed),
			zap.Int("expired", expired),
		)
	}
	return completed, expired, nil
}
