package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/metrics"
	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/avast/retry-go"
	"go.uber.org/zap"
)

// SessionLedger owns the per-client remaining-session counters.
// Every write goes through a version compare-and-swap; Adjust additionally
// row-locks the client so concurrent deltas are applied one after another.
type SessionLedger struct {
	tx      TxManager
	clients ClientRepository
	logger  *zap.Logger
}

func NewSessionLedger(tx TxManager, clients ClientRepository, logger *zap.Logger) *SessionLedger {
	return &SessionLedger{
		tx:      tx,
		clients: clients,
		logger:  logger,
	}
}

// Adjust changes a counter by delta, clamping at zero. Called inside a purchase
// or booking transaction it joins that transaction.
func (l *SessionLedger) Adjust(ctx context.Context, clientID int64, sessionType model.SessionType, delta int) (*model.Client, error) {
	if !sessionType.Valid() {
		return nil, model.NewValidationError("session_type", fmt.Sprintf("unknown value %q", sessionType))
	}

	var updated *model.Client
	err := l.tx.InTx(ctx, func(ctx context.Context) error {
		client, err := l.clients.GetByIDForUpdate(ctx, clientID)
		if err != nil {
			return fmt.Errorf("lock client: %w", err)
		}
		if client == nil {
			return fmt.Errorf("adjust client %d: %w", clientID, model.ErrClientNotFound)
		}

		if delta == 0 {
			updated = client
			return nil
		}

		before := client.Remaining(sessionType)
		client.SetRemaining(sessionType, before+delta)

		ok, err := l.clients.UpdateCounters(ctx, client, client.Version)
		if err != nil {
			return fmt.Errorf("update counters: %w", err)
		}
		if !ok {
			metrics.LedgerConflicts.Inc()
			return fmt.Errorf("adjust client %d: %w", clientID, model.ErrConcurrencyConflict)
		}

		if before+delta < 0 {
			l.logger.Warn("Session counter clamped at zero",
				zap.Int64("client_id", clientID),
				zap.String("session_type", string(sessionType)),
				zap.Int("before", before),
				zap.Int("delta", delta),
			)
		}

		updated = client
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.LedgerAdjustments.WithLabelValues(string(sessionType), "delta").Inc()
	l.logger.Info("Session counter adjusted",
		zap.Int64("client_id", clientID),
		zap.String("session_type", string(sessionType)),
		zap.Int("delta", delta),
		zap.Int("remaining", updated.Remaining(sessionType)),
	)

	return updated, nil
}

// SetAbsolute overwrites one counter, clamping at zero
func (l *SessionLedger) SetAbsolute(ctx context.Context, clientID int64, sessionType model.SessionType, value int) (*model.Client, error) {
	if !sessionType.Valid() {
		return nil, model.NewValidationError("session_type", fmt.Sprintf("unknown value %q", sessionType))
	}

	return l.write(ctx, clientID, nil, func(c *model.Client) {
		c.SetRemaining(sessionType, value)
	})
}

// SetCounts is the admin "edit session counts" action. With expectedVersion set
// a stale version fails with ErrConcurrencyConflict straight away; without it the
// write is retried once against a fresh read.
func (l *SessionLedger) SetCounts(ctx context.Context, clientID int64, weightlifting, private int, expectedVersion *int64) (*model.Client, error) {
	return l.write(ctx, clientID, expectedVersion, func(c *model.Client) {
		c.SetRemaining(model.SessionTypeGroup, weightlifting)
		c.SetRemaining(model.SessionTypePrivate, private)
	})
}

func (l *SessionLedger) write(ctx context.Context, clientID int64, expectedVersion *int64, mutate func(c *model.Client)) (*model.Client, error) {
	attempts := uint(2)
	if expectedVersion != nil {
		attempts = 1
	}

	var updated *model.Client
	err := retry.Do(
		func() error {
			client, err := l.clients.GetByID(ctx, clientID)
			if err != nil {
				return fmt.Errorf("get client: %w", err)
			}
			if client == nil {
				return fmt.Errorf("set counters for client %d: %w", clientID, model.ErrClientNotFound)
			}

			version := client.Version
			if expectedVersion != nil {
				version = *expectedVersion
			}
			mutate(client)

			ok, err := l.clients.UpdateCounters(ctx, client, version)
			if err != nil {
				return fmt.Errorf("update counters: %w", err)
			}
			if !ok {
				metrics.LedgerConflicts.Inc()
				return fmt.Errorf("set counters for client %d: %w", clientID, model.ErrConcurrencyConflict)
			}

			updated = client
			return nil
		},
		retry.Attempts(attempts),
		retry.Delay(10*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, model.ErrConcurrencyConflict)
		}),
	)
	if err != nil {
		if errors.Is(err, model.ErrConcurrencyConflict) {
			l.logger.Warn("Session counter write conflicted",
				zap.Int64("client_id", clientID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	metrics.LedgerAdjustments.WithLabelValues("all", "absolute").Inc()
	l.logger.Info("Session counters set",
		zap.Int64("client_id", clientID),
		zap.Int("weightlifting_remaining", updated.WeightliftingClassesRemaining),
		zap.Int("private_remaining", updated.PersonalTrainingSessionsRemaining),
		zap.Int64("version", updated.Version),
	)

	return updated, nil
}
