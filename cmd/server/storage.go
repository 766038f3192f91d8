package main

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/coach_portal/internal/app"
	"github.com/Freeeeeet/coach_portal/internal/config"
	"github.com/Freeeeeet/coach_portal/internal/repository"
	"github.com/Freeeeeet/coach_portal/internal/repository/base"
	"github.com/Freeeeeet/coach_portal/internal/repository/memory"
	"github.com/Freeeeeet/coach_portal/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type storage struct {
	tx        service.TxManager
	clients   service.ClientRepository
	bookings  service.BookingRepository
	purchases service.PurchaseRepository
	checkouts service.CheckoutRepository
	close     func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &storage{
			tx:        store,
			clients:   store.Clients(),
			bookings:  store.Bookings(),
			purchases: store.Purchases(),
			checkouts: store.Checkouts(),
			close:     func() {},
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("✅ Connected to database")

	migrator, err := app.NewMigrator(pool, cfg.MigrationsDir, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &storage{
		tx:        base.NewTxManager(pool),
		clients:   repository.NewClientRepository(pool),
		bookings:  repository.NewBookingRepository(pool),
		purchases: repository.NewPurchaseRepository(pool),
		checkouts: repository.NewCheckoutRepository(pool),
		close:     pool.Close,
	}, nil
}
