package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// CheckoutSweeper - часть checkout сервиса, которую запускает планировщик
type CheckoutSweeper interface {
	SweepPending(ctx context.Context, olderThan, expireAfter time.Duration, now time.Time) (completed, expired int, err error)
}

type SchedulerConfig struct {
	Interval    time.Duration
	OlderThan   time.Duration
	ExpireAfter time.Duration
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	sweeper  CheckoutSweeper
	cfg      SchedulerConfig
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	done     chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(sweeper CheckoutSweeper, cfg SchedulerConfig, logger *zap.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &Scheduler{
		sweeper:  sweeper,
		cfg:      cfg,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.cfg.Interval))

	go s.runSweepTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт завершения текущего прохода
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	if s.started.Load() {
		<-s.done
	}
}

// runSweepTask периодически перепроверяет незавершённые оплаты
func (s *Scheduler) runSweepTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.sweep(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Checkout sweep task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Checkout sweep task cancelled")
			return
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	completed, expired, err := s.sweeper.SweepPending(ctx, s.cfg.OlderThan, s.cfg.ExpireAfter, time.Now().UTC())
	if err != nil {
		s.logger.Error("Failed to sweep pending checkouts", zap.Error(err))
		return
	}

	s.logger.Debug("Checkout sweep finished",
		zap.Int("completed", completed),
		zap.Int("expired", expired),
	)
}
