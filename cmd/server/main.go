package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/coach_portal/internal/app"
	"github.com/Freeeeeet/coach_portal/internal/config"
	"github.com/Freeeeeet/coach_portal/internal/controller/adminbot"
	"github.com/Freeeeeet/coach_portal/internal/controller/httpapi"
	"github.com/Freeeeeet/coach_portal/internal/events"
	"github.com/Freeeeeet/coach_portal/internal/metrics"
	"github.com/Freeeeeet/coach_portal/internal/payment"
	"github.com/Freeeeeet/coach_portal/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		os.Stdout.WriteString(config.Help())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting coach portal",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.StorageDriver),
		zap.String("venue_tz", cfg.Venue.TimeZone),
	)

	metrics.Register()

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	// Event targets
	var publishers []events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Timeout, logger)
		if err != nil {
			return err
		}
		defer kafka.Close()
		publishers = append(publishers, kafka)
	}

	var telegram *bot.Bot
	if cfg.Telegram.Token != "" {
		telegram, err = bot.New(cfg.Telegram.Token, bot.WithSkipGetMe())
		if err != nil {
			return err
		}
		publishers = append(publishers, events.NewTelegramNotifier(telegram, cfg.Telegram.AdminChatID))
	}
	sink := events.NewSink(publishers...)
	logger.Info("Event sinks configured", zap.Int("count", sink.Len()))

	var gateway service.PaymentGateway = payment.Disabled{}
	if cfg.Stripe.SecretKey != "" {
		gateway, err = payment.NewStripeGateway(payment.StripeConfig{
			SecretKey:  cfg.Stripe.SecretKey,
			SuccessURL: cfg.Stripe.SuccessURL,
			CancelURL:  cfg.Stripe.CancelURL,
			Timeout:    cfg.Stripe.Timeout,
		}, logger)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("STRIPE_SECRET_KEY is not set, online checkout is disabled")
	}

	// Services
	loc := cfg.Location()
	ledger := service.NewSessionLedger(store.tx, store.clients, logger)
	clientService := service.NewClientService(store.clients, store.bookings, logger)
	purchaseService := service.NewPurchaseService(store.tx, store.clients, store.purchases, ledger, sink, logger)
	bookingService := service.NewBookingService(store.tx, store.clients, store.bookings, ledger,
		service.DefaultCancellationPolicy(), loc, logger)
	checkoutService := service.NewCheckoutService(store.tx, store.clients, store.checkouts, store.purchases,
		purchaseService, gateway, logger)

	scheduler := app.NewScheduler(checkoutService, app.SchedulerConfig{
		Interval:    cfg.Checkout.SweepInterval,
		OlderThan:   cfg.Checkout.SweepOlderThan,
		ExpireAfter: cfg.Checkout.ExpireAfter,
	}, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if telegram != nil {
		controller := adminbot.NewBotController(telegram, clientService, bookingService, cfg.Telegram.AdminChatID, logger)
		if err := controller.RegisterHandlers(ctx); err != nil {
			logger.Warn("Admin bot commands not registered", zap.Error(err))
		}
		go controller.Start(ctx)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.Deps{
		Clients:      clientService,
		Bookings:     bookingService,
		Purchases:    purchaseService,
		Checkout:     checkoutService,
		Ledger:       ledger,
		Logger:       logger,
		AdminToken:   cfg.HTTP.AdminToken,
		AllowOrigins: cfg.HTTP.AllowOrigins,
		Metrics:      true,
	})

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("Server exited")
	return nil
}
