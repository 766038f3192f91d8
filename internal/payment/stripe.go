// Package payment talks to Stripe Checkout. The portal never trusts the browser
// redirect: a session counts as paid only after the server fetched it from Stripe.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

const metadataPackageCode = "package_code"

type StripeConfig struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
	Timeout    time.Duration
	// APIURL overrides the Stripe endpoint, used in tests
	APIURL string
}

type StripeGateway struct {
	api        *client.API
	successURL string
	cancelURL  string
	logger     *zap.Logger
}

func NewStripeGateway(cfg StripeConfig, logger *zap.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe secret key is empty")
	}
	if cfg.SuccessURL == "" || cfg.CancelURL == "" {
		return nil, errors.New("stripe success and cancel urls are required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	backendConfig := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(1),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.APIURL != "" {
		backendConfig.URL = stripe.String(cfg.APIURL)
		backendConfig.MaxNetworkRetries = stripe.Int64(0)
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendConfig),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig),
	})

	return &StripeGateway{
		api:        api,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		logger:     logger,
	}, nil
}

// CreateCheckout opens a one-item payment page for the package
func (g *StripeGateway) CreateCheckout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(withSessionPlaceholder(g.successURL)),
		CancelURL:     stripe.String(g.cancelURL),
		CustomerEmail: stripe.String(req.ClientEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(int64(req.Package.Price)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Package.Title),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataPackageCode, req.Package.Code)
	params.AddMetadata("client_email", req.ClientEmail)

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, g.wrap("create checkout session", err)
	}

	g.logger.Info("Stripe checkout session created",
		zap.String("session_id", s.ID),
		zap.String("package_code", req.Package.Code),
	)

	return &model.CheckoutSession{
		ID:          s.ID,
		PackageCode: req.Package.Code,
		Status:      model.CheckoutStatusPending,
		URL:         s.URL,
	}, nil
}

// Confirm fetches the session from Stripe and reports whether it was paid
func (g *StripeGateway) Confirm(ctx context.Context, sessionID string) (*model.PaymentConfirmation, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, g.wrap("get checkout session", err)
	}

	email := s.CustomerEmail
	if email == "" && s.CustomerDetails != nil {
		email = s.CustomerDetails.Email
	}

	return &model.PaymentConfirmation{
		SessionID:   s.ID,
		Paid:        s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		AmountPaid:  model.Money(s.AmountTotal),
		PackageCode: s.Metadata[metadataPackageCode],
		ClientEmail: email,
	}, nil
}

// wrap classifies Stripe failures: API-level rejections stay as they are,
// transport problems become ErrNetwork.
func (g *StripeGateway) wrap(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode > 0 && stripeErr.HTTPStatusCode < 500 {
		g.logger.Warn("Stripe rejected request",
			zap.String("op", op),
			zap.Int("status", stripeErr.HTTPStatusCode),
			zap.String("code", string(stripeErr.Code)),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	g.logger.Error("Stripe request failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %v: %w", op, err, model.ErrNetwork)
}

func withSessionPlaceholder(url string) string {
	if strings.Contains(url, "{CHECKOUT_SESSION_ID}") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "session_id={CHECKOUT_SESSION_ID}"
}

// Disabled is used when no Stripe key is configured
type Disabled struct{}

func (Disabled) CreateCheckout(context.Context, model.CheckoutRequest) (*model.CheckoutSession, error) {
	return nil, model.NewValidationError("package_code", "online payments are not configured")
}

func (Disabled) Confirm(_ context.Context, sessionID string) (*model.PaymentConfirmation, error) {
	return nil, fmt.Errorf("confirm %s: online payments are not configured", sessionID)
}
