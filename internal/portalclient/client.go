// Package portalclient reads a client's bookings and purchases from the portal API.
// Every call is bounded by a timeout; transport failures are retried and then
// reported as model.ErrNetwork. Records that fail validation are dropped.
package portalclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/avast/retry-go"
	"go.uber.org/zap"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	// Attempts is the total number of tries per call, at least 1
	Attempts uint
	Logger   *zap.Logger
}

type Client struct {
	baseURL  string
	http     *http.Client
	attempts uint
	logger   *zap.Logger
}

func New(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = 3
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		attempts: attempts,
		logger:   logger,
	}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// ListBookings returns the client's bookings, invalid records dropped
func (c *Client) ListBookings(ctx context.Context, email string) ([]model.Booking, error) {
	var raw []model.Booking
	if err := c.get(ctx, "/bookings", email, &raw); err != nil {
		return nil, err
	}

	bookings := make([]model.Booking, 0, len(raw))
	for _, b := range raw {
		if err := model.Validate(b); err != nil {
			c.logger.Warn("Dropping invalid booking", zap.Int64("booking_id", b.ID), zap.Error(err))
			continue
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

// ListPurchases returns the client's purchases, invalid records dropped
func (c *Client) ListPurchases(ctx context.Context, email string) ([]model.Purchase, error) {
	var raw []model.Purchase
	if err := c.get(ctx, "/purchases", email, &raw); err != nil {
		return nil, err
	}

	purchases := make([]model.Purchase, 0, len(raw))
	for _, p := range raw {
		if err := model.Validate(p); err != nil {
			c.logger.Warn("Dropping invalid purchase", zap.String("purchase_id", p.ID.String()), zap.Error(err))
			continue
		}
		purchases = append(purchases, p)
	}
	return purchases, nil
}

func (c *Client) get(ctx context.Context, path, email string, out interface{}) error {
	if email == "" {
		return model.NewValidationError("user_id", "is required")
	}
	endpoint := c.baseURL + path + "?" + url.Values{"user_id": {email}}.Encode()

	var data json.RawMessage
	err := retry.Do(
		func() error {
			var err error
			data, err = c.fetch(ctx, endpoint)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, model.ErrNetwork)
		}),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("Retrying portal request", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return err
	}

	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return model.NewValidationError("data", "unexpected response shape")
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %v: %w", endpoint, err, model.ErrNetwork)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s: %v: %w", endpoint, err, model.ErrNetwork)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("get %s: status %d: %w", endpoint, resp.StatusCode, model.ErrNetwork)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("get %s: %w", endpoint, model.ErrClientNotFound)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, model.NewValidationError("user_id", env.Error)
	case decodeErr != nil:
		return nil, model.NewValidationError("data", "response is not json")
	case !env.Success:
		return nil, fmt.Errorf("get %s: %s", endpoint, env.Error)
	}
	return env.Data, nil
}
