package payment_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/Freeeeeet/coach_portal/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGateway(t *testing.T, handler http.HandlerFunc) *payment.StripeGateway {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey:  "sk_test_123",
		SuccessURL: "https://portal.example.com/success",
		CancelURL:  "https://portal.example.com/packages",
		Timeout:    2 * time.Second,
		APIURL:     srv.URL,
	}, zap.NewNop())
	require.NoError(t, err)
	return g
}

func TestStripeGateway_CreateCheckout(t *testing.T) {
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "https://portal.example.com/success?session_id={CHECKOUT_SESSION_ID}", r.PostForm.Get("success_url"))
		assert.Equal(t, "15000", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "intro_pack", r.PostForm.Get("metadata[package_code]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1","payment_status":"unpaid"}`))
	})

	pkg, _ := model.LookupPackage("intro_pack")
	session, err := g.CreateCheckout(context.Background(), model.CheckoutRequest{ClientEmail: "a@example.com", Package: pkg})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", session.URL)
	assert.Equal(t, model.CheckoutStatusPending, session.Status)
}

func TestStripeGateway_Confirm(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantPaid bool
	}{
		{
			name:     "paid",
			body:     `{"id":"cs_test_1","object":"checkout.session","payment_status":"paid","amount_total":15000,"metadata":{"package_code":"intro_pack"},"customer_details":{"email":"a@example.com"}}`,
			wantPaid: true,
		},
		{
			name: "unpaid",
			body: `{"id":"cs_test_1","object":"checkout.session","payment_status":"unpaid","amount_total":15000,"metadata":{"package_code":"intro_pack"},"customer_email":"a@example.com"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/checkout/sessions/cs_test_1", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			})

			c, err := g.Confirm(context.Background(), "cs_test_1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantPaid, c.Paid)
			assert.Equal(t, model.Money(15000), c.AmountPaid)
			assert.Equal(t, "intro_pack", c.PackageCode)
			assert.Equal(t, "a@example.com", c.ClientEmail)
		})
	}
}

func TestStripeGateway_Errors(t *testing.T) {
	t.Run("rejected", func(t *testing.T) {
		g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such checkout.session"}}`))
		})

		_, err := g.Confirm(context.Background(), "cs_test_1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrNetwork)
	})

	t.Run("server failure", func(t *testing.T) {
		g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"boom"}}`))
		})

		_, err := g.Confirm(context.Background(), "cs_test_1")
		assert.ErrorIs(t, err, model.ErrNetwork)
	})
}

func TestNewStripeGateway_Config(t *testing.T) {
	_, err := payment.NewStripeGateway(payment.StripeConfig{}, zap.NewNop())
	assert.Error(t, err)

	_, err = payment.NewStripeGateway(payment.StripeConfig{SecretKey: "sk_test_123"}, zap.NewNop())
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	var d payment.Disabled

	_, err := d.CreateCheckout(context.Background(), model.CheckoutRequest{})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = d.Confirm(context.Background(), "cs_1")
	assert.Error(t, err)
}
