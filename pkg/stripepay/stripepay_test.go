package stripepay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"

	"github.com/Alijeyrad/staylink_backend/config"
)

const testWebhookSecret = "whsec_test"

func fakeAPI(t *testing.T, onRequest func(r *http.Request, form url.Values)) *Client {
	t.Helper()

	return clientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		onRequest(r, form)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`)
	}))
}

func clientFor(t *testing.T, h http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	noRetries := int64(0)
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: &noRetries,
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return NewWithBackends(
		config.StripeConfig{SecretKey: "sk_test_123", WebhookSecret: testWebhookSecret},
		&stripe.Backends{API: backend, Connect: backend, Uploads: backend},
	)
}

func TestCreateCheckoutSession_Destination(t *testing.T) {
	var (
		gotPath string
		gotKey  string
		gotForm url.Values
	)
	c := fakeAPI(t, func(r *http.Request, form url.Values) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("Idempotency-Key")
		gotForm = form
	})

	s, err := c.CreateCheckoutSession(context.Background(), SessionRequest{
		IdempotencyKey: "plan-abc",
		Amount:         10000,
		Currency:       "EUR",
		Description:    "Booking",
		SuccessURL:     "https://example.test/ok",
		CancelURL:      "https://example.test/cancel",
		Destination:    "acct_vendor",
		ApplicationFee: 2300,
		Metadata:       map[string]string{"plan_id": "p1"},
	})
	require.NoError(t, err)
	require.Equal(t, "cs_test_1", s.ID)
	require.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", s.URL)

	require.Equal(t, "/v1/checkout/sessions", gotPath)
	require.Equal(t, "plan-abc", gotKey)
	require.Equal(t, "payment", gotForm.Get("mode"))
	require.Equal(t, "eur", gotForm.Get("line_items[0][price_data][currency]"))
	require.Equal(t, "10000", gotForm.Get("line_items[0][price_data][unit_amount]"))
	require.Equal(t, "2300", gotForm.Get("payment_intent_data[application_fee_amount]"))
	require.Equal(t, "acct_vendor", gotForm.Get("payment_intent_data[transfer_data][destination]"))
	require.Equal(t, "p1", gotForm.Get("metadata[plan_id]"))
}

func TestCreateCheckoutSession_PlatformRetainsOmitsTransfer(t *testing.T) {
	var gotForm url.Values
	c := fakeAPI(t, func(_ *http.Request, form url.Values) { gotForm = form })

	_, err := c.CreateCheckoutSession(context.Background(), SessionRequest{
		Amount:      8000,
		Currency:    "usd",
		Description: "Booking",
		SuccessURL:  "https://example.test/ok",
		CancelURL:   "https://example.test/cancel",
	})
	require.NoError(t, err)
	require.Empty(t, gotForm.Get("payment_intent_data[application_fee_amount]"))
	require.Empty(t, gotForm.Get("payment_intent_data[transfer_data][destination]"))
}

func TestCreateCheckoutSession_Validation(t *testing.T) {
	c := fakeAPI(t, func(*http.Request, url.Values) { t.Fatal("request must not reach the API") })

	base := SessionRequest{
		Amount: 100, Currency: "usd", SuccessURL: "s", CancelURL: "c",
	}
	tests := []struct {
		name   string
		mutate func(*SessionRequest)
	}{
		{"zero amount", func(r *SessionRequest) { r.Amount = 0 }},
		{"bad currency", func(r *SessionRequest) { r.Currency = "dollars" }},
		{"missing urls", func(r *SessionRequest) { r.SuccessURL = "" }},
		{"fee above amount", func(r *SessionRequest) { r.Destination = "acct_x"; r.ApplicationFee = 101 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := c.CreateCheckoutSession(context.Background(), req)
			require.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestCreateCheckoutSession_NotConfigured(t *testing.T) {
	c := New(config.StripeConfig{})
	_, err := c.CreateCheckoutSession(context.Background(), SessionRequest{Amount: 1})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestCreateCheckoutSession_ServerError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		unavailable bool
	}{
		{"stripe 500", http.StatusInternalServerError, true},
		{"stripe 503", http.StatusServiceUnavailable, true},
		{"card declined", http.StatusPaymentRequired, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := clientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"error":{"type":"api_error","message":"boom"}}`)
			}))

			_, err := c.CreateCheckoutSession(context.Background(), SessionRequest{
				IdempotencyKey: "plan-0",
				Amount:         1000,
				Currency:       "USD",
				Description:    "Harbour food walk",
				SuccessURL:     "https://staylink.test/ok",
				CancelURL:      "https://staylink.test/cancel",
			})
			require.Error(t, err)
			require.Equal(t, tt.unavailable, errors.Is(err, ErrGatewayUnavailable))
		})
	}
}

func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestParseWebhook(t *testing.T) {
	c := New(config.StripeConfig{WebhookSecret: testWebhookSecret})

	t.Run("checkout completed", func(t *testing.T) {
		payload := []byte(`{"id":"evt_1","object":"event","api_version":"2020-08-27","type":"checkout.session.completed",
			"data":{"object":{"id":"cs_1","object":"checkout.session","metadata":{"plan_id":"p1"}}}}`)
		evt, err := c.ParseWebhook(payload, sign(payload, testWebhookSecret, time.Now()))
		require.NoError(t, err)
		require.Equal(t, EventCheckoutCompleted, evt.Type)
		require.Equal(t, "cs_1", evt.SessionID)
		require.Equal(t, "p1", evt.Metadata["plan_id"])
	})

	t.Run("payment status", func(t *testing.T) {
		tests := []struct {
			typ    string
			status string
		}{
			{EventCheckoutCompleted, "unpaid"},
			{EventCheckoutCompleted, PaymentStatusPaid},
			{EventAsyncPaymentPaid, PaymentStatusPaid},
			{EventAsyncPaymentFail, "unpaid"},
		}
		for _, tt := range tests {
			payload := []byte(fmt.Sprintf(`{"id":"evt_4","object":"event","type":%q,
				"data":{"object":{"id":"cs_4","object":"checkout.session","payment_status":%q}}}`, tt.typ, tt.status))
			evt, err := c.ParseWebhook(payload, sign(payload, testWebhookSecret, time.Now()))
			require.NoError(t, err)
			require.Equal(t, tt.typ, evt.Type)
			require.Equal(t, "cs_4", evt.SessionID)
			require.Equal(t, tt.status, evt.PaymentStatus)
		}
	})

	t.Run("account updated", func(t *testing.T) {
		payload := []byte(`{"id":"evt_2","object":"event","type":"account.updated",
			"data":{"object":{"id":"acct_1","object":"account","charges_enabled":true,"details_submitted":true}}}`)
		evt, err := c.ParseWebhook(payload, sign(payload, testWebhookSecret, time.Now()))
		require.NoError(t, err)
		require.Equal(t, "acct_1", evt.AccountID)
		require.True(t, evt.AccountReady)
	})

	t.Run("bad signature", func(t *testing.T) {
		payload := []byte(`{"id":"evt_3","object":"event","type":"account.updated","data":{"object":{}}}`)
		_, err := c.ParseWebhook(payload, sign(payload, "whsec_other", time.Now()))
		require.True(t, errors.Is(err, ErrInvalidSignature))
	})
}
