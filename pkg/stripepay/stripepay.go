// Package stripepay wraps Stripe Checkout for hosted payment sessions and
// verifies the webhooks Stripe sends back.
package stripepay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/Alijeyrad/staylink_backend/config"
)

var (
	ErrNotConfigured    = errors.New("stripe: secret key not configured")
	ErrInvalidRequest   = errors.New("stripe: invalid session request")
	ErrInvalidSignature = errors.New("stripe: webhook signature verification failed")
	ErrMalformedEvent   = errors.New("stripe: malformed webhook event")

	// ErrGatewayUnavailable marks a 5xx from Stripe. Stripe replays the
	// stored failure for the same idempotency key, so a retry needs a new one.
	ErrGatewayUnavailable = errors.New("stripe: gateway unavailable")
)

// Webhook event types the service reacts to.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
	EventAsyncPaymentPaid  = "checkout.session.async_payment_succeeded"
	EventAsyncPaymentFail  = "checkout.session.async_payment_failed"
	EventAccountUpdated    = "account.updated"
)

// PaymentStatusPaid is the checkout session payment_status once funds are
// captured. Delayed payment methods complete the session as "unpaid".
const PaymentStatusPaid = string(stripe.CheckoutSessionPaymentStatusPaid)

// SessionRequest describes one hosted checkout for a single line item.
// Destination and ApplicationFee are set only for destination charges.
type SessionRequest struct {
	IdempotencyKey string
	Amount         int64
	Currency       string
	Description    string
	SuccessURL     string
	CancelURL      string
	Destination    string
	ApplicationFee int64
	Metadata       map[string]string
}

// Session is the part of a Checkout Session the caller needs.
type Session struct {
	ID  string
	URL string
}

// Event is a verified webhook reduced to the fields this service uses.
type Event struct {
	ID   string
	Type string

	// checkout.session.*
	SessionID     string
	PaymentStatus string
	Metadata      map[string]string

	// account.updated
	AccountID    string
	AccountReady bool
}

// Client talks to the Stripe API.
type Client struct {
	api           *client.API
	webhookSecret string
}

// New creates a Client from config. A client without a secret key is valid
// but refuses to create sessions.
func New(cfg config.StripeConfig) *Client {
	return NewWithBackends(cfg, nil)
}

// NewWithBackends lets tests point the client at a fake API.
func NewWithBackends(cfg config.StripeConfig, backends *stripe.Backends) *Client {
	c := &Client{webhookSecret: cfg.WebhookSecret}
	if cfg.SecretKey != "" {
		c.api = client.New(cfg.SecretKey, backends)
	}
	return c
}

// CreateCheckoutSession creates a payment-mode Checkout Session. Stripe
// replays the original response for a repeated IdempotencyKey.
func (c *Client) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if c.api == nil {
		return nil, ErrNotConfigured
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(req.Currency)),
				UnitAmount: stripe.Int64(req.Amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.Description),
				},
			},
		}},
	}

	intent := &stripe.CheckoutSessionPaymentIntentDataParams{}
	if req.Destination != "" {
		intent.ApplicationFeeAmount = stripe.Int64(req.ApplicationFee)
		intent.TransferData = &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
			Destination: stripe.String(req.Destination),
		}
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
		intent.AddMetadata(k, v)
	}
	params.PaymentIntentData = intent

	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		var apiErr *stripe.Error
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 500 {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}

func (r SessionRequest) validate() error {
	switch {
	case r.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	case len(r.Currency) != 3:
		return fmt.Errorf("%w: currency must be an ISO 4217 code", ErrInvalidRequest)
	case r.SuccessURL == "" || r.CancelURL == "":
		return fmt.Errorf("%w: success and cancel urls are required", ErrInvalidRequest)
	case r.Destination != "" && (r.ApplicationFee < 0 || r.ApplicationFee > r.Amount):
		return fmt.Errorf("%w: application fee out of range", ErrInvalidRequest)
	}
	return nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (c *Client) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if c.webhookSecret == "" {
		return nil, ErrNotConfigured
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	if evt.Data == nil {
		return out, nil
	}

	switch out.Type {
	case EventCheckoutCompleted, EventCheckoutExpired, EventAsyncPaymentPaid, EventAsyncPaymentFail:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		out.SessionID = s.ID
		out.PaymentStatus = string(s.PaymentStatus)
		out.Metadata = s.Metadata
	case EventAccountUpdated:
		var a stripe.Account
		if err := json.Unmarshal(evt.Data.Raw, &a); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		out.AccountID = a.ID
		out.AccountReady = a.ChargesEnabled && a.DetailsSubmitted
	}
	return out, nil
}
