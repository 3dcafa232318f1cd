package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/staylink_backend/internal/service/settlement"
	"github.com/Alijeyrad/staylink_backend/pkg/reqctx"
	"github.com/Alijeyrad/staylink_backend/pkg/stripepay"
)

// WebhookParser verifies and decodes gateway webhooks.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*stripepay.Event, error)
}

type WebhookHandler struct {
	parser WebhookParser
	svc    settlement.Service
}

func NewWebhookHandler(parser WebhookParser, svc settlement.Service) *WebhookHandler {
	return &WebhookHandler{parser: parser, svc: svc}
}

// POST /webhooks/stripe
// Public; authenticity comes from the Stripe-Signature header.
func (h *WebhookHandler) Stripe(c fiber.Ctx) error {
	evt, err := h.parser.ParseWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, stripepay.ErrNotConfigured) {
			return serviceUnavailable(c, "webhooks not configured")
		}
		return badRequest(c, "invalid webhook")
	}

	if err := h.svc.HandleGatewayEvent(c.Context(), evt); err != nil {
		reqctx.Logger(c.Context()).Error("gateway event failed", "type", evt.Type, "event_id", evt.ID, "error", err)
		// Non-2xx makes the gateway redeliver.
		if errors.Is(err, settlement.ErrLookupFailed) {
			return serviceUnavailable(c, "retry later")
		}
		return internalError(c)
	}

	return ok(c, fiber.Map{"received": true})
}
