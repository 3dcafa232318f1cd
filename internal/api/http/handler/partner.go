package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/staylink_backend/internal/service/partner"
	"github.com/Alijeyrad/staylink_backend/pkg/reqctx"
)

type PartnerHandler struct {
	svc partner.Service
}

func NewPartnerHandler(svc partner.Service) *PartnerHandler {
	return &PartnerHandler{svc: svc}
}

func mapPartnerError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, partner.ErrVendorNotFound), errors.Is(err, partner.ErrLinkNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, partner.ErrInvalidPercent),
		errors.Is(err, partner.ErrInvalidAccount),
		errors.Is(err, partner.ErrSelfLink):
		return badRequest(c, err.Error())
	default:
		reqctx.Logger(c.Context()).Error("partner request failed", "error", err)
		return internalError(c)
	}
}

// ---------------------------------------------------------------------------
// Referral links
// ---------------------------------------------------------------------------

// POST /hosts/me/vendors/:vendorID
func (h *PartnerHandler) Link(c fiber.Ctx) error {
	hostID, found := userIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}
	vendorID, err := uuid.Parse(c.Params("vendorID"))
	if err != nil {
		return badRequest(c, "invalid vendor id")
	}

	isNew, err := h.svc.Link(c.Context(), hostID, vendorID)
	if err != nil {
		return mapPartnerError(c, err)
	}

	body := fiber.Map{"host_id": hostID, "vendor_id": vendorID}
	if isNew {
		return created(c, body)
	}
	return ok(c, body)
}

// DELETE /hosts/me/vendors/:vendorID
func (h *PartnerHandler) Unlink(c fiber.Ctx) error {
	hostID, found := userIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}
	vendorID, err := uuid.Parse(c.Params("vendorID"))
	if err != nil {
		return badRequest(c, "invalid vendor id")
	}

	if err := h.svc.Unlink(c.Context(), hostID, vendorID); err != nil {
		return mapPartnerError(c, err)
	}
	return noContent(c)
}

// GET /hosts/me/vendors
func (h *PartnerHandler) ListLinks(c fiber.Ctx) error {
	hostID, found := userIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	links, err := h.svc.ListLinks(c.Context(), hostID)
	if err != nil {
		return mapPartnerError(c, err)
	}

	out := make([]fiber.Map, 0, len(links))
	for _, l := range links {
		out = append(out, fiber.Map{"vendor_id": l.VendorID, "created_at": l.CreatedAt})
	}
	return ok(c, out)
}

// ---------------------------------------------------------------------------
// Payout settings
// ---------------------------------------------------------------------------

// PUT /vendors/me/payout
func (h *PartnerHandler) SetVendorPayout(c fiber.Ctx) error {
	vendorID, found := userIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	var body partner.VendorPayoutInput
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, err := h.svc.SetVendorPayout(c.Context(), vendorID, body)
	if err != nil {
		return mapPartnerError(c, err)
	}

	var commission *string
	if p.CommissionPercent.Valid {
		s := p.CommissionPercent.Decimal.String()
		commission = &s
	}
	return ok(c, fiber.Map{
		"vendor_id":            p.VendorID,
		"commission_percent":   commission,
		"connected_account_id": p.ConnectedAccountID,
		"onboarding_complete":  p.OnboardingComplete,
	})
}

// PUT /hosts/me/payout
func (h *PartnerHandler) SetHostPayout(c fiber.Ctx) error {
	hostID, found := userIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	var body partner.HostPayoutInput
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, err := h.svc.SetHostPayout(c.Context(), hostID, body)
	if err != nil {
		return mapPartnerError(c, err)
	}
	return ok(c, fiber.Map{
		"host_id":              p.HostID,
		"connected_account_id": p.ConnectedAccountID,
		"onboarding_complete":  p.OnboardingComplete,
	})
}

// PUT /admin/platform-settings
func (h *PartnerHandler) SetPlatformFee(c fiber.Ctx) error {
	var body struct {
		PlatformFeePercent *decimal.Decimal `json:"platform_fee_percent"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.PlatformFeePercent == nil {
		return badRequest(c, "platform_fee_percent is required")
	}

	if err := h.svc.SetPlatformFee(c.Context(), *body.PlatformFeePercent); err != nil {
		return mapPartnerError(c, err)
	}
	return ok(c, fiber.Map{"platform_fee_percent": body.PlatformFeePercent.String()})
}
