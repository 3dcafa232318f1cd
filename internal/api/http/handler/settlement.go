package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/staylink_backend/internal/service/settlement"
	"github.com/Alijeyrad/staylink_backend/pkg/reqctx"
)

type SettlementHandler struct {
	svc settlement.Service
}

func NewSettlementHandler(svc settlement.Service) *SettlementHandler {
	return &SettlementHandler{svc: svc}
}

func mapSettlementError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, settlement.ErrUnknownVendor):
		return notFound(c, "vendor not found")
	case errors.Is(err, settlement.ErrValidation):
		return badRequest(c, err.Error())
	case errors.Is(err, settlement.ErrPlanNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, settlement.ErrCheckoutInProgress):
		return conflict(c, err.Error())
	case errors.Is(err, settlement.ErrSessionCreation):
		return badGateway(c, "payment session could not be created, retry the request")
	case errors.Is(err, settlement.ErrLookupFailed):
		reqctx.Logger(c.Context()).Error("settlement lookup failed", "error", err)
		return serviceUnavailable(c, "settlement data temporarily unavailable, retry the request")
	default:
		reqctx.Logger(c.Context()).Error("settlement request failed", "error", err)
		return internalError(c)
	}
}

type checkoutBody struct {
	ExperienceName string          `json:"experience_name"`
	VendorID       string          `json:"vendor_id"`
	HostID         *string         `json:"host_id"`
	Date           string          `json:"date"`
	Time           string          `json:"time"`
	Guests         int             `json:"guests"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Currency       string          `json:"currency"`
}

// POST /bookings/checkout
func (h *SettlementHandler) Checkout(c fiber.Ctx) error {
	guestID, found := userIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	var body checkoutBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	vendorID, err := uuid.Parse(body.VendorID)
	if err != nil {
		return badRequest(c, "invalid vendor_id")
	}

	var hostID *uuid.UUID
	if body.HostID != nil && strings.TrimSpace(*body.HostID) != "" {
		id, err := uuid.Parse(*body.HostID)
		if err != nil {
			return badRequest(c, "invalid host_id")
		}
		hostID = &id
	}

	res, err := h.svc.Checkout(c.Context(), guestID, settlement.BookingRequest{
		ExperienceName: body.ExperienceName,
		VendorID:       vendorID,
		HostID:         hostID,
		Date:           body.Date,
		Time:           body.Time,
		Guests:         body.Guests,
		TotalPrice:     body.TotalPrice,
		Currency:       body.Currency,
	})
	if err != nil {
		return mapSettlementError(c, err)
	}

	if res.PlanCreated {
		return created(c, res)
	}
	return ok(c, res)
}

// GET /settlements/:key
func (h *SettlementHandler) Get(c fiber.Ctx) error {
	guestID, found := userIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	details, err := h.svc.GetPlan(c.Context(), guestID, c.Params("key"))
	if err != nil {
		return mapSettlementError(c, err)
	}
	return ok(c, details)
}
