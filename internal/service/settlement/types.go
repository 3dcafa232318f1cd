package settlement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/staylink_backend/internal/store"
)

// BookingRequest is what the guest submits at checkout. The guest identity
// comes from the verified caller, never from the payload.
type BookingRequest struct {
	ExperienceName string          `json:"experience_name"`
	VendorID       uuid.UUID       `json:"vendor_id"`
	HostID         *uuid.UUID      `json:"host_id,omitempty"`
	Date           string          `json:"date"`
	Time           string          `json:"time"`
	Guests         int             `json:"guests"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Currency       string          `json:"currency"`
}

// Authorization is the outcome of checking a referring host against the
// vendor. Demoted is set when a host was supplied but is not linked.
type Authorization struct {
	Authorized bool
	Demoted    bool
}

// PayoutReadiness says whether vendor and host can receive connected
// transfers. An account id alone is not enough: onboarding must be complete.
type PayoutReadiness struct {
	VendorReady   bool
	VendorAccount string
	HostReady     bool
	HostAccount   string
}

// Split is a three-way partition of a total in minor units.
type Split struct {
	Platform int64 `json:"platform"`
	Host     int64 `json:"host"`
	Vendor   int64 `json:"vendor"`
}

func (s Split) Total() int64 { return s.Platform + s.Host + s.Vendor }

// RoutingDecision is what the payment session needs to know about where
// the money goes.
type RoutingDecision struct {
	Mode           string
	Destination    string
	ApplicationFee int64
}

type CheckoutResult struct {
	Plan          *store.Plan        `json:"plan"`
	Obligations   []store.Obligation `json:"obligations"`
	SessionID     string             `json:"session_id"`
	URL           string             `json:"url"`
	SessionReused bool               `json:"session_reused"`

	// PlanCreated is false when an earlier submission already recorded the
	// plan.
	PlanCreated bool `json:"-"`
}

type PlanDetails struct {
	Plan        *store.Plan        `json:"plan"`
	Obligations []store.Obligation `json:"obligations"`
}
