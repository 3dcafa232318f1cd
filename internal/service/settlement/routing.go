package settlement

import (
	"github.com/google/uuid"

	"github.com/Alijeyrad/staylink_backend/internal/store"
)

// PlanRouting picks the payment topology. A ready vendor receives a
// destination charge with the platform and host shares held back as the
// application fee; otherwise the platform captures everything. The host is
// never a destination of the charge itself.
func PlanRouting(ready PayoutReadiness, split Split) RoutingDecision {
	if ready.VendorReady && ready.VendorAccount != "" {
		return RoutingDecision{
			Mode:           store.RoutingConnectDestination,
			Destination:    ready.VendorAccount,
			ApplicationFee: split.Platform + split.Host,
		}
	}
	return RoutingDecision{Mode: store.RoutingPlatformRetains}
}

// payoutObligations lists the transfers the platform still owes after
// capture: the host share always, and the vendor share when the platform
// retained the full charge.
func payoutObligations(vendorID uuid.UUID, hostID *uuid.UUID, ready PayoutReadiness, split Split, route RoutingDecision) []store.Obligation {
	var out []store.Obligation

	if route.Mode == store.RoutingPlatformRetains && split.Vendor > 0 {
		out = append(out, store.Obligation{
			ID:                 newID(),
			PayeeType:          store.PayeeVendor,
			PayeeID:            vendorID,
			Amount:             split.Vendor,
			DestinationAccount: ready.VendorAccount,
			Status:             store.ObligationAwaitingCapture,
		})
	}
	if hostID != nil && split.Host > 0 {
		out = append(out, store.Obligation{
			ID:                 newID(),
			PayeeType:          store.PayeeHost,
			PayeeID:            *hostID,
			Amount:             split.Host,
			DestinationAccount: ready.HostAccount,
			Status:             store.ObligationAwaitingCapture,
		})
	}
	return out
}

func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
