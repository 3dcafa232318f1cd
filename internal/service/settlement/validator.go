package settlement

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type LinkStore interface {
	LinkExists(ctx context.Context, hostID, vendorID uuid.UUID) (bool, error)
}

// RelationshipValidator decides whether a referring host earns a commission
// on a vendor. Only an explicit referral link counts.
type RelationshipValidator struct {
	links     LinkStore
	demotions metric.Int64Counter
}

func NewRelationshipValidator(links LinkStore) *RelationshipValidator {
	return &RelationshipValidator{links: links, demotions: demotionCounter()}
}

// Validate never fails because a host is unlinked; the host is demoted and
// checkout continues without them. An error means the link could not be
// read at all.
func (v *RelationshipValidator) Validate(ctx context.Context, hostID *uuid.UUID, vendorID uuid.UUID) (Authorization, error) {
	if hostID == nil || *hostID == uuid.Nil {
		return Authorization{}, nil
	}

	linked, err := v.links.LinkExists(ctx, *hostID, vendorID)
	if err != nil {
		return Authorization{}, lookupFailed("referral link", err)
	}
	if linked {
		return Authorization{Authorized: true}, nil
	}

	slog.InfoContext(ctx, "referring host not linked to vendor, booking continues without host",
		"host_id", hostID.String(), "vendor_id", vendorID.String())
	if v.demotions != nil {
		v.demotions.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "no_referral_link")))
	}
	return Authorization{Demoted: true}, nil
}
