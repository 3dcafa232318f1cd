package settlement

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Alijeyrad/staylink_backend/internal/store"
)

type ProfileStore interface {
	GetVendorProfile(ctx context.Context, vendorID uuid.UUID) (*store.VendorPayoutProfile, error)
	GetHostProfile(ctx context.Context, hostID uuid.UUID) (*store.HostPayoutProfile, error)
}

type PayoutAccountResolver struct {
	profiles ProfileStore
}

func NewPayoutAccountResolver(profiles ProfileStore) *PayoutAccountResolver {
	return &PayoutAccountResolver{profiles: profiles}
}

// Resolve reads the vendor profile and, when hostID is set, the host
// profile. A vendor without a profile is ErrUnknownVendor; a host without
// one is simply not ready. Any other read error is ErrLookupFailed.
func (r *PayoutAccountResolver) Resolve(ctx context.Context, vendorID uuid.UUID, hostID *uuid.UUID) (PayoutReadiness, *store.VendorPayoutProfile, error) {
	var ready PayoutReadiness

	vendor, err := r.profiles.GetVendorProfile(ctx, vendorID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ready, nil, ErrUnknownVendor
	case err != nil:
		return ready, nil, lookupFailed("vendor payout profile", err)
	}
	ready.VendorAccount = vendor.ConnectedAccountID
	ready.VendorReady = vendor.ConnectedAccountID != "" && vendor.OnboardingComplete

	if hostID == nil {
		return ready, vendor, nil
	}

	host, err := r.profiles.GetHostProfile(ctx, *hostID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ready, vendor, nil
	case err != nil:
		return ready, nil, lookupFailed("host payout profile", err)
	}
	ready.HostAccount = host.ConnectedAccountID
	ready.HostReady = host.ConnectedAccountID != "" && host.OnboardingComplete

	return ready, vendor, nil
}
