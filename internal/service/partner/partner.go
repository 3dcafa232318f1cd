// Package partner owns the records the settlement engine reads: referral
// links between hosts and vendors, payout profiles, and the platform fee.
package partner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/staylink_backend/internal/store"
)

var hundred = decimal.NewFromInt(100)

type Store interface {
	GetVendorProfile(ctx context.Context, vendorID uuid.UUID) (*store.VendorPayoutProfile, error)
	GetHostProfile(ctx context.Context, hostID uuid.UUID) (*store.HostPayoutProfile, error)
	UpsertVendorProfile(ctx context.Context, p store.VendorPayoutProfile) error
	UpsertHostProfile(ctx context.Context, p store.HostPayoutProfile) error
	CreateLink(ctx context.Context, hostID, vendorID uuid.UUID) (bool, error)
	DeleteLink(ctx context.Context, hostID, vendorID uuid.UUID) (bool, error)
	ListLinks(ctx context.Context, hostID uuid.UUID) ([]store.ReferralLink, error)
	SetPlatformFee(ctx context.Context, pct decimal.Decimal) error
}

type VendorPayoutInput struct {
	CommissionPercent  *decimal.Decimal `json:"commission_percent"`
	ConnectedAccountID string           `json:"connected_account_id"`
}

type HostPayoutInput struct {
	ConnectedAccountID string `json:"connected_account_id"`
}

type Service interface {
	Link(ctx context.Context, hostID, vendorID uuid.UUID) (created bool, err error)
	Unlink(ctx context.Context, hostID, vendorID uuid.UUID) error
	ListLinks(ctx context.Context, hostID uuid.UUID) ([]store.ReferralLink, error)
	SetVendorPayout(ctx context.Context, vendorID uuid.UUID, in VendorPayoutInput) (*store.VendorPayoutProfile, error)
	SetHostPayout(ctx context.Context, hostID uuid.UUID, in HostPayoutInput) (*store.HostPayoutProfile, error)
	SetPlatformFee(ctx context.Context, pct decimal.Decimal) error
}

type partnerService struct {
	store Store
}

func New(st Store) Service {
	return &partnerService{store: st}
}

// Link lets a host refer guests to a vendor. The vendor must exist.
func (s *partnerService) Link(ctx context.Context, hostID, vendorID uuid.UUID) (bool, error) {
	if hostID == vendorID {
		return false, ErrSelfLink
	}
	if _, err := s.store.GetVendorProfile(ctx, vendorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrVendorNotFound
		}
		return false, fmt.Errorf("get vendor profile: %w", err)
	}
	return s.store.CreateLink(ctx, hostID, vendorID)
}

func (s *partnerService) Unlink(ctx context.Context, hostID, vendorID uuid.UUID) error {
	deleted, err := s.store.DeleteLink(ctx, hostID, vendorID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrLinkNotFound
	}
	return nil
}

func (s *partnerService) ListLinks(ctx context.Context, hostID uuid.UUID) ([]store.ReferralLink, error) {
	return s.store.ListLinks(ctx, hostID)
}

// SetVendorPayout updates commission and account. Changing the account
// clears onboarding until the gateway confirms the new one.
func (s *partnerService) SetVendorPayout(ctx context.Context, vendorID uuid.UUID, in VendorPayoutInput) (*store.VendorPayoutProfile, error) {
	account, err := normalizeAccount(in.ConnectedAccountID)
	if err != nil {
		return nil, err
	}
	if in.CommissionPercent != nil && !validPercent(*in.CommissionPercent) {
		return nil, ErrInvalidPercent
	}

	p := store.VendorPayoutProfile{VendorID: vendorID}
	existing, err := s.store.GetVendorProfile(ctx, vendorID)
	switch {
	case err == nil:
		p = *existing
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("get vendor profile: %w", err)
	}

	if in.CommissionPercent != nil {
		p.CommissionPercent = decimal.NewNullDecimal(*in.CommissionPercent)
	}
	if account != p.ConnectedAccountID {
		p.ConnectedAccountID = account
		p.OnboardingComplete = false
	}

	if err := s.store.UpsertVendorProfile(ctx, p); err != nil {
		return nil, err
	}
	return s.store.GetVendorProfile(ctx, vendorID)
}

func (s *partnerService) SetHostPayout(ctx context.Context, hostID uuid.UUID, in HostPayoutInput) (*store.HostPayoutProfile, error) {
	account, err := normalizeAccount(in.ConnectedAccountID)
	if err != nil {
		return nil, err
	}

	p := store.HostPayoutProfile{HostID: hostID}
	existing, err := s.store.GetHostProfile(ctx, hostID)
	switch {
	case err == nil:
		p = *existing
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("get host profile: %w", err)
	}

	if account != p.ConnectedAccountID {
		p.ConnectedAccountID = account
		p.OnboardingComplete = false
	}

	if err := s.store.UpsertHostProfile(ctx, p); err != nil {
		return nil, err
	}
	return s.store.GetHostProfile(ctx, hostID)
}

// SetPlatformFee stores the global fee. Zero is allowed here because it is
// an explicit admin decision, unlike a missing settings row.
func (s *partnerService) SetPlatformFee(ctx context.Context, pct decimal.Decimal) error {
	if !validPercent(pct) {
		return ErrInvalidPercent
	}
	if err := s.store.SetPlatformFee(ctx, pct); err != nil {
		return err
	}
	slog.InfoContext(ctx, "platform fee updated", "platform_fee_percent", pct.String())
	return nil
}

func validPercent(p decimal.Decimal) bool {
	return !p.IsNegative() && !p.GreaterThan(hundred)
}

// normalizeAccount accepts an empty id (no account) or a Stripe account id.
func normalizeAccount(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", nil
	}
	if !strings.HasPrefix(id, "acct_") || len(id) <= len("acct_") {
		return "", ErrInvalidAccount
	}
	return id, nil
}
