package store

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const platformSettingsID = 1

func (s *Store) GetVendorProfile(ctx context.Context, vendorID uuid.UUID) (*VendorPayoutProfile, error) {
	b := s.sql()
	query, args := b.Select("vendor_id", "commission_percent", "connected_account_id", "onboarding_complete", "updated_at").
		From(b.Table(tableVendorProfiles)).
		Where(entsql.EQ("vendor_id", vendorID)).
		Query()

	var (
		p       VendorPayoutProfile
		account stdsql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&p.VendorID, &p.CommissionPercent, &account, &p.OnboardingComplete, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	p.ConnectedAccountID = account.String
	return &p, nil
}

func (s *Store) GetHostProfile(ctx context.Context, hostID uuid.UUID) (*HostPayoutProfile, error) {
	b := s.sql()
	query, args := b.Select("host_id", "connected_account_id", "onboarding_complete", "updated_at").
		From(b.Table(tableHostProfiles)).
		Where(entsql.EQ("host_id", hostID)).
		Query()

	var (
		p       HostPayoutProfile
		account stdsql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&p.HostID, &account, &p.OnboardingComplete, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	p.ConnectedAccountID = account.String
	return &p, nil
}

// UpsertVendorProfile writes every column of the profile, inserting it when
// the vendor has none yet.
func (s *Store) UpsertVendorProfile(ctx context.Context, p VendorPayoutProfile) error {
	p.UpdatedAt = s.now()
	_, err := s.exec(ctx, s.db, s.sql().Insert(tableVendorProfiles).
		Columns("vendor_id", "commission_percent", "connected_account_id", "onboarding_complete", "updated_at").
		Values(p.VendorID, p.CommissionPercent, nullString(p.ConnectedAccountID), p.OnboardingComplete, p.UpdatedAt).
		OnConflict(entsql.ConflictColumns("vendor_id"), entsql.ResolveWithNewValues()))
	if err != nil {
		return fmt.Errorf("upsert vendor payout profile: %w", err)
	}
	return nil
}

func (s *Store) UpsertHostProfile(ctx context.Context, p HostPayoutProfile) error {
	p.UpdatedAt = s.now()
	_, err := s.exec(ctx, s.db, s.sql().Insert(tableHostProfiles).
		Columns("host_id", "connected_account_id", "onboarding_complete", "updated_at").
		Values(p.HostID, nullString(p.ConnectedAccountID), p.OnboardingComplete, p.UpdatedAt).
		OnConflict(entsql.ConflictColumns("host_id"), entsql.ResolveWithNewValues()))
	if err != nil {
		return fmt.Errorf("upsert host payout profile: %w", err)
	}
	return nil
}

// SetOnboardingByAccount updates the onboarding flag of whichever vendor or
// host profile owns the connected account and reports how many rows changed.
func (s *Store) SetOnboardingByAccount(ctx context.Context, accountID string, complete bool) (int64, error) {
	var total int64
	for _, table := range []string{tableVendorProfiles, tableHostProfiles} {
		n, err := s.exec(ctx, s.db, s.sql().Update(table).
			Set("onboarding_complete", complete).
			Set("updated_at", s.now()).
			Where(entsql.EQ("connected_account_id", accountID)))
		if err != nil {
			return total, fmt.Errorf("update onboarding on %s: %w", table, err)
		}
		total += n
	}
	return total, nil
}

// LinkExists reports whether the host has a referral link to the vendor.
func (s *Store) LinkExists(ctx context.Context, hostID, vendorID uuid.UUID) (bool, error) {
	b := s.sql()
	query, args := b.Select("host_id").
		From(b.Table(tableReferralLinks)).
		Where(entsql.And(entsql.EQ("host_id", hostID), entsql.EQ("vendor_id", vendorID))).
		Limit(1).
		Query()

	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, stdsql.ErrNoRows):
		return false, nil
	default:
		return false, err
	}
}

// CreateLink is a no-op when the link already exists; created reports
// whether a row was written.
func (s *Store) CreateLink(ctx context.Context, hostID, vendorID uuid.UUID) (bool, error) {
	n, err := s.exec(ctx, s.db, s.sql().Insert(tableReferralLinks).
		Columns("host_id", "vendor_id", "created_at").
		Values(hostID, vendorID, s.now()).
		OnConflict(entsql.ConflictColumns("host_id", "vendor_id"), entsql.DoNothing()))
	if err != nil {
		return false, fmt.Errorf("create referral link: %w", err)
	}
	return n > 0, nil
}

func (s *Store) DeleteLink(ctx context.Context, hostID, vendorID uuid.UUID) (bool, error) {
	n, err := s.exec(ctx, s.db, s.sql().Delete(tableReferralLinks).
		Where(entsql.And(entsql.EQ("host_id", hostID), entsql.EQ("vendor_id", vendorID))))
	if err != nil {
		return false, fmt.Errorf("delete referral link: %w", err)
	}
	return n > 0, nil
}

func (s *Store) ListLinks(ctx context.Context, hostID uuid.UUID) ([]ReferralLink, error) {
	b := s.sql()
	query, args := b.Select("host_id", "vendor_id", "created_at").
		From(b.Table(tableReferralLinks)).
		Where(entsql.EQ("host_id", hostID)).
		OrderBy("created_at").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list referral links: %w", err)
	}
	defer rows.Close()

	var out []ReferralLink
	for rows.Next() {
		var l ReferralLink
		if err := rows.Scan(&l.HostID, &l.VendorID, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetPlatformSettings returns ErrNotFound when the settings row was never
// written.
func (s *Store) GetPlatformSettings(ctx context.Context) (*PlatformSettings, error) {
	b := s.sql()
	query, args := b.Select("platform_fee_percent", "updated_at").
		From(b.Table(tablePlatformSettings)).
		Where(entsql.EQ("id", platformSettingsID)).
		Query()

	var ps PlatformSettings
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&ps.PlatformFeePercent, &ps.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &ps, nil
}

func (s *Store) SetPlatformFee(ctx context.Context, pct decimal.Decimal) error {
	_, err := s.exec(ctx, s.db, s.sql().Insert(tablePlatformSettings).
		Columns("id", "platform_fee_percent", "updated_at").
		Values(platformSettingsID, pct, s.now()).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()))
	if err != nil {
		return fmt.Errorf("set platform fee: %w", err)
	}
	return nil
}
