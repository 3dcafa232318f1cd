package store

import (
	"context"
	stdsql "database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var planColumns = []string{
	"id", "idempotency_key", "guest_id", "vendor_id", "host_id", "experience_name",
	"booking_date", "booking_time", "guests", "currency",
	"total_amount", "platform_amount", "host_amount", "vendor_amount",
	"platform_fee_percent", "host_commission_percent", "host_authorized",
	"routing_mode", "destination_account", "application_fee_amount", "created_at",
}

var obligationColumns = []string{
	"id", "plan_id", "payee_type", "payee_id", "amount", "destination_account",
	"status", "created_at", "updated_at",
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (*Plan, error) {
	var (
		p    Plan
		host uuid.NullUUID
		dest stdsql.NullString
	)
	err := row.Scan(
		&p.ID, &p.IdempotencyKey, &p.GuestID, &p.VendorID, &host, &p.ExperienceName,
		&p.Date, &p.Time, &p.Guests, &p.Currency,
		&p.TotalAmount, &p.PlatformAmount, &p.HostAmount, &p.VendorAmount,
		&p.PlatformFeePercent, &p.HostCommissionPercent, &p.HostAuthorized,
		&p.RoutingMode, &dest, &p.ApplicationFeeAmount, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if host.Valid {
		id := host.UUID
		p.HostID = &id
	}
	p.DestinationAccount = dest.String
	return &p, nil
}

func (s *Store) getPlan(ctx context.Context, where *entsql.Predicate) (*Plan, error) {
	b := s.sql()
	query, args := b.Select(planColumns...).
		From(b.Table(tablePlans)).
		Where(where).
		Query()

	p, err := scanPlan(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (s *Store) GetPlanByKey(ctx context.Context, key string) (*Plan, error) {
	return s.getPlan(ctx, entsql.EQ("idempotency_key", key))
}

func (s *Store) GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error) {
	return s.getPlan(ctx, entsql.EQ("id", id))
}

// InsertPlanIfAbsent stores the plan and its obligations in one transaction
// unless a plan with the same idempotency key exists. In that case the
// stored plan is returned and created is false; the candidate is discarded.
func (s *Store) InsertPlanIfAbsent(ctx context.Context, p Plan, obligations []Obligation) (*Plan, bool, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}

	n, err := s.exec(ctx, tx, s.sql().Insert(tablePlans).
		Columns(planColumns...).
		Values(
			p.ID, p.IdempotencyKey, p.GuestID, p.VendorID, nullUUID(p.HostID), p.ExperienceName,
			p.Date, p.Time, p.Guests, p.Currency,
			p.TotalAmount, p.PlatformAmount, p.HostAmount, p.VendorAmount,
			p.PlatformFeePercent, p.HostCommissionPercent, p.HostAuthorized,
			p.RoutingMode, nullString(p.DestinationAccount), p.ApplicationFeeAmount, p.CreatedAt,
		).
		OnConflict(entsql.ConflictColumns("idempotency_key"), entsql.DoNothing()))
	if err != nil {
		_ = tx.Rollback()
		return nil, false, fmt.Errorf("insert settlement plan: %w", err)
	}

	if n == 0 {
		_ = tx.Rollback()
		existing, err := s.GetPlanByKey(ctx, p.IdempotencyKey)
		if err != nil {
			return nil, false, fmt.Errorf("load existing settlement plan: %w", err)
		}
		return existing, false, nil
	}

	for _, o := range obligations {
		o.PlanID = p.ID
		if o.CreatedAt.IsZero() {
			o.CreatedAt = p.CreatedAt
		}
		o.UpdatedAt = o.CreatedAt
		if _, err := s.exec(ctx, tx, s.sql().Insert(tableObligations).
			Columns(obligationColumns...).
			Values(o.ID, o.PlanID, o.PayeeType, o.PayeeID, o.Amount, nullString(o.DestinationAccount),
				o.Status, o.CreatedAt, o.UpdatedAt)); err != nil {
			_ = tx.Rollback()
			return nil, false, fmt.Errorf("insert payout obligation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit settlement plan: %w", err)
	}
	return &p, true, nil
}

func (s *Store) ListObligations(ctx context.Context, planID uuid.UUID) ([]Obligation, error) {
	b := s.sql()
	query, args := b.Select(obligationColumns...).
		From(b.Table(tableObligations)).
		Where(entsql.EQ("plan_id", planID)).
		OrderBy("payee_type").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payout obligations: %w", err)
	}
	defer rows.Close()

	var out []Obligation
	for rows.Next() {
		var (
			o    Obligation
			dest stdsql.NullString
		)
		if err := rows.Scan(&o.ID, &o.PlanID, &o.PayeeType, &o.PayeeID, &o.Amount, &dest,
			&o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.DestinationAccount = dest.String
		out = append(out, o)
	}
	return out, rows.Err()
}

// MarkObligationsDue moves the plan's awaiting_capture obligations to due.
// Running it twice is harmless.
func (s *Store) MarkObligationsDue(ctx context.Context, planID uuid.UUID) (int64, error) {
	n, err := s.exec(ctx, s.db, s.sql().Update(tableObligations).
		Set("status", ObligationDue).
		Set("updated_at", s.now()).
		Where(entsql.And(
			entsql.EQ("plan_id", planID),
			entsql.EQ("status", ObligationAwaitingCapture),
		)))
	if err != nil {
		return 0, fmt.Errorf("mark obligations due: %w", err)
	}
	return n, nil
}
