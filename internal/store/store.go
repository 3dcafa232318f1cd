// Package store persists payout profiles, referral links, platform settings
// and settlement plans. Queries are built with ent's dialect-aware SQL
// builder so the same code runs on Postgres and SQLite.
package store

import (
	"context"
	stdsql "database/sql"
	"errors"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/staylink_backend/pkg/database"
)

var ErrNotFound = errors.New("record not found")

const (
	tableVendorProfiles   = "vendor_payout_profiles"
	tableHostProfiles     = "host_payout_profiles"
	tableReferralLinks    = "host_referral_links"
	tablePlatformSettings = "platform_settings"
	tablePlans            = "settlement_plans"
	tableObligations      = "payout_obligations"
	tableSessions         = "checkout_sessions"
	tableAttempts         = "checkout_attempts"
)

// Routing modes recorded on a plan.
const (
	RoutingPlatformRetains    = "platform_retains"
	RoutingConnectDestination = "connect_destination"
)

// Payee types and statuses of payout obligations.
const (
	PayeeVendor = "vendor"
	PayeeHost   = "host"

	ObligationAwaitingCapture = "awaiting_capture"
	ObligationDue             = "due"
	ObligationCancelled       = "cancelled"
)

// Checkout session statuses. A completed session is still waiting for a
// delayed payment method; paid means the funds were captured.
const (
	SessionOpen      = "open"
	SessionCompleted = "completed"
	SessionPaid      = "paid"
	SessionExpired   = "expired"
	SessionFailed    = "failed"
)

type VendorPayoutProfile struct {
	VendorID           uuid.UUID
	CommissionPercent  decimal.NullDecimal
	ConnectedAccountID string
	OnboardingComplete bool
	UpdatedAt          time.Time
}

type HostPayoutProfile struct {
	HostID             uuid.UUID
	ConnectedAccountID string
	OnboardingComplete bool
	UpdatedAt          time.Time
}

type ReferralLink struct {
	HostID    uuid.UUID
	VendorID  uuid.UUID
	CreatedAt time.Time
}

type PlatformSettings struct {
	PlatformFeePercent decimal.Decimal
	UpdatedAt          time.Time
}

// Plan is an immutable settlement record. Once stored it is never updated.
type Plan struct {
	ID                    uuid.UUID       `json:"id"`
	IdempotencyKey        string          `json:"idempotency_key"`
	GuestID               uuid.UUID       `json:"guest_id"`
	VendorID              uuid.UUID       `json:"vendor_id"`
	HostID                *uuid.UUID      `json:"host_id,omitempty"`
	ExperienceName        string          `json:"experience_name"`
	Date                  string          `json:"date"`
	Time                  string          `json:"time"`
	Guests                int             `json:"guests"`
	Currency              string          `json:"currency"`
	TotalAmount           int64           `json:"total_amount"`
	PlatformAmount        int64           `json:"platform_amount"`
	HostAmount            int64           `json:"host_amount"`
	VendorAmount          int64           `json:"vendor_amount"`
	PlatformFeePercent    decimal.Decimal `json:"platform_fee_percent"`
	HostCommissionPercent decimal.Decimal `json:"host_commission_percent"`
	HostAuthorized        bool            `json:"host_authorized"`
	RoutingMode           string          `json:"routing_mode"`
	DestinationAccount    string          `json:"destination_account,omitempty"`
	ApplicationFeeAmount  int64           `json:"application_fee_amount"`
	CreatedAt             time.Time       `json:"created_at"`
}

type Obligation struct {
	ID                 uuid.UUID `json:"id"`
	PlanID             uuid.UUID `json:"plan_id"`
	PayeeType          string    `json:"payee_type"`
	PayeeID            uuid.UUID `json:"payee_id"`
	Amount             int64     `json:"amount"`
	DestinationAccount string    `json:"destination_account,omitempty"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type CheckoutSession struct {
	ID               uuid.UUID
	PlanID           uuid.UUID
	GatewaySessionID string
	URL              string
	Status           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (stdsql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*stdsql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *stdsql.Row
}

type Store struct {
	db      *stdsql.DB
	dialect string
	now     func() time.Time
}

func New(db *database.DB) *Store {
	return &Store{
		db:      db.GetConnection(),
		dialect: db.Dialect(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) sql() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

func (s *Store) exec(ctx context.Context, q querier, b entsql.Querier) (int64, error) {
	query, args := b.Query()
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullString(s string) stdsql.NullString {
	return stdsql.NullString{String: s, Valid: s != ""}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func notFound(err error) error {
	if errors.Is(err, stdsql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
