package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/Alijeyrad/staylink_backend/config"
	"github.com/Alijeyrad/staylink_backend/internal/store"
	"github.com/Alijeyrad/staylink_backend/pkg/stripepay"
)

// NATS subjects, suffixed with the plan id.
const (
	SubjectPlanRecorded    = "staylink.settlement.recorded"
	SubjectPaymentCaptured = "staylink.payment.captured"
)

// ---------------------------------------------------------------------------
// Collaborators
// ---------------------------------------------------------------------------

type Store interface {
	LinkStore
	ProfileStore
	PlanStore
	GetPlan(ctx context.Context, id uuid.UUID) (*store.Plan, error)
	GetPlatformSettings(ctx context.Context) (*store.PlatformSettings, error)
	ListObligations(ctx context.Context, planID uuid.UUID) ([]store.Obligation, error)
	MarkObligationsDue(ctx context.Context, planID uuid.UUID) (int64, error)
	ListSessions(ctx context.Context, planID uuid.UUID) ([]store.CheckoutSession, error)
	InsertSession(ctx context.Context, cs store.CheckoutSession) error
	GetSessionByGatewayID(ctx context.Context, gatewaySessionID string) (*store.CheckoutSession, error)
	UpdateSessionStatus(ctx context.Context, gatewaySessionID, status string) error
	GatewayFailures(ctx context.Context, planID uuid.UUID) (int, error)
	RecordGatewayFailure(ctx context.Context, planID uuid.UUID) error
	SetOnboardingByAccount(ctx context.Context, accountID string, complete bool) (int64, error)
}

// Gateway creates hosted payment sessions.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req stripepay.SessionRequest) (*stripepay.Session, error)
}

// Locker grants a short exclusive lease on a key. ok is false while someone
// else holds it.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Checkout records the settlement plan for a booking and returns a
	// payment session for it. Repeating an identical request returns the
	// same plan and session.
	Checkout(ctx context.Context, guestID uuid.UUID, req BookingRequest) (*CheckoutResult, error)
	// GetPlan returns a plan by idempotency key to the guest who owns it.
	GetPlan(ctx context.Context, guestID uuid.UUID, key string) (*PlanDetails, error)
	// HandleGatewayEvent applies a verified payment gateway webhook.
	HandleGatewayEvent(ctx context.Context, evt *stripepay.Event) error
	// PayoutsDue lists the obligations of a plan that are ready to pay out.
	PayoutsDue(ctx context.Context, planID uuid.UUID) ([]store.Obligation, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type settlementService struct {
	store     Store
	gateway   Gateway
	locker    Locker
	publisher Publisher

	validator *RelationshipValidator
	resolver  *PayoutAccountResolver
	recorder  *SettlementRecorder

	fallbackFee decimal.Decimal
	lockTTL     time.Duration
	successURL  string
	cancelURL   string

	checkouts metric.Int64Counter
}

func New(st Store, gw Gateway, locker Locker, pub Publisher, cfg *config.Config) Service {
	ttl := time.Duration(cfg.Settlement.SessionLockTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &settlementService{
		store:       st,
		gateway:     gw,
		locker:      locker,
		publisher:   pub,
		validator:   NewRelationshipValidator(st),
		resolver:    NewPayoutAccountResolver(st),
		recorder:    NewSettlementRecorder(st),
		fallbackFee: cfg.Settlement.FallbackPlatformFee(),
		lockTTL:     ttl,
		successURL:  cfg.Settlement.SuccessURL,
		cancelURL:   cfg.Settlement.CancelURL,
		checkouts:   checkoutCounter(),
	}
}

// ---------------------------------------------------------------------------
// Checkout
// ---------------------------------------------------------------------------

// booking is a validated request with its total in minor units.
type booking struct {
	BookingRequest
	GuestID    uuid.UUID
	TotalMinor int64
	Key        string
}

func (s *settlementService) Checkout(ctx context.Context, guestID uuid.UUID, req BookingRequest) (_ *CheckoutResult, err error) {
	ctx, span := tracer().Start(ctx, "settlement.Checkout")
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = outcomeOf(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		if s.checkouts != nil {
			s.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		}
		span.End()
	}()

	b, err := normalize(guestID, req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("settlement.idempotency_key", b.Key))

	plan, err := s.recorder.Existing(ctx, b.Key)
	if err != nil {
		return nil, err
	}

	created := false
	if plan == nil {
		plan, created, err = s.computeAndRecord(ctx, b)
		if err != nil {
			return nil, err
		}
	}
	span.SetAttributes(
		attribute.String("settlement.plan_id", plan.ID.String()),
		attribute.String("settlement.routing_mode", plan.RoutingMode),
		attribute.Bool("settlement.plan_created", created),
	)

	obligations, err := s.store.ListObligations(ctx, plan.ID)
	if err != nil {
		return nil, lookupFailed("payout obligations", err)
	}

	sess, reused, err := s.ensureSession(ctx, plan)
	if err != nil {
		return nil, err
	}

	return &CheckoutResult{
		Plan:          plan,
		Obligations:   obligations,
		SessionID:     sess.GatewaySessionID,
		URL:           sess.URL,
		SessionReused: reused,
		PlanCreated:   created,
	}, nil
}

func normalize(guestID uuid.UUID, req BookingRequest) (booking, error) {
	b := booking{BookingRequest: req, GuestID: guestID}

	if guestID == uuid.Nil {
		return b, invalid("guest", "identity is required")
	}
	b.ExperienceName = strings.TrimSpace(req.ExperienceName)
	if b.ExperienceName == "" {
		return b, invalid("experience_name", "is required")
	}
	if req.VendorID == uuid.Nil {
		return b, invalid("vendor_id", "is required")
	}
	if req.HostID != nil && *req.HostID == uuid.Nil {
		b.HostID = nil
	}

	d, err := time.Parse(time.DateOnly, strings.TrimSpace(req.Date))
	if err != nil {
		return b, invalid("date", "must be YYYY-MM-DD")
	}
	b.Date = d.Format(time.DateOnly)

	clock, err := parseClock(req.Time)
	if err != nil {
		return b, err
	}
	b.Time = clock

	if req.Guests <= 0 {
		return b, invalid("guests", "must be greater than zero")
	}

	if b.Currency, err = normalizeCurrency(req.Currency); err != nil {
		return b, err
	}
	if b.TotalMinor, err = ToMinorUnits(req.TotalPrice, b.Currency); err != nil {
		return b, err
	}

	b.Key = IdempotencyKey(b.VendorID, guestID, b.Date, b.Time, b.TotalMinor, b.Guests, b.Currency)
	return b, nil
}

func parseClock(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", invalid("time", "must be HH:MM")
}

// computeAndRecord takes one snapshot of settings and profiles, computes
// the split and routing, and records the plan.
func (s *settlementService) computeAndRecord(ctx context.Context, b booking) (*store.Plan, bool, error) {
	platformPct, err := s.platformFee(ctx)
	if err != nil {
		return nil, false, err
	}

	auth, err := s.validator.Validate(ctx, b.HostID, b.VendorID)
	if err != nil {
		return nil, false, err
	}
	var hostID *uuid.UUID
	if auth.Authorized {
		hostID = b.HostID
	}

	ready, vendor, err := s.resolver.Resolve(ctx, b.VendorID, hostID)
	if err != nil {
		return nil, false, err
	}

	hostPct := decimal.Zero
	if vendor.CommissionPercent.Valid {
		hostPct = vendor.CommissionPercent.Decimal
	}

	split, err := CalculateSplit(b.TotalMinor, platformPct, hostPct, auth.Authorized)
	if err != nil {
		return nil, false, err
	}
	route := PlanRouting(ready, split)

	candidate := store.Plan{
		ID:                    newID(),
		IdempotencyKey:        b.Key,
		GuestID:               b.GuestID,
		VendorID:              b.VendorID,
		HostID:                hostID,
		ExperienceName:        b.ExperienceName,
		Date:                  b.Date,
		Time:                  b.Time,
		Guests:                b.Guests,
		Currency:              b.Currency,
		TotalAmount:           b.TotalMinor,
		PlatformAmount:        split.Platform,
		HostAmount:            split.Host,
		VendorAmount:          split.Vendor,
		PlatformFeePercent:    platformPct,
		HostCommissionPercent: hostPct,
		HostAuthorized:        auth.Authorized,
		RoutingMode:           route.Mode,
		DestinationAccount:    route.Destination,
		ApplicationFeeAmount:  route.ApplicationFee,
	}

	plan, created, err := s.recorder.RecordAndGetOrCreate(ctx, candidate,
		payoutObligations(b.VendorID, hostID, ready, split, route))
	if err != nil {
		return nil, false, err
	}
	if created {
		s.publish(SubjectPlanRecorded, plan.ID, plan)
	}
	return plan, created, nil
}

// platformFee falls back to the configured minimum only when no settings
// row exists. A failed read aborts the booking.
func (s *settlementService) platformFee(ctx context.Context) (decimal.Decimal, error) {
	ps, err := s.store.GetPlatformSettings(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		slog.WarnContext(ctx, "platform settings missing, using configured fallback fee",
			"platform_fee_percent", s.fallbackFee.String())
		return s.fallbackFee, nil
	case err != nil:
		return decimal.Zero, lookupFailed("platform settings", err)
	}
	return ps.PlatformFeePercent, nil
}

// ensureSession returns the plan's open, completed or paid session, or creates a
// new one. Creation is serialized per plan so concurrent retries cannot
// open two sessions.
func (s *settlementService) ensureSession(ctx context.Context, plan *store.Plan) (*store.CheckoutSession, bool, error) {
	if cs, err := s.activeSession(ctx, plan.ID); err != nil || cs != nil {
		return cs, cs != nil, err
	}

	release, ok, err := s.locker.Acquire(ctx, "checkout:"+plan.IdempotencyKey, s.lockTTL)
	if err != nil {
		return nil, false, lookupFailed("checkout lock", err)
	}
	if !ok {
		return nil, false, ErrCheckoutInProgress
	}
	defer release()

	sessions, err := s.store.ListSessions(ctx, plan.ID)
	if err != nil {
		return nil, false, lookupFailed("checkout sessions", err)
	}
	if cs := latestActive(sessions); cs != nil {
		return cs, true, nil
	}

	failures, err := s.store.GatewayFailures(ctx, plan.ID)
	if err != nil {
		return nil, false, lookupFailed("checkout attempts", err)
	}

	req := stripepay.SessionRequest{
		// Every recorded session and every gateway 5xx moves to a new key:
		// the gateway replays both a dead session and a stored failure.
		IdempotencyKey: fmt.Sprintf("%s-%d", plan.ID, len(sessions)+failures),
		Amount:         plan.TotalAmount,
		Currency:       plan.Currency,
		Description:    plan.ExperienceName,
		SuccessURL:     s.successURL,
		CancelURL:      s.cancelURL,
		Metadata: map[string]string{
			"plan_id":         plan.ID.String(),
			"idempotency_key": plan.IdempotencyKey,
		},
	}
	if plan.RoutingMode == store.RoutingConnectDestination {
		req.Destination = plan.DestinationAccount
		req.ApplicationFee = plan.ApplicationFeeAmount
	}

	gs, err := s.gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		slog.ErrorContext(ctx, "payment session creation failed",
			"plan_id", plan.ID.String(), "idempotency_key", req.IdempotencyKey, "error", err)
		if errors.Is(err, stripepay.ErrGatewayUnavailable) {
			if rerr := s.store.RecordGatewayFailure(ctx, plan.ID); rerr != nil {
				slog.ErrorContext(ctx, "failed to record gateway failure", "plan_id", plan.ID.String(), "error", rerr)
			}
		}
		return nil, false, fmt.Errorf("%w: %v", ErrSessionCreation, err)
	}

	cs := store.CheckoutSession{
		ID:               newID(),
		PlanID:           plan.ID,
		GatewaySessionID: gs.ID,
		URL:              gs.URL,
		Status:           store.SessionOpen,
	}
	if err := s.store.InsertSession(ctx, cs); err != nil {
		return nil, false, lookupFailed("record checkout session", err)
	}
	return &cs, false, nil
}

func (s *settlementService) activeSession(ctx context.Context, planID uuid.UUID) (*store.CheckoutSession, error) {
	sessions, err := s.store.ListSessions(ctx, planID)
	if err != nil {
		return nil, lookupFailed("checkout sessions", err)
	}
	return latestActive(sessions), nil
}

func latestActive(sessions []store.CheckoutSession) *store.CheckoutSession {
	for i := len(sessions) - 1; i >= 0; i-- {
		switch sessions[i].Status {
		case store.SessionOpen, store.SessionCompleted, store.SessionPaid:
			cs := sessions[i]
			return &cs
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Lookup
// ---------------------------------------------------------------------------

func (s *settlementService) GetPlan(ctx context.Context, guestID uuid.UUID, key string) (*PlanDetails, error) {
	p, err := s.recorder.Existing(ctx, key)
	if err != nil {
		return nil, err
	}
	// Plans of other guests are reported as missing.
	if p == nil || p.GuestID != guestID {
		return nil, ErrPlanNotFound
	}

	obligations, err := s.store.ListObligations(ctx, p.ID)
	if err != nil {
		return nil, lookupFailed("payout obligations", err)
	}
	return &PlanDetails{Plan: p, Obligations: obligations}, nil
}

func (s *settlementService) PayoutsDue(ctx context.Context, planID uuid.UUID) ([]store.Obligation, error) {
	all, err := s.store.ListObligations(ctx, planID)
	if err != nil {
		return nil, lookupFailed("payout obligations", err)
	}
	var due []store.Obligation
	for _, o := range all {
		if o.Status == store.ObligationDue {
			due = append(due, o)
		}
	}
	return due, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *settlementService) publish(subject string, planID uuid.UUID, payload any) {
	if s.publisher == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("failed to encode settlement event", "subject", subject, "error", err)
		return
	}
	if err := s.publisher.Publish(subject+"."+planID.String(), data); err != nil {
		slog.Warn("failed to publish settlement event", "subject", subject, "plan_id", planID.String(), "error", err)
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrUnknownVendor):
		return "unknown_vendor"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrLookupFailed):
		return "lookup_failed"
	case errors.Is(err, ErrCheckoutInProgress):
		return "in_progress"
	case errors.Is(err, ErrSessionCreation):
		return "session_failed"
	default:
		return "error"
	}
}
