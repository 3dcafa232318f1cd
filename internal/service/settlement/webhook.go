package settlement

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Alijeyrad/staylink_backend/internal/store"
	"github.com/Alijeyrad/staylink_backend/pkg/stripepay"
)

// capturedEvent is published once a guest has paid for a plan.
type capturedEvent struct {
	PlanID           string `json:"plan_id"`
	GatewaySessionID string `json:"gateway_session_id"`
}

func (s *settlementService) HandleGatewayEvent(ctx context.Context, evt *stripepay.Event) error {
	switch evt.Type {
	case stripepay.EventCheckoutCompleted, stripepay.EventCheckoutExpired,
		stripepay.EventAsyncPaymentPaid, stripepay.EventAsyncPaymentFail:
		return s.sessionEvent(ctx, evt)
	case stripepay.EventAccountUpdated:
		n, err := s.store.SetOnboardingByAccount(ctx, evt.AccountID, evt.AccountReady)
		if err != nil {
			return lookupFailed("update onboarding", err)
		}
		if n == 0 {
			slog.InfoContext(ctx, "account update for unknown connected account", "account_id", evt.AccountID)
		}
		return nil
	default:
		slog.DebugContext(ctx, "ignoring gateway event", "type", evt.Type, "event_id", evt.ID)
		return nil
	}
}

// sessionEvent moves a checkout session along
// open -> completed (payment pending) -> paid, or to expired / failed.
// Paid, expired and failed are final, so redeliveries are no-ops.
func (s *settlementService) sessionEvent(ctx context.Context, evt *stripepay.Event) error {
	cs, err := s.store.GetSessionByGatewayID(ctx, evt.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		// Sessions created outside this service are not ours to settle.
		slog.WarnContext(ctx, "gateway event for unknown checkout session", "session_id", evt.SessionID)
		return nil
	}
	if err != nil {
		return lookupFailed("checkout session", err)
	}

	switch cs.Status {
	case store.SessionPaid, store.SessionExpired, store.SessionFailed:
		return nil
	}

	switch evt.Type {
	case stripepay.EventCheckoutExpired:
		if cs.Status != store.SessionOpen {
			return nil
		}
		return s.setSessionStatus(ctx, cs, store.SessionExpired)

	case stripepay.EventAsyncPaymentFail:
		slog.WarnContext(ctx, "delayed payment failed", "plan_id", cs.PlanID.String(), "session_id", cs.GatewaySessionID)
		return s.setSessionStatus(ctx, cs, store.SessionFailed)

	case stripepay.EventCheckoutCompleted:
		if evt.PaymentStatus != stripepay.PaymentStatusPaid {
			slog.InfoContext(ctx, "checkout completed, payment pending",
				"plan_id", cs.PlanID.String(), "payment_status", evt.PaymentStatus)
			if cs.Status == store.SessionCompleted {
				return nil
			}
			return s.setSessionStatus(ctx, cs, store.SessionCompleted)
		}
		return s.capture(ctx, cs)

	default: // async payment succeeded
		return s.capture(ctx, cs)
	}
}

// capture marks the plan's obligations due before the session is marked
// paid. A failure returns an error so the gateway redelivers the event.
func (s *settlementService) capture(ctx context.Context, cs *store.CheckoutSession) error {
	n, err := s.store.MarkObligationsDue(ctx, cs.PlanID)
	if err != nil {
		return lookupFailed("payout obligations", err)
	}
	if err := s.setSessionStatus(ctx, cs, store.SessionPaid); err != nil {
		return err
	}
	slog.InfoContext(ctx, "payment captured", "plan_id", cs.PlanID.String(), "obligations_due", n)

	s.publish(SubjectPaymentCaptured, cs.PlanID, capturedEvent{
		PlanID:           cs.PlanID.String(),
		GatewaySessionID: cs.GatewaySessionID,
	})
	return nil
}

func (s *settlementService) setSessionStatus(ctx context.Context, cs *store.CheckoutSession, status string) error {
	if err := s.store.UpdateSessionStatus(ctx, cs.GatewaySessionID, status); err != nil {
		return lookupFailed("update checkout session", err)
	}
	return nil
}
