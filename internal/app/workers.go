package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/Alijeyrad/staylink_backend/internal/service/settlement"
)

const payoutQueue = "staylink-payouts"

// WorkerModule registers all NATS event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc            fx.Lifecycle
	NC            *nats.Conn
	SettlementSvc settlement.Service
}

func RegisterWorkers(p WorkerParams) {
	var subs []*nats.Subscription

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if p.NC == nil {
				return nil
			}
			sub, err := startPayoutWorker(p.NC, p.SettlementSvc)
			if err != nil {
				return err
			}
			subs = append(subs, sub)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Drain of the connection is handled by ProvideNatsClient.
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// payout_worker
// ---------------------------------------------------------------------------

// startPayoutWorker hands each captured plan's due obligations to the payout
// log. Obligations are already marked due by the webhook; this only
// announces them, once per event across instances.
func startPayoutWorker(nc *nats.Conn, svc settlement.Service) (*nats.Subscription, error) {
	return nc.QueueSubscribe(settlement.SubjectPaymentCaptured+".*", payoutQueue, func(msg *nats.Msg) {
		planID, ok := planIDFromSubject(msg.Subject)
		if !ok {
			slog.Warn("payout_worker: malformed subject", "subject", msg.Subject)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		due, err := svc.PayoutsDue(ctx, planID)
		if err != nil {
			slog.Error("payout_worker: failed to load obligations", "plan_id", planID.String(), "err", err)
			return
		}
		for _, o := range due {
			slog.Info("payout_worker: payout due",
				"plan_id", planID.String(),
				"payee_type", o.PayeeType,
				"payee_id", o.PayeeID.String(),
				"amount", o.Amount,
				"destination", o.DestinationAccount,
			)
		}
	})
}

func planIDFromSubject(subject string) (uuid.UUID, bool) {
	prefix := settlement.SubjectPaymentCaptured + "."
	if !strings.HasPrefix(subject, prefix) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimPrefix(subject, prefix))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
