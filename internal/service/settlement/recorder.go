package settlement

import (
	"context"
	"errors"

	"github.com/Alijeyrad/staylink_backend/internal/store"
)

type PlanStore interface {
	GetPlanByKey(ctx context.Context, key string) (*store.Plan, error)
	InsertPlanIfAbsent(ctx context.Context, p store.Plan, obligations []store.Obligation) (*store.Plan, bool, error)
}

// SettlementRecorder persists a plan exactly once per idempotency key.
type SettlementRecorder struct {
	plans PlanStore
}

func NewSettlementRecorder(plans PlanStore) *SettlementRecorder {
	return &SettlementRecorder{plans: plans}
}

// Existing returns the plan already recorded for key, or nil.
func (r *SettlementRecorder) Existing(ctx context.Context, key string) (*store.Plan, error) {
	p, err := r.plans.GetPlanByKey(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, lookupFailed("settlement plan", err)
	}
	return p, nil
}

// RecordAndGetOrCreate stores candidate with its obligations unless a plan
// with the same key exists, in which case that plan is returned unchanged
// and created is false. Concurrent callers with one key all observe the
// same plan.
func (r *SettlementRecorder) RecordAndGetOrCreate(ctx context.Context, candidate store.Plan, obligations []store.Obligation) (*store.Plan, bool, error) {
	if candidate.PlatformAmount+candidate.HostAmount+candidate.VendorAmount != candidate.TotalAmount {
		return nil, false, invalid("", "split does not add up to the total")
	}
	p, created, err := r.plans.InsertPlanIfAbsent(ctx, candidate, obligations)
	if err != nil {
		return nil, false, lookupFailed("record settlement plan", err)
	}
	return p, created, nil
}
