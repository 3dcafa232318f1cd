package store

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var sessionColumns = []string{
	"id", "plan_id", "gateway_session_id", "url", "status", "created_at", "updated_at",
}

// ListSessions returns every checkout session opened for the plan, oldest
// first.
func (s *Store) ListSessions(ctx context.Context, planID uuid.UUID) ([]CheckoutSession, error) {
	b := s.sql()
	query, args := b.Select(sessionColumns...).
		From(b.Table(tableSessions)).
		Where(entsql.EQ("plan_id", planID)).
		OrderBy("created_at").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list checkout sessions: %w", err)
	}
	defer rows.Close()

	var out []CheckoutSession
	for rows.Next() {
		var cs CheckoutSession
		if err := rows.Scan(&cs.ID, &cs.PlanID, &cs.GatewaySessionID, &cs.URL, &cs.Status,
			&cs.CreatedAt, &cs.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (s *Store) GetSessionByGatewayID(ctx context.Context, gatewaySessionID string) (*CheckoutSession, error) {
	b := s.sql()
	query, args := b.Select(sessionColumns...).
		From(b.Table(tableSessions)).
		Where(entsql.EQ("gateway_session_id", gatewaySessionID)).
		Query()

	var cs CheckoutSession
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&cs.ID, &cs.PlanID, &cs.GatewaySessionID, &cs.URL, &cs.Status, &cs.CreatedAt, &cs.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &cs, nil
}

// InsertSession records a gateway session. A session id the gateway already
// returned once is kept as is.
func (s *Store) InsertSession(ctx context.Context, cs CheckoutSession) error {
	now := s.now()
	_, err := s.exec(ctx, s.db, s.sql().Insert(tableSessions).
		Columns(sessionColumns...).
		Values(cs.ID, cs.PlanID, cs.GatewaySessionID, cs.URL, cs.Status, now, now).
		OnConflict(entsql.ConflictColumns("gateway_session_id"), entsql.DoNothing()))
	if err != nil {
		return fmt.Errorf("insert checkout session: %w", err)
	}
	return nil
}

// UpdateSessionStatus sets the status of the session with the given gateway
// id. ErrNotFound means the gateway reported a session this service never
// opened.
func (s *Store) UpdateSessionStatus(ctx context.Context, gatewaySessionID, status string) error {
	n, err := s.exec(ctx, s.db, s.sql().Update(tableSessions).
		Set("status", status).
		Set("updated_at", s.now()).
		Where(entsql.EQ("gateway_session_id", gatewaySessionID)))
	if err != nil {
		return fmt.Errorf("update checkout session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GatewayFailures returns how many session creations for the plan the
// gateway rejected with a server error.
func (s *Store) GatewayFailures(ctx context.Context, planID uuid.UUID) (int, error) {
	b := s.sql()
	query, args := b.Select("gateway_failures").
		From(b.Table(tableAttempts)).
		Where(entsql.EQ("plan_id", planID)).
		Query()

	var n int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	if errors.Is(err, stdsql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get gateway failures: %w", err)
	}
	return n, nil
}

// RecordGatewayFailure bumps the plan's gateway failure count.
func (s *Store) RecordGatewayFailure(ctx context.Context, planID uuid.UUID) error {
	now := s.now()
	_, err := s.exec(ctx, s.db, s.sql().Insert(tableAttempts).
		Columns("plan_id", "gateway_failures", "updated_at").
		Values(planID, 1, now).
		OnConflict(
			entsql.ConflictColumns("plan_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.Add("gateway_failures", 1)
				u.Set("updated_at", now)
			}),
		))
	if err != nil {
		return fmt.Errorf("record gateway failure: %w", err)
	}
	return nil
}
