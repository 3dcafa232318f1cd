package database

import (
	"context"
	"fmt"
)

// schemaStatements are portable across Postgres and SQLite. Percentages are
// stored as decimal strings so neither engine rounds them.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS vendor_payout_profiles (
		vendor_id TEXT PRIMARY KEY,
		commission_percent TEXT NULL,
		connected_account_id TEXT NULL,
		onboarding_complete BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS vendor_payout_profiles_account_idx
		ON vendor_payout_profiles (connected_account_id)`,
	`CREATE TABLE IF NOT EXISTS host_payout_profiles (
		host_id TEXT PRIMARY KEY,
		connected_account_id TEXT NULL,
		onboarding_complete BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS host_payout_profiles_account_idx
		ON host_payout_profiles (connected_account_id)`,
	`CREATE TABLE IF NOT EXISTS host_referral_links (
		host_id TEXT NOT NULL,
		vendor_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (host_id, vendor_id)
	)`,
	`CREATE TABLE IF NOT EXISTS platform_settings (
		id INTEGER PRIMARY KEY,
		platform_fee_percent TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS settlement_plans (
		id TEXT PRIMARY KEY,
		idempotency_key TEXT NOT NULL UNIQUE,
		guest_id TEXT NOT NULL,
		vendor_id TEXT NOT NULL,
		host_id TEXT NULL,
		experience_name TEXT NOT NULL,
		booking_date TEXT NOT NULL,
		booking_time TEXT NOT NULL,
		guests INTEGER NOT NULL,
		currency TEXT NOT NULL,
		total_amount BIGINT NOT NULL,
		platform_amount BIGINT NOT NULL,
		host_amount BIGINT NOT NULL,
		vendor_amount BIGINT NOT NULL,
		platform_fee_percent TEXT NOT NULL,
		host_commission_percent TEXT NOT NULL,
		host_authorized BOOLEAN NOT NULL,
		routing_mode TEXT NOT NULL,
		destination_account TEXT NULL,
		application_fee_amount BIGINT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		CHECK (platform_amount >= 0 AND host_amount >= 0 AND vendor_amount >= 0),
		CHECK (platform_amount + host_amount + vendor_amount = total_amount)
	)`,
	`CREATE TABLE IF NOT EXISTS payout_obligations (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL REFERENCES settlement_plans (id),
		payee_type TEXT NOT NULL,
		payee_id TEXT NOT NULL,
		amount BIGINT NOT NULL,
		destination_account TEXT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (plan_id, payee_type)
	)`,
	`CREATE TABLE IF NOT EXISTS checkout_sessions (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL REFERENCES settlement_plans (id),
		gateway_session_id TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS checkout_sessions_plan_idx
		ON checkout_sessions (plan_id, status)`,
	`CREATE TABLE IF NOT EXISTS checkout_attempts (
		plan_id TEXT PRIMARY KEY REFERENCES settlement_plans (id),
		gateway_failures INTEGER NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

// Migrate creates every table the settlement engine reads or writes.
// Statements are idempotent and safe to re-run.
func Migrate(ctx context.Context, db *DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return nil
}
