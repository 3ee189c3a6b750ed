package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

func ConnectPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// EnsureSchema creates the coinflip tables if they do not exist yet.
// Every statement is idempotent, so all services can run it at startup
// in any order.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS demo_accounts (
			wallet_address   TEXT PRIMARY KEY,
			balance_lamports BIGINT NOT NULL CHECK (balance_lamports >= 0),
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS demo_bets (
			id               TEXT PRIMARY KEY,
			wallet_address   TEXT NOT NULL REFERENCES demo_accounts(wallet_address),
			stake_lamports   BIGINT NOT NULL,
			result           TEXT NOT NULL,
			payout_lamports  BIGINT NOT NULL,
			balance_before   BIGINT NOT NULL,
			balance_after    BIGINT NOT NULL,
			status           TEXT NOT NULL DEFAULT 'settled',
			created_at       TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_demo_bets_wallet_created
			ON demo_bets (wallet_address, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS real_bets (
			tx_signature   TEXT PRIMARY KEY,
			wallet_address TEXT NOT NULL,
			stake_lamports BIGINT NOT NULL,
			result         TEXT NOT NULL,
			won            BOOLEAN NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_real_bets_wallet_created
			ON real_bets (wallet_address, created_at DESC)`,
	}

	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
