package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// StartingBalanceLamports is credited to every demo account on first
// contact (3 SOL).
const StartingBalanceLamports = 3_000_000_000

var (
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrNotFound          = errors.New("not found")
)

// Postgres implements demo ledger storage.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// GetOrCreateAccount returns the account balance, creating the account
// with the starting balance when absent. Runs in a transaction so a
// concurrent first contact cannot create the account twice.
func (p *Postgres) GetOrCreateAccount(ctx context.Context, wallet string) (int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var bal int64
	err = tx.QueryRowContext(ctx,
		`SELECT balance_lamports FROM demo_accounts WHERE wallet_address=$1`, wallet).Scan(&bal)
	if err == sql.ErrNoRows {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO demo_accounts(wallet_address, balance_lamports) VALUES($1,$2)
			 ON CONFLICT (wallet_address) DO NOTHING`,
			wallet, StartingBalanceLamports); err != nil {
			return 0, err
		}
		if err = tx.QueryRowContext(ctx,
			`SELECT balance_lamports FROM demo_accounts WHERE wallet_address=$1`, wallet).Scan(&bal); err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}

	return bal, nil
}

// Balance returns the current balance, ErrNotFound for unknown wallets.
func (p *Postgres) Balance(ctx context.Context, wallet string) (int64, error) {
	var bal int64
	err := p.db.QueryRowContext(ctx,
		`SELECT balance_lamports FROM demo_accounts WHERE wallet_address=$1`, wallet).Scan(&bal)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return bal, nil
}

// ApplyBet settles one bet: it locks the account row, checks the
// balance, writes the new balance and appends the bet row in a single
// transaction. Both writes commit together or not at all. The account
// is created lazily with the starting balance on first bet.
//
// On success the bet's ID, BalanceBefore and BalanceAfter are filled
// in. ErrInsufficientFunds leaves the ledger untouched.
func (p *Postgres) ApplyBet(ctx context.Context, b *DemoBet) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var bal int64
	err = tx.QueryRowContext(ctx,
		`SELECT balance_lamports FROM demo_accounts WHERE wallet_address=$1 FOR UPDATE`,
		b.WalletAddress).Scan(&bal)
	if err == sql.ErrNoRows {
		// Two first bets can race past the empty SELECT; let the loser
		// of the insert pick up the winner's row and queue on its lock.
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO demo_accounts(wallet_address, balance_lamports) VALUES($1,$2)
			 ON CONFLICT (wallet_address) DO NOTHING`,
			b.WalletAddress, StartingBalanceLamports); err != nil {
			return err
		}
		if err = tx.QueryRowContext(ctx,
			`SELECT balance_lamports FROM demo_accounts WHERE wallet_address=$1 FOR UPDATE`,
			b.WalletAddress).Scan(&bal); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if bal < b.StakeLamports {
		return ErrInsufficientFunds
	}

	after := bal - b.StakeLamports
	if b.Won {
		after = bal + b.StakeLamports
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE demo_accounts SET balance_lamports=$1, updated_at=NOW() WHERE wallet_address=$2`,
		after, b.WalletAddress); err != nil {
		return err
	}

	b.ID = uuid.NewString()
	b.BalanceBefore = bal
	b.BalanceAfter = after
	b.Status = "settled"
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO demo_bets (id, wallet_address, stake_lamports, result, payout_lamports,
			balance_before, balance_after, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		b.ID, b.WalletAddress, b.StakeLamports, b.Result, b.PayoutLamports,
		b.BalanceBefore, b.BalanceAfter, b.Status, b.CreatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

// ListBets returns the wallet's settled bets, most recent first.
func (p *Postgres) ListBets(ctx context.Context, wallet string, limit int) ([]DemoBet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, wallet_address, stake_lamports, result, payout_lamports,
			balance_before, balance_after, status, created_at
		FROM demo_bets
		WHERE wallet_address=$1
		ORDER BY created_at DESC
		LIMIT $2`, wallet, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bets []DemoBet
	for rows.Next() {
		var b DemoBet
		if err := rows.Scan(&b.ID, &b.WalletAddress, &b.StakeLamports, &b.Result,
			&b.PayoutLamports, &b.BalanceBefore, &b.BalanceAfter, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.Won = b.PayoutLamports > 0
		bets = append(bets, b)
	}
	return bets, rows.Err()
}
