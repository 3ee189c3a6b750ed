package repo

import (
	"context"
	"database/sql"
)

// HistoryLimit caps real-mode history responses.
const HistoryLimit = 100

// Postgres persists recorded real bets.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Record inserts the bet keyed by transaction signature. A second call
// with the same signature is a no-op and returns created=false, which
// gives callers at-least-once retry semantics.
func (p *Postgres) Record(ctx context.Context, b *RealBet) (created bool, err error) {
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO real_bets (tx_signature, wallet_address, stake_lamports, result, won)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (tx_signature) DO NOTHING`,
		b.TxSignature, b.WalletAddress, b.StakeLamports, b.Result, b.Won)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// History returns the wallet's recorded bets, most recent first.
func (p *Postgres) History(ctx context.Context, wallet string, limit int) ([]RealBet, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT tx_signature, wallet_address, stake_lamports, result, won, created_at
		FROM real_bets
		WHERE wallet_address=$1
		ORDER BY created_at DESC
		LIMIT $2`, wallet, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bets []RealBet
	for rows.Next() {
		var b RealBet
		if err := rows.Scan(&b.TxSignature, &b.WalletAddress, &b.StakeLamports,
			&b.Result, &b.Won, &b.CreatedAt); err != nil {
			return nil, err
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}
