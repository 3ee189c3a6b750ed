// Package ledger orchestrates demo bet settlement: stake validation,
// outcome resolution and the atomic balance-update-plus-bet-append
// delegated to the store.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/Nakshatra-thange/Coinflip/internal/coinflip"
	"github.com/Nakshatra-thange/Coinflip/internal/demo-service/repo"
)

// HistoryLimit caps demo history responses.
const HistoryLimit = 50

var ErrInvalidStake = errors.New("invalid bet amount")

// Store is the transactional contract the engine settles through. The
// Postgres repo implements it; tests use an in-memory version.
type Store interface {
	GetOrCreateAccount(ctx context.Context, wallet string) (int64, error)
	Balance(ctx context.Context, wallet string) (int64, error)
	// ApplyBet must apply the balance delta and append the bet row
	// atomically, rejecting with repo.ErrInsufficientFunds before any
	// write when the stake exceeds the balance.
	ApplyBet(ctx context.Context, b *repo.DemoBet) error
	ListBets(ctx context.Context, wallet string, limit int) ([]repo.DemoBet, error)
}

type Engine struct {
	store Store
	flip  *coinflip.Flipper
	now   func() time.Time
}

// New wires the engine. A nil clock defaults to time.Now; tests inject
// a fixed one.
func New(store Store, flip *coinflip.Flipper, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{store: store, flip: flip, now: now}
}

// Initialize returns the wallet's balance, creating the account with
// the starting balance if absent. Idempotent.
func (e *Engine) Initialize(ctx context.Context, wallet string) (int64, error) {
	return e.store.GetOrCreateAccount(ctx, wallet)
}

// PlaceBet validates the stake, flips the coin and settles atomically.
// The stake must be in the allowed set; the account is auto-created on
// first bet.
func (e *Engine) PlaceBet(ctx context.Context, wallet string, stakeLamports int64) (*repo.DemoBet, error) {
	if !coinflip.ValidStake(stakeLamports) {
		return nil, ErrInvalidStake
	}

	result, won := e.flip.Flip()

	bet := &repo.DemoBet{
		WalletAddress:  wallet,
		StakeLamports:  stakeLamports,
		Result:         string(result),
		Won:            won,
		PayoutLamports: coinflip.DemoPayout(stakeLamports, won),
		CreatedAt:      e.now().UTC(),
	}

	if err := e.store.ApplyBet(ctx, bet); err != nil {
		return nil, err
	}
	return bet, nil
}

// Balance reads the current balance; repo.ErrNotFound for unknown
// wallets.
func (e *Engine) Balance(ctx context.Context, wallet string) (int64, error) {
	return e.store.Balance(ctx, wallet)
}

// History returns the wallet's bets, most recent first, capped at
// HistoryLimit.
func (e *Engine) History(ctx context.Context, wallet string, limit int) ([]repo.DemoBet, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}
	return e.store.ListBets(ctx, wallet, limit)
}
