package repo

import "time"

// DemoBet is the settled-bet row persisted alongside the balance
// update. Rows are append-only and never mutated.
type DemoBet struct {
	ID             string
	WalletAddress  string
	StakeLamports  int64
	Result         string // "heads" | "tails"
	Won            bool   // derived from Result, drives the balance delta
	PayoutLamports int64
	BalanceBefore  int64
	BalanceAfter   int64
	Status         string
	CreatedAt      time.Time
}
