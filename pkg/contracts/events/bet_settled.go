package events

// Event published by the demo service after a bet settles atomically
// against the ledger.
type BetSettled struct {
	BetID          string `json:"bet_id"`
	WalletAddress  string `json:"wallet_address"`
	StakeLamports  int64  `json:"stake_lamports"`
	Result         string `json:"result"` // "heads" | "tails"
	Won            bool   `json:"won"`
	PayoutLamports int64  `json:"payout_lamports"`
	BalanceAfter   int64  `json:"balance_after_lamports"`
	TsUnixMs       int64  `json:"ts_unix_ms"`
}
