package repo

import "time"

// RealBet is the on-chain settled bet row, keyed by the transaction
// signature. Append-only; a signature is recorded at most once.
type RealBet struct {
	TxSignature   string
	WalletAddress string
	StakeLamports int64
	Result        string // "heads" | "tails"
	Won           bool
	CreatedAt     time.Time
}
