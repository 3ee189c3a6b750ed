package events

import "time"

// Event emitted once a real bet has been confirmed on chain, verified
// and durably recorded.
type BetRecorded struct {
	TxSignature   string    `json:"tx_signature"`
	WalletAddress string    `json:"wallet_address"`
	StakeLamports int64     `json:"stake_lamports"`
	Result        string    `json:"result"`
	Won           bool      `json:"won"`
	Ts            time.Time `json:"ts"`
}
