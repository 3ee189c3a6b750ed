package events

// BetSubmitted is queued when the synchronous record path could not
// observe a terminal transaction state in time. The recorder worker
// picks it up and retries the watch.
type BetSubmitted struct {
	TxSignature   string `json:"tx_signature"`
	WalletAddress string `json:"wallet_address"`
	StakeLamports int64  `json:"stake_lamports"`
	Result        string `json:"result"`
	Won           bool   `json:"won"`
	TsUnixMs      int64  `json:"ts_unix_ms"`
}
