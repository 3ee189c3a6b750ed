package dto

type CreateBetRequest struct {
	WalletAddress string  `json:"walletAddress"`
	BetAmount     float64 `json:"betAmount"` // SOL
}

// RecordBetRequest reports a signed-and-submitted settlement. Won is a
// pointer so a missing field is distinguishable from false.
type RecordBetRequest struct {
	TxSignature   string  `json:"txSignature"`
	WalletAddress string  `json:"walletAddress"`
	BetAmount     float64 `json:"betAmount"`
	Result        string  `json:"result"`
	Won           *bool   `json:"won"`
}
