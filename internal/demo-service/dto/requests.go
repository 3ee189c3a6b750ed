package dto

type InitializeRequest struct {
	WalletAddress string `json:"walletAddress"`
}

type PlaceBetRequest struct {
	WalletAddress string  `json:"walletAddress"`
	BetAmount     float64 `json:"betAmount"` // SOL, must be one of the allowed stakes
}
