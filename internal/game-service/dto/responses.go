package dto

import "time"

type CreateBetResponse struct {
	Transaction string `json:"transaction"` // base64, house co-signed
	Result      string `json:"result"`
	Won         bool   `json:"won"`
}

type RecordBetResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"` // "PENDING" when inconclusive
}

type Bet struct {
	TxSignature string    `json:"txSignature"`
	BetAmount   float64   `json:"betAmount"`
	Result      string    `json:"result"`
	Won         bool      `json:"won"`
	CreatedAt   time.Time `json:"createdAt"`
}

type HistoryResponse struct {
	Bets []Bet `json:"bets"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
