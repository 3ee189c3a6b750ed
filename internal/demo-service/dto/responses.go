package dto

import "time"

type BalanceResponse struct {
	Balance float64 `json:"balance"` // SOL
}

type PlaceBetResponse struct {
	Result        string  `json:"result"` // "heads" | "tails"
	Won           bool    `json:"won"`
	BalanceBefore float64 `json:"balanceBefore"`
	BalanceAfter  float64 `json:"balanceAfter"`
	Timestamp     string  `json:"timestamp"` // RFC3339 settlement time
}

type Bet struct {
	ID        string    `json:"id"`
	BetAmount float64   `json:"betAmount"`
	Result    string    `json:"result"`
	Payout    float64   `json:"payout"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type HistoryResponse struct {
	Bets []Bet `json:"bets"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
