package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Nakshatra-thange/Coinflip/internal/coinflip"
	"github.com/Nakshatra-thange/Coinflip/internal/demo-service/dto"
	"github.com/Nakshatra-thange/Coinflip/internal/demo-service/ledger"
	"github.com/Nakshatra-thange/Coinflip/internal/demo-service/repo"
	"github.com/Nakshatra-thange/Coinflip/internal/shared/metrics"
	"github.com/Nakshatra-thange/Coinflip/pkg/contracts/events"
)

// Ledger is the settlement contract the handlers run against.
type Ledger interface {
	Initialize(ctx context.Context, wallet string) (int64, error)
	PlaceBet(ctx context.Context, wallet string, stakeLamports int64) (*repo.DemoBet, error)
	Balance(ctx context.Context, wallet string) (int64, error)
	History(ctx context.Context, wallet string, limit int) ([]repo.DemoBet, error)
}

// BalanceCache fronts balance reads; nil disables caching.
type BalanceCache interface {
	Get(ctx context.Context, wallet string) (int64, bool)
	Set(ctx context.Context, wallet string, lamports int64)
}

// Publisher emits settled-bet events; nil disables publishing.
type Publisher interface {
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
}

// Server exposes the demo ledger HTTP API.
type Server struct {
	log    *zap.Logger
	ledger Ledger
	cache  BalanceCache
	publ   Publisher
}

func NewServer(log *zap.Logger, l Ledger, c BalanceCache, p Publisher) *Server {
	return &Server{log: log, ledger: l, cache: c, publ: p}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", ping)
	mux.HandleFunc("/api/demo/initialize", s.initialize) // POST
	mux.HandleFunc("/api/demo/place-bet", s.placeBet)    // POST
	mux.HandleFunc("/api/demo/balance/", s.balance)      // GET /api/demo/balance/{wallet}
	mux.HandleFunc("/api/demo/history/", s.history)      // GET /api/demo/history/{wallet}
	return mux
}

func ping(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("pong"))
}

// initialize creates the account with the starting balance if absent
// and returns the balance. Safe to call repeatedly.
func (s *Server) initialize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req dto.InitializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.WalletAddress == "" {
		writeError(w, http.StatusBadRequest, "walletAddress required")
		return
	}

	bal, err := s.ledger.Initialize(r.Context(), req.WalletAddress)
	if err != nil {
		s.log.Error("initialize", zap.String("wallet", req.WalletAddress), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "initialize failed")
		return
	}
	if s.cache != nil {
		s.cache.Set(r.Context(), req.WalletAddress, bal)
	}

	writeJSON(w, dto.BalanceResponse{Balance: coinflip.LamportsToSol(bal)})
}

// placeBet settles a demo bet. Validation failures and insufficient
// balance reject before any state change.
func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.WalletAddress == "" {
		writeError(w, http.StatusBadRequest, "walletAddress required")
		return
	}

	stake := coinflip.SolToLamports(req.BetAmount)
	bet, err := s.ledger.PlaceBet(r.Context(), req.WalletAddress, stake)
	switch {
	case errors.Is(err, ledger.ErrInvalidStake):
		writeError(w, http.StatusBadRequest, "Invalid bet amount")
		return
	case errors.Is(err, repo.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, "Insufficient balance")
		return
	case err != nil:
		s.log.Error("place bet", zap.String("wallet", req.WalletAddress), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "bet failed")
		return
	}

	metrics.DemoBetsSettled.WithLabelValues(bet.Result).Inc()
	if s.cache != nil {
		s.cache.Set(r.Context(), req.WalletAddress, bet.BalanceAfter)
	}
	if s.publ != nil {
		_ = s.publ.PublishBetSettled(r.Context(), events.BetSettled{
			BetID:          bet.ID,
			WalletAddress:  bet.WalletAddress,
			StakeLamports:  bet.StakeLamports,
			Result:         bet.Result,
			Won:            bet.Won,
			PayoutLamports: bet.PayoutLamports,
			BalanceAfter:   bet.BalanceAfter,
		})
	}

	writeJSON(w, dto.PlaceBetResponse{
		Result:        bet.Result,
		Won:           bet.Won,
		BalanceBefore: coinflip.LamportsToSol(bet.BalanceBefore),
		BalanceAfter:  coinflip.LamportsToSol(bet.BalanceAfter),
		Timestamp:     bet.CreatedAt.Format(time.RFC3339),
	})
}

// balance returns the wallet's balance, 0 for unknown wallets.
func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	wallet := r.URL.Path[len("/api/demo/balance/"):]
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "wallet required")
		return
	}

	if s.cache != nil {
		if bal, ok := s.cache.Get(r.Context(), wallet); ok {
			writeJSON(w, dto.BalanceResponse{Balance: coinflip.LamportsToSol(bal)})
			return
		}
	}

	bal, err := s.ledger.Balance(r.Context(), wallet)
	if errors.Is(err, repo.ErrNotFound) {
		writeJSON(w, dto.BalanceResponse{Balance: 0})
		return
	}
	if err != nil {
		s.log.Error("balance", zap.String("wallet", wallet), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "balance failed")
		return
	}
	if s.cache != nil {
		s.cache.Set(r.Context(), wallet, bal)
	}

	writeJSON(w, dto.BalanceResponse{Balance: coinflip.LamportsToSol(bal)})
}

// history returns the wallet's bets, most recent first; empty for
// unknown wallets.
func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	wallet := r.URL.Path[len("/api/demo/history/"):]
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "wallet required")
		return
	}

	bets, err := s.ledger.History(r.Context(), wallet, ledger.HistoryLimit)
	if err != nil {
		s.log.Error("history", zap.String("wallet", wallet), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history failed")
		return
	}

	out := dto.HistoryResponse{Bets: make([]dto.Bet, 0, len(bets))}
	for _, b := range bets {
		out.Bets = append(out.Bets, dto.Bet{
			ID:        b.ID,
			BetAmount: coinflip.LamportsToSol(b.StakeLamports),
			Result:    b.Result,
			Payout:    coinflip.LamportsToSol(b.PayoutLamports),
			Status:    b.Status,
			CreatedAt: b.CreatedAt,
		})
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: msg})
}
