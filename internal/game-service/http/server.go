package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Nakshatra-thange/Coinflip/internal/coinflip"
	"github.com/Nakshatra-thange/Coinflip/internal/game-service/dto"
	"github.com/Nakshatra-thange/Coinflip/internal/game-service/repo"
	"github.com/Nakshatra-thange/Coinflip/internal/game-service/settlement"
	"github.com/Nakshatra-thange/Coinflip/internal/shared/metrics"
	"github.com/Nakshatra-thange/Coinflip/pkg/contracts/events"
)

// Builder produces house co-signed settlement artifacts.
type Builder interface {
	Build(ctx context.Context, userAddr string, stakeLamports int64, won bool) (*settlement.Artifact, error)
}

// Watcher waits for a submitted transaction to reach a terminal state.
type Watcher interface {
	Wait(ctx context.Context, signature string) (settlement.Status, error)
}

// Verifier checks the confirmed transaction against the claimed bet.
type Verifier interface {
	Verify(ctx context.Context, signature, wallet string, stakeLamports int64, won bool) error
}

// Recorder persists confirmed bets exactly once per signature.
type Recorder interface {
	Record(ctx context.Context, b *repo.RealBet) (created bool, err error)
	History(ctx context.Context, wallet string, limit int) ([]repo.RealBet, error)
}

// Publisher queues inconclusive submissions and announces records;
// nil disables both.
type Publisher interface {
	PublishBetSubmitted(ctx context.Context, e events.BetSubmitted) error
	PublishBetRecorded(ctx context.Context, e events.BetRecorded) error
}

// Server exposes the real-mode HTTP API.
type Server struct {
	log     *zap.Logger
	flip    *coinflip.Flipper
	builder Builder
	watcher Watcher
	verif   Verifier
	rec     Recorder
	publ    Publisher
}

func NewServer(log *zap.Logger, flip *coinflip.Flipper, b Builder, w Watcher, v Verifier, r Recorder, p Publisher) *Server {
	return &Server{log: log, flip: flip, builder: b, watcher: w, verif: v, rec: r, publ: p}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", ping)
	mux.HandleFunc("/api/game/create-bet", s.createBet) // POST
	mux.HandleFunc("/api/game/record-bet", s.recordBet) // POST
	mux.HandleFunc("/api/game/history/", s.history)     // GET /api/game/history/{wallet}
	return mux
}

func ping(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("pong"))
}

// createBet decides the outcome and returns the house co-signed
// settlement transaction for the wallet to co-sign and submit.
func (s *Server) createBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req dto.CreateBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.WalletAddress == "" || req.BetAmount == 0 {
		writeError(w, http.StatusBadRequest, "Missing params")
		return
	}
	stake := coinflip.SolToLamports(req.BetAmount)
	if !coinflip.ValidStake(stake) {
		writeError(w, http.StatusBadRequest, "Invalid bet amount")
		return
	}

	result, won := s.flip.Flip()

	art, err := s.builder.Build(r.Context(), req.WalletAddress, stake, won)
	if errors.Is(err, settlement.ErrInvalidAddress) {
		writeError(w, http.StatusBadRequest, "Invalid wallet address")
		return
	}
	if err != nil {
		s.log.Error("create bet", zap.String("wallet", req.WalletAddress), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create bet")
		return
	}

	writeJSON(w, http.StatusOK, dto.CreateBetResponse{
		Transaction: art.Transaction,
		Result:      string(result),
		Won:         won,
	})
}

// recordBet waits for the submitted transaction to confirm, verifies
// it against the claimed bet and records it exactly once. When the
// watch is inconclusive the submission is queued for the worker and
// the caller gets 202; retrying later is safe by signature.
func (s *Server) recordBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req dto.RecordBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.TxSignature == "" || req.WalletAddress == "" || req.BetAmount == 0 || req.Result == "" || req.Won == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	stake := coinflip.SolToLamports(req.BetAmount)
	if !coinflip.ValidStake(stake) {
		writeError(w, http.StatusBadRequest, "Invalid bet amount")
		return
	}
	if !coinflip.ValidResult(req.Result) {
		writeError(w, http.StatusBadRequest, "Invalid result")
		return
	}
	won := *req.Won
	// On-chain verification only sees the legs, so a contradictory
	// claim like a tails win has to be refused here.
	if won != coinflip.ResultWins(req.Result) {
		writeError(w, http.StatusBadRequest, "Result and won flag disagree")
		return
	}

	status, err := s.watcher.Wait(r.Context(), req.TxSignature)
	if errors.Is(err, settlement.ErrInvalidSignature) {
		writeError(w, http.StatusBadRequest, "Invalid transaction signature")
		return
	}

	switch {
	case status == settlement.StatusConfirmed:
		// fall through to verify + record
	case status == settlement.StatusFailed:
		writeError(w, http.StatusBadRequest, "Transaction failed on chain")
		return
	default:
		// Timed out or the caller went away: inconclusive, hand over
		// to the worker and tell the caller nothing was recorded yet.
		metrics.ConfirmationTimeouts.Inc()
		if s.publ != nil {
			_ = s.publ.PublishBetSubmitted(r.Context(), events.BetSubmitted{
				TxSignature:   req.TxSignature,
				WalletAddress: req.WalletAddress,
				StakeLamports: stake,
				Result:        req.Result,
				Won:           won,
			})
		}
		writeJSON(w, http.StatusAccepted, dto.RecordBetResponse{Success: false, Status: string(settlement.StatusPending)})
		return
	}

	if err := s.verif.Verify(r.Context(), req.TxSignature, req.WalletAddress, stake, won); err != nil {
		if errors.Is(err, settlement.ErrSettlementMismatch) {
			metrics.SettlementMismatches.Inc()
			s.log.Error("settlement mismatch",
				zap.String("signature", req.TxSignature),
				zap.String("wallet", req.WalletAddress),
				zap.Error(err))
			writeError(w, http.StatusUnprocessableEntity, "Settlement does not match bet")
			return
		}
		s.log.Error("verify settlement", zap.String("signature", req.TxSignature), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to record bet")
		return
	}

	created, err := s.rec.Record(r.Context(), &repo.RealBet{
		TxSignature:   req.TxSignature,
		WalletAddress: req.WalletAddress,
		StakeLamports: stake,
		Result:        req.Result,
		Won:           won,
	})
	if err != nil {
		s.log.Error("record bet", zap.String("signature", req.TxSignature), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to record bet")
		return
	}

	if created {
		metrics.RealBetsRecorded.Inc()
		if s.publ != nil {
			_ = s.publ.PublishBetRecorded(r.Context(), events.BetRecorded{
				TxSignature:   req.TxSignature,
				WalletAddress: req.WalletAddress,
				StakeLamports: stake,
				Result:        req.Result,
				Won:           won,
			})
		}
	} else {
		metrics.RealBetDuplicates.Inc()
	}

	writeJSON(w, http.StatusOK, dto.RecordBetResponse{Success: true})
}

// history returns the wallet's recorded bets, most recent first.
func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	wallet := r.URL.Path[len("/api/game/history/"):]
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "Wallet address required")
		return
	}

	bets, err := s.rec.History(r.Context(), wallet, repo.HistoryLimit)
	if err != nil {
		s.log.Error("history", zap.String("wallet", wallet), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}

	out := dto.HistoryResponse{Bets: make([]dto.Bet, 0, len(bets))}
	for _, b := range bets {
		out.Bets = append(out.Bets, dto.Bet{
			TxSignature: b.TxSignature,
			BetAmount:   coinflip.LamportsToSol(b.StakeLamports),
			Result:      b.Result,
			Won:         b.Won,
			CreatedAt:   b.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}
