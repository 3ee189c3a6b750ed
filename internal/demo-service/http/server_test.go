package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Nakshatra-thange/Coinflip/internal/coinflip"
	"github.com/Nakshatra-thange/Coinflip/internal/demo-service/dto"
	"github.com/Nakshatra-thange/Coinflip/internal/demo-service/ledger"
	"github.com/Nakshatra-thange/Coinflip/internal/demo-service/repo"
	"github.com/Nakshatra-thange/Coinflip/pkg/contracts/events"
)

type fakeLedger struct {
	balance    int64
	balanceErr error
	bet        *repo.DemoBet
	betErr     error
	bets       []repo.DemoBet
}

func (f *fakeLedger) Initialize(_ context.Context, _ string) (int64, error) {
	return f.balance, f.balanceErr
}

func (f *fakeLedger) PlaceBet(_ context.Context, _ string, _ int64) (*repo.DemoBet, error) {
	return f.bet, f.betErr
}

func (f *fakeLedger) Balance(_ context.Context, _ string) (int64, error) {
	return f.balance, f.balanceErr
}

func (f *fakeLedger) History(_ context.Context, _ string, _ int) ([]repo.DemoBet, error) {
	return f.bets, nil
}

type fakePublisher struct{ settled []events.BetSettled }

func (f *fakePublisher) PublishBetSettled(_ context.Context, e events.BetSettled) error {
	f.settled = append(f.settled, e)
	return nil
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	s := NewServer(zap.NewNop(), &fakeLedger{}, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestInitializeReturnsBalance(t *testing.T) {
	s := NewServer(zap.NewNop(), &fakeLedger{balance: repo.StartingBalanceLamports}, nil, nil)

	rec := postJSON(t, s.Router(), "/api/demo/initialize", dto.InitializeRequest{WalletAddress: "wallet-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.BalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3.0, resp.Balance)
}

func TestInitializeRequiresWallet(t *testing.T) {
	s := NewServer(zap.NewNop(), &fakeLedger{}, nil, nil)
	rec := postJSON(t, s.Router(), "/api/demo/initialize", dto.InitializeRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceBetSettles(t *testing.T) {
	settledAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	publ := &fakePublisher{}
	s := NewServer(zap.NewNop(), &fakeLedger{bet: &repo.DemoBet{
		ID:             "bet-1",
		WalletAddress:  "wallet-1",
		StakeLamports:  coinflip.SolToLamports(0.5),
		Result:         "heads",
		Won:            true,
		PayoutLamports: coinflip.SolToLamports(0.5),
		BalanceBefore:  coinflip.SolToLamports(3.0),
		BalanceAfter:   coinflip.SolToLamports(3.5),
		CreatedAt:      settledAt,
	}}, nil, publ)

	rec := postJSON(t, s.Router(), "/api/demo/place-bet", dto.PlaceBetRequest{
		WalletAddress: "wallet-1",
		BetAmount:     0.5,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.PlaceBetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "heads", resp.Result)
	assert.True(t, resp.Won)
	assert.Equal(t, 3.0, resp.BalanceBefore)
	assert.Equal(t, 3.5, resp.BalanceAfter)
	assert.Equal(t, settledAt.Format(time.RFC3339), resp.Timestamp)

	require.Len(t, publ.settled, 1)
	assert.Equal(t, "bet-1", publ.settled[0].BetID)
}

func TestPlaceBetInvalidStake(t *testing.T) {
	s := NewServer(zap.NewNop(), &fakeLedger{betErr: ledger.ErrInvalidStake}, nil, nil)

	rec := postJSON(t, s.Router(), "/api/demo/place-bet", dto.PlaceBetRequest{
		WalletAddress: "wallet-1",
		BetAmount:     0.2,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid bet amount", resp.Error)
}

func TestPlaceBetInsufficientBalance(t *testing.T) {
	s := NewServer(zap.NewNop(), &fakeLedger{betErr: repo.ErrInsufficientFunds}, nil, nil)

	rec := postJSON(t, s.Router(), "/api/demo/place-bet", dto.PlaceBetRequest{
		WalletAddress: "wallet-1",
		BetAmount:     1.0,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Insufficient balance", resp.Error)
}

func TestBalanceUnknownWalletIsZero(t *testing.T) {
	s := NewServer(zap.NewNop(), &fakeLedger{balanceErr: repo.ErrNotFound}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/demo/balance/unknown-wallet", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.BalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0.0, resp.Balance)
}

func TestHistoryMapsBets(t *testing.T) {
	now := time.Now().UTC()
	s := NewServer(zap.NewNop(), &fakeLedger{bets: []repo.DemoBet{
		{ID: "b2", StakeLamports: coinflip.SolToLamports(1.0), Result: "tails", Status: "settled", CreatedAt: now},
		{ID: "b1", StakeLamports: coinflip.SolToLamports(0.1), Result: "heads", PayoutLamports: coinflip.SolToLamports(0.1), Status: "settled", CreatedAt: now.Add(-time.Minute)},
	}}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/demo/history/wallet-1", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Bets, 2)
	assert.Equal(t, "b2", resp.Bets[0].ID)
	assert.Equal(t, 1.0, resp.Bets[0].BetAmount)
	assert.Equal(t, 0.0, resp.Bets[0].Payout)
	assert.Equal(t, 0.1, resp.Bets[1].Payout)
}
