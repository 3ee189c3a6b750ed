package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nakshatra-thange/Coinflip/internal/coinflip"
	"github.com/Nakshatra-thange/Coinflip/internal/demo-service/repo"
)

// memStore mirrors the Postgres repo contract: ApplyBet holds a lock
// for the whole read-check-write, so bets on one wallet serialize.
type memStore struct {
	mu       sync.Mutex
	balances map[string]int64
	bets     map[string][]repo.DemoBet
}

func newMemStore() *memStore {
	return &memStore{
		balances: map[string]int64{},
		bets:     map[string][]repo.DemoBet{},
	}
}

func (m *memStore) GetOrCreateAccount(_ context.Context, wallet string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.balances[wallet]; !ok {
		m.balances[wallet] = repo.StartingBalanceLamports
	}
	return m.balances[wallet], nil
}

func (m *memStore) Balance(_ context.Context, wallet string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal, ok := m.balances[wallet]
	if !ok {
		return 0, repo.ErrNotFound
	}
	return bal, nil
}

func (m *memStore) ApplyBet(_ context.Context, b *repo.DemoBet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bal, ok := m.balances[b.WalletAddress]
	if !ok {
		bal = repo.StartingBalanceLamports
		m.balances[b.WalletAddress] = bal
	}
	if bal < b.StakeLamports {
		return repo.ErrInsufficientFunds
	}

	after := bal - b.StakeLamports
	if b.Won {
		after = bal + b.StakeLamports
	}
	m.balances[b.WalletAddress] = after

	b.ID = uuid.NewString()
	b.BalanceBefore = bal
	b.BalanceAfter = after
	b.Status = "settled"
	m.bets[b.WalletAddress] = append(m.bets[b.WalletAddress], *b)
	return nil
}

func (m *memStore) ListBets(_ context.Context, wallet string, limit int) ([]repo.DemoBet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.bets[wallet]
	var out []repo.DemoBet
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func forced(won bool) *coinflip.Flipper {
	v := 0.9 // tails
	if won {
		v = 0.1 // heads
	}
	return coinflip.NewFlipperWithSource(func() float64 { return v })
}

func TestInitializeIsIdempotent(t *testing.T) {
	e := New(newMemStore(), forced(false), nil)

	bal, err := e.Initialize(context.Background(), "wallet-1")
	require.NoError(t, err)
	require.Equal(t, int64(repo.StartingBalanceLamports), bal)

	bal, err = e.Initialize(context.Background(), "wallet-1")
	require.NoError(t, err)
	require.Equal(t, int64(repo.StartingBalanceLamports), bal)
}

func TestPlaceBetLoss(t *testing.T) {
	// balance 3.0, bet 1.0, forced tails → 2.0 and payout 0
	e := New(newMemStore(), forced(false), nil)
	stake := coinflip.SolToLamports(1.0)

	bet, err := e.PlaceBet(context.Background(), "wallet-1", stake)
	require.NoError(t, err)

	assert.Equal(t, "tails", bet.Result)
	assert.False(t, bet.Won)
	assert.Equal(t, int64(0), bet.PayoutLamports)
	assert.Equal(t, coinflip.SolToLamports(3.0), bet.BalanceBefore)
	assert.Equal(t, coinflip.SolToLamports(2.0), bet.BalanceAfter)
}

func TestPlaceBetWin(t *testing.T) {
	// balance 3.0, bet 0.5, forced heads → 3.5 and payout 0.5
	e := New(newMemStore(), forced(true), nil)
	stake := coinflip.SolToLamports(0.5)

	bet, err := e.PlaceBet(context.Background(), "wallet-1", stake)
	require.NoError(t, err)

	assert.Equal(t, "heads", bet.Result)
	assert.True(t, bet.Won)
	assert.Equal(t, stake, bet.PayoutLamports)
	assert.Equal(t, coinflip.SolToLamports(3.5), bet.BalanceAfter)
}

func TestPlaceBetBalanceDeltaMatchesOutcome(t *testing.T) {
	for _, sol := range []float64{0.1, 0.3, 0.5, 1.0} {
		for _, won := range []bool{true, false} {
			store := newMemStore()
			e := New(store, forced(won), nil)
			stake := coinflip.SolToLamports(sol)

			bet, err := e.PlaceBet(context.Background(), "w", stake)
			require.NoError(t, err)

			want := bet.BalanceBefore - stake
			if won {
				want = bet.BalanceBefore + stake
			}
			assert.Equal(t, want, bet.BalanceAfter, "stake %v won %v", sol, won)
		}
	}
}

func TestPlaceBetInvalidStakeRejectsWithoutMutation(t *testing.T) {
	store := newMemStore()
	e := New(store, forced(true), nil)

	_, err := e.Initialize(context.Background(), "wallet-1")
	require.NoError(t, err)

	for _, sol := range []float64{0.2, 0.0, -0.1, 2.0} {
		_, err := e.PlaceBet(context.Background(), "wallet-1", coinflip.SolToLamports(sol))
		require.ErrorIs(t, err, ErrInvalidStake)
	}

	bal, err := e.Balance(context.Background(), "wallet-1")
	require.NoError(t, err)
	assert.Equal(t, int64(repo.StartingBalanceLamports), bal)

	bets, err := e.History(context.Background(), "wallet-1", 0)
	require.NoError(t, err)
	assert.Empty(t, bets)
}

func TestPlaceBetInsufficientBalanceRejectsWithoutMutation(t *testing.T) {
	store := newMemStore()
	e := New(store, forced(false), nil)

	// drain the account to 0 with forced losses
	for i := 0; i < 3; i++ {
		_, err := e.PlaceBet(context.Background(), "wallet-1", coinflip.SolToLamports(1.0))
		require.NoError(t, err)
	}

	_, err := e.PlaceBet(context.Background(), "wallet-1", coinflip.SolToLamports(0.1))
	require.ErrorIs(t, err, repo.ErrInsufficientFunds)

	bal, err := e.Balance(context.Background(), "wallet-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal)

	bets, err := e.History(context.Background(), "wallet-1", 0)
	require.NoError(t, err)
	assert.Len(t, bets, 3)
}

func TestPlaceBetAutoInitializes(t *testing.T) {
	e := New(newMemStore(), forced(false), nil)

	bet, err := e.PlaceBet(context.Background(), "fresh-wallet", coinflip.SolToLamports(0.1))
	require.NoError(t, err)
	assert.Equal(t, int64(repo.StartingBalanceLamports), bet.BalanceBefore)
}

func TestHistoryMostRecentFirstAndCapped(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		ts = ts.Add(time.Second)
		return ts
	}
	e := New(newMemStore(), forced(true), clock)

	for i := 0; i < HistoryLimit+10; i++ {
		_, err := e.PlaceBet(context.Background(), "wallet-1", coinflip.SolToLamports(0.1))
		require.NoError(t, err)
	}

	bets, err := e.History(context.Background(), "wallet-1", 0)
	require.NoError(t, err)
	require.Len(t, bets, HistoryLimit)

	for i := 1; i < len(bets); i++ {
		assert.True(t, bets[i-1].CreatedAt.After(bets[i].CreatedAt),
			"bets must be strictly most-recent-first at %d", i)
	}
}

func TestConcurrentBetsNeverOverdraw(t *testing.T) {
	store := newMemStore()
	e := New(store, forced(false), nil) // every bet loses

	// 3.0 SOL balance, 40 concurrent 0.1 bets: only 30 can succeed.
	const n = 40
	stake := coinflip.SolToLamports(0.1)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.PlaceBet(context.Background(), "wallet-1", stake)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded, rejected := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			require.ErrorIs(t, err, repo.ErrInsufficientFunds)
			rejected++
		}
	}

	assert.Equal(t, 30, succeeded)
	assert.Equal(t, 10, rejected)

	bal, err := e.Balance(context.Background(), "wallet-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal)
}

func TestConcurrentFirstBetsCreateAccountOnce(t *testing.T) {
	store := newMemStore()
	e := New(store, forced(false), nil) // every bet loses

	// No Initialize: every goroutine races to create the account on its
	// first bet. All must settle cleanly and the starting balance must
	// be credited exactly once.
	const n = 10
	stake := coinflip.SolToLamports(0.1)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.PlaceBet(context.Background(), "wallet-1", stake)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	bal, err := e.Balance(context.Background(), "wallet-1")
	require.NoError(t, err)
	assert.Equal(t, repo.StartingBalanceLamports-int64(n)*stake, bal)

	bets, err := e.History(context.Background(), "wallet-1", n)
	require.NoError(t, err)
	assert.Len(t, bets, n)
}
