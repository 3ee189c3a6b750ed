package coinflip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidStake(t *testing.T) {
	for _, sol := range []float64{0.1, 0.3, 0.5, 1.0} {
		assert.True(t, ValidStake(SolToLamports(sol)), "stake %v should be allowed", sol)
	}
	for _, sol := range []float64{0, 0.2, 0.4, 1.5, 2.0, -0.1, 0.30000001} {
		assert.False(t, ValidStake(SolToLamports(sol)), "stake %v should be rejected", sol)
	}
}

func TestSolLamportRoundTrip(t *testing.T) {
	require.Equal(t, int64(300_000_000), SolToLamports(0.3))
	require.Equal(t, int64(1_000_000_000), SolToLamports(1.0))
	require.Equal(t, 0.5, LamportsToSol(500_000_000))
}

func TestValidResult(t *testing.T) {
	assert.True(t, ValidResult("heads"))
	assert.True(t, ValidResult("tails"))
	assert.False(t, ValidResult(""))
	assert.False(t, ValidResult("HEADS"))
	assert.False(t, ValidResult("edge"))
}

func TestResultWins(t *testing.T) {
	assert.True(t, ResultWins("heads"))
	assert.False(t, ResultWins("tails"))
}

func TestFlipForcedOutcomes(t *testing.T) {
	heads := NewFlipperWithSource(func() float64 { return 0.0 })
	out, won := heads.Flip()
	require.Equal(t, Heads, out)
	require.True(t, won)

	tails := NewFlipperWithSource(func() float64 { return 0.9 })
	out, won = tails.Flip()
	require.Equal(t, Tails, out)
	require.False(t, won)
}

func TestFlipIsMemoryless(t *testing.T) {
	// Alternating source: each draw depends only on the source, never
	// on the previous outcome.
	i := 0
	f := NewFlipperWithSource(func() float64 {
		i++
		if i%2 == 0 {
			return 0.1
		}
		return 0.8
	})

	out1, _ := f.Flip()
	out2, _ := f.Flip()
	out3, _ := f.Flip()
	require.Equal(t, Tails, out1)
	require.Equal(t, Heads, out2)
	require.Equal(t, Tails, out3)
}

func TestDemoPayout(t *testing.T) {
	stake := SolToLamports(0.5)
	assert.Equal(t, stake, DemoPayout(stake, true))
	assert.Equal(t, int64(0), DemoPayout(stake, false))
}

func TestRealPayout(t *testing.T) {
	assert.Equal(t, int64(600_000_000), RealPayout(SolToLamports(0.3)))
}
