// Package coinflip holds the outcome resolver and the stake policy.
// Everything here is pure: no I/O, deterministic under an injected
// randomness source.
package coinflip

import (
	"math"
	"math/rand"
)

type Outcome string

const (
	Heads Outcome = "heads"
	Tails Outcome = "tails"
)

// LamportsPerSol converts between the external SOL amounts and the
// integer lamports used everywhere internally.
const LamportsPerSol = 1_000_000_000

// AllowedStakes is the closed set of stake amounts, in lamports
// (0.1, 0.3, 0.5 and 1.0 SOL). Fixed policy, not configurable.
var AllowedStakes = []int64{
	LamportsPerSol / 10,
	3 * LamportsPerSol / 10,
	LamportsPerSol / 2,
	LamportsPerSol,
}

// ValidStake reports whether the amount is one of the allowed stakes.
func ValidStake(lamports int64) bool {
	for _, s := range AllowedStakes {
		if lamports == s {
			return true
		}
	}
	return false
}

// SolToLamports converts a SOL amount from the API surface to lamports.
func SolToLamports(sol float64) int64 {
	return int64(math.Round(sol * LamportsPerSol))
}

// LamportsToSol converts back for JSON responses.
func LamportsToSol(lamports int64) float64 {
	return float64(lamports) / LamportsPerSol
}

// ValidResult reports whether s names a coin side.
func ValidResult(s string) bool {
	return s == string(Heads) || s == string(Tails)
}

// ResultWins reports whether a result is a win under the heads-wins
// convention. A claim where the won flag disagrees with this is
// self-contradictory and must be rejected before recording.
func ResultWins(s string) bool { return s == string(Heads) }

// Flipper draws coin flip outcomes from an injected source so bets are
// deterministic in tests. Each draw is independent of all prior draws.
type Flipper struct {
	randFloat func() float64 // uniform in [0, 1)
}

// NewFlipper returns a flipper backed by the shared math/rand source,
// which is auto-seeded and safe for concurrent requests.
func NewFlipper() *Flipper {
	return &Flipper{randFloat: rand.Float64}
}

// NewFlipperWithSource injects the randomness source. Tests use this to
// force outcomes.
func NewFlipperWithSource(randFloat func() float64) *Flipper {
	return &Flipper{randFloat: randFloat}
}

// Flip draws heads or tails with equal probability. The player wins on
// heads by convention.
func (f *Flipper) Flip() (Outcome, bool) {
	if f.randFloat() < 0.5 {
		return Heads, true
	}
	return Tails, false
}

// DemoPayout is the amount credited to a demo bet: the stake on a win,
// nothing on a loss.
func DemoPayout(stake int64, won bool) int64 {
	if won {
		return stake
	}
	return 0
}

// RealPayout is the house→user leg of a won real-mode settlement: the
// stake returned plus an equal winning amount.
func RealPayout(stake int64) int64 {
	return 2 * stake
}
