package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DemoBetsSettled counts settled demo bets by result.
	DemoBetsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coinflip_demo_bets_settled_total",
		Help: "Demo bets settled, labeled by flip result.",
	}, []string{"result"})

	// RealBetsRecorded counts first-time real bet records.
	RealBetsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coinflip_real_bets_recorded_total",
		Help: "Real bets recorded after on-chain confirmation.",
	})

	// RealBetDuplicates counts record attempts that hit an existing
	// transaction signature.
	RealBetDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coinflip_real_bet_duplicates_total",
		Help: "record-bet calls resolved as duplicates by tx signature.",
	})

	// ConfirmationTimeouts counts watches that gave up before the
	// transaction reached a terminal state.
	ConfirmationTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coinflip_confirmation_timeouts_total",
		Help: "Confirmation watches that timed out (inconclusive).",
	})

	// SettlementMismatches counts record attempts refused because the
	// confirmed transaction did not match the claimed bet.
	SettlementMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coinflip_settlement_mismatches_total",
		Help: "record-bet calls refused by settlement verification.",
	})
)
