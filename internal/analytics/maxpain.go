package analytics

import (
	"sort"

	"github.com/avelez/optionflow/internal/model"
)

// contractMultiplier is the standard equity-option share multiplier.
const contractMultiplier = 100

// MaxPain returns the settlement strike minimizing option writers' aggregate
// intrinsic payout, plus the payout at that strike. Ties break to the lowest
// strike. Returns (0, 0) when the chain has no strikes.
//
// The scan is O(n²) in distinct strikes, which is fine for a single-day chain
// (tens of strikes).
func MaxPain(calls, puts []model.OptionContract) (strike, totalPain float64) {
	strikes := distinctStrikes(calls, puts)
	if len(strikes) == 0 {
		return 0, 0
	}

	best := strikes[0]
	bestPain := PainAt(calls, puts, best)

	for _, s := range strikes[1:] {
		if pain := PainAt(calls, puts, s); pain < bestPain {
			best = s
			bestPain = pain
		}
	}

	return best, bestPain
}

// PainAt computes the aggregate intrinsic payout to option holders if the
// underlying settles at the given strike: calls struck below it and puts
// struck above it finish in the money against the writers, weighted by open
// interest.
func PainAt(calls, puts []model.OptionContract, settle float64) float64 {
	var pain float64

	for _, c := range calls {
		if c.Strike < settle {
			pain += float64(c.OpenInterest) * (settle - c.Strike) * contractMultiplier
		}
	}
	for _, p := range puts {
		if p.Strike > settle {
			pain += float64(p.OpenInterest) * (p.Strike - settle) * contractMultiplier
		}
	}

	return pain
}

// distinctStrikes returns the ascending set of strikes present on either side.
func distinctStrikes(calls, puts []model.OptionContract) []float64 {
	seen := make(map[float64]struct{}, len(calls)+len(puts))
	for _, c := range calls {
		seen[c.Strike] = struct{}{}
	}
	for _, p := range puts {
		seen[p.Strike] = struct{}{}
	}

	strikes := make([]float64, 0, len(seen))
	for s := range seen {
		strikes = append(strikes, s)
	}
	sort.Float64s(strikes)
	return strikes
}
