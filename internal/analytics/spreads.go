package analytics

import (
	"math"
	"sort"

	"github.com/avelez/optionflow/internal/model"
)

// SpreadConfig bounds the vertical credit spreads worth listing.
type SpreadConfig struct {
	MinWidth  float64 // Minimum strike distance between legs
	MaxWidth  float64 // Maximum strike distance between legs
	MinCredit float64 // Minimum net premium collected
}

// DefaultSpreadConfig returns the standard bounds.
func DefaultSpreadConfig() SpreadConfig {
	return SpreadConfig{
		MinWidth:  5,
		MaxWidth:  50,
		MinCredit: 0.50,
	}
}

// SpreadEnumerator lists vertical credit spreads on one side of a chain.
type SpreadEnumerator struct {
	cfg SpreadConfig
}

// NewSpreadEnumerator creates an enumerator with the given bounds.
func NewSpreadEnumerator(cfg SpreadConfig) *SpreadEnumerator {
	return &SpreadEnumerator{cfg: cfg}
}

// Enumerate returns every valid credit spread for the requested side, sorted
// descending by risk/reward. For CALL spreads the lower strike is sold and the
// higher bought; for PUT spreads the convention inverts. Output is
// deterministic for identical input.
func (e *SpreadEnumerator) Enumerate(contracts []model.OptionContract, side model.Side, spot float64) []model.SpreadCandidate {
	legs := make([]model.OptionContract, 0, len(contracts))
	for _, c := range contracts {
		if c.Side == side {
			legs = append(legs, c)
		}
	}
	sort.SliceStable(legs, func(i, j int) bool {
		return legs[i].Strike < legs[j].Strike
	})

	var out []model.SpreadCandidate
	for i := 0; i < len(legs); i++ {
		for j := i + 1; j < len(legs); j++ {
			lower, higher := legs[i], legs[j]

			width := higher.Strike - lower.Strike
			if width < e.cfg.MinWidth || width > e.cfg.MaxWidth {
				continue
			}

			short, long := lower, higher
			if side == model.SidePut {
				short, long = higher, lower
			}

			credit := short.Bid - long.Ask
			if credit < e.cfg.MinCredit {
				continue
			}

			out = append(out, buildSpread(short, long, side, width, credit))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RiskReward > out[j].RiskReward
	})

	return out
}

func buildSpread(short, long model.OptionContract, side model.Side, width, credit float64) model.SpreadCandidate {
	maxProfit := credit * contractMultiplier
	maxLoss := (width - credit) * contractMultiplier

	riskReward := 0.0
	if maxLoss > 0 {
		riskReward = maxProfit / maxLoss
	}

	breakEven := short.Strike + credit
	if side == model.SidePut {
		breakEven = short.Strike - credit
	}

	return model.SpreadCandidate{
		Underlying:          short.Underlying,
		Side:                side,
		ShortLeg:            short,
		LongLeg:             long,
		Width:               width,
		Credit:              credit,
		MaxProfit:           maxProfit,
		MaxLoss:             maxLoss,
		BreakEven:           breakEven,
		RiskReward:          riskReward,
		ProbabilityOfProfit: probabilityOfProfit(short),
	}
}

// probabilityOfProfit approximates the chance the short leg expires worthless
// from its delta. With no delta available the estimate is 0.5, not 1.
func probabilityOfProfit(short model.OptionContract) float64 {
	if short.Delta == 0 {
		return 0.5
	}
	p := 1 - math.Abs(short.Delta)
	return math.Max(0, math.Min(1, p))
}
