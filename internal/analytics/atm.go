package analytics

import (
	"math"
	"sort"

	"github.com/avelez/optionflow/internal/model"
)

// ATMConfig bounds near-the-money selection and the order-flow heuristic.
type ATMConfig struct {
	Threshold          float64 // Max |strike-spot|/spot to count as near the money
	TopN               int     // Contracts kept per side
	UnusualVolumeRatio float64 // Volume/OI above this is unusual
	TightSpreadRatio   float64 // Bid/ask at or above this is a tight market
}

// DefaultATMConfig returns the standard thresholds.
//
// The flow heuristic's 0.5 and 0.9 cutoffs are a coarse proxy for aggressive
// one-sided buying, kept for continuity with historical signal rows. Treat a
// recalibration as a data-compatibility change, not a tuning knob.
func DefaultATMConfig() ATMConfig {
	return ATMConfig{
		Threshold:          0.02,
		TopN:               3,
		UnusualVolumeRatio: 0.5,
		TightSpreadRatio:   0.9,
	}
}

// SelectATM returns the top near-the-money contracts per side, ordered by
// absolute distance from spot, each annotated by the order-flow heuristic.
func SelectATM(cfg ATMConfig, calls, puts []model.OptionContract, underlying string, spot float64) model.ATMSelection {
	return model.ATMSelection{
		Underlying: underlying,
		Spot:       spot,
		Calls:      selectSide(cfg, calls, spot),
		Puts:       selectSide(cfg, puts, spot),
	}
}

func selectSide(cfg ATMConfig, contracts []model.OptionContract, spot float64) []model.ATMCandidate {
	if spot <= 0 {
		return nil
	}

	var out []model.ATMCandidate
	for _, c := range contracts {
		distance := math.Abs(c.Strike - spot)
		if distance/spot > cfg.Threshold {
			continue
		}
		out = append(out, classify(cfg, c, distance, spot))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})

	if len(out) > cfg.TopN {
		out = out[:cfg.TopN]
	}
	return out
}

// classify runs the order-flow heuristic: a directional signal needs both
// unusual volume and a tight bid/ask (implying aggressive one-sided buying).
func classify(cfg ATMConfig, c model.OptionContract, distance, spot float64) model.ATMCandidate {
	unusual := c.OpenInterest > 0 && c.VolumeOIRatio() > cfg.UnusualVolumeRatio
	tight := c.Ask > 0 && c.Bid >= c.Ask*cfg.TightSpreadRatio

	signal := model.SignalNeutral
	if unusual && tight {
		switch c.Side {
		case model.SideCall:
			signal = model.SignalBullish
		case model.SidePut:
			signal = model.SignalBearish
		}
	}

	return model.ATMCandidate{
		Contract:      c,
		Distance:      distance,
		DistancePct:   distance / spot,
		UnusualVolume: unusual,
		Signal:        signal,
	}
}
