package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelez/optionflow/internal/model"
)

func flowContract(side model.Side, strike, bid, ask float64, volume, oi int64) model.OptionContract {
	return model.OptionContract{
		Underlying:   "SPY",
		Side:         side,
		Strike:       strike,
		Bid:          bid,
		Ask:          ask,
		Volume:       volume,
		OpenInterest: oi,
	}
}

func TestSelectATM_FiltersAndRanks(t *testing.T) {
	cfg := DefaultATMConfig()
	spot := 645.0

	calls := []model.OptionContract{
		flowContract(model.SideCall, 640, 5.0, 5.1, 100, 1000),
		flowContract(model.SideCall, 645, 1.2, 1.25, 100, 1000),
		flowContract(model.SideCall, 650, 0.4, 0.45, 100, 1000),
		flowContract(model.SideCall, 655, 0.1, 0.15, 100, 1000),
		flowContract(model.SideCall, 700, 0.01, 0.05, 100, 1000), // far out of range
	}

	sel := SelectATM(cfg, calls, nil, "SPY", spot)

	require.LessOrEqual(t, len(sel.Calls), 3, "never more than 3 per side")
	require.NotEmpty(t, sel.Calls)

	for _, c := range sel.Calls {
		assert.LessOrEqual(t, math.Abs(c.Contract.Strike-spot)/spot, cfg.Threshold,
			"strike %g outside 2%% of spot", c.Contract.Strike)
	}

	// Ascending by absolute distance: 645 first.
	assert.Equal(t, 645.0, sel.Calls[0].Contract.Strike)
	for i := 1; i < len(sel.Calls); i++ {
		assert.GreaterOrEqual(t, sel.Calls[i].Distance, sel.Calls[i-1].Distance)
	}
}

func TestSelectATM_TruncatesToTopN(t *testing.T) {
	cfg := DefaultATMConfig()
	spot := 645.0

	var calls []model.OptionContract
	for _, strike := range []float64{639, 641, 643, 645, 647, 649, 651} {
		calls = append(calls, flowContract(model.SideCall, strike, 1, 1.05, 10, 100))
	}

	sel := SelectATM(cfg, calls, nil, "SPY", spot)
	assert.Len(t, sel.Calls, 3)
}

func TestClassify_BullishCall(t *testing.T) {
	cfg := DefaultATMConfig()

	// vol/OI = 0.6 > 0.5 and bid 0.95 >= 0.9 x ask 1.00: tight, unusual.
	c := flowContract(model.SideCall, 645, 0.95, 1.00, 600, 1000)
	got := classify(cfg, c, 0, 645)

	assert.True(t, got.UnusualVolume)
	assert.Equal(t, model.SignalBullish, got.Signal)
}

func TestClassify_BearishPut(t *testing.T) {
	cfg := DefaultATMConfig()

	p := flowContract(model.SidePut, 645, 0.95, 1.00, 600, 1000)
	got := classify(cfg, p, 0, 645)

	assert.True(t, got.UnusualVolume)
	assert.Equal(t, model.SignalBearish, got.Signal)
}

func TestClassify_NeutralWithoutTightMarket(t *testing.T) {
	cfg := DefaultATMConfig()

	// Unusual volume but wide market: bid 0.70 < 0.9 x ask 1.00.
	c := flowContract(model.SideCall, 645, 0.70, 1.00, 600, 1000)
	got := classify(cfg, c, 0, 645)

	assert.True(t, got.UnusualVolume)
	assert.Equal(t, model.SignalNeutral, got.Signal)
}

func TestClassify_NeutralWithoutUnusualVolume(t *testing.T) {
	cfg := DefaultATMConfig()

	// Tight market but vol/OI = 0.3.
	c := flowContract(model.SideCall, 645, 0.95, 1.00, 300, 1000)
	got := classify(cfg, c, 0, 645)

	assert.False(t, got.UnusualVolume)
	assert.Equal(t, model.SignalNeutral, got.Signal)
}

func TestClassify_ZeroOpenInterestIsNotUnusual(t *testing.T) {
	cfg := DefaultATMConfig()

	c := flowContract(model.SideCall, 645, 0.95, 1.00, 5000, 0)
	got := classify(cfg, c, 0, 645)

	assert.False(t, got.UnusualVolume)
	assert.Equal(t, model.SignalNeutral, got.Signal)
}

func TestSelectATM_ZeroSpot(t *testing.T) {
	sel := SelectATM(DefaultATMConfig(), []model.OptionContract{
		flowContract(model.SideCall, 645, 1, 1.05, 10, 100),
	}, nil, "SPY", 0)

	assert.Empty(t, sel.Calls)
	assert.Empty(t, sel.Puts)
}
