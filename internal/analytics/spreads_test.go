package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelez/optionflow/internal/model"
)

func quoted(side model.Side, strike, bid, ask, delta float64) model.OptionContract {
	return model.OptionContract{
		Underlying: "SPY",
		Side:       side,
		Strike:     strike,
		Bid:        bid,
		Ask:        ask,
		Delta:      delta,
	}
}

func TestEnumerate_ReferenceCallSpread(t *testing.T) {
	e := NewSpreadEnumerator(DefaultSpreadConfig())

	contracts := []model.OptionContract{
		quoted(model.SideCall, 650, 1.20, 1.25, 0.30),
		quoted(model.SideCall, 655, 0.55, 0.60, 0.15),
	}

	spreads := e.Enumerate(contracts, model.SideCall, 645)
	require.Len(t, spreads, 1)

	s := spreads[0]
	assert.Equal(t, 650.0, s.ShortLeg.Strike, "CALL spread sells the lower strike")
	assert.Equal(t, 655.0, s.LongLeg.Strike)
	assert.Equal(t, 5.0, s.Width)
	assert.InDelta(t, 0.60, s.Credit, 1e-9)
	assert.InDelta(t, 60.0, s.MaxProfit, 1e-9)
	assert.InDelta(t, 440.0, s.MaxLoss, 1e-9)
	assert.InDelta(t, 0.1364, s.RiskReward, 0.001)
	assert.InDelta(t, 650.60, s.BreakEven, 1e-9)
	assert.InDelta(t, 0.70, s.ProbabilityOfProfit, 1e-9)
}

func TestEnumerate_PutConventionInverts(t *testing.T) {
	e := NewSpreadEnumerator(DefaultSpreadConfig())

	contracts := []model.OptionContract{
		quoted(model.SidePut, 635, 0.40, 0.45, -0.10),
		quoted(model.SidePut, 640, 1.10, 1.15, -0.25),
	}

	spreads := e.Enumerate(contracts, model.SidePut, 645)
	require.Len(t, spreads, 1)

	s := spreads[0]
	assert.Equal(t, 640.0, s.ShortLeg.Strike, "PUT spread sells the higher strike")
	assert.Equal(t, 635.0, s.LongLeg.Strike)
	assert.InDelta(t, 1.10-0.45, s.Credit, 1e-9)
	assert.InDelta(t, 640-(1.10-0.45), s.BreakEven, 1e-9, "PUT break-even is below the short strike")
	assert.InDelta(t, 0.75, s.ProbabilityOfProfit, 1e-9)
}

func TestEnumerate_ExcludesThinCredit(t *testing.T) {
	e := NewSpreadEnumerator(DefaultSpreadConfig())

	// short bid 2.00, long ask 1.60 -> credit 0.40 < 0.50 -> excluded
	contracts := []model.OptionContract{
		quoted(model.SideCall, 650, 2.00, 2.05, 0.40),
		quoted(model.SideCall, 655, 1.55, 1.60, 0.25),
	}

	assert.Empty(t, e.Enumerate(contracts, model.SideCall, 648))
}

func TestEnumerate_WidthAndCreditBoundsHold(t *testing.T) {
	cfg := DefaultSpreadConfig()
	e := NewSpreadEnumerator(cfg)

	// Dense ladder with mixed quotes; every emitted candidate must satisfy the
	// bounds regardless of which pairs survive.
	var contracts []model.OptionContract
	for i := 0; i < 15; i++ {
		strike := 600.0 + float64(i)*2.5 // 2.5-wide ladder: some pairs under MinWidth
		bid := 8.0 - float64(i)*0.55
		if bid < 0 {
			bid = 0
		}
		contracts = append(contracts, quoted(model.SideCall, strike, bid, bid+0.10, 0.5-float64(i)*0.03))
	}

	spreads := e.Enumerate(contracts, model.SideCall, 612)
	require.NotEmpty(t, spreads)

	for _, s := range spreads {
		assert.GreaterOrEqual(t, s.Width, cfg.MinWidth)
		assert.LessOrEqual(t, s.Width, cfg.MaxWidth)
		assert.GreaterOrEqual(t, s.Credit, cfg.MinCredit)
		assert.Less(t, s.ShortLeg.Strike, s.LongLeg.Strike, "CALL short strike below long strike")
	}
}

func TestEnumerate_SortedByRiskRewardDescending(t *testing.T) {
	e := NewSpreadEnumerator(DefaultSpreadConfig())

	var contracts []model.OptionContract
	for i := 0; i < 10; i++ {
		strike := 600.0 + float64(i)*5
		bid := 6.0 - float64(i)*0.62
		if bid < 0 {
			bid = 0
		}
		contracts = append(contracts, quoted(model.SideCall, strike, bid, bid+0.08, 0.45-float64(i)*0.04))
	}

	spreads := e.Enumerate(contracts, model.SideCall, 610)
	require.Greater(t, len(spreads), 1)

	for i := 1; i < len(spreads); i++ {
		assert.GreaterOrEqual(t, spreads[i-1].RiskReward, spreads[i].RiskReward,
			"output must be non-increasing by risk/reward")
	}
}

func TestEnumerate_Deterministic(t *testing.T) {
	e := NewSpreadEnumerator(DefaultSpreadConfig())

	contracts := []model.OptionContract{
		quoted(model.SideCall, 655, 0.55, 0.60, 0.15),
		quoted(model.SideCall, 650, 1.20, 1.25, 0.30),
		quoted(model.SideCall, 660, 0.20, 0.25, 0.08),
	}

	first := e.Enumerate(contracts, model.SideCall, 645)
	second := e.Enumerate(contracts, model.SideCall, 645)
	assert.Equal(t, first, second)
}

func TestEnumerate_IgnoresOtherSide(t *testing.T) {
	e := NewSpreadEnumerator(DefaultSpreadConfig())

	contracts := []model.OptionContract{
		quoted(model.SideCall, 650, 1.20, 1.25, 0.30),
		quoted(model.SidePut, 655, 9.00, 9.10, -0.80), // would pair if sides were mixed
	}

	assert.Empty(t, e.Enumerate(contracts, model.SideCall, 645))
}
