package store

import (
	"testing"

	"github.com/google/uuid"

	"github.com/avelez/optionflow/internal/model"
)

func TestQuoteToRow(t *testing.T) {
	c := model.OptionContract{
		Symbol:       "SPY 260828C00645000",
		Underlying:   "SPY",
		Side:         model.SideCall,
		Strike:       645,
		Expiration:   "2026-08-28",
		Bid:          1.20,
		Ask:          1.25,
		Last:         1.22,
		Mark:         1.23,
		Volume:       15000,
		OpenInterest: 9000,
		Delta:        0.52,
		Gamma:        0.09,
		Theta:        -0.45,
		Vega:         0.11,
		ImpliedVol:   0.1842,
		InTheMoney:   true,
		FetchedAt:    1756500000000000,
	}

	row := quoteToRow(c)

	if row.Symbol != c.Symbol {
		t.Errorf("Symbol = %q, want %q", row.Symbol, c.Symbol)
	}
	if row.Side != "CALL" {
		t.Errorf("Side = %q, want CALL", row.Side)
	}
	if row.Strike != 645 {
		t.Errorf("Strike = %g, want 645", row.Strike)
	}
	if row.Volume != 15000 || row.OpenInterest != 9000 {
		t.Errorf("Volume/OI = %d/%d, want 15000/9000", row.Volume, row.OpenInterest)
	}
	if row.Delta != 0.52 {
		t.Errorf("Delta = %g, want 0.52", row.Delta)
	}
	if !row.InTheMoney {
		t.Error("InTheMoney = false, want true")
	}
	if row.FetchedAt != 1756500000000000 {
		t.Errorf("FetchedAt = %d, want 1756500000000000", row.FetchedAt)
	}
}

func TestCandidatePayloadRoundTrip_Spread(t *testing.T) {
	spread := &model.SpreadCandidate{
		Underlying: "SPY",
		Side:       model.SideCall,
		ShortLeg:   model.OptionContract{Strike: 650, Bid: 1.20},
		LongLeg:    model.OptionContract{Strike: 655, Ask: 0.60},
		Width:      5,
		Credit:     0.60,
		MaxProfit:  60,
		MaxLoss:    440,
		RiskReward: 60.0 / 440.0,
	}
	c := model.ScoredCandidate{
		ID:     uuid.New(),
		Kind:   model.KindSpread,
		Spread: spread,
	}

	payload, err := candidatePayload(c)
	if err != nil {
		t.Fatalf("candidatePayload failed: %v", err)
	}

	decoded := model.ScoredCandidate{Kind: model.KindSpread}
	if err := decodeCandidatePayload(&decoded, payload); err != nil {
		t.Fatalf("decodeCandidatePayload failed: %v", err)
	}

	if decoded.Spread == nil {
		t.Fatal("Spread = nil after decode")
	}
	if decoded.Spread.Credit != 0.60 {
		t.Errorf("Credit = %g, want 0.60", decoded.Spread.Credit)
	}
	if decoded.Spread.ShortLeg.Strike != 650 {
		t.Errorf("ShortLeg.Strike = %g, want 650", decoded.Spread.ShortLeg.Strike)
	}
}

func TestCandidatePayload_UnknownKind(t *testing.T) {
	c := model.ScoredCandidate{ID: uuid.New(), Kind: "mystery"}

	if _, err := candidatePayload(c); err == nil {
		t.Error("candidatePayload succeeded for unknown kind, want error")
	}
}

func TestDayBounds(t *testing.T) {
	from, to, err := dayBounds("2026-08-28")
	if err != nil {
		t.Fatalf("dayBounds failed: %v", err)
	}

	if to-from != int64(24*60*60*1e6) {
		t.Errorf("window = %d µs, want 24h", to-from)
	}

	if _, _, err := dayBounds("28/08/2026"); err == nil {
		t.Error("dayBounds accepted malformed date")
	}
}
