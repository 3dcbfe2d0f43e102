package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelez/optionflow/internal/model"
	"github.com/avelez/optionflow/internal/scoring"
)

type fakeChains struct {
	chain *model.Chain
	err   error
}

func (f *fakeChains) GetChain(ctx context.Context, symbol string) (*model.Chain, error) {
	return f.chain, f.err
}

type captureStore struct {
	saved []model.ScoredCandidate
	err   error
}

func (c *captureStore) SaveScoredCandidates(ctx context.Context, candidates []model.ScoredCandidate) error {
	c.saved = append(c.saved, candidates...)
	return c.err
}

func ladderChain() *model.Chain {
	var calls []model.OptionContract
	for i := 0; i < 8; i++ {
		strike := 640.0 + float64(i)*5
		bid := 4.0 - float64(i)*0.5
		if bid < 0 {
			bid = 0
		}
		calls = append(calls, model.OptionContract{
			Underlying: "SPY",
			Side:       model.SideCall,
			Strike:     strike,
			Bid:        bid,
			Ask:        bid + 0.05,
			Delta:      0.5 - float64(i)*0.05,
			Volume:     700,
			OpenInterest: 1000,
		})
	}
	return &model.Chain{Underlying: "SPY", Spot: 645, Calls: calls}
}

func TestService_BestSpreads_ScoresAndPersists(t *testing.T) {
	store := &captureStore{}
	scorer := scoring.ScorerFunc(func(ctx context.Context, req scoring.Request) (scoring.Result, error) {
		return scoring.Result{Score: 80, Confidence: 70, Rationale: "ok", Model: "ranker-v2"}, nil
	})

	svc := NewService(DefaultServiceConfig(), &fakeChains{chain: ladderChain()}, scorer, store, nil, nil)

	scored, err := svc.BestSpreads(context.Background(), "SPY", model.SideCall)
	require.NoError(t, err)
	require.NotEmpty(t, scored)

	for _, sc := range scored {
		assert.Equal(t, model.KindSpread, sc.Kind)
		assert.False(t, sc.Failed)
		assert.Equal(t, 80.0, sc.Score)
		assert.Equal(t, "ranker-v2", sc.Model)
		require.NotNil(t, sc.Spread)
		assert.NotEmpty(t, sc.Summary)
	}

	assert.Equal(t, len(scored), len(store.saved), "all scored candidates persisted")
}

func TestService_BestSpreads_TopNCap(t *testing.T) {
	cfg := DefaultServiceConfig()
	cfg.TopScored = 2

	var calls int
	scorer := scoring.ScorerFunc(func(ctx context.Context, req scoring.Request) (scoring.Result, error) {
		calls++
		return scoring.Result{Score: 50}, nil
	})

	svc := NewService(cfg, &fakeChains{chain: ladderChain()}, scorer, nil, nil, nil)

	scored, err := svc.BestSpreads(context.Background(), "SPY", model.SideCall)
	require.NoError(t, err)

	assert.Len(t, scored, 2)
	assert.Equal(t, 2, calls, "only top-N candidates reach the scorer")
}

func TestService_ScoringFailureSubstitutesPlaceholder(t *testing.T) {
	var n int
	scorer := scoring.ScorerFunc(func(ctx context.Context, req scoring.Request) (scoring.Result, error) {
		n++
		if n == 1 {
			return scoring.Result{}, errors.New("model timeout")
		}
		return scoring.Result{Score: 65, Confidence: 55, Model: "ranker-v2"}, nil
	})

	svc := NewService(DefaultServiceConfig(), &fakeChains{chain: ladderChain()}, scorer, nil, nil, nil)

	scored, err := svc.BestSpreads(context.Background(), "SPY", model.SideCall)
	require.NoError(t, err, "one scoring failure must not abort the batch")
	require.Greater(t, len(scored), 1)

	first := scored[0]
	assert.True(t, first.Failed, "failure flagged explicitly, not just score=0")
	assert.Zero(t, first.Score)
	assert.Zero(t, first.Confidence)
	assert.Contains(t, first.Rationale, "scoring unavailable")

	assert.False(t, scored[1].Failed)
	assert.Equal(t, 65.0, scored[1].Score)
}

func TestService_ATMSignals(t *testing.T) {
	chain := ladderChain()
	// Make the 645 call tight and busy so the heuristic fires.
	chain.Calls[1].Bid = 3.45
	chain.Calls[1].Ask = 3.50
	chain.Puts = []model.OptionContract{
		{Underlying: "SPY", Side: model.SidePut, Strike: 645, Bid: 1.0, Ask: 1.05, Volume: 100, OpenInterest: 1000},
	}

	store := &captureStore{}
	scorer := scoring.ScorerFunc(func(ctx context.Context, req scoring.Request) (scoring.Result, error) {
		return scoring.Result{Score: 40, Confidence: 30, Model: "ranker-v2"}, nil
	})

	svc := NewService(DefaultServiceConfig(), &fakeChains{chain: chain}, scorer, store, nil, nil)

	sel, scored, err := svc.ATMSignals(context.Background(), "SPY")
	require.NoError(t, err)

	assert.LessOrEqual(t, len(sel.Calls), 3)
	assert.LessOrEqual(t, len(sel.Puts), 3)
	assert.Equal(t, len(sel.Calls)+len(sel.Puts), len(scored))
	assert.Equal(t, len(scored), len(store.saved))

	for _, sc := range scored {
		assert.Equal(t, model.KindATM, sc.Kind)
		require.NotNil(t, sc.ATM)
	}
}

func TestService_FetchFailurePropagates(t *testing.T) {
	svc := NewService(DefaultServiceConfig(), &fakeChains{err: errors.New("upstream 500")}, nil, nil, nil, nil)

	_, err := svc.BestSpreads(context.Background(), "SPY", model.SideCall)
	require.Error(t, err)
}

func TestService_PersistFailureDoesNotAbort(t *testing.T) {
	store := &captureStore{err: errors.New("db down")}
	scorer := scoring.ScorerFunc(func(ctx context.Context, req scoring.Request) (scoring.Result, error) {
		return scoring.Result{Score: 70}, nil
	})

	svc := NewService(DefaultServiceConfig(), &fakeChains{chain: ladderChain()}, scorer, store, nil, nil)

	scored, err := svc.BestSpreads(context.Background(), "SPY", model.SideCall)
	require.NoError(t, err, "persistence failure is logged, results still returned")
	assert.NotEmpty(t, scored)
}
