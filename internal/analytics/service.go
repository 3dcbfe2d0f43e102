package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/avelez/optionflow/internal/metrics"
	"github.com/avelez/optionflow/internal/model"
	"github.com/avelez/optionflow/internal/scoring"
)

// ChainProvider supplies a fresh chain for on-demand analysis.
type ChainProvider interface {
	GetChain(ctx context.Context, symbol string) (*model.Chain, error)
}

// CandidateStore persists scored candidates.
type CandidateStore interface {
	SaveScoredCandidates(ctx context.Context, candidates []model.ScoredCandidate) error
}

// ServiceConfig bounds on-demand analysis.
type ServiceConfig struct {
	Spreads   SpreadConfig
	ATM       ATMConfig
	TopScored int // Max candidates sent to the scoring service per request
}

// DefaultServiceConfig returns standard analysis bounds.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Spreads:   DefaultSpreadConfig(),
		ATM:       DefaultATMConfig(),
		TopScored: 20,
	}
}

// Service runs on-demand analysis: fetch a chain, enumerate candidates, hand
// them to the external scorer one at a time, and persist the results. A
// scoring failure yields a placeholder row flagged Failed and never aborts
// the batch; a persistence failure is logged and the computed results are
// still returned.
type Service struct {
	cfg     ServiceConfig
	chains  ChainProvider
	scorer  scoring.Scorer
	store   CandidateStore
	spreads *SpreadEnumerator
	metrics *metrics.Registry
	logger  *slog.Logger
}

// NewService creates an analysis service. store and scorer may be nil for
// compute-only use (the scan CLI does this).
func NewService(cfg ServiceConfig, chains ChainProvider, scorer scoring.Scorer, store CandidateStore, m *metrics.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:     cfg,
		chains:  chains,
		scorer:  scorer,
		store:   store,
		spreads: NewSpreadEnumerator(cfg.Spreads),
		metrics: m,
		logger:  logger,
	}
}

// BestSpreads fetches the symbol's chain, enumerates credit spreads on the
// requested side, and returns the top candidates scored and persisted.
func (s *Service) BestSpreads(ctx context.Context, symbol string, side model.Side) ([]model.ScoredCandidate, error) {
	chain, err := s.chains.GetChain(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch chain: %w", err)
	}

	contracts := chain.Calls
	if side == model.SidePut {
		contracts = chain.Puts
	}

	candidates := s.spreads.Enumerate(contracts, side, chain.Spot)
	if len(candidates) > s.cfg.TopScored {
		candidates = candidates[:s.cfg.TopScored]
	}

	scored := make([]model.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, s.scoreSpread(ctx, chain, c))
	}

	s.persist(ctx, scored)

	s.logger.Info("spread analysis complete",
		"symbol", symbol,
		"side", side,
		"candidates", len(scored),
	)

	return scored, nil
}

// ATMSignals fetches the symbol's chain, selects near-the-money contracts per
// side, and returns them scored and persisted alongside the raw selection.
func (s *Service) ATMSignals(ctx context.Context, symbol string) (model.ATMSelection, []model.ScoredCandidate, error) {
	chain, err := s.chains.GetChain(ctx, symbol)
	if err != nil {
		return model.ATMSelection{}, nil, fmt.Errorf("fetch chain: %w", err)
	}

	selection := SelectATM(s.cfg.ATM, chain.Calls, chain.Puts, symbol, chain.Spot)

	all := make([]model.ATMCandidate, 0, len(selection.Calls)+len(selection.Puts))
	all = append(all, selection.Calls...)
	all = append(all, selection.Puts...)

	scored := make([]model.ScoredCandidate, 0, len(all))
	for _, c := range all {
		scored = append(scored, s.scoreATM(ctx, chain, c))
	}

	s.persist(ctx, scored)

	s.logger.Info("atm analysis complete",
		"symbol", symbol,
		"spot", chain.Spot,
		"calls", len(selection.Calls),
		"puts", len(selection.Puts),
	)

	return selection, scored, nil
}

func (s *Service) scoreSpread(ctx context.Context, chain *model.Chain, c model.SpreadCandidate) model.ScoredCandidate {
	sc := model.ScoredCandidate{
		ID:         uuid.New(),
		Kind:       model.KindSpread,
		Underlying: c.Underlying,
		Side:       c.Side,
		Summary:    c.Describe(),
		Spread:     &c,
		ScoredAt:   time.Now().UnixMicro(),
	}

	req := scoring.Request{
		Kind:       string(model.KindSpread),
		Underlying: c.Underlying,
		Spot:       chain.Spot,
		Summary:    sc.Summary,
		Metrics: map[string]float64{
			"short_strike":          c.ShortLeg.Strike,
			"long_strike":           c.LongLeg.Strike,
			"width":                 c.Width,
			"credit":                c.Credit,
			"max_profit":            c.MaxProfit,
			"max_loss":              c.MaxLoss,
			"break_even":            c.BreakEven,
			"risk_reward":           c.RiskReward,
			"probability_of_profit": c.ProbabilityOfProfit,
			"short_delta":           c.ShortLeg.Delta,
			"short_iv":              c.ShortLeg.ImpliedVol,
		},
	}

	s.applyScore(ctx, &sc, req)
	return sc
}

func (s *Service) scoreATM(ctx context.Context, chain *model.Chain, c model.ATMCandidate) model.ScoredCandidate {
	sc := model.ScoredCandidate{
		ID:         uuid.New(),
		Kind:       model.KindATM,
		Underlying: c.Contract.Underlying,
		Side:       c.Contract.Side,
		Summary: fmt.Sprintf("%s 0DTE %s %g ATM (%s)",
			c.Contract.Underlying, c.Contract.Side, c.Contract.Strike, c.Signal),
		ATM:      &c,
		ScoredAt: time.Now().UnixMicro(),
	}

	req := scoring.Request{
		Kind:       string(model.KindATM),
		Underlying: c.Contract.Underlying,
		Spot:       chain.Spot,
		Summary:    sc.Summary,
		Metrics: map[string]float64{
			"strike":       c.Contract.Strike,
			"distance_pct": c.DistancePct,
			"bid":          c.Contract.Bid,
			"ask":          c.Contract.Ask,
			"volume":       float64(c.Contract.Volume),
			"open_interest": float64(c.Contract.OpenInterest),
			"vol_oi_ratio": c.Contract.VolumeOIRatio(),
			"delta":        c.Contract.Delta,
		},
		Context: string(c.Signal),
	}

	s.applyScore(ctx, &sc, req)
	return sc
}

// applyScore calls the external scorer, substituting a Failed placeholder on
// error so one bad call never sinks the batch.
func (s *Service) applyScore(ctx context.Context, sc *model.ScoredCandidate, req scoring.Request) {
	if s.scorer == nil {
		sc.Failed = true
		sc.Rationale = "no scoring service configured"
		return
	}

	res, err := s.scorer.Score(ctx, req)
	if err != nil {
		s.logger.Warn("scoring failed",
			"candidate", sc.Summary,
			"err", err,
		)
		s.metrics.RecordScoring(true)
		sc.Failed = true
		sc.Rationale = "scoring unavailable: " + err.Error()
		return
	}

	s.metrics.RecordScoring(false)
	sc.Score = res.Score
	sc.Confidence = res.Confidence
	sc.Rationale = res.Rationale
	sc.Model = res.Model
}

// persist writes scored candidates; failure is logged, not propagated, since
// the computation already succeeded.
func (s *Service) persist(ctx context.Context, scored []model.ScoredCandidate) {
	if s.store == nil || len(scored) == 0 {
		return
	}
	if err := s.store.SaveScoredCandidates(ctx, scored); err != nil {
		s.logger.Error("persist scored candidates failed",
			"count", len(scored),
			"err", err,
		)
		s.metrics.RecordStoreError("scored_candidates")
	}
}
