package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Side identifies the option side of a contract or spread.
type Side string

const (
	SideCall Side = "CALL"
	SidePut  Side = "PUT"
)

// FlowSignal is the directional read from the order-flow heuristic.
type FlowSignal string

const (
	SignalBullish FlowSignal = "bullish"
	SignalBearish FlowSignal = "bearish"
	SignalNeutral FlowSignal = "neutral"
)

// -----------------------------------------------------------------------------
// Chain Snapshot Types
// -----------------------------------------------------------------------------

// OptionContract is an immutable snapshot of one 0DTE contract quote.
type OptionContract struct {
	Symbol     string // Contract symbol (e.g., "SPY 260830C00645000")
	Underlying string // Underlying ticker (e.g., "SPY")
	Side       Side   // CALL or PUT
	Strike     float64
	Expiration string // Expiration date (YYYY-MM-DD)

	Bid  float64 // Best bid, 0 if no bid
	Ask  float64 // Best ask, 0 if no ask
	Last float64 // Last trade price
	Mark float64 // Mark price

	Volume       int64 // Day volume
	OpenInterest int64 // Outstanding contracts at this strike

	Delta      float64
	Gamma      float64
	Theta      float64
	Vega       float64
	ImpliedVol float64 // Implied volatility as a fraction

	DaysToExpiration int  // Always 0 for this pipeline
	InTheMoney       bool

	FetchedAt int64 // Snapshot time (µs since epoch)
}

// VolumeOIRatio returns volume / open interest, or 0 when open interest is 0.
func (c OptionContract) VolumeOIRatio() float64 {
	if c.OpenInterest == 0 {
		return 0
	}
	return float64(c.Volume) / float64(c.OpenInterest)
}

// Chain is the full set of contracts for one underlying at one instant.
// Owned transiently by the collector during a cycle; not retained after fan-out.
type Chain struct {
	Underlying string
	Spot       float64 // Underlying price at fetch time
	FetchedAt  int64   // Fetch time (µs since epoch)
	Calls      []OptionContract
	Puts       []OptionContract
}

// ContractCount returns the total number of contracts in the chain.
func (ch *Chain) ContractCount() int {
	return len(ch.Calls) + len(ch.Puts)
}

// Empty reports whether the chain has no contracts (valid on non-trading days).
func (ch *Chain) Empty() bool {
	return ch.ContractCount() == 0
}

// -----------------------------------------------------------------------------
// Derived Facts
// -----------------------------------------------------------------------------

// NakedPositionEvent records a contract whose traded volume exceeded open
// interest by the configured multiple at detection time. Events are re-emitted
// every cycle while the condition holds; the store keys them by timestamp.
type NakedPositionEvent struct {
	ID           uuid.UUID
	Underlying   string
	Symbol       string // Contract symbol
	Side         Side
	Strike       float64
	Volume       int64
	OpenInterest int64
	Ratio        float64 // volume / open interest
	Threshold    float64 // Threshold in force at detection time
	DetectedAt   int64   // µs since epoch
}

// MaxPainPoint is the per-cycle max-pain snapshot for one underlying.
type MaxPainPoint struct {
	Underlying string
	Strike     float64 // Strike minimizing aggregate intrinsic payout
	TotalPain  float64 // Aggregate payout at that strike (dollars)
	Spot       float64
	ComputedAt int64 // µs since epoch
}

// -----------------------------------------------------------------------------
// Candidate Types
// -----------------------------------------------------------------------------

// SpreadCandidate is a two-leg vertical credit spread on one side of a chain.
//
// For CALL spreads the short strike is below the long strike; for PUT spreads
// the convention inverts.
type SpreadCandidate struct {
	Underlying string
	Side       Side
	ShortLeg   OptionContract // Sold leg
	LongLeg    OptionContract // Bought leg

	Width     float64 // |short.Strike - long.Strike|
	Credit    float64 // short.Bid - long.Ask
	MaxProfit float64 // Credit × 100
	MaxLoss   float64 // (Width - Credit) × 100
	BreakEven float64 // Short strike ± credit depending on side
	RiskReward float64 // MaxProfit / MaxLoss, 0 when MaxLoss <= 0

	// ProbabilityOfProfit is approximated from the short leg's delta; it is a
	// coarse estimate, not a pricing-model output.
	ProbabilityOfProfit float64
}

// Describe returns a human-readable one-line summary of the spread.
func (s SpreadCandidate) Describe() string {
	return fmt.Sprintf("%s 0DTE %s credit spread %g/%g credit %.2f",
		s.Underlying, s.Side, s.ShortLeg.Strike, s.LongLeg.Strike, s.Credit)
}

// ATMCandidate is a contract near the money, annotated by the order-flow
// heuristic.
type ATMCandidate struct {
	Contract    OptionContract
	Distance    float64 // |strike - spot|
	DistancePct float64 // Distance / spot

	UnusualVolume bool       // volume/OI above the unusual-volume ratio
	Signal        FlowSignal // bullish/bearish only with unusual volume and a tight market
}

// ATMSelection holds the top near-the-money contracts per side.
type ATMSelection struct {
	Underlying string
	Spot       float64
	Calls      []ATMCandidate
	Puts       []ATMCandidate
}

// -----------------------------------------------------------------------------
// Scoring Types
// -----------------------------------------------------------------------------

// CandidateKind distinguishes what a ScoredCandidate wraps.
type CandidateKind string

const (
	KindSpread CandidateKind = "spread"
	KindATM    CandidateKind = "atm"
)

// ScoredCandidate is a spread or ATM candidate augmented with an external
// ranking. Failed distinguishes a scoring-service failure from a genuine
// zero score; failed rows keep Score and Confidence at 0.
type ScoredCandidate struct {
	ID         uuid.UUID
	Kind       CandidateKind
	Underlying string
	Side       Side
	Summary    string // One-line candidate description

	Spread *SpreadCandidate // Set when Kind == KindSpread
	ATM    *ATMCandidate    // Set when Kind == KindATM

	Score      float64 // 0-100
	Confidence float64 // 0-100
	Rationale  string
	Model      string // Identifier of the scoring service/model
	Failed     bool   // Scoring-service failure, not a low score

	ScoredAt int64 // µs since epoch
}

// -----------------------------------------------------------------------------
// Aggregates & Status
// -----------------------------------------------------------------------------

// DailyAggregate is the per-underlying daily rollup.
type DailyAggregate struct {
	Underlying       string
	Day              string // YYYY-MM-DD
	QuoteCount       int64
	AnomalyCount     int64
	AvgVolumeOIRatio float64
	ClosingMaxPain   float64 // Last max-pain strike recorded that day, 0 if none
	ComputedAt       int64   // µs since epoch
}

// CollectorStatus is a point-in-time snapshot of the collector state machine.
// Process-local only; not persisted across restarts.
type CollectorStatus struct {
	Running         bool          `json:"running"`
	Symbols         []string      `json:"symbols"`
	Interval        time.Duration `json:"interval"`
	NakedThreshold  float64       `json:"naked_threshold"`
	CyclesCompleted int64         `json:"cycles_completed"`
	LastCycleAt     int64         `json:"last_cycle_at"` // µs since epoch, 0 before first cycle
}
