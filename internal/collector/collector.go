package collector

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avelez/optionflow/internal/analytics"
	"github.com/avelez/optionflow/internal/metrics"
	"github.com/avelez/optionflow/internal/model"
)

// ChainSource fetches the current 0DTE chain for an underlying.
type ChainSource interface {
	GetChain(ctx context.Context, symbol string) (*model.Chain, error)
}

// Sink receives a cycle's outputs. Implementations must tolerate partial
// writes; the collector logs sink errors and moves on.
type Sink interface {
	SaveQuotes(ctx context.Context, contracts []model.OptionContract) error
	SaveNakedEvent(ctx context.Context, ev model.NakedPositionEvent) error
	SaveMaxPain(ctx context.Context, mp model.MaxPainPoint) error
}

// Config holds collector configuration.
type Config struct {
	Symbols        []string      // Tracked underlyings, fixed at Start
	Interval       time.Duration // Cycle interval (default: 60s)
	NakedThreshold float64       // Volume/OI multiple (default: 1.5)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:       60 * time.Second,
		NakedThreshold: 1.5,
	}
}

// Collector owns the polling timer and sequences the per-cycle pipeline.
// It is a two-state machine (stopped/running); Start and Stop are idempotent.
type Collector struct {
	cfg      Config
	source   ChainSource
	detector *analytics.Detector
	sink     Sink
	metrics  *metrics.Registry
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	cycles    atomic.Int64
	lastCycle atomic.Int64
}

// New creates a Collector.
func New(cfg Config, source ChainSource, sink Sink, m *metrics.Registry, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.NakedThreshold == 0 {
		cfg.NakedThreshold = DefaultConfig().NakedThreshold
	}
	return &Collector{
		cfg:      cfg,
		source:   source,
		detector: analytics.NewDetector(cfg.NakedThreshold),
		sink:     sink,
		metrics:  m,
		logger:   logger,
	}
}

// Start fires one immediate cycle and arms the repeating timer. Calling Start
// while running is a logged no-op, never a second timer.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		c.logger.Info("collector already running")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true

	c.wg.Add(1)
	go c.run(runCtx)

	c.logger.Info("collector started",
		"symbols", c.cfg.Symbols,
		"interval", c.cfg.Interval,
		"naked_threshold", c.cfg.NakedThreshold,
	)
}

// Stop cancels the timer and waits for any in-flight cycle to wind down.
// Calling Stop while stopped is a no-op.
func (c *Collector) Stop(ctx context.Context) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		c.logger.Info("collector already stopped")
		return
	}
	c.running = false
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("collector stopped")
	case <-ctx.Done():
		c.logger.Warn("collector stop timed out with cycle in flight")
	}
}

// Status returns a point-in-time snapshot of the collector state.
func (c *Collector) Status() model.CollectorStatus {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()

	symbols := make([]string, len(c.cfg.Symbols))
	copy(symbols, c.cfg.Symbols)

	return model.CollectorStatus{
		Running:         running,
		Symbols:         symbols,
		Interval:        c.cfg.Interval,
		NakedThreshold:  c.cfg.NakedThreshold,
		CyclesCompleted: c.cycles.Load(),
		LastCycleAt:     c.lastCycle.Load(),
	}
}

// run is the main polling loop: one immediate cycle, then one per tick.
func (c *Collector) run(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	c.collectAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.collectAll(ctx)
		}
	}
}

// collectAll runs one cycle over all tracked symbols, sequentially. A failed
// symbol is skipped, not retried; the next scheduled cycle is the retry.
func (c *Collector) collectAll(ctx context.Context) {
	start := time.Now()

	var fetched, failed int
	for _, symbol := range c.cfg.Symbols {
		select {
		case <-ctx.Done():
			c.logger.Info("cycle interrupted by shutdown", "completed", fetched)
			return
		default:
		}

		if err := c.collectSymbol(ctx, symbol); err != nil {
			c.logger.Warn("failed to collect symbol",
				"symbol", symbol,
				"err", err,
			)
			c.metrics.RecordFetchError(symbol)
			failed++
			continue
		}
		fetched++
	}

	c.cycles.Add(1)
	c.lastCycle.Store(time.Now().UnixMicro())
	c.metrics.RecordCycle(time.Since(start))

	c.logger.Info("collection cycle complete",
		"symbols", len(c.cfg.Symbols),
		"fetched", fetched,
		"failed", failed,
		"duration", time.Since(start),
	)
}

// collectSymbol fetches one symbol's chain and fans out detection and
// persistence. Sink failures degrade to lost records, never to an aborted
// cycle.
func (c *Collector) collectSymbol(ctx context.Context, symbol string) error {
	chain, err := c.source.GetChain(ctx, symbol)
	if err != nil {
		return err
	}

	if chain.Empty() {
		// Valid on non-trading days: nothing expiring today.
		c.logger.Debug("empty chain", "symbol", symbol)
		return nil
	}

	contracts := make([]model.OptionContract, 0, chain.ContractCount())
	contracts = append(contracts, chain.Calls...)
	contracts = append(contracts, chain.Puts...)
	c.metrics.RecordContracts(symbol, len(contracts))

	for _, contract := range contracts {
		ev := c.detector.Check(contract)
		if ev == nil {
			continue
		}
		c.metrics.RecordAnomaly(symbol)
		c.logger.Info("naked position detected",
			"symbol", ev.Symbol,
			"side", ev.Side,
			"strike", ev.Strike,
			"ratio", ev.Ratio,
		)
		if err := c.sink.SaveNakedEvent(ctx, *ev); err != nil {
			c.logger.Error("persist naked event failed", "symbol", ev.Symbol, "err", err)
			c.metrics.RecordStoreError("naked_position_events")
		}
	}

	if err := c.sink.SaveQuotes(ctx, contracts); err != nil {
		c.logger.Error("persist quotes failed", "symbol", symbol, "count", len(contracts), "err", err)
		c.metrics.RecordStoreError("option_quotes")
	}

	strike, pain := analytics.MaxPain(chain.Calls, chain.Puts)
	if strike > 0 {
		mp := model.MaxPainPoint{
			Underlying: symbol,
			Strike:     strike,
			TotalPain:  pain,
			Spot:       chain.Spot,
			ComputedAt: chain.FetchedAt,
		}
		if err := c.sink.SaveMaxPain(ctx, mp); err != nil {
			c.logger.Error("persist max pain failed", "symbol", symbol, "err", err)
			c.metrics.RecordStoreError("max_pain_points")
		}
	}

	return nil
}
