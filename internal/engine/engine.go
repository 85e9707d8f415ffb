package engine

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"flowradar/internal/aggregator"
	"flowradar/internal/alerts"
	"flowradar/internal/analyzer"
	"flowradar/internal/detectors"
	"flowradar/internal/dispatch"
	"flowradar/internal/domain/flow"
	"flowradar/internal/metrics"
	"flowradar/pkg/errors"
	"flowradar/pkg/logger"
)

// Config assembles the engine and its subsystems
type Config struct {
	// Shards sets the number of symbol-hashed processing shards
	Shards int
	// SyncDispatch delivers alerts inline instead of through the
	// outbound queue; used by tests and batch replays
	SyncDispatch bool
	// SqueezeCooldown suppresses repeated gamma-squeeze alerts per
	// symbol
	SqueezeCooldown time.Duration

	Sweep        detectors.SweepConfig
	Block        detectors.BlockConfig
	DarkPool     detectors.DarkPoolConfig
	FlowAnalyzer detectors.FlowAnalyzerConfig
	Analyzer     analyzer.Config
	Aggregator   aggregator.Config
	Alerts       alerts.Config
	Dispatch     dispatch.Config
}

// DefaultConfig returns the production engine settings
func DefaultConfig() Config {
	return Config{
		Shards:          8,
		SqueezeCooldown: 15 * time.Minute,
		Sweep:           detectors.DefaultSweepConfig(),
		Block:           detectors.DefaultBlockConfig(),
		DarkPool:        detectors.DefaultDarkPoolConfig(),
		FlowAnalyzer:    detectors.DefaultFlowAnalyzerConfig(),
		Analyzer:        analyzer.DefaultConfig(),
		Aggregator:      aggregator.DefaultConfig(),
		Alerts:          alerts.DefaultConfig(),
		Dispatch:        dispatch.DefaultConfig(),
	}
}

// Deps are the engine's optional external dependencies. Nil sinks
// disable persistence; a nil Metrics disables instrumentation.
type Deps struct {
	TradeSink    flow.TradeSink
	PatternSink  flow.PatternSink
	PositionSink flow.PositionSink
	AlertSink    flow.AlertSink
	Metrics      *metrics.Metrics
}

// Result reports what one trade triggered
type Result struct {
	Sequence       uint64
	Classification aggregator.Classification
	Patterns       []*flow.Pattern
	AlertIDs       []string
	Dispatches     []dispatch.Report
}

// shard serializes processing for its slice of the symbol space. All
// detector and analyzer state for an underlying lives in exactly one
// shard, so per-symbol ordering needs no global lock.
type shard struct {
	mu          sync.Mutex
	detectors   []detectors.Detector
	analyzer    *analyzer.MarketMakerAnalyzer
	aggregator  *aggregator.Aggregator
	lastSqueeze map[string]time.Time
}

// Engine is the facade over ingestion, detection, aggregation,
// alerting and dispatch
type Engine struct {
	cfg    Config
	deps   Deps
	log    *logger.Logger
	shards []*shard

	alerts     *alerts.Manager
	dispatcher *dispatch.Dispatcher
	subs       *subscriptions
	stats      *statsCounter

	seq     atomic.Uint64
	stopped atomic.Bool
}

// New assembles an engine
func New(cfg Config, deps Deps) *Engine {
	if cfg.Shards <= 0 {
		cfg.Shards = DefaultConfig().Shards
	}

	shards := make([]*shard, cfg.Shards)
	for i := range shards {
		shards[i] = &shard{
			detectors: []detectors.Detector{
				detectors.NewSweepDetector(cfg.Sweep),
				detectors.NewBlockDetector(cfg.Block),
				detectors.NewDarkPoolDetector(cfg.DarkPool, time.Now),
				detectors.NewFlowPatternAnalyzer(cfg.FlowAnalyzer),
			},
			analyzer:    analyzer.NewMarketMakerAnalyzer(cfg.Analyzer),
			aggregator:  aggregator.New(cfg.Aggregator),
			lastSqueeze: make(map[string]time.Time),
		}
	}

	return &Engine{
		cfg:        cfg,
		deps:       deps,
		log:        logger.Get().With("component", "engine"),
		shards:     shards,
		alerts:     alerts.NewManager(cfg.Alerts, deps.AlertSink),
		dispatcher: dispatch.NewDispatcher(cfg.Dispatch),
		subs:       newSubscriptions(),
		stats:      newStatsCounter(time.Now()),
	}
}

// Dispatcher exposes the channel registry for wiring delivery channels
func (e *Engine) Dispatcher() *dispatch.Dispatcher { return e.dispatcher }

// Alerts exposes the alert manager for queries and acknowledgement
func (e *Engine) Alerts() *alerts.Manager { return e.alerts }

// Start launches the outbound dispatch workers
func (e *Engine) Start(ctx context.Context) {
	if !e.cfg.SyncDispatch {
		e.dispatcher.Start(ctx)
	}
	e.log.Infow("engine started", "shards", len(e.shards), "sync_dispatch", e.cfg.SyncDispatch)
}

// Stop rejects further trades and drains the dispatch queue
func (e *Engine) Stop() {
	if e.stopped.Swap(true) {
		return
	}
	e.dispatcher.Stop()
	e.log.Infow("engine stopped")
}

func (e *Engine) shardFor(underlying string) *shard {
	h := fnv.New32a()
	h.Write([]byte(underlying))
	return e.shards[h.Sum32()%uint32(len(e.shards))]
}

// ProcessTrade runs one trade through the full pipeline. Detector
// failures, sink failures and delivery failures never fail the call;
// only validation and engine shutdown do.
func (e *Engine) ProcessTrade(ctx context.Context, trade *flow.Trade) (*Result, error) {
	if e.stopped.Load() {
		return nil, errors.ErrEngineStopped
	}
	started := time.Now()

	if err := validate(trade); err != nil {
		e.stats.trade(true)
		e.deps.Metrics.TradeRejected()
		return nil, err
	}
	trade.Sequence = e.seq.Add(1)

	sh := e.shardFor(trade.Underlying)
	sh.mu.Lock()

	var patterns []*flow.Pattern
	for _, d := range sh.detectors {
		detected, err := e.runDetector(d, trade)
		if err != nil {
			e.log.Warnw("detector failed",
				"detector", d.Name(), "symbol", trade.Symbol, "error", err)
			continue
		}
		patterns = append(patterns, detected...)
	}

	class := classify(patterns)
	sh.aggregator.Record(trade, class)
	sh.analyzer.Observe(trade)

	var position *flow.MarketMakerPosition
	if len(patterns) > 0 && e.squeezeCheckDue(sh, trade) {
		position = sh.analyzer.Analyze(trade.Underlying, trade.Timestamp)
		if !position.GammaSqueezeRisk {
			position = nil
		} else {
			sh.lastSqueeze[trade.Underlying] = trade.Timestamp
		}
	}
	sh.mu.Unlock()

	result := &Result{
		Sequence:       trade.Sequence,
		Classification: class,
		Patterns:       patterns,
	}

	for _, p := range patterns {
		e.stats.pattern(p.Type)
		e.deps.Metrics.Detection(string(p.Type))
		e.persistPattern(ctx, p)

		if alert := e.alerts.FromPattern(p); alert != nil {
			e.raise(ctx, alert, result)
		}
	}
	if position != nil {
		e.persistPosition(ctx, position)
		if alert := e.alerts.FromPosition(position); alert != nil {
			e.raise(ctx, alert, result)
		}
	}

	e.persistTrade(ctx, trade)
	e.stats.trade(false)
	e.deps.Metrics.TradeProcessed(time.Since(started).Seconds())
	return result, nil
}

// runDetector shields the pipeline from a panicking detector
func (e *Engine) runDetector(d detectors.Detector, trade *flow.Trade) (patterns []*flow.Pattern, err error) {
	defer func() {
		if r := recover(); r != nil {
			patterns = nil
			err = errors.Newf("detector panic: %v", r)
		}
	}()
	return d.Evaluate(trade)
}

func (e *Engine) squeezeCheckDue(sh *shard, trade *flow.Trade) bool {
	if e.cfg.SqueezeCooldown <= 0 {
		return true
	}
	last, ok := sh.lastSqueeze[trade.Underlying]
	return !ok || trade.Timestamp.Sub(last) >= e.cfg.SqueezeCooldown
}

func (e *Engine) raise(ctx context.Context, alert *flow.Alert, result *Result) {
	e.alerts.Raise(ctx, alert)
	e.stats.alert(alert.Severity)
	e.deps.Metrics.AlertRaised(string(alert.Type), string(alert.Severity))
	result.AlertIDs = append(result.AlertIDs, alert.ID)

	e.subs.notify(alert)

	payload := dispatch.NewPayload(alert)
	if e.cfg.SyncDispatch {
		report := e.dispatcher.Dispatch(ctx, payload)
		for _, name := range report.Delivered {
			e.deps.Metrics.Dispatch(name, true)
		}
		for name := range report.Failed {
			e.deps.Metrics.Dispatch(name, false)
		}
		result.Dispatches = append(result.Dispatches, report)
		return
	}
	if err := e.dispatcher.Enqueue(payload); err != nil {
		e.log.Warnw("alert not queued", "alert_id", alert.ID, "error", err)
	}
}

// classify picks the aggregator bucket for a trade from its detections,
// most specific first
func classify(patterns []*flow.Pattern) aggregator.Classification {
	class := aggregator.ClassRegular
	for _, p := range patterns {
		switch p.Type {
		case flow.PatternLargeSweep:
			return aggregator.ClassSweep
		case flow.PatternBlockTrade:
			class = aggregator.ClassBlock
		case flow.PatternDarkPoolPrint:
			if class == aggregator.ClassRegular {
				class = aggregator.ClassDarkPool
			}
		}
	}
	return class
}

func (e *Engine) persistTrade(ctx context.Context, trade *flow.Trade) {
	if e.deps.TradeSink == nil {
		return
	}
	if err := e.deps.TradeSink.InsertTrades(ctx, []flow.Trade{*trade}); err != nil {
		e.log.Warnw("trade persist failed", "symbol", trade.Symbol, "error", err)
	}
}

func (e *Engine) persistPattern(ctx context.Context, p *flow.Pattern) {
	if e.deps.PatternSink == nil {
		return
	}
	if err := e.deps.PatternSink.InsertPattern(ctx, p); err != nil {
		e.log.Warnw("pattern persist failed", "type", p.Type, "error", err)
	}
}

func (e *Engine) persistPosition(ctx context.Context, pos *flow.MarketMakerPosition) {
	if e.deps.PositionSink == nil {
		return
	}
	if err := e.deps.PositionSink.InsertPosition(ctx, pos); err != nil {
		e.log.Warnw("position persist failed", "symbol", pos.Symbol, "error", err)
	}
}

// Subscribe registers a synchronous alert callback; SubscribeAll
// matches every type. The returned func removes the subscription.
func (e *Engine) Subscribe(alertType flow.AlertType, fn Subscriber) func() {
	return e.subs.add(alertType, fn)
}

// ActiveAlerts queries the active set
func (e *Engine) ActiveAlerts(filter alerts.Filter) []*flow.Alert {
	return e.alerts.Active(filter)
}

// Acknowledge marks an alert acknowledged
func (e *Engine) Acknowledge(ctx context.Context, id, actor string) (bool, error) {
	return e.alerts.Acknowledge(ctx, id, actor)
}

// FlowSummary returns the rolling flow rollup for a symbol
func (e *Engine) FlowSummary(symbol string, asOf time.Time) aggregator.Summary {
	sh := e.shardFor(symbol)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.aggregator.Summary(symbol, asOf)
}

// InstitutionalSummary returns the institutional-only rollup
func (e *Engine) InstitutionalSummary(symbol string, asOf time.Time) aggregator.Summary {
	sh := e.shardFor(symbol)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.aggregator.InstitutionalSummary(symbol, asOf)
}

// FlowByStrike returns the per-strike breakdown for one expiration
func (e *Engine) FlowByStrike(symbol string, expiration, asOf time.Time) []aggregator.StrikeFlow {
	sh := e.shardFor(symbol)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.aggregator.FlowByStrike(symbol, expiration, asOf)
}

// Positioning returns the dealer-positioning snapshot for a symbol
func (e *Engine) Positioning(symbol string, asOf time.Time) *flow.MarketMakerPosition {
	sh := e.shardFor(symbol)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.analyzer.Analyze(symbol, asOf)
}

// SetOpenInterest supplies an open-interest chain for max-pain
func (e *Engine) SetOpenInterest(symbol string, chain []analyzer.StrikeOI) {
	sh := e.shardFor(symbol)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.analyzer.SetOpenInterest(symbol, chain)
}

// SnapshotPosition analyzes and persists a symbol's positioning,
// raising a gamma-squeeze alert when warranted. Used by the background
// snapshot worker.
func (e *Engine) SnapshotPosition(ctx context.Context, symbol string, asOf time.Time) *flow.MarketMakerPosition {
	pos := e.Positioning(symbol, asOf)
	e.persistPosition(ctx, pos)
	if alert := e.alerts.FromPosition(pos); alert != nil {
		e.raise(ctx, alert, &Result{})
	}
	return pos
}

// Stats returns a counter snapshot
func (e *Engine) Stats() Stats {
	return e.stats.snapshot()
}

// ResetStats zeroes the counters and restarts the uptime clock
func (e *Engine) ResetStats() {
	e.stats.reset(time.Now())
}
