package detectors

import (
	"time"

	"github.com/markcheno/go-talib"

	"flowradar/internal/domain/flow"
	"flowradar/pkg/logger"
)

// FlowAnalyzerConfig tunes the longer-horizon pattern rules
type FlowAnalyzerConfig struct {
	Window                 time.Duration // rolling window per underlying
	SpreadWindow           time.Duration // sub-window for multi-leg structures
	MinConsecutive         int           // aggressive same-side run length
	InstitutionalFloor     float64       // dollar premium floor per trade
	MinInstitutionalTrades int
	VolumeMultiple         float64       // of the trailing per-minute average
	VolumeBaselineMinutes  int           // SMA period for the volume baseline
	Cooldown               time.Duration // per (underlying, pattern type) re-emit guard
}

// DefaultFlowAnalyzerConfig returns the production thresholds
func DefaultFlowAnalyzerConfig() FlowAnalyzerConfig {
	return FlowAnalyzerConfig{
		Window:                 15 * time.Minute,
		SpreadWindow:           5 * time.Second,
		MinConsecutive:         3,
		InstitutionalFloor:     250_000,
		MinInstitutionalTrades: 3,
		VolumeMultiple:         3,
		VolumeBaselineMinutes:  10,
		Cooldown:               time.Minute,
	}
}

type emitKey struct {
	underlying string
	ptype      flow.PatternType
}

// FlowPatternAnalyzer recognizes directional and structural footprints
// over a longer rolling window per underlying: sustained aggressive
// buying, institutional-size flow, multi-leg structures, and volume
// running ahead of its trailing baseline.
type FlowPatternAnalyzer struct {
	cfg      FlowAnalyzerConfig
	windows  map[string][]*flow.Trade
	lastEmit map[emitKey]time.Time
	log      *logger.Logger
}

// NewFlowPatternAnalyzer creates a flow pattern analyzer
func NewFlowPatternAnalyzer(cfg FlowAnalyzerConfig) *FlowPatternAnalyzer {
	return &FlowPatternAnalyzer{
		cfg:      cfg,
		windows:  make(map[string][]*flow.Trade),
		lastEmit: make(map[emitKey]time.Time),
		log:      logger.Get().With("detector", "flow_pattern"),
	}
}

// Name implements Detector
func (d *FlowPatternAnalyzer) Name() string { return "flow_pattern" }

// Evaluate implements Detector
func (d *FlowPatternAnalyzer) Evaluate(trade *flow.Trade) ([]*flow.Pattern, error) {
	window := d.evict(append(d.windows[trade.Underlying], trade), trade.Timestamp)
	d.windows[trade.Underlying] = window

	var patterns []*flow.Pattern
	if p := d.aggressiveRun(trade, window); p != nil {
		patterns = append(patterns, p)
	}
	if p := d.institutionalFlow(trade, window); p != nil {
		patterns = append(patterns, p)
	}
	if p := d.multiLeg(trade, window); p != nil {
		patterns = append(patterns, p)
	}
	if p := d.unusualVolume(trade, window); p != nil {
		patterns = append(patterns, p)
	}

	for _, p := range patterns {
		d.log.Debugw("flow pattern detected",
			"underlying", p.Underlying,
			"type", p.Type,
			"trades", p.TradeCount,
			"premium", p.Premium,
		)
	}

	return patterns, nil
}

func (d *FlowPatternAnalyzer) evict(window []*flow.Trade, now time.Time) []*flow.Trade {
	cutoff := now.Add(-d.cfg.Window)
	i := 0
	for ; i < len(window); i++ {
		if !window[i].Timestamp.Before(cutoff) {
			break
		}
	}
	return window[i:]
}

// cooled reports whether a pattern type may be emitted for the
// underlying, and records the emission time when it may.
func (d *FlowPatternAnalyzer) cooled(underlying string, ptype flow.PatternType, now time.Time) bool {
	key := emitKey{underlying: underlying, ptype: ptype}
	if last, ok := d.lastEmit[key]; ok && now.Sub(last) < d.cfg.Cooldown {
		return false
	}
	d.lastEmit[key] = now
	return true
}

// aggressiveRun looks for consecutive aggressive same-side trades in
// the same contract ending at the current trade
func (d *FlowPatternAnalyzer) aggressiveRun(trade *flow.Trade, window []*flow.Trade) *flow.Pattern {
	if !trade.Aggressive || !trade.BuyerInitiated() {
		return nil
	}

	var run []*flow.Trade
	for i := len(window) - 1; i >= 0; i-- {
		t := window[i]
		if !t.Aggressive || !t.BuyerInitiated() ||
			t.Type != trade.Type || t.Strike != trade.Strike ||
			!t.Expiration.Equal(trade.Expiration) ||
			t.Underlying != trade.Underlying {
			break
		}
		run = append(run, t)
	}
	if len(run) < d.cfg.MinConsecutive {
		return nil
	}

	ptype := flow.PatternAggressiveCallBuying
	signal := flow.SignalStrongBullish
	if trade.Type == flow.Put {
		ptype = flow.PatternAggressivePutBuying
		signal = flow.SignalStrongBearish
	}
	if !d.cooled(trade.Underlying, ptype, trade.Timestamp) {
		return nil
	}

	p := d.aggregate(ptype, trade, run)
	p.Signal = signal
	p.Confidence = clamp01(0.5 + 0.5*saturate(float64(len(run)-d.cfg.MinConsecutive)))
	return p
}

// institutionalFlow looks for repeated prints above the premium floor
// with a consistent direction across the window
func (d *FlowPatternAnalyzer) institutionalFlow(trade *flow.Trade, window []*flow.Trade) *flow.Pattern {
	if trade.Notional() < d.cfg.InstitutionalFloor {
		return nil
	}

	var big []*flow.Trade
	bullish := 0
	for _, t := range window {
		if t.Notional() < d.cfg.InstitutionalFloor {
			continue
		}
		big = append(big, t)
		if (t.Type == flow.Call) == t.BuyerInitiated() {
			bullish++
		}
	}
	if len(big) < d.cfg.MinInstitutionalTrades {
		return nil
	}

	consistency := float64(bullish) / float64(len(big))
	if consistency < 0.8 && consistency > 0.2 {
		return nil
	}
	if !d.cooled(trade.Underlying, flow.PatternInstitutionalFlow, trade.Timestamp) {
		return nil
	}

	p := d.aggregate(flow.PatternInstitutionalFlow, trade, big)
	p.Signal = flow.SignalFromPremiums(p.CallPremium, p.PutPremium)
	p.Confidence = clamp01(0.4 + 0.3*saturate(float64(len(big)-d.cfg.MinInstitutionalTrades)) + 0.3*consistencyScore(consistency))
	return p
}

func consistencyScore(consistency float64) float64 {
	if consistency < 0.5 {
		consistency = 1 - consistency
	}
	return clamp01(2*consistency - 1)
}

// multiLeg pairs the current trade with a near-simultaneous trade of
// the same underlying: same type at another strike or expiry is a
// spread, opposite type at the same strike and expiry a straddle,
// opposite type at another strike of the same expiry a strangle.
func (d *FlowPatternAnalyzer) multiLeg(trade *flow.Trade, window []*flow.Trade) *flow.Pattern {
	cutoff := trade.Timestamp.Add(-d.cfg.SpreadWindow)

	for i := len(window) - 1; i >= 0; i-- {
		leg := window[i]
		if leg.Timestamp.Before(cutoff) {
			break
		}
		if leg == trade {
			continue
		}

		var ptype flow.PatternType
		switch {
		case leg.Type == trade.Type && (leg.Strike != trade.Strike || !leg.Expiration.Equal(trade.Expiration)):
			ptype = flow.PatternSpread
		case leg.Type != trade.Type && leg.Strike == trade.Strike && leg.Expiration.Equal(trade.Expiration):
			ptype = flow.PatternStraddle
		case leg.Type != trade.Type && leg.Expiration.Equal(trade.Expiration):
			ptype = flow.PatternStrangle
		default:
			continue
		}

		if !d.cooled(trade.Underlying, ptype, trade.Timestamp) {
			return nil
		}

		p := d.aggregate(ptype, trade, []*flow.Trade{leg, trade})
		p.Signal = flow.SignalFromPremiums(p.CallPremium, p.PutPremium)
		p.Confidence = 0.6
		return p
	}

	return nil
}

// unusualVolume compares the current minute's contract volume against
// an SMA of the trailing per-minute buckets
func (d *FlowPatternAnalyzer) unusualVolume(trade *flow.Trade, window []*flow.Trade) *flow.Pattern {
	period := d.cfg.VolumeBaselineMinutes
	if period < 1 {
		return nil
	}

	currentMinute := trade.Timestamp.Truncate(time.Minute)
	buckets := make(map[int64]float64)
	var currentVolume float64
	var currentTrades []*flow.Trade

	for _, t := range window {
		minute := t.Timestamp.Truncate(time.Minute)
		if minute.Equal(currentMinute) {
			currentVolume += float64(t.Size)
			currentTrades = append(currentTrades, t)
			continue
		}
		buckets[minute.Unix()] = buckets[minute.Unix()] + float64(t.Size)
	}

	// Continuous trailing series, zero-filled for quiet minutes
	series := make([]float64, 0, period)
	for m := int64(period); m >= 1; m-- {
		minute := currentMinute.Add(-time.Duration(m) * time.Minute)
		series = append(series, buckets[minute.Unix()])
	}
	if len(series) < period {
		return nil
	}

	sma := talib.Sma(series, period)
	baseline := sma[len(sma)-1]
	if baseline <= 0 || currentVolume < d.cfg.VolumeMultiple*baseline {
		return nil
	}
	if !d.cooled(trade.Underlying, flow.PatternUnusualVolume, trade.Timestamp) {
		return nil
	}

	p := d.aggregate(flow.PatternUnusualVolume, trade, currentTrades)
	p.Signal = flow.SignalFromPremiums(p.CallPremium, p.PutPremium)
	p.Confidence = clamp01(0.4 + 0.6*saturate(currentVolume/(d.cfg.VolumeMultiple*baseline)-1))
	return p
}

func (d *FlowPatternAnalyzer) aggregate(ptype flow.PatternType, trade *flow.Trade, trades []*flow.Trade) *flow.Pattern {
	p := &flow.Pattern{
		Type:       ptype,
		Symbol:     trade.Symbol,
		Underlying: trade.Underlying,
		DetectedAt: trade.Timestamp,
		TradeCount: len(trades),
	}
	for _, t := range trades {
		notional := t.Notional()
		p.Premium += notional
		p.Contracts += t.Size
		if t.Type == flow.Call {
			p.CallPremium += notional
		} else {
			p.PutPremium += notional
		}
	}
	return p
}
