package detectors

import (
	"time"

	"flowradar/internal/domain/flow"
	"flowradar/pkg/logger"
)

// SweepConfig tunes sweep detection thresholds
type SweepConfig struct {
	Window         time.Duration // rolling buffer per contract key
	MinLegs        int           // minimum executions in the group
	MinExchanges   int           // minimum distinct venues
	MinLegNotional float64       // minimum dollar premium per leg
}

// DefaultSweepConfig returns the production thresholds
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Window:         2 * time.Second,
		MinLegs:        4,
		MinExchanges:   2,
		MinLegNotional: 10_000,
	}
}

type sweepKey struct {
	underlying string
	optType    flow.OptionType
	strike     float64
	expiration int64
}

// SweepDetector recognizes one logical order filled as several rapid
// executions across multiple exchanges. It keeps a short rolling
// buffer per (underlying, type, strike, expiration) key and evicts
// stale legs on every call, so memory stays bounded without a timer.
type SweepDetector struct {
	cfg     SweepConfig
	buffers map[sweepKey][]*flow.Trade
	log     *logger.Logger
}

// NewSweepDetector creates a sweep detector
func NewSweepDetector(cfg SweepConfig) *SweepDetector {
	return &SweepDetector{
		cfg:     cfg,
		buffers: make(map[sweepKey][]*flow.Trade),
		log:     logger.Get().With("detector", "sweep"),
	}
}

// Name implements Detector
func (d *SweepDetector) Name() string { return "sweep" }

// Evaluate implements Detector. When the buffered legs for the trade's
// contract key satisfy the sweep criteria, the buffer is consumed and
// exactly one pattern covering all legs is emitted.
func (d *SweepDetector) Evaluate(trade *flow.Trade) ([]*flow.Pattern, error) {
	key := sweepKey{
		underlying: trade.Underlying,
		optType:    trade.Type,
		strike:     trade.Strike,
		expiration: trade.Expiration.Unix(),
	}

	legs := d.evict(append(d.buffers[key], trade), trade.Timestamp)
	d.buffers[key] = legs

	if !d.qualifies(legs) {
		return nil, nil
	}

	pattern := d.buildPattern(trade, legs)

	// Consume the legs so a sweep is reported exactly once
	delete(d.buffers, key)

	d.log.Debugw("sweep detected",
		"underlying", trade.Underlying,
		"strike", trade.Strike,
		"legs", pattern.TradeCount,
		"premium", pattern.Premium,
		"confidence", pattern.Confidence,
	)

	return []*flow.Pattern{pattern}, nil
}

func (d *SweepDetector) evict(legs []*flow.Trade, now time.Time) []*flow.Trade {
	cutoff := now.Add(-d.cfg.Window)
	i := 0
	for ; i < len(legs); i++ {
		if !legs[i].Timestamp.Before(cutoff) {
			break
		}
	}
	return legs[i:]
}

func (d *SweepDetector) qualifies(legs []*flow.Trade) bool {
	if len(legs) < d.cfg.MinLegs {
		return false
	}

	exchanges := make(map[string]struct{}, len(legs))
	for _, leg := range legs {
		if !leg.Aggressive {
			return false
		}
		if leg.Notional() < d.cfg.MinLegNotional {
			return false
		}
		exchanges[leg.Exchange] = struct{}{}
	}

	return len(exchanges) >= d.cfg.MinExchanges
}

func (d *SweepDetector) buildPattern(trade *flow.Trade, legs []*flow.Trade) *flow.Pattern {
	var premium, callPremium, putPremium float64
	var contracts int
	exchanges := make(map[string]struct{}, len(legs))

	for _, leg := range legs {
		notional := leg.Notional()
		premium += notional
		contracts += leg.Size
		exchanges[leg.Exchange] = struct{}{}
		if leg.Type == flow.Call {
			callPremium += notional
		} else {
			putPremium += notional
		}
	}

	return &flow.Pattern{
		Type:        flow.PatternLargeSweep,
		Symbol:      trade.Symbol,
		Underlying:  trade.Underlying,
		DetectedAt:  trade.Timestamp,
		Premium:     premium,
		Contracts:   contracts,
		TradeCount:  len(legs),
		Signal:      sweepSignal(trade),
		Confidence:  d.confidence(len(legs), len(exchanges)),
		CallPremium: callPremium,
		PutPremium:  putPremium,
	}
}

// confidence weighs leg count, venue diversity and execution
// aggressiveness. Aggressiveness contributes a fixed weight because
// qualification already requires every leg to be aggressive.
func (d *SweepDetector) confidence(legs, exchanges int) float64 {
	legScore := clamp01(float64(legs) / float64(2*d.cfg.MinLegs))
	venueScore := clamp01(float64(exchanges) / 4.0)
	return clamp01(0.4*legScore + 0.3*venueScore + 0.3)
}

func sweepSignal(trade *flow.Trade) flow.DirectionalSignal {
	buying := trade.BuyerInitiated()
	if trade.Type == flow.Call {
		if buying {
			return flow.SignalStrongBullish
		}
		return flow.SignalBearish
	}
	if buying {
		return flow.SignalStrongBearish
	}
	return flow.SignalBullish
}
