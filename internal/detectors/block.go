package detectors

import (
	"flowradar/internal/domain/flow"
	"flowradar/pkg/logger"
)

// BlockConfig tunes block-trade detection thresholds
type BlockConfig struct {
	MinContracts  int     // absolute size floor
	SizeMultiple  float64 // multiple of the symbol's rolling average size
	MinPremium    float64 // minimum total dollar premium
	AverageWindow int     // trades kept in the rolling average
}

// DefaultBlockConfig returns the production thresholds
func DefaultBlockConfig() BlockConfig {
	return BlockConfig{
		MinContracts:  100,
		SizeMultiple:  10,
		MinPremium:    100_000,
		AverageWindow: 50,
	}
}

type sizeHistory struct {
	sizes []int
	sum   int
	next  int
}

func (h *sizeHistory) add(size int, capacity int) {
	if len(h.sizes) < capacity {
		h.sizes = append(h.sizes, size)
		h.sum += size
		return
	}
	h.sum += size - h.sizes[h.next]
	h.sizes[h.next] = size
	h.next = (h.next + 1) % capacity
}

func (h *sizeHistory) average() float64 {
	if len(h.sizes) == 0 {
		return 0
	}
	return float64(h.sum) / float64(len(h.sizes))
}

// BlockDetector flags single large negotiated fills. A trade is a
// block when it clears the absolute contract floor, exceeds a multiple
// of the symbol's rolling average size, and carries enough premium.
// The rolling average excludes the trade under evaluation; with no
// history only the absolute thresholds apply.
type BlockDetector struct {
	cfg     BlockConfig
	history map[string]*sizeHistory
	log     *logger.Logger
}

// NewBlockDetector creates a block detector
func NewBlockDetector(cfg BlockConfig) *BlockDetector {
	return &BlockDetector{
		cfg:     cfg,
		history: make(map[string]*sizeHistory),
		log:     logger.Get().With("detector", "block"),
	}
}

// Name implements Detector
func (d *BlockDetector) Name() string { return "block" }

// Evaluate implements Detector
func (d *BlockDetector) Evaluate(trade *flow.Trade) ([]*flow.Pattern, error) {
	hist, ok := d.history[trade.Underlying]
	if !ok {
		hist = &sizeHistory{}
		d.history[trade.Underlying] = hist
	}

	avg := hist.average()
	hist.add(trade.Size, d.cfg.AverageWindow)

	if trade.Size < d.cfg.MinContracts {
		return nil, nil
	}
	if avg > 0 && float64(trade.Size) < d.cfg.SizeMultiple*avg {
		return nil, nil
	}
	if trade.Notional() < d.cfg.MinPremium {
		return nil, nil
	}

	pattern := &flow.Pattern{
		Type:       flow.PatternBlockTrade,
		Symbol:     trade.Symbol,
		Underlying: trade.Underlying,
		DetectedAt: trade.Timestamp,
		Premium:    trade.Notional(),
		Contracts:  trade.Size,
		TradeCount: 1,
		Signal:     blockSignal(trade),
		Confidence: d.confidence(trade, avg),
	}
	if trade.Type == flow.Call {
		pattern.CallPremium = trade.Notional()
	} else {
		pattern.PutPremium = trade.Notional()
	}

	d.log.Debugw("block detected",
		"underlying", trade.Underlying,
		"size", trade.Size,
		"premium", pattern.Premium,
		"opening", trade.Opening,
		"confidence", pattern.Confidence,
	)

	return []*flow.Pattern{pattern}, nil
}

// confidence grows with how far the trade clears the size and premium
// floors. Both terms saturate, so confidence is monotonic in size and
// bounded below 1.
func (d *BlockDetector) confidence(trade *flow.Trade, avg float64) float64 {
	sizeExcess := float64(trade.Size)/float64(d.cfg.MinContracts) - 1
	premiumExcess := trade.Notional()/d.cfg.MinPremium - 1

	score := 0.5 + 0.3*saturate(sizeExcess) + 0.2*saturate(premiumExcess)

	if avg > 0 {
		multipleExcess := float64(trade.Size)/(d.cfg.SizeMultiple*avg) - 1
		score += 0.1 * saturate(multipleExcess)
	}

	return clamp01(score)
}

// blockSignal leans on the opening-position flag: an opening block is
// a conviction bet, a closing block is unwound exposure.
func blockSignal(trade *flow.Trade) flow.DirectionalSignal {
	buying := trade.BuyerInitiated()
	bullish := (trade.Type == flow.Call) == buying

	if !trade.Opening {
		return flow.SignalNeutral
	}
	if bullish {
		return flow.SignalBullish
	}
	return flow.SignalBearish
}
