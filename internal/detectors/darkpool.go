package detectors

import (
	"time"

	"flowradar/internal/domain/flow"
	"flowradar/pkg/logger"
)

// Clock supplies the market time used to measure reporting delay.
// Prints are timestamped at execution; the delta against the market
// clock at ingestion reveals delayed off-exchange reports.
type Clock func() time.Time

// DarkPoolConfig tunes dark-pool print detection
type DarkPoolConfig struct {
	Venues       []string      // registered off-exchange venue ids
	MinDelay     time.Duration // reporting delay implying off-exchange execution
	MinContracts int
}

// DefaultDarkPoolConfig returns the production thresholds
func DefaultDarkPoolConfig() DarkPoolConfig {
	return DarkPoolConfig{
		Venues:       []string{"DARK", "ADF", "TRF", "OTC"},
		MinDelay:     30 * time.Second,
		MinContracts: 50,
	}
}

// DarkPoolDetector flags off-exchange prints: either the venue is in
// the configured registry or the print reported late against the
// market clock, and the execution was passive (mid-price) at size.
type DarkPoolDetector struct {
	cfg    DarkPoolConfig
	venues map[string]struct{}
	clock  Clock
	log    *logger.Logger
}

// NewDarkPoolDetector creates a dark-pool detector. A nil clock
// defaults to wall time.
func NewDarkPoolDetector(cfg DarkPoolConfig, clock Clock) *DarkPoolDetector {
	if clock == nil {
		clock = time.Now
	}
	venues := make(map[string]struct{}, len(cfg.Venues))
	for _, v := range cfg.Venues {
		venues[v] = struct{}{}
	}
	return &DarkPoolDetector{
		cfg:    cfg,
		venues: venues,
		clock:  clock,
		log:    logger.Get().With("detector", "dark_pool"),
	}
}

// Name implements Detector
func (d *DarkPoolDetector) Name() string { return "dark_pool" }

// RegisterVenue adds a venue id to the registry at runtime
func (d *DarkPoolDetector) RegisterVenue(venue string) {
	d.venues[venue] = struct{}{}
}

// Evaluate implements Detector
func (d *DarkPoolDetector) Evaluate(trade *flow.Trade) ([]*flow.Pattern, error) {
	if trade.Side != flow.SideMid {
		return nil, nil
	}
	if trade.Size < d.cfg.MinContracts {
		return nil, nil
	}

	_, registered := d.venues[trade.Exchange]
	delay := d.clock().Sub(trade.Timestamp)
	if !registered && delay < d.cfg.MinDelay {
		return nil, nil
	}

	pattern := &flow.Pattern{
		Type:       flow.PatternDarkPoolPrint,
		Symbol:     trade.Symbol,
		Underlying: trade.Underlying,
		DetectedAt: trade.Timestamp,
		Premium:    trade.Notional(),
		Contracts:  trade.Size,
		TradeCount: 1,
		Signal:     flow.SignalNeutral, // passive prints carry no direction
		Confidence: d.confidence(trade, registered, delay),
	}
	if trade.Type == flow.Call {
		pattern.CallPremium = trade.Notional()
	} else {
		pattern.PutPremium = trade.Notional()
	}

	d.log.Debugw("dark pool print detected",
		"underlying", trade.Underlying,
		"venue", trade.Exchange,
		"registered", registered,
		"delay", delay,
		"size", trade.Size,
	)

	return []*flow.Pattern{pattern}, nil
}

func (d *DarkPoolDetector) confidence(trade *flow.Trade, registered bool, delay time.Duration) float64 {
	score := 0.4
	if registered {
		score += 0.3
	}
	if delay >= d.cfg.MinDelay {
		score += 0.2
	}
	sizeExcess := float64(trade.Size)/float64(d.cfg.MinContracts) - 1
	score += 0.1 * saturate(sizeExcess)
	return clamp01(score)
}
