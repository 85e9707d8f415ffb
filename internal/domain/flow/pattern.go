package flow

import "time"

// PatternType identifies the detected footprint
type PatternType string

const (
	PatternAggressiveCallBuying PatternType = "aggressive_call_buying"
	PatternAggressivePutBuying  PatternType = "aggressive_put_buying"
	PatternLargeSweep           PatternType = "large_sweep"
	PatternBlockTrade           PatternType = "block_trade"
	PatternDarkPoolPrint        PatternType = "dark_pool_print"
	PatternSpread               PatternType = "spread"
	PatternStraddle             PatternType = "straddle"
	PatternStrangle             PatternType = "strangle"
	PatternUnusualVolume        PatternType = "unusual_volume"
	PatternInstitutionalFlow    PatternType = "institutional_flow"
)

// DirectionalSignal is the 5-point strength scale
type DirectionalSignal int

const (
	SignalStrongBearish DirectionalSignal = -2
	SignalBearish       DirectionalSignal = -1
	SignalNeutral       DirectionalSignal = 0
	SignalBullish       DirectionalSignal = 1
	SignalStrongBullish DirectionalSignal = 2
)

// String returns a readable signal name
func (s DirectionalSignal) String() string {
	switch s {
	case SignalStrongBearish:
		return "strong_bearish"
	case SignalBearish:
		return "bearish"
	case SignalBullish:
		return "bullish"
	case SignalStrongBullish:
		return "strong_bullish"
	default:
		return "neutral"
	}
}

// Pattern is an immutable detection result covering one or more trades
// inside a detector's window
type Pattern struct {
	Type       PatternType `json:"type" ch:"type"`
	Symbol     string      `json:"symbol" ch:"symbol"`
	Underlying string      `json:"underlying" ch:"underlying"`
	DetectedAt time.Time   `json:"detected_at" ch:"detected_at"`

	Premium    float64 `json:"premium" ch:"premium"`
	Contracts  int     `json:"contracts" ch:"contracts"`
	TradeCount int     `json:"trade_count" ch:"trade_count"`

	Signal     DirectionalSignal `json:"signal" ch:"signal"`
	Confidence float64           `json:"confidence" ch:"confidence"`

	CallPremium float64 `json:"call_premium" ch:"call_premium"`
	PutPremium  float64 `json:"put_premium" ch:"put_premium"`
}

// SignalFromPremiums maps a call/put premium split onto the 5-point
// scale. Strength is |call-put|/(call+put); the dominant side sets the
// sign.
func SignalFromPremiums(callPremium, putPremium float64) DirectionalSignal {
	total := callPremium + putPremium
	if total <= 0 {
		return SignalNeutral
	}
	strength := (callPremium - putPremium) / total
	switch {
	case strength >= 0.6:
		return SignalStrongBullish
	case strength >= 0.2:
		return SignalBullish
	case strength <= -0.6:
		return SignalStrongBearish
	case strength <= -0.2:
		return SignalBearish
	default:
		return SignalNeutral
	}
}
