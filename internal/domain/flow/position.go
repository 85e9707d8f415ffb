package flow

import "time"

// PositionBias classifies aggregate dealer positioning
type PositionBias string

const (
	BiasLongGamma    PositionBias = "long_gamma"
	BiasShortGamma   PositionBias = "short_gamma"
	BiasNeutral      PositionBias = "neutral"
	BiasDeltaHedging PositionBias = "delta_hedging"
)

// HedgePressure is the direction dealers must trade the underlying to
// stay hedged
type HedgePressure string

const (
	PressureBuy     HedgePressure = "buy"
	PressureSell    HedgePressure = "sell"
	PressureNeutral HedgePressure = "neutral"
)

// MarketMakerPosition is a point-in-time snapshot of estimated dealer
// positioning for one underlying. It is recomputed from the trailing
// window on every call and never persisted between calls.
type MarketMakerPosition struct {
	Symbol       string    `json:"symbol" ch:"symbol"`
	CalculatedAt time.Time `json:"calculated_at" ch:"calculated_at"`

	NetDelta float64 `json:"net_delta" ch:"net_delta"`
	NetGamma float64 `json:"net_gamma" ch:"net_gamma"`
	NetVega  float64 `json:"net_vega" ch:"net_vega"`
	NetTheta float64 `json:"net_theta" ch:"net_theta"`

	Bias          PositionBias  `json:"bias" ch:"bias"`
	HedgePressure HedgePressure `json:"hedge_pressure" ch:"hedge_pressure"`

	CallVolume int     `json:"call_volume" ch:"call_volume"`
	PutVolume  int     `json:"put_volume" ch:"put_volume"`
	CallOI     float64 `json:"call_oi" ch:"call_oi"`
	PutOI      float64 `json:"put_oi" ch:"put_oi"`

	MaxPainStrike      float64 `json:"max_pain_strike" ch:"max_pain_strike"`
	GammaConcentration float64 `json:"gamma_concentration" ch:"gamma_concentration"`
	GammaSqueezeRisk   bool    `json:"gamma_squeeze_risk" ch:"gamma_squeeze_risk"`
}
