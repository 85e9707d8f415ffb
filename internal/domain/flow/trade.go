package flow

import (
	"math"
	"time"
)

// OptionType distinguishes calls from puts
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ExecutionSide indicates where in the spread a trade printed
type ExecutionSide string

const (
	SideBid ExecutionSide = "bid"
	SideAsk ExecutionSide = "ask"
	SideMid ExecutionSide = "mid"
)

// Sentiment is the directional tag supplied by the feed
type Sentiment string

const (
	Bullish Sentiment = "bullish"
	Bearish Sentiment = "bearish"
	Neutral Sentiment = "neutral"
)

// ContractMultiplier is the standard equity option multiplier
const ContractMultiplier = 100

// Trade is a single options execution as delivered by the feed adapter.
// It is immutable once ingested; Sequence is assigned by the engine at
// validation time and serves as the stable tie-breaker for trades that
// share a timestamp.
type Trade struct {
	Symbol     string     `json:"symbol" ch:"symbol"`
	Underlying string     `json:"underlying" ch:"underlying"`
	Type       OptionType `json:"type" ch:"type"`
	Strike     float64    `json:"strike" ch:"strike"`
	Expiration time.Time  `json:"expiration" ch:"expiration"`

	// Premium is the dollar premium per contract (price x multiplier)
	Premium float64 `json:"premium" ch:"premium"`
	Size    int     `json:"size" ch:"size"`
	Price   float64 `json:"price" ch:"price"`

	Timestamp time.Time `json:"timestamp" ch:"timestamp"`
	Sequence  uint64    `json:"sequence" ch:"sequence"`
	Exchange  string    `json:"exchange" ch:"exchange"`

	Side       ExecutionSide `json:"side" ch:"side"`
	Aggressive bool          `json:"aggressive" ch:"aggressive"`
	Opening    bool          `json:"opening" ch:"opening"`
	Sentiment  Sentiment     `json:"sentiment" ch:"sentiment"`

	// Optional context supplied by the feed when available
	Spot         float64 `json:"spot,omitempty" ch:"spot"`
	OpenInterest float64 `json:"open_interest,omitempty" ch:"open_interest"`
	IV           float64 `json:"iv,omitempty" ch:"iv"`
}

// Notional returns the total dollar premium of the execution
func (t *Trade) Notional() float64 {
	return t.Premium * float64(t.Size)
}

// Moneyness returns spot/strike. 1.0 is at-the-money; without a spot
// price the trade is treated as at-the-money.
func (t *Trade) Moneyness() float64 {
	if t.Spot <= 0 || t.Strike <= 0 {
		return 1.0
	}
	return t.Spot / t.Strike
}

// InTheMoney reports whether the contract has intrinsic value at the
// trade's spot price. Unknown spot means unknown, reported as false.
func (t *Trade) InTheMoney() bool {
	if t.Spot <= 0 {
		return false
	}
	if t.Type == Call {
		return t.Spot > t.Strike
	}
	return t.Spot < t.Strike
}

// DaysToExpiration returns calendar days until expiry, floored at zero
func (t *Trade) DaysToExpiration() float64 {
	d := t.Expiration.Sub(t.Timestamp).Hours() / 24
	return math.Max(d, 0)
}

// BuyerInitiated reports whether the customer was the likely buyer.
// Ask-side and mid-price prints are treated as buyer-initiated; only
// bid-side prints count as seller-initiated.
func (t *Trade) BuyerInitiated() bool {
	return t.Side != SideBid
}
