package analyzer

import (
	"math"
	"time"

	"flowradar/internal/domain/flow"
	"flowradar/pkg/logger"
)

// Config tunes dealer-positioning estimation
type Config struct {
	Window         time.Duration // trailing trade window
	GammaThreshold float64       // net gamma considered material
	DeltaThreshold float64       // net delta considered material
	SqueezeFactor  float64       // short-gamma magnitude per traded share flagging squeeze risk
}

// DefaultConfig returns the production thresholds
func DefaultConfig() Config {
	return Config{
		Window:         60 * time.Minute,
		GammaThreshold: 500,
		DeltaThreshold: 5_000,
		SqueezeFactor:  0.05,
	}
}

// StrikeOI is externally supplied open interest for one line of the chain
type StrikeOI struct {
	Strike     float64
	Expiration time.Time
	CallOI     float64
	PutOI      float64
}

// MarketMakerAnalyzer estimates aggregate dealer positioning from a
// symbol's trailing trade window, assuming dealers take the other side
// of every customer execution. Each Analyze call is a fresh snapshot;
// nothing is carried between calls beyond the raw window.
type MarketMakerAnalyzer struct {
	cfg     Config
	windows map[string][]*flow.Trade
	chains  map[string][]StrikeOI
	log     *logger.Logger
}

// NewMarketMakerAnalyzer creates a market-maker analyzer
func NewMarketMakerAnalyzer(cfg Config) *MarketMakerAnalyzer {
	return &MarketMakerAnalyzer{
		cfg:     cfg,
		windows: make(map[string][]*flow.Trade),
		chains:  make(map[string][]StrikeOI),
		log:     logger.Get().With("component", "mm_analyzer"),
	}
}

// Observe adds a trade to the symbol's trailing window
func (a *MarketMakerAnalyzer) Observe(trade *flow.Trade) {
	window := append(a.windows[trade.Underlying], trade)
	a.windows[trade.Underlying] = a.evict(window, trade.Timestamp)
}

// SetOpenInterest supplies the open-interest chain for a symbol.
// Without it, max pain falls back to window volume as an OI proxy.
func (a *MarketMakerAnalyzer) SetOpenInterest(symbol string, chain []StrikeOI) {
	a.chains[symbol] = chain
}

func (a *MarketMakerAnalyzer) evict(window []*flow.Trade, now time.Time) []*flow.Trade {
	cutoff := now.Add(-a.cfg.Window)
	i := 0
	for ; i < len(window); i++ {
		if !window[i].Timestamp.Before(cutoff) {
			break
		}
	}
	return window[i:]
}

// Analyze computes a positioning snapshot for the symbol as of the
// given time. Unknown symbols yield a neutral, zeroed snapshot.
func (a *MarketMakerAnalyzer) Analyze(symbol string, asOf time.Time) *flow.MarketMakerPosition {
	window := a.evict(a.windows[symbol], asOf)
	a.windows[symbol] = window

	pos := &flow.MarketMakerPosition{
		Symbol:        symbol,
		CalculatedAt:  asOf,
		Bias:          flow.BiasNeutral,
		HedgePressure: flow.PressureNeutral,
	}

	gammaByStrike := make(map[float64]float64)
	totalShares := 0.0

	for _, t := range window {
		shares := float64(t.Size) * flow.ContractMultiplier
		totalShares += shares

		// Customer direction: +1 bought, -1 sold. The dealer holds
		// the opposite exposure.
		dir := 1.0
		if !t.BuyerInitiated() {
			dir = -1
		}

		delta := deltaEstimate(t)
		gamma := gammaEstimate(t)

		pos.NetDelta += -dir * delta * shares
		pos.NetVega += -dir * vegaEstimate(t) * shares
		pos.NetTheta += -dir * thetaEstimate(t) * shares

		// Naive dealer-gamma convention: customer call buying leaves
		// dealers short gamma, customer put buying leaves them long
		gammaSign := -dir
		if t.Type == flow.Put {
			gammaSign = dir
		}
		contribution := gammaSign * gamma * shares
		pos.NetGamma += contribution
		gammaByStrike[t.Strike] += contribution

		if t.Type == flow.Call {
			pos.CallVolume += t.Size
		} else {
			pos.PutVolume += t.Size
		}
	}

	chain := a.chains[symbol]
	for _, line := range chain {
		pos.CallOI += line.CallOI
		pos.PutOI += line.PutOI
	}

	pos.MaxPainStrike = a.maxPain(window, chain)
	pos.GammaConcentration = concentrationStrike(gammaByStrike)
	a.classify(pos, totalShares)

	return pos
}

func (a *MarketMakerAnalyzer) classify(pos *flow.MarketMakerPosition, totalShares float64) {
	switch {
	case pos.NetGamma < -a.cfg.GammaThreshold:
		pos.Bias = flow.BiasShortGamma
		if totalShares > 0 && math.Abs(pos.NetGamma) >= a.cfg.SqueezeFactor*totalShares {
			pos.GammaSqueezeRisk = true
		}
	case pos.NetGamma > a.cfg.GammaThreshold:
		pos.Bias = flow.BiasLongGamma
	case math.Abs(pos.NetDelta) > a.cfg.DeltaThreshold:
		pos.Bias = flow.BiasDeltaHedging
	}

	// Dealers hedge toward flat: net-short delta means they buy stock
	switch {
	case pos.NetDelta < -a.cfg.DeltaThreshold:
		pos.HedgePressure = flow.PressureBuy
	case pos.NetDelta > a.cfg.DeltaThreshold:
		pos.HedgePressure = flow.PressureSell
	}
}

// maxPain minimizes aggregate option-holder payoff at expiration over
// the candidate strikes of the chain. Window volume stands in for open
// interest when no chain was supplied.
func (a *MarketMakerAnalyzer) maxPain(window []*flow.Trade, chain []StrikeOI) float64 {
	if len(chain) == 0 {
		chain = chainFromWindow(window)
	}
	if len(chain) == 0 {
		return 0
	}

	minPain := math.MaxFloat64
	best := 0.0
	for _, candidate := range chain {
		pain := 0.0
		for _, line := range chain {
			if candidate.Strike > line.Strike {
				pain += line.CallOI * (candidate.Strike - line.Strike)
			}
			if candidate.Strike < line.Strike {
				pain += line.PutOI * (line.Strike - candidate.Strike)
			}
		}
		if pain < minPain {
			minPain = pain
			best = candidate.Strike
		}
	}
	return best
}

func chainFromWindow(window []*flow.Trade) []StrikeOI {
	byStrike := make(map[float64]*StrikeOI)
	for _, t := range window {
		line, ok := byStrike[t.Strike]
		if !ok {
			line = &StrikeOI{Strike: t.Strike, Expiration: t.Expiration}
			byStrike[t.Strike] = line
		}
		if t.Type == flow.Call {
			line.CallOI += float64(t.Size)
		} else {
			line.PutOI += float64(t.Size)
		}
	}

	chain := make([]StrikeOI, 0, len(byStrike))
	for _, line := range byStrike {
		chain = append(chain, *line)
	}
	return chain
}

func concentrationStrike(gammaByStrike map[float64]float64) float64 {
	best := 0.0
	maxAbs := 0.0
	for strike, gamma := range gammaByStrike {
		if abs := math.Abs(gamma); abs > maxAbs {
			maxAbs = abs
			best = strike
		}
	}
	return best
}
