package aggregator

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"flowradar/internal/domain/flow"
	"flowradar/pkg/logger"
)

// Classification tags how a trade was detected, for split aggregates
type Classification string

const (
	ClassSweep    Classification = "sweep"
	ClassBlock    Classification = "block"
	ClassDarkPool Classification = "dark_pool"
	ClassRegular  Classification = "regular"
)

// Config tunes the rolling aggregates
type Config struct {
	Window             time.Duration
	InstitutionalFloor float64
}

// DefaultConfig returns the production settings
func DefaultConfig() Config {
	return Config{
		Window:             60 * time.Minute,
		InstitutionalFloor: 250_000,
	}
}

// ClassTotals aggregates one classification bucket
type ClassTotals struct {
	Trades    int
	Contracts int
	Premium   decimal.Decimal
}

// Summary is a point-in-time rollup for one underlying. Premium totals
// use decimal arithmetic so long-running ratios do not drift.
type Summary struct {
	Symbol     string
	AsOf       time.Time
	TradeCount int

	CallPremium decimal.Decimal
	PutPremium  decimal.Decimal
	CallVolume  int
	PutVolume   int

	ByClass map[Classification]ClassTotals
}

// PutCallRatioByPremium returns put premium / call premium, 0 when no
// call premium has printed
func (s Summary) PutCallRatioByPremium() float64 {
	if s.CallPremium.IsZero() {
		return 0
	}
	ratio, _ := s.PutPremium.Div(s.CallPremium).Float64()
	return ratio
}

// PutCallRatioByVolume returns put contracts / call contracts
func (s Summary) PutCallRatioByVolume() float64 {
	if s.CallVolume == 0 {
		return 0
	}
	return float64(s.PutVolume) / float64(s.CallVolume)
}

// CallShare returns the call fraction of total premium in [0,1]
func (s Summary) CallShare() float64 {
	total := s.CallPremium.Add(s.PutPremium)
	if total.IsZero() {
		return 0
	}
	share, _ := s.CallPremium.Div(total).Float64()
	return share
}

// InterpretPutCallRatio maps a premium ratio onto sentiment buckets:
// above 1.0 put-heavy (bearish), below 1.0 call-heavy (bullish)
func InterpretPutCallRatio(ratio float64) string {
	switch {
	case ratio > 1.5:
		return "very_bearish"
	case ratio > 1.0:
		return "bearish"
	case ratio == 0:
		return "neutral"
	case ratio < 0.5:
		return "very_bullish"
	case ratio < 1.0:
		return "bullish"
	default:
		return "neutral"
	}
}

// StrikeFlow is the per-strike slice of a symbol's flow
type StrikeFlow struct {
	Strike      float64
	Expiration  time.Time
	CallPremium decimal.Decimal
	PutPremium  decimal.Decimal
	CallVolume  int
	PutVolume   int
	TradeCount  int
}

type record struct {
	trade *flow.Trade
	class Classification
}

// Aggregator maintains rolling per-symbol flow statistics. It emits no
// alerts; summaries are recomputed from the window on demand so reads
// are point-in-time consistent.
type Aggregator struct {
	cfg     Config
	symbols map[string][]record
	log     *logger.Logger
}

// New creates an aggregator
func New(cfg Config) *Aggregator {
	return &Aggregator{
		cfg:     cfg,
		symbols: make(map[string][]record),
		log:     logger.Get().With("component", "aggregator"),
	}
}

// Record adds a classified trade to the rolling window
func (a *Aggregator) Record(trade *flow.Trade, class Classification) {
	records := append(a.symbols[trade.Underlying], record{trade: trade, class: class})
	a.symbols[trade.Underlying] = a.evict(records, trade.Timestamp)
}

func (a *Aggregator) evict(records []record, now time.Time) []record {
	cutoff := now.Add(-a.cfg.Window)
	i := 0
	for ; i < len(records); i++ {
		if !records[i].trade.Timestamp.Before(cutoff) {
			break
		}
	}
	return records[i:]
}

// Summary returns the rolling flow summary for a symbol. Unknown
// symbols return an empty summary, not an error.
func (a *Aggregator) Summary(symbol string, asOf time.Time) Summary {
	return a.summarize(symbol, asOf, 0)
}

// InstitutionalSummary restricts the rollup to trades at or above the
// institutional premium floor
func (a *Aggregator) InstitutionalSummary(symbol string, asOf time.Time) Summary {
	return a.summarize(symbol, asOf, a.cfg.InstitutionalFloor)
}

func (a *Aggregator) summarize(symbol string, asOf time.Time, floor float64) Summary {
	records := a.evict(a.symbols[symbol], asOf)
	a.symbols[symbol] = records

	s := Summary{
		Symbol:  symbol,
		AsOf:    asOf,
		ByClass: make(map[Classification]ClassTotals),
	}

	for _, r := range records {
		t := r.trade
		notional := t.Notional()
		if notional < floor {
			continue
		}

		s.TradeCount++
		premium := decimal.NewFromFloat(notional)
		if t.Type == flow.Call {
			s.CallPremium = s.CallPremium.Add(premium)
			s.CallVolume += t.Size
		} else {
			s.PutPremium = s.PutPremium.Add(premium)
			s.PutVolume += t.Size
		}

		totals := s.ByClass[r.class]
		totals.Trades++
		totals.Contracts += t.Size
		totals.Premium = totals.Premium.Add(premium)
		s.ByClass[r.class] = totals
	}

	return s
}

// FlowByStrike breaks a symbol's window down by strike for one
// expiration, sorted by strike ascending
func (a *Aggregator) FlowByStrike(symbol string, expiration time.Time, asOf time.Time) []StrikeFlow {
	records := a.evict(a.symbols[symbol], asOf)
	a.symbols[symbol] = records

	byStrike := make(map[float64]*StrikeFlow)
	for _, r := range records {
		t := r.trade
		if !t.Expiration.Equal(expiration) {
			continue
		}

		sf, ok := byStrike[t.Strike]
		if !ok {
			sf = &StrikeFlow{Strike: t.Strike, Expiration: expiration}
			byStrike[t.Strike] = sf
		}

		sf.TradeCount++
		premium := decimal.NewFromFloat(t.Notional())
		if t.Type == flow.Call {
			sf.CallPremium = sf.CallPremium.Add(premium)
			sf.CallVolume += t.Size
		} else {
			sf.PutPremium = sf.PutPremium.Add(premium)
			sf.PutVolume += t.Size
		}
	}

	out := make([]StrikeFlow, 0, len(byStrike))
	for _, sf := range byStrike {
		out = append(out, *sf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Strike < out[j].Strike })
	return out
}
