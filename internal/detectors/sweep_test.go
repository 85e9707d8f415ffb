package detectors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowradar/internal/domain/flow"
)

type tradeOpt func(*flow.Trade)

func newTrade(underlying string, opts ...tradeOpt) *flow.Trade {
	t := &flow.Trade{
		Symbol:     underlying + "240119C00150000",
		Underlying: underlying,
		Type:       flow.Call,
		Strike:     150,
		Expiration: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
		Price:      5.50,
		Premium:    550,
		Size:       100,
		Timestamp:  time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC),
		Exchange:   "CBOE",
		Side:       flow.SideAsk,
		Aggressive: true,
		Sentiment:  flow.Bullish,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func at(offset time.Duration) tradeOpt {
	return func(t *flow.Trade) { t.Timestamp = t.Timestamp.Add(offset) }
}

func onExchange(ex string) tradeOpt {
	return func(t *flow.Trade) { t.Exchange = ex }
}

func withSize(size int) tradeOpt {
	return func(t *flow.Trade) { t.Size = size }
}

func withPrice(price float64) tradeOpt {
	return func(t *flow.Trade) {
		t.Price = price
		t.Premium = price * flow.ContractMultiplier
	}
}

func passive() tradeOpt {
	return func(t *flow.Trade) {
		t.Side = flow.SideMid
		t.Aggressive = false
	}
}

func asPut() tradeOpt {
	return func(t *flow.Trade) { t.Type = flow.Put }
}

func TestSweepDetector_QualifyingSweep(t *testing.T) {
	d := NewSweepDetector(DefaultSweepConfig())

	// Four 100-contract AAPL $150 calls within 1.5s across four
	// exchanges, all hitting the ask
	exchanges := []string{"CBOE", "PHLX", "ISE", "ARCA"}
	prices := []float64{5.50, 5.51, 5.52, 5.53}

	var patterns []*flow.Pattern
	for i := 0; i < 4; i++ {
		ps, err := d.Evaluate(newTrade("AAPL",
			at(time.Duration(i)*500*time.Millisecond),
			onExchange(exchanges[i]),
			withPrice(prices[i]),
		))
		require.NoError(t, err)
		patterns = append(patterns, ps...)
	}

	require.Len(t, patterns, 1, "exactly one sweep pattern")
	p := patterns[0]
	assert.Equal(t, flow.PatternLargeSweep, p.Type)
	assert.Equal(t, 4, p.TradeCount)
	assert.Equal(t, 400, p.Contracts)
	assert.Greater(t, p.Confidence, 0.7)
	assert.Equal(t, flow.SignalStrongBullish, p.Signal)
	assert.InDelta(t, 220600, p.Premium, 1) // 100*(550+551+552+553)
}

func TestSweepDetector_LegsOutsideWindowExcluded(t *testing.T) {
	d := NewSweepDetector(DefaultSweepConfig())

	// Three legs, then a long gap: the stale legs must not count
	for i := 0; i < 3; i++ {
		ps, err := d.Evaluate(newTrade("AAPL",
			at(time.Duration(i)*200*time.Millisecond),
			onExchange(fmt.Sprintf("EX%d", i)),
		))
		require.NoError(t, err)
		require.Empty(t, ps)
	}

	ps, err := d.Evaluate(newTrade("AAPL", at(10*time.Second), onExchange("ARCA")))
	require.NoError(t, err)
	assert.Empty(t, ps, "stale legs evicted, group no longer qualifies")
}

func TestSweepDetector_RequiresExchangeDiversity(t *testing.T) {
	d := NewSweepDetector(DefaultSweepConfig())

	for i := 0; i < 5; i++ {
		ps, err := d.Evaluate(newTrade("AAPL", at(time.Duration(i)*100*time.Millisecond)))
		require.NoError(t, err)
		assert.Empty(t, ps, "single-venue fills are not a sweep")
	}
}

func TestSweepDetector_RequiresAggressiveLegs(t *testing.T) {
	d := NewSweepDetector(DefaultSweepConfig())

	for i := 0; i < 4; i++ {
		ps, err := d.Evaluate(newTrade("AAPL",
			at(time.Duration(i)*100*time.Millisecond),
			onExchange(fmt.Sprintf("EX%d", i)),
			passive(),
		))
		require.NoError(t, err)
		assert.Empty(t, ps)
	}
}

func TestSweepDetector_RequiresLegNotional(t *testing.T) {
	d := NewSweepDetector(DefaultSweepConfig())

	// $0.30 contracts on 10 lots are $300 legs, far below the floor
	for i := 0; i < 6; i++ {
		ps, err := d.Evaluate(newTrade("AAPL",
			at(time.Duration(i)*100*time.Millisecond),
			onExchange(fmt.Sprintf("EX%d", i)),
			withPrice(0.30),
			withSize(10),
		))
		require.NoError(t, err)
		assert.Empty(t, ps)
	}
}

func TestSweepDetector_IndependentContractKeys(t *testing.T) {
	d := NewSweepDetector(DefaultSweepConfig())

	// Interleave two strikes; neither accumulates four legs
	for i := 0; i < 6; i++ {
		trade := newTrade("AAPL",
			at(time.Duration(i)*100*time.Millisecond),
			onExchange(fmt.Sprintf("EX%d", i)),
		)
		if i%2 == 1 {
			trade.Strike = 155
		}
		ps, err := d.Evaluate(trade)
		require.NoError(t, err)
		assert.Empty(t, ps)
	}
}
