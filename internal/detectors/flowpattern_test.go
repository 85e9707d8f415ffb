package detectors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowradar/internal/domain/flow"
)

func collect(t *testing.T, d *FlowPatternAnalyzer, trades ...*flow.Trade) []*flow.Pattern {
	t.Helper()
	var out []*flow.Pattern
	for _, trade := range trades {
		ps, err := d.Evaluate(trade)
		require.NoError(t, err)
		out = append(out, ps...)
	}
	return out
}

func findPattern(patterns []*flow.Pattern, ptype flow.PatternType) *flow.Pattern {
	for _, p := range patterns {
		if p.Type == ptype {
			return p
		}
	}
	return nil
}

func TestFlowAnalyzer_AggressiveCallBuying(t *testing.T) {
	d := NewFlowPatternAnalyzer(DefaultFlowAnalyzerConfig())

	patterns := collect(t, d,
		newTrade("AAPL", at(0)),
		newTrade("AAPL", at(10*time.Second)),
		newTrade("AAPL", at(20*time.Second)),
	)

	p := findPattern(patterns, flow.PatternAggressiveCallBuying)
	require.NotNil(t, p)
	assert.Equal(t, 3, p.TradeCount)
	assert.Equal(t, flow.SignalStrongBullish, p.Signal)
	assert.Equal(t, 300, p.Contracts)
}

func TestFlowAnalyzer_AggressivePutBuying(t *testing.T) {
	d := NewFlowPatternAnalyzer(DefaultFlowAnalyzerConfig())

	patterns := collect(t, d,
		newTrade("AAPL", at(0), asPut()),
		newTrade("AAPL", at(10*time.Second), asPut()),
		newTrade("AAPL", at(20*time.Second), asPut()),
	)

	p := findPattern(patterns, flow.PatternAggressivePutBuying)
	require.NotNil(t, p)
	assert.Equal(t, flow.SignalStrongBearish, p.Signal)
}

func TestFlowAnalyzer_RunBrokenByPassiveTrade(t *testing.T) {
	d := NewFlowPatternAnalyzer(DefaultFlowAnalyzerConfig())

	patterns := collect(t, d,
		newTrade("AAPL", at(0)),
		newTrade("AAPL", at(10*time.Second)),
		newTrade("AAPL", at(20*time.Second), passive()),
		newTrade("AAPL", at(30*time.Second)),
	)

	assert.Nil(t, findPattern(patterns, flow.PatternAggressiveCallBuying))
}

func TestFlowAnalyzer_InstitutionalFlow(t *testing.T) {
	d := NewFlowPatternAnalyzer(DefaultFlowAnalyzerConfig())

	// Three $300k+ call buys with consistent direction.
	// Strikes differ so no aggressive run or spread fires first at the
	// same contract; spacing avoids the spread sub-window.
	var trades []*flow.Trade
	for i := 0; i < 3; i++ {
		trade := newTrade("MSFT", at(time.Duration(i)*time.Minute), withSize(200), withPrice(16))
		trade.Strike = 400 + float64(5*i)
		trades = append(trades, trade)
	}

	patterns := collect(t, d, trades...)
	p := findPattern(patterns, flow.PatternInstitutionalFlow)
	require.NotNil(t, p)
	assert.Equal(t, 3, p.TradeCount)
	assert.InDelta(t, 960_000, p.Premium, 1)
	assert.Equal(t, flow.SignalStrongBullish, p.Signal)
}

func TestFlowAnalyzer_InstitutionalFlowNeedsConsistency(t *testing.T) {
	d := NewFlowPatternAnalyzer(DefaultFlowAnalyzerConfig())

	// Two big call buys against two big put buys: mixed direction
	var trades []*flow.Trade
	for i := 0; i < 4; i++ {
		trade := newTrade("MSFT", at(time.Duration(i)*time.Minute), withSize(200), withPrice(16))
		trade.Strike = 400 + float64(5*i)
		if i%2 == 1 {
			trade.Type = flow.Put
		}
		trades = append(trades, trade)
	}

	patterns := collect(t, d, trades...)
	assert.Nil(t, findPattern(patterns, flow.PatternInstitutionalFlow))
}

func TestFlowAnalyzer_SpreadPattern(t *testing.T) {
	d := NewFlowPatternAnalyzer(DefaultFlowAnalyzerConfig())

	long := newTrade("AAPL", at(0), passive())
	short := newTrade("AAPL", at(time.Second), passive())
	short.Strike = 160

	patterns := collect(t, d, long, short)
	p := findPattern(patterns, flow.PatternSpread)
	require.NotNil(t, p)
	assert.Equal(t, 2, p.TradeCount)
}

func TestFlowAnalyzer_Straddle(t *testing.T) {
	d := NewFlowPatternAnalyzer(DefaultFlowAnalyzerConfig())

	call := newTrade("AAPL", at(0), passive())
	put := newTrade("AAPL", at(time.Second), passive(), asPut())

	patterns := collect(t, d, call, put)
	require.NotNil(t, findPattern(patterns, flow.PatternStraddle))
}

func TestFlowAnalyzer_Strangle(t *testing.T) {
	d := NewFlowPatternAnalyzer(DefaultFlowAnalyzerConfig())

	call := newTrade("AAPL", at(0), passive())
	call.Strike = 155
	put := newTrade("AAPL", at(time.Second), passive(), asPut())
	put.Strike = 145

	patterns := collect(t, d, call, put)
	require.NotNil(t, findPattern(patterns, flow.PatternStrangle))
}

func TestFlowAnalyzer_UnusualVolume(t *testing.T) {
	cfg := DefaultFlowAnalyzerConfig()
	cfg.Cooldown = 0
	d := NewFlowPatternAnalyzer(cfg)

	base := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)

	// Ten quiet minutes of 10 contracts each
	for i := 0; i < 10; i++ {
		trade := newTrade("AMD", passive(), withSize(10))
		trade.Timestamp = base.Add(time.Duration(i) * time.Minute)
		trade.Strike = 100 + float64(i) // avoid aggressive-run grouping
		_, err := d.Evaluate(trade)
		require.NoError(t, err)
	}

	// A 200-contract minute is 20x the baseline
	spike := newTrade("AMD", passive(), withSize(200))
	spike.Timestamp = base.Add(10 * time.Minute)
	spike.Strike = 250

	ps, err := d.Evaluate(spike)
	require.NoError(t, err)
	p := findPattern(ps, flow.PatternUnusualVolume)
	require.NotNil(t, p)
	assert.Equal(t, 200, p.Contracts)
}

func TestFlowAnalyzer_CooldownSuppressesRepeats(t *testing.T) {
	d := NewFlowPatternAnalyzer(DefaultFlowAnalyzerConfig())

	first := collect(t, d,
		newTrade("AAPL", at(0)),
		newTrade("AAPL", at(5*time.Second)),
		newTrade("AAPL", at(10*time.Second)),
	)
	require.NotNil(t, findPattern(first, flow.PatternAggressiveCallBuying))

	repeat := collect(t, d, newTrade("AAPL", at(15*time.Second)))
	assert.Nil(t, findPattern(repeat, flow.PatternAggressiveCallBuying),
		"cooldown holds the pattern for a minute")
}

func TestFlowAnalyzer_WindowEviction(t *testing.T) {
	d := NewFlowPatternAnalyzer(DefaultFlowAnalyzerConfig())

	collect(t, d,
		newTrade("AAPL", at(0)),
		newTrade("AAPL", at(5*time.Second)),
	)

	// 20 minutes later the earlier trades are gone; a single trade
	// cannot complete a run
	late := collect(t, d, newTrade("AAPL", at(20*time.Minute)))
	assert.Nil(t, findPattern(late, flow.PatternAggressiveCallBuying))
}
