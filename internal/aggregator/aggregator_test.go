package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowradar/internal/domain/flow"
)

var aggBase = time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)

func aggTrade(underlying string, optType flow.OptionType, price float64, size int, offset time.Duration) *flow.Trade {
	return &flow.Trade{
		Symbol:     underlying + "C00150000",
		Underlying: underlying,
		Type:       optType,
		Strike:     150,
		Expiration: aggBase.Add(30 * 24 * time.Hour),
		Price:      price,
		Premium:    price * flow.ContractMultiplier,
		Size:       size,
		Timestamp:  aggBase.Add(offset),
		Exchange:   "CBOE",
		Side:       flow.SideAsk,
		Aggressive: true,
	}
}

func TestSummary_CallPutSplit(t *testing.T) {
	a := New(DefaultConfig())

	// 70k call premium against 30k put premium
	a.Record(aggTrade("AAPL", flow.Call, 7.00, 100, 0), ClassRegular)
	a.Record(aggTrade("AAPL", flow.Put, 3.00, 100, time.Minute), ClassRegular)

	s := a.Summary("AAPL", aggBase.Add(2*time.Minute))
	assert.Equal(t, 2, s.TradeCount)
	assert.InDelta(t, 0.70, s.CallShare(), 1e-9)
	assert.InDelta(t, 30.0/70.0, s.PutCallRatioByPremium(), 1e-9)
	assert.InDelta(t, 1.0, s.PutCallRatioByVolume(), 1e-9)
}

func TestSummary_ClassificationBuckets(t *testing.T) {
	a := New(DefaultConfig())

	a.Record(aggTrade("TSLA", flow.Call, 5.00, 500, 0), ClassBlock)
	a.Record(aggTrade("TSLA", flow.Call, 5.00, 100, time.Minute), ClassSweep)
	a.Record(aggTrade("TSLA", flow.Call, 5.00, 100, 2*time.Minute), ClassSweep)
	a.Record(aggTrade("TSLA", flow.Put, 2.00, 50, 3*time.Minute), ClassRegular)

	s := a.Summary("TSLA", aggBase.Add(4*time.Minute))
	require.Len(t, s.ByClass, 3)
	assert.Equal(t, 1, s.ByClass[ClassBlock].Trades)
	assert.Equal(t, 500, s.ByClass[ClassBlock].Contracts)
	assert.Equal(t, 2, s.ByClass[ClassSweep].Trades)
	assert.True(t, s.ByClass[ClassSweep].Premium.Equal(s.ByClass[ClassSweep].Premium.Truncate(0)),
		"contract premiums are whole dollars here")
	assert.Equal(t, 1, s.ByClass[ClassRegular].Trades)
}

func TestInstitutionalSummaryFiltersSmallTrades(t *testing.T) {
	a := New(DefaultConfig())

	// $550k notional institutional print and a $55k retail one
	a.Record(aggTrade("NVDA", flow.Call, 11.00, 500, 0), ClassBlock)
	a.Record(aggTrade("NVDA", flow.Call, 11.00, 50, time.Minute), ClassRegular)

	all := a.Summary("NVDA", aggBase.Add(2*time.Minute))
	inst := a.InstitutionalSummary("NVDA", aggBase.Add(2*time.Minute))

	assert.Equal(t, 2, all.TradeCount)
	assert.Equal(t, 1, inst.TradeCount)
	assert.Equal(t, 500, inst.CallVolume)
}

func TestSummary_WindowEviction(t *testing.T) {
	a := New(DefaultConfig())

	a.Record(aggTrade("AAPL", flow.Call, 5.00, 100, 0), ClassRegular)
	a.Record(aggTrade("AAPL", flow.Call, 5.00, 100, 30*time.Minute), ClassRegular)

	// 61 minutes past the first trade, only the second remains
	s := a.Summary("AAPL", aggBase.Add(61*time.Minute))
	assert.Equal(t, 1, s.TradeCount)
	assert.Equal(t, 100, s.CallVolume)
}

func TestSummary_UnknownSymbolIsEmpty(t *testing.T) {
	a := New(DefaultConfig())

	s := a.Summary("ZZZZ", aggBase)
	assert.Zero(t, s.TradeCount)
	assert.True(t, s.CallPremium.IsZero())
	assert.Zero(t, s.PutCallRatioByPremium())
	assert.Empty(t, a.FlowByStrike("ZZZZ", aggBase, aggBase))
}

func TestFlowByStrike(t *testing.T) {
	a := New(DefaultConfig())
	expiry := aggBase.Add(30 * 24 * time.Hour)

	low := aggTrade("AAPL", flow.Call, 5.00, 100, 0)
	low.Strike = 145
	high := aggTrade("AAPL", flow.Put, 4.00, 50, time.Minute)
	high.Strike = 155
	other := aggTrade("AAPL", flow.Call, 5.00, 10, 2*time.Minute)
	other.Expiration = expiry.Add(7 * 24 * time.Hour)

	a.Record(low, ClassRegular)
	a.Record(high, ClassRegular)
	a.Record(other, ClassRegular)

	flows := a.FlowByStrike("AAPL", expiry, aggBase.Add(3*time.Minute))
	require.Len(t, flows, 2, "other expiration excluded")
	assert.Equal(t, 145.0, flows[0].Strike)
	assert.Equal(t, 100, flows[0].CallVolume)
	assert.Equal(t, 155.0, flows[1].Strike)
	assert.Equal(t, 50, flows[1].PutVolume)
}

func TestInterpretPutCallRatio(t *testing.T) {
	assert.Equal(t, "very_bearish", InterpretPutCallRatio(2.0))
	assert.Equal(t, "bearish", InterpretPutCallRatio(1.2))
	assert.Equal(t, "neutral", InterpretPutCallRatio(1.0))
	assert.Equal(t, "bullish", InterpretPutCallRatio(0.8))
	assert.Equal(t, "very_bullish", InterpretPutCallRatio(0.3))
	assert.Equal(t, "neutral", InterpretPutCallRatio(0))
}
