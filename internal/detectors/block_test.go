package detectors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowradar/internal/domain/flow"
)

func TestBlockDetector_SingleLargeTrade(t *testing.T) {
	d := NewBlockDetector(DefaultBlockConfig())

	// 500-contract TSLA $200 call at mid, opening, $625,000 premium
	trade := newTrade("TSLA", passive(), withSize(500), withPrice(12.50))
	trade.Strike = 200
	trade.Opening = true

	ps, err := d.Evaluate(trade)
	require.NoError(t, err)
	require.Len(t, ps, 1)

	p := ps[0]
	assert.Equal(t, flow.PatternBlockTrade, p.Type)
	assert.Equal(t, 500, p.Contracts)
	assert.Equal(t, 1, p.TradeCount)
	assert.InDelta(t, 625_000, p.Premium, 1)
	assert.Equal(t, flow.SignalBullish, p.Signal, "opening call buy")
}

func TestBlockDetector_BelowContractFloor(t *testing.T) {
	d := NewBlockDetector(DefaultBlockConfig())

	ps, err := d.Evaluate(newTrade("TSLA", withSize(99), withPrice(15)))
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestBlockDetector_BelowPremiumFloor(t *testing.T) {
	d := NewBlockDetector(DefaultBlockConfig())

	// 150 contracts at $0.50 is only $7,500
	ps, err := d.Evaluate(newTrade("TSLA", withSize(150), withPrice(0.50)))
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestBlockDetector_RollingAverageGate(t *testing.T) {
	d := NewBlockDetector(DefaultBlockConfig())

	// Build up a large rolling average so 150 contracts is unremarkable
	for i := 0; i < 20; i++ {
		_, err := d.Evaluate(newTrade("TSLA", withSize(100), withPrice(0.50), at(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}

	ps, err := d.Evaluate(newTrade("TSLA", withSize(150), withPrice(10), at(30*time.Second)))
	require.NoError(t, err)
	assert.Empty(t, ps, "150 contracts against a 100-contract average is not 10x")

	// 1000 contracts clears the multiple
	ps, err = d.Evaluate(newTrade("TSLA", withSize(1100), withPrice(10), at(31*time.Second)))
	require.NoError(t, err)
	assert.Len(t, ps, 1)
}

func TestBlockDetector_ConfidenceMonotonicInSize(t *testing.T) {
	d := NewBlockDetector(DefaultBlockConfig())

	const avg = 25.0
	prev := -1.0
	for size := 100; size <= 5000; size += 100 {
		trade := newTrade("TSLA", withSize(size), withPrice(10))
		conf := d.confidence(trade, avg)
		assert.GreaterOrEqual(t, conf, prev, "size %d", size)
		assert.LessOrEqual(t, conf, 1.0)
		prev = conf
	}
}

func TestBlockDetector_ClosingBlockIsNeutral(t *testing.T) {
	d := NewBlockDetector(DefaultBlockConfig())

	trade := newTrade("TSLA", withSize(500), withPrice(12.50))
	trade.Opening = false

	ps, err := d.Evaluate(trade)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, flow.SignalNeutral, ps[0].Signal)
}
