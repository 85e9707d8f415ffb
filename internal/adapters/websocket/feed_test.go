package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowradar/internal/domain/flow"
	"flowradar/pkg/errors"
)

func TestDecodeTrade(t *testing.T) {
	data := []byte(`{
		"symbol": "AAPL260918C00150000",
		"underlying": "AAPL",
		"type": "call",
		"strike": 150,
		"expiration_ms": 1789344000000,
		"price": 5.5,
		"size": 100,
		"timestamp_ms": 1788000000000,
		"exchange": "CBOE",
		"side": "ask",
		"aggressive": true,
		"spot": 152.3,
		"iv": 0.31
	}`)

	trade, err := decodeTrade(data)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", trade.Underlying)
	assert.Equal(t, flow.Call, trade.Type)
	assert.Equal(t, flow.SideAsk, trade.Side)
	assert.True(t, trade.Aggressive)
	assert.Equal(t, 550.0, trade.Premium, "premium derived from price")
	assert.Equal(t, time.UnixMilli(1788000000000).UTC(), trade.Timestamp)
	assert.InDelta(t, 0.31, trade.IV, 1e-9)
}

func TestDecodeTradeShortForms(t *testing.T) {
	data := []byte(`{"underlying":"TSLA","type":"P","strike":200,"price":3,"size":10,"side":"bid","timestamp_ms":1788000000000,"expiration_ms":1789344000000}`)

	trade, err := decodeTrade(data)
	require.NoError(t, err)
	assert.Equal(t, flow.Put, trade.Type)
	assert.Equal(t, flow.SideBid, trade.Side)
}

func TestDecodeTradeRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"unknown type", `{"type":"swap","side":"ask"}`},
		{"unknown side", `{"type":"call","side":"above"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeTrade([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrFeedDecode)
		})
	}
}
