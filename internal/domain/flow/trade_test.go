package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTradeNotional(t *testing.T) {
	trade := Trade{Premium: 550, Size: 100}
	assert.Equal(t, 55000.0, trade.Notional())
}

func TestTradeMoneyness(t *testing.T) {
	tests := []struct {
		name     string
		trade    Trade
		expected float64
	}{
		{"at the money", Trade{Spot: 150, Strike: 150}, 1.0},
		{"in the money call", Trade{Spot: 165, Strike: 150}, 1.1},
		{"unknown spot defaults to ATM", Trade{Strike: 150}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.trade.Moneyness(), 1e-9)
		})
	}
}

func TestTradeInTheMoney(t *testing.T) {
	assert.True(t, (&Trade{Type: Call, Spot: 160, Strike: 150}).InTheMoney())
	assert.False(t, (&Trade{Type: Call, Spot: 140, Strike: 150}).InTheMoney())
	assert.True(t, (&Trade{Type: Put, Spot: 140, Strike: 150}).InTheMoney())
	assert.False(t, (&Trade{Type: Put, Spot: 160, Strike: 150}).InTheMoney())
	assert.False(t, (&Trade{Type: Call, Strike: 150}).InTheMoney(), "unknown spot")
}

func TestDaysToExpiration(t *testing.T) {
	now := time.Now()
	trade := Trade{Timestamp: now, Expiration: now.Add(48 * time.Hour)}
	assert.InDelta(t, 2.0, trade.DaysToExpiration(), 0.01)

	expired := Trade{Timestamp: now, Expiration: now.Add(-24 * time.Hour)}
	assert.Equal(t, 0.0, expired.DaysToExpiration())
}

func TestSignalFromPremiums(t *testing.T) {
	tests := []struct {
		name        string
		callPremium float64
		putPremium  float64
		expected    DirectionalSignal
	}{
		{"all calls", 100000, 0, SignalStrongBullish},
		{"all puts", 0, 100000, SignalStrongBearish},
		{"balanced", 50000, 50000, SignalNeutral},
		{"call tilt", 65000, 35000, SignalBullish},
		{"put tilt", 35000, 65000, SignalBearish},
		{"no premium", 0, 0, SignalNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SignalFromPremiums(tt.callPremium, tt.putPremium))
		})
	}
}

func TestSeverityOrdering(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityHigh))
	assert.True(t, SeverityHigh.AtLeast(SeverityHigh))
	assert.False(t, SeverityLow.AtLeast(SeverityMedium))
	assert.True(t, SeverityInfo.AtLeast(SeverityInfo))
}

func TestAlertExpired(t *testing.T) {
	now := time.Now()
	alert := Alert{CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour)}

	assert.False(t, alert.Expired(now.Add(24*time.Hour-time.Second)))
	assert.True(t, alert.Expired(now.Add(24*time.Hour+time.Second)))
}
