package analyzer

import (
	"math"

	"flowradar/internal/domain/flow"
)

// Directional Greek estimates, not exchange-grade risk figures. They
// are functions of moneyness only: delta sits at 0.5 at-the-money and
// decays away from it, gamma peaks at-the-money, vega and theta are
// flat per-contract approximations.

const (
	deltaSlope = 8.0  // steepness of the delta transition around ATM
	gammaPeak  = 0.08 // per-share gamma at the money
	gammaWidth = 0.08 // moneyness std-dev of the gamma bell
	vegaFlat   = 0.10
	thetaFlat  = -0.05
)

// deltaEstimate returns the holder's delta: ~0.5 ATM for calls,
// approaching 1 deep ITM and 0 far OTM. Put delta is call delta - 1.
func deltaEstimate(t *flow.Trade) float64 {
	m := t.Moneyness()
	call := 0.5 + 0.5*math.Tanh(deltaSlope*(m-1))
	if t.Type == flow.Put {
		return call - 1
	}
	return call
}

// gammaEstimate returns per-share gamma, a bell peaking at-the-money
func gammaEstimate(t *flow.Trade) float64 {
	m := t.Moneyness()
	x := (m - 1) / gammaWidth
	return gammaPeak * math.Exp(-0.5*x*x)
}

func vegaEstimate(*flow.Trade) float64 { return vegaFlat }

func thetaEstimate(*flow.Trade) float64 { return thetaFlat }
