package alerts

import "flowradar/internal/domain/flow"

// Severity scoring weights. Each component saturates so no single
// dimension can dominate the composite.
const (
	premiumWeight    = 40.0
	confidenceWeight = 30.0
	countWeight      = 30.0

	premiumScale = 500_000.0 // premium at which the component reaches half weight
	countScale   = 10.0      // trade count at which the component reaches half weight
)

// saturate maps [0,inf) onto [0,1) with diminishing returns
func saturate(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return x / (1 + x)
}

// Score composes premium size, detector confidence and trade count
// into a 0-100 severity score
func Score(premium, confidence float64, tradeCount int) float64 {
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	return premiumWeight*saturate(premium/premiumScale) +
		confidenceWeight*confidence +
		countWeight*saturate(float64(tradeCount)/countScale)
}

// SeverityFor buckets a composite score into severity levels
func SeverityFor(score float64) flow.Severity {
	switch {
	case score >= 70:
		return flow.SeverityCritical
	case score >= 50:
		return flow.SeverityHigh
	case score >= 30:
		return flow.SeverityMedium
	case score >= 15:
		return flow.SeverityLow
	default:
		return flow.SeverityInfo
	}
}
