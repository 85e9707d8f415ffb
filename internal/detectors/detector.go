package detectors

import (
	"flowradar/internal/domain/flow"
)

// Detector examines one trade at a time against its own rolling window
// and reports any patterns the trade completes. Detectors are mutually
// unaware; the engine invokes each in registration order and isolates
// individual failures.
//
// Detectors are not safe for concurrent use. The engine serializes
// calls within a shard, which is the only place detectors live.
type Detector interface {
	// Name returns the detector's identity for logging and metrics
	Name() string

	// Evaluate processes a trade and returns zero or more completed
	// patterns. A nil slice means no detection.
	Evaluate(trade *flow.Trade) ([]*flow.Pattern, error)
}

// saturate maps a non-negative ratio onto [0,1) monotonically.
// saturate(1) = 0.5; it approaches 1 as x grows.
func saturate(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return x / (1 + x)
}

// clamp01 bounds a score to [0,1]
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
