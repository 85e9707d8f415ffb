package dispatch

import (
	"context"

	"flowradar/internal/domain/flow"
	"flowradar/pkg/logger"
)

// ConsoleChannel writes alerts to the structured log. It is registered
// by default so alerts are visible with zero configuration.
type ConsoleChannel struct {
	log *logger.Logger
}

// NewConsoleChannel creates a console channel
func NewConsoleChannel() *ConsoleChannel {
	return &ConsoleChannel{log: logger.Get().With("channel", "console")}
}

// Name returns the channel name
func (c *ConsoleChannel) Name() string { return "console" }

// Deliver logs the alert at a level matching its severity
func (c *ConsoleChannel) Deliver(_ context.Context, p Payload) error {
	fields := []interface{}{
		"alert_id", p.AlertID,
		"type", p.Type,
		"severity", p.Severity,
		"symbol", p.Symbol,
		"premium", p.Premium,
		"contracts", p.Contracts,
		"confidence", p.Confidence,
	}
	if p.Severity.AtLeast(flow.SeverityHigh) {
		c.log.Warnw(p.Title, fields...)
	} else {
		c.log.Infow(p.Title, fields...)
	}
	return nil
}
