package flow

import "context"

// Sinks receive the engine's value objects for durable storage. The
// engine treats all sink writes as best-effort: failures are logged
// and never fail trade processing.

// TradeSink persists validated trades
type TradeSink interface {
	InsertTrades(ctx context.Context, trades []Trade) error
}

// PatternSink persists detected patterns
type PatternSink interface {
	InsertPattern(ctx context.Context, pattern *Pattern) error
}

// PositionSink persists market-maker position snapshots
type PositionSink interface {
	InsertPosition(ctx context.Context, position *MarketMakerPosition) error
}

// AlertSink archives alerts and acknowledgement updates
type AlertSink interface {
	InsertAlert(ctx context.Context, alert *Alert) error
	MarkAcknowledged(ctx context.Context, alertID, actor string) error
	MarkInactive(ctx context.Context, alertID string) error
}
