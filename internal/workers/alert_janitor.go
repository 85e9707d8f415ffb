package workers

import (
	"context"
	"time"

	"flowradar/internal/alerts"
)

// AlertJanitorWorker expires aged alerts so the active set never
// accumulates stale entries between reads.
type AlertJanitorWorker struct {
	*BaseWorker
	alerts *alerts.Manager
}

// NewAlertJanitorWorker creates the alert janitor
func NewAlertJanitorWorker(mgr *alerts.Manager, interval time.Duration) *AlertJanitorWorker {
	return &AlertJanitorWorker{
		BaseWorker: NewBaseWorker("alert_janitor", interval, true),
		alerts:     mgr,
	}
}

// Run expires alerts whose TTL has elapsed
func (w *AlertJanitorWorker) Run(ctx context.Context) error {
	start := time.Now()

	expired := w.alerts.ExpireAged(ctx, time.Now())
	if expired > 0 {
		w.Log().Infow("Expired aged alerts", "count", expired)
	}

	w.RecordRun(time.Since(start))
	return nil
}
