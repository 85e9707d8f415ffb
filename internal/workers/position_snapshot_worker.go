package workers

import (
	"context"
	"time"

	"flowradar/internal/engine"
)

// PositionSnapshotWorker periodically persists dealer positioning for
// the tracked symbols. Snapshots also raise gamma squeeze alerts when
// the engine sees the risk, independent of trade arrival timing.
type PositionSnapshotWorker struct {
	*BaseWorker
	engine  *engine.Engine
	symbols []string
}

// NewPositionSnapshotWorker creates the snapshot worker.
// With no symbols configured the worker stays disabled.
func NewPositionSnapshotWorker(eng *engine.Engine, symbols []string, interval time.Duration) *PositionSnapshotWorker {
	return &PositionSnapshotWorker{
		BaseWorker: NewBaseWorker("position_snapshot", interval, len(symbols) > 0),
		engine:     eng,
		symbols:    symbols,
	}
}

// Run snapshots positioning for every tracked symbol
func (w *PositionSnapshotWorker) Run(ctx context.Context) error {
	start := time.Now()
	now := time.Now()

	snapped := 0
	for _, symbol := range w.symbols {
		if err := ctx.Err(); err != nil {
			w.RecordError(err, time.Since(start))
			return err
		}
		if pos := w.engine.SnapshotPosition(ctx, symbol, now); pos != nil {
			snapped++
		}
	}

	w.Log().Debugw("Position snapshots taken", "symbols", len(w.symbols), "persisted", snapped)
	w.RecordRun(time.Since(start))
	return nil
}
