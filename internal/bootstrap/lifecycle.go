package bootstrap

import (
	"context"
	"sync"
	"time"

	"flowradar/pkg/logger"
)

// Lifecycle manages graceful shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		shutdownTimeout: 60 * time.Second,
	}
}

// Shutdown performs coordinated cleanup in the correct order:
// 1. No new requests accepted
// 2. Feed stops producing trades
// 3. Workers finish cleanly
// 4. Engine drains the dispatch queue
// 5. Ingestion goroutines unblock
// 6. Batch writers flush, producer closes after the queue drains
// 7. Logs and errors flushed
// 8. Database connections last
func (l *Lifecycle) Shutdown(c *Container) {
	log := c.Log

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer shutdownCancel()

	log.Info("[1/8] Stopping HTTP server...")
	httpCtx, httpCancel := context.WithTimeout(shutdownCtx, 5*time.Second)
	if err := c.HTTPServer.Shutdown(httpCtx); err != nil {
		log.Errorw("HTTP server shutdown failed", "error", err)
	} else {
		log.Info("✓ HTTP server stopped")
	}
	httpCancel()

	log.Info("[2/8] Closing trade feed...")
	if c.Feed != nil {
		if err := c.Feed.Close(); err != nil {
			log.Errorw("Feed close failed", "error", err)
		}
	}

	log.Info("[3/8] Stopping background workers...")
	if err := c.Scheduler.Stop(); err != nil {
		log.Errorw("Workers shutdown failed", "error", err)
	} else {
		log.Info("✓ Workers stopped")
	}

	log.Info("[4/8] Stopping engine...")
	c.Engine.Stop()
	log.Info("✓ Engine stopped, dispatch queue drained")

	log.Info("[5/8] Waiting for ingestion goroutines...")
	l.waitForGoroutines(c.WG, 10*time.Second, log)

	log.Info("[6/8] Flushing persistence...")
	if c.FlowRepo != nil {
		if err := c.FlowRepo.Stop(shutdownCtx); err != nil {
			log.Errorw("Flow repository flush failed", "error", err)
		}
	}
	if c.KafkaProducer != nil {
		if err := c.KafkaProducer.Close(); err != nil {
			log.Errorw("Kafka producer close failed", "error", err)
		}
	}

	log.Info("[7/8] Flushing error tracker and logs...")
	if c.ErrorTracker != nil {
		flushCtx, flushCancel := context.WithTimeout(shutdownCtx, 3*time.Second)
		if err := c.ErrorTracker.Flush(flushCtx); err != nil {
			log.Errorw("Error tracker flush failed", "error", err)
		}
		flushCancel()
	}
	if err := logger.Sync(); err != nil {
		log.Warn("Log sync completed with warnings")
	}

	log.Info("[8/8] Closing database connections...")
	l.closeDatabases(c, log)

	log.Info("Graceful shutdown complete")
}

// waitForGoroutines waits for all goroutines with a timeout
func (l *Lifecycle) waitForGoroutines(wg *sync.WaitGroup, timeout time.Duration, log *logger.Logger) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("✓ All goroutines finished")
	case <-time.After(timeout):
		log.Warnw("Some goroutines did not finish within timeout", "timeout", timeout)
	}
}

// closeDatabases closes all database connections
func (l *Lifecycle) closeDatabases(c *Container, log *logger.Logger) {
	if c.PG != nil {
		if err := c.PG.Close(); err != nil {
			log.Errorw("Postgres close failed", "error", err)
		}
	}
	if c.CH != nil {
		if err := c.CH.Close(); err != nil {
			log.Errorw("ClickHouse close failed", "error", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Errorw("Redis close failed", "error", err)
		}
	}
	log.Info("✓ Database connections closed")
}
