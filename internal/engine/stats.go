package engine

import (
	"sync"
	"time"

	"flowradar/internal/domain/flow"
)

// Stats is a snapshot of engine counters since start or last reset
type Stats struct {
	StartedAt        time.Time
	TradesProcessed  int64
	TradesRejected   int64
	AlertsRaised     int64
	PatternsByType   map[flow.PatternType]int64
	AlertsBySeverity map[flow.Severity]int64
}

type statsCounter struct {
	mu sync.Mutex
	s  Stats
}

func newStatsCounter(now time.Time) *statsCounter {
	c := &statsCounter{}
	c.reset(now)
	return c
}

func (c *statsCounter) reset(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s = Stats{
		StartedAt:        now,
		PatternsByType:   make(map[flow.PatternType]int64),
		AlertsBySeverity: make(map[flow.Severity]int64),
	}
}

func (c *statsCounter) trade(rejected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rejected {
		c.s.TradesRejected++
		return
	}
	c.s.TradesProcessed++
}

func (c *statsCounter) pattern(t flow.PatternType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.PatternsByType[t]++
}

func (c *statsCounter) alert(severity flow.Severity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.AlertsRaised++
	c.s.AlertsBySeverity[severity]++
}

func (c *statsCounter) snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.s
	out.PatternsByType = make(map[flow.PatternType]int64, len(c.s.PatternsByType))
	for k, v := range c.s.PatternsByType {
		out.PatternsByType[k] = v
	}
	out.AlertsBySeverity = make(map[flow.Severity]int64, len(c.s.AlertsBySeverity))
	for k, v := range c.s.AlertsBySeverity {
		out.AlertsBySeverity[k] = v
	}
	return out
}
