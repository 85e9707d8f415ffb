package reconnect

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"flowradar/pkg/errors"
	"flowradar/pkg/logger"
)

// Manager drives reconnection with exponential backoff and a circuit
// breaker. The websocket feed adapter uses it; it is generic enough for
// any long-lived connection.
type Manager struct {
	minBackoff        time.Duration
	maxBackoff        time.Duration
	multiplier        float64
	maxRetries        int
	heartbeatTimeout  time.Duration
	circuitResetAfter time.Duration

	mu              sync.RWMutex
	backoff         time.Duration
	failures        int
	totalReconnects int
	circuitOpen     bool
	circuitOpenedAt time.Time

	lastMessage atomic.Int64 // unix seconds

	log *logger.Logger
}

// Config configures the reconnect manager. Zero fields take defaults.
type Config struct {
	MinBackoff        time.Duration
	MaxBackoff        time.Duration
	Multiplier        float64
	MaxRetries        int
	HeartbeatTimeout  time.Duration
	CircuitResetAfter time.Duration
}

// NewManager creates a reconnect manager
func NewManager(cfg Config, log *logger.Logger) *Manager {
	if cfg.MinBackoff == 0 {
		cfg.MinBackoff = time.Second
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 5 * time.Minute
	}
	if cfg.Multiplier == 0 {
		cfg.Multiplier = 2.0
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 10
	}
	if cfg.HeartbeatTimeout == 0 {
		cfg.HeartbeatTimeout = 60 * time.Second
	}
	if cfg.CircuitResetAfter == 0 {
		cfg.CircuitResetAfter = 5 * time.Minute
	}

	return &Manager{
		minBackoff:        cfg.MinBackoff,
		maxBackoff:        cfg.MaxBackoff,
		multiplier:        cfg.Multiplier,
		maxRetries:        cfg.MaxRetries,
		heartbeatTimeout:  cfg.HeartbeatTimeout,
		circuitResetAfter: cfg.CircuitResetAfter,
		backoff:           cfg.MinBackoff,
		log:               log,
	}
}

// RecordMessage marks the connection alive; call on every inbound frame
func (m *Manager) RecordMessage() {
	m.lastMessage.Store(time.Now().Unix())
}

// Healthy reports whether the connection has shown recent activity and
// the circuit is closed
func (m *Manager) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.circuitOpen {
		return false
	}

	last := m.lastMessage.Load()
	if last == 0 {
		// Nothing received yet, treat a fresh connection as healthy
		return true
	}
	return time.Since(time.Unix(last, 0)) <= m.heartbeatTimeout
}

// ShouldRetry reports whether another reconnect attempt is allowed
func (m *Manager) ShouldRetry() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.circuitOpen {
		return time.Since(m.circuitOpenedAt) >= m.circuitResetAfter
	}
	return m.maxRetries <= 0 || m.failures < m.maxRetries
}

// Backoff returns the current backoff duration
func (m *Manager) Backoff() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.backoff
}

// RecordFailure bumps the backoff, opening the circuit past MaxRetries
func (m *Manager) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures++
	next := time.Duration(float64(m.backoff) * m.multiplier)
	if next > m.maxBackoff {
		next = m.maxBackoff
	}
	m.backoff = next

	m.log.Warnw("reconnect failed", "failures", m.failures, "next_backoff", m.backoff)

	if m.maxRetries > 0 && m.failures >= m.maxRetries {
		m.circuitOpen = true
		m.circuitOpenedAt = time.Now()
		m.log.Errorw("circuit opened",
			"failures", m.failures, "reset_after", m.circuitResetAfter)
	}
}

// RecordSuccess resets backoff and closes the circuit
func (m *Manager) RecordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.backoff = m.minBackoff
	m.failures = 0
	m.totalReconnects++
	if m.circuitOpen {
		m.circuitOpen = false
		m.circuitOpenedAt = time.Time{}
		m.log.Infow("circuit closed", "total_reconnects", m.totalReconnects)
	}
	m.lastMessage.Store(time.Now().Unix())
}

// Reconnect waits out the backoff and runs fn, recording the outcome
func (m *Manager) Reconnect(ctx context.Context, fn func(context.Context) error) error {
	if !m.ShouldRetry() {
		m.mu.RLock()
		open := m.circuitOpen
		failures := m.failures
		m.mu.RUnlock()
		if open {
			return errors.New("circuit open")
		}
		return errors.Newf("max retries reached after %d failures", failures)
	}

	if backoff := m.Backoff(); backoff > 0 {
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := fn(ctx); err != nil {
		m.RecordFailure()
		return errors.Wrap(err, "reconnect")
	}
	m.RecordSuccess()
	return nil
}

// Stats is a snapshot of reconnect state
type Stats struct {
	Failures        int
	TotalReconnects int
	Backoff         time.Duration
	CircuitOpen     bool
	LastMessage     time.Time
}

// GetStats returns the current reconnect state
func (m *Manager) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		Failures:        m.failures,
		TotalReconnects: m.totalReconnects,
		Backoff:         m.backoff,
		CircuitOpen:     m.circuitOpen,
		LastMessage:     time.Unix(m.lastMessage.Load(), 0),
	}
}
