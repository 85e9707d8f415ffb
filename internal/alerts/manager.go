package alerts

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"flowradar/internal/domain/flow"
	"flowradar/pkg/errors"
	"flowradar/pkg/logger"
)

// Config tunes alert lifecycle behavior
type Config struct {
	TTL time.Duration // active lifetime before automatic expiry
}

// DefaultConfig returns the production settings
func DefaultConfig() Config {
	return Config{TTL: 24 * time.Hour}
}

// Filter narrows Active queries. Zero values match everything.
type Filter struct {
	Symbol      string
	Type        flow.AlertType
	MinSeverity flow.Severity
}

// Stats is a snapshot of manager counters
type Stats struct {
	Created      int64
	Expired      int64
	ActiveCount  int
	Acknowledged int
	BySeverity   map[flow.Severity]int
	ByType       map[flow.AlertType]int
}

var patternAlertTypes = map[flow.PatternType]flow.AlertType{
	flow.PatternLargeSweep:            flow.AlertSweep,
	flow.PatternBlockTrade:            flow.AlertBlock,
	flow.PatternDarkPoolPrint:         flow.AlertDarkPool,
	flow.PatternAggressiveCallBuying:  flow.AlertSmartMoneyFlow,
	flow.PatternAggressivePutBuying:   flow.AlertSmartMoneyFlow,
	flow.PatternInstitutionalFlow:     flow.AlertInstitutionalPattern,
	flow.PatternUnusualVolume:         flow.AlertVolumeSpike,
	flow.PatternSpread:                flow.AlertSpreadPattern,
	flow.PatternStraddle:              flow.AlertSpreadPattern,
	flow.PatternStrangle:              flow.AlertSpreadPattern,
}

// Manager owns the alert lifecycle: creation from detected patterns and
// positioning snapshots, the active set, acknowledgement and TTL expiry.
// An optional sink archives every state change best-effort.
type Manager struct {
	cfg  Config
	sink flow.AlertSink
	log  *logger.Logger

	mu      sync.RWMutex
	alerts  map[string]*flow.Alert
	created int64
	expired int64

	// Clock is injectable for tests
	Clock func() time.Time
}

// NewManager creates an alert manager. sink may be nil.
func NewManager(cfg Config, sink flow.AlertSink) *Manager {
	return &Manager{
		cfg:    cfg,
		sink:   sink,
		log:    logger.Get().With("component", "alert_manager"),
		alerts: make(map[string]*flow.Alert),
		Clock:  time.Now,
	}
}

// FromPattern builds an alert from a detected pattern. Returns nil for
// pattern types that do not map to an alert.
func (m *Manager) FromPattern(p *flow.Pattern) *flow.Alert {
	alertType, ok := patternAlertTypes[p.Type]
	if !ok {
		return nil
	}

	score := Score(p.Premium, p.Confidence, p.TradeCount)
	return &flow.Alert{
		ID:          uuid.NewString(),
		Type:        alertType,
		Severity:    SeverityFor(score),
		Symbol:      p.Symbol,
		Underlying:  p.Underlying,
		CreatedAt:   p.DetectedAt,
		ExpiresAt:   p.DetectedAt.Add(m.cfg.TTL),
		Title:       patternTitle(p),
		Description: patternDescription(p),
		Premium:     p.Premium,
		Contracts:   p.Contracts,
		Confidence:  p.Confidence,
		Active:      true,
	}
}

// FromPosition builds a gamma-squeeze alert from a positioning snapshot,
// nil when the snapshot carries no squeeze risk
func (m *Manager) FromPosition(pos *flow.MarketMakerPosition) *flow.Alert {
	if !pos.GammaSqueezeRisk {
		return nil
	}

	confidence := saturate(-pos.NetGamma / 10_000)
	score := confidenceWeight*confidence + premiumWeight*0.5
	return &flow.Alert{
		ID:         uuid.NewString(),
		Type:       flow.AlertGammaSqueeze,
		Severity:   SeverityFor(score),
		Symbol:     pos.Symbol,
		Underlying: pos.Symbol,
		CreatedAt:  pos.CalculatedAt,
		ExpiresAt:  pos.CalculatedAt.Add(m.cfg.TTL),
		Title: fmt.Sprintf("%s gamma squeeze risk: dealers short %s gamma",
			pos.Symbol, humanize.CommafWithDigits(-pos.NetGamma, 0)),
		Description: fmt.Sprintf(
			"Dealer net gamma %s with concentration at the %s strike. Hedging flow amplifies moves toward %s.",
			humanize.CommafWithDigits(pos.NetGamma, 0),
			humanize.Commaf(pos.GammaConcentration),
			pos.HedgePressure),
		Confidence: confidence,
		Active:     true,
	}
}

func patternTitle(p *flow.Pattern) string {
	return fmt.Sprintf("%s %s: $%s premium, %s contracts",
		p.Underlying,
		patternLabel(p.Type),
		humanize.CommafWithDigits(p.Premium, 0),
		humanize.Comma(int64(p.Contracts)))
}

func patternDescription(p *flow.Pattern) string {
	return fmt.Sprintf("%d trade(s), %s signal, confidence %.0f%%. Calls $%s vs puts $%s.",
		p.TradeCount,
		p.Signal,
		p.Confidence*100,
		humanize.CommafWithDigits(p.CallPremium, 0),
		humanize.CommafWithDigits(p.PutPremium, 0))
}

func patternLabel(t flow.PatternType) string {
	switch t {
	case flow.PatternLargeSweep:
		return "sweep"
	case flow.PatternBlockTrade:
		return "block trade"
	case flow.PatternDarkPoolPrint:
		return "dark pool print"
	case flow.PatternAggressiveCallBuying:
		return "aggressive call buying"
	case flow.PatternAggressivePutBuying:
		return "aggressive put buying"
	case flow.PatternInstitutionalFlow:
		return "institutional flow"
	case flow.PatternUnusualVolume:
		return "unusual volume"
	case flow.PatternSpread:
		return "spread"
	case flow.PatternStraddle:
		return "straddle"
	case flow.PatternStrangle:
		return "strangle"
	default:
		return string(t)
	}
}

// Raise registers an alert as active and archives it
func (m *Manager) Raise(ctx context.Context, alert *flow.Alert) {
	m.mu.Lock()
	m.alerts[alert.ID] = alert
	m.created++
	m.mu.Unlock()

	m.log.Infow("alert raised",
		"alert_id", alert.ID,
		"type", alert.Type,
		"severity", alert.Severity,
		"symbol", alert.Symbol)

	if m.sink != nil {
		if err := m.sink.InsertAlert(ctx, alert); err != nil {
			m.log.Warnw("alert archive failed", "alert_id", alert.ID, "error", err)
		}
	}
}

// Get returns an alert by ID, expiring it lazily first
func (m *Manager) Get(id string) (*flow.Alert, error) {
	m.expireAged(context.Background(), m.Clock())

	m.mu.RLock()
	defer m.mu.RUnlock()
	alert, ok := m.alerts[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrAlertNotFound, "alert %s", id)
	}
	return alert, nil
}

// Acknowledge marks an alert acknowledged by an actor. Repeat calls
// are a no-op that still returns true; the first actor is kept and the
// archive sink is written only once. Unknown IDs return
// ErrAlertNotFound; deactivated alerts ErrAlertInactive.
func (m *Manager) Acknowledge(ctx context.Context, id, actor string) (bool, error) {
	m.mu.Lock()
	alert, ok := m.alerts[id]
	if !ok {
		m.mu.Unlock()
		return false, errors.Wrapf(errors.ErrAlertNotFound, "alert %s", id)
	}
	if !alert.Active {
		m.mu.Unlock()
		return false, errors.Wrapf(errors.ErrAlertInactive, "alert %s", id)
	}
	if alert.Acknowledged {
		m.mu.Unlock()
		return true, nil
	}
	alert.Acknowledged = true
	alert.AcknowledgedBy = actor
	m.mu.Unlock()

	if m.sink != nil {
		if err := m.sink.MarkAcknowledged(ctx, id, actor); err != nil {
			m.log.Warnw("acknowledge archive failed", "alert_id", id, "error", err)
		}
	}
	return true, nil
}

// Deactivate removes an alert from the active set
func (m *Manager) Deactivate(ctx context.Context, id string) error {
	m.mu.Lock()
	alert, ok := m.alerts[id]
	if !ok {
		m.mu.Unlock()
		return errors.Wrapf(errors.ErrAlertNotFound, "alert %s", id)
	}
	alert.Active = false
	m.mu.Unlock()

	if m.sink != nil {
		if err := m.sink.MarkInactive(ctx, id); err != nil {
			m.log.Warnw("deactivate archive failed", "alert_id", id, "error", err)
		}
	}
	return nil
}

// Active returns matching active alerts ranked by severity, most severe
// first; ties break on creation time then ID so ordering is stable
func (m *Manager) Active(filter Filter) []*flow.Alert {
	m.expireAged(context.Background(), m.Clock())

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*flow.Alert
	for _, alert := range m.alerts {
		if !alert.Active {
			continue
		}
		if filter.Symbol != "" && alert.Symbol != filter.Symbol && alert.Underlying != filter.Symbol {
			continue
		}
		if filter.Type != "" && alert.Type != filter.Type {
			continue
		}
		if filter.MinSeverity != "" && !alert.Severity.AtLeast(filter.MinSeverity) {
			continue
		}
		out = append(out, alert)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() > out[j].Severity.Rank()
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ExpireAged deactivates alerts past their TTL and returns how many
func (m *Manager) ExpireAged(ctx context.Context, now time.Time) int {
	return m.expireAged(ctx, now)
}

func (m *Manager) expireAged(ctx context.Context, now time.Time) int {
	m.mu.Lock()
	var aged []string
	for id, alert := range m.alerts {
		if alert.Active && alert.Expired(now) {
			alert.Active = false
			m.expired++
			aged = append(aged, id)
		}
	}
	m.mu.Unlock()

	for _, id := range aged {
		m.log.Debugw("alert expired", "alert_id", id)
		if m.sink != nil {
			if err := m.sink.MarkInactive(ctx, id); err != nil {
				m.log.Warnw("expiry archive failed", "alert_id", id, "error", err)
			}
		}
	}
	return len(aged)
}

// Stats returns a counter snapshot
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{
		Created:    m.created,
		Expired:    m.expired,
		BySeverity: make(map[flow.Severity]int),
		ByType:     make(map[flow.AlertType]int),
	}
	for _, alert := range m.alerts {
		if !alert.Active {
			continue
		}
		s.ActiveCount++
		if alert.Acknowledged {
			s.Acknowledged++
		}
		s.BySeverity[alert.Severity]++
		s.ByType[alert.Type]++
	}
	return s
}
