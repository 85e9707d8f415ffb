package flow

import "time"

// AlertType identifies what triggered an alert
type AlertType string

const (
	AlertSweep                AlertType = "sweep"
	AlertBlock                AlertType = "block"
	AlertDarkPool             AlertType = "dark_pool"
	AlertSmartMoneyFlow       AlertType = "smart_money_flow"
	AlertInstitutionalPattern AlertType = "institutional_pattern"
	AlertGammaSqueeze         AlertType = "gamma_squeeze"
	AlertVolumeSpike          AlertType = "volume_spike"
	AlertSpreadPattern        AlertType = "spread_pattern"
	AlertUnusualIV            AlertType = "unusual_iv"
)

// Severity ranks alerts for routing and filtering
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

var severityRanks = map[Severity]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the numeric order of a severity, info lowest
func (s Severity) Rank() int {
	return severityRanks[s]
}

// AtLeast reports whether s is at least as severe as min
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank()
}

// Alert is an unusual-activity alert owned by the alert manager.
// Lifecycle: created -> active -> optionally acknowledged ->
// deactivated (explicit or TTL expiry). A deactivated alert never
// returns to the active set.
type Alert struct {
	ID         string    `json:"id" db:"id"`
	Type       AlertType `json:"type" db:"type"`
	Severity   Severity  `json:"severity" db:"severity"`
	Symbol     string    `json:"symbol" db:"symbol"`
	Underlying string    `json:"underlying" db:"underlying"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`

	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`

	Premium    float64 `json:"premium" db:"premium"`
	Contracts  int     `json:"contracts" db:"contracts"`
	Confidence float64 `json:"confidence" db:"confidence"`

	Active         bool   `json:"active" db:"active"`
	Acknowledged   bool   `json:"acknowledged" db:"acknowledged"`
	AcknowledgedBy string `json:"acknowledged_by,omitempty" db:"acknowledged_by"`
}

// Expired reports whether the alert's TTL has elapsed at the given time
func (a *Alert) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}
