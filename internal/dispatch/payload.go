package dispatch

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"flowradar/internal/domain/flow"
)

// Payload is the channel-neutral wire form of an alert. Channels
// serialize it themselves (JSON for webhook/kafka/redis, text for
// console/telegram).
type Payload struct {
	AlertID     string         `json:"alert_id"`
	Type        flow.AlertType `json:"type"`
	Severity    flow.Severity  `json:"severity"`
	Symbol      string         `json:"symbol"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Premium     float64        `json:"premium"`
	Contracts   int            `json:"contracts"`
	Confidence  float64        `json:"confidence"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewPayload projects an alert into its delivery form
func NewPayload(alert *flow.Alert) Payload {
	return Payload{
		AlertID:     alert.ID,
		Type:        alert.Type,
		Severity:    alert.Severity,
		Symbol:      alert.Underlying,
		Title:       alert.Title,
		Description: alert.Description,
		Premium:     alert.Premium,
		Contracts:   alert.Contracts,
		Confidence:  alert.Confidence,
		CreatedAt:   alert.CreatedAt,
	}
}

// Text renders a human-readable message for text channels
func (p Payload) Text() string {
	return fmt.Sprintf("[%s] %s\n%s\nPremium $%s | %s contracts | confidence %.0f%%",
		p.Severity,
		p.Title,
		p.Description,
		humanize.CommafWithDigits(p.Premium, 0),
		humanize.Comma(int64(p.Contracts)),
		p.Confidence*100)
}
