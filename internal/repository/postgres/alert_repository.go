package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"flowradar/internal/domain/flow"
	"flowradar/pkg/errors"
)

// Compile-time check
var _ flow.AlertSink = (*AlertRepository)(nil)

// AlertRepository archives alerts and their lifecycle transitions
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository creates an alert repository
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// InsertAlert archives a newly raised alert
func (r *AlertRepository) InsertAlert(ctx context.Context, a *flow.Alert) error {
	query := `
		INSERT INTO alerts (
			id, type, severity, symbol, underlying,
			created_at, expires_at, title, description,
			premium, contracts, confidence,
			active, acknowledged, acknowledged_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Type, a.Severity, a.Symbol, a.Underlying,
		a.CreatedAt, a.ExpiresAt, a.Title, a.Description,
		a.Premium, a.Contracts, a.Confidence,
		a.Active, a.Acknowledged, a.AcknowledgedBy,
	)
	if err != nil {
		return errors.Wrap(err, "insert alert")
	}
	return nil
}

// MarkAcknowledged records an acknowledgement
func (r *AlertRepository) MarkAcknowledged(ctx context.Context, alertID, actor string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET acknowledged = true, acknowledged_by = $2 WHERE id = $1`,
		alertID, actor)
	if err != nil {
		return errors.Wrap(err, "mark acknowledged")
	}
	return r.requireRow(res, alertID)
}

// MarkInactive records deactivation or expiry
func (r *AlertRepository) MarkInactive(ctx context.Context, alertID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET active = false WHERE id = $1`, alertID)
	if err != nil {
		return errors.Wrap(err, "mark inactive")
	}
	return r.requireRow(res, alertID)
}

// GetByID loads one archived alert
func (r *AlertRepository) GetByID(ctx context.Context, alertID string) (*flow.Alert, error) {
	var a flow.Alert
	err := r.db.GetContext(ctx, &a,
		`SELECT id, type, severity, symbol, underlying,
		        created_at, expires_at, title, description,
		        premium, contracts, confidence,
		        active, acknowledged, acknowledged_by
		   FROM alerts WHERE id = $1`, alertID)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrAlertNotFound, "alert %s", alertID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get alert")
	}
	return &a, nil
}

// ListRecent loads the newest archived alerts for a symbol
func (r *AlertRepository) ListRecent(ctx context.Context, symbol string, limit int) ([]flow.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []flow.Alert
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, type, severity, symbol, underlying,
		        created_at, expires_at, title, description,
		        premium, contracts, confidence,
		        active, acknowledged, acknowledged_by
		   FROM alerts
		  WHERE underlying = $1
		  ORDER BY created_at DESC
		  LIMIT $2`, symbol, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list alerts")
	}
	return out, nil
}

func (r *AlertRepository) requireRow(res sql.Result, alertID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return errors.Wrapf(errors.ErrAlertNotFound, "alert %s", alertID)
	}
	return nil
}
