package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/openvocio/api/pkg/domain/alert"
	"github.com/openvocio/api/pkg/domain/shared"
)

// AlertRepository implements alert.Repository using PostgreSQL.
type AlertRepository struct {
	db *DB
}

// NewAlertRepository creates a new AlertRepository.
func NewAlertRepository(db *DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Upsert inserts an alert or refreshes an existing record with the same
// alert_id. Repeated polls over overlapping windows stay idempotent.
func (r *AlertRepository) Upsert(ctx context.Context, a *alert.Alert) error {
	query := `
		INSERT INTO alerts (id, alert_id, rule_id, description, severity, observed_at, linked_vulnerability_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (alert_id) DO UPDATE
		SET rule_id = EXCLUDED.rule_id,
		    description = EXCLUDED.description,
		    severity = EXCLUDED.severity,
		    observed_at = EXCLUDED.observed_at
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID.String(),
		a.AlertID,
		a.RuleID,
		a.Description,
		a.Severity,
		a.Timestamp,
		nullString(a.LinkedVulnerabilityID),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert alert: %w", err)
	}

	return nil
}

// ListSince returns alerts observed at or after the given time.
func (r *AlertRepository) ListSince(ctx context.Context, since time.Time) ([]*alert.Alert, error) {
	query := `
		SELECT id, alert_id, rule_id, description, severity, observed_at, linked_vulnerability_id
		FROM alerts
		WHERE observed_at >= $1
		ORDER BY observed_at
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*alert.Alert
	for rows.Next() {
		var (
			a      alert.Alert
			id     string
			linked sql.NullString
		)
		if err := rows.Scan(&id, &a.AlertID, &a.RuleID, &a.Description, &a.Severity, &a.Timestamp, &linked); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		parsed, err := shared.IDFromString(id)
		if err != nil {
			return nil, fmt.Errorf("invalid alert id %q: %w", id, err)
		}
		a.ID = parsed
		a.LinkedVulnerabilityID = nullStringValue(linked)
		alerts = append(alerts, &a)
	}

	return alerts, rows.Err()
}

// LinkVulnerability records which Vulnerability an alert materialized into.
func (r *AlertRepository) LinkVulnerability(ctx context.Context, alertID, vulnerabilityID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET linked_vulnerability_id = $2 WHERE alert_id = $1`,
		alertID, vulnerabilityID,
	)
	if err != nil {
		return fmt.Errorf("failed to link alert: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return shared.NewDomainError("NOT_FOUND", "alert not found", shared.ErrNotFound)
	}

	return nil
}
