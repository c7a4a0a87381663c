// Package alert models security alerts pulled from the SIEM alert source.
package alert

import (
	"time"

	"github.com/openvocio/api/pkg/domain/shared"
)

// Alert is one SIEM alert as stored locally. Alerts are upserted on every
// poll; the timestamp ordering defines "recent" windows.
type Alert struct {
	ID shared.ID

	// AlertID is the alert source's native identity. Unique.
	AlertID string

	RuleID      string
	Description string

	// Severity is the source's numeric rule level.
	Severity int

	Timestamp time.Time

	// LinkedVulnerabilityID points at the Vulnerability materialized from
	// this alert, empty until reconciliation links it.
	LinkedVulnerabilityID string
}

// New creates an alert record from a source hit.
func New(alertID, ruleID string, severity int, ts time.Time) (*Alert, error) {
	if alertID == "" {
		return nil, shared.NewDomainError("VALIDATION", "alert id is required", shared.ErrValidation)
	}

	return &Alert{
		ID:        shared.NewID(),
		AlertID:   alertID,
		RuleID:    ruleID,
		Severity:  severity,
		Timestamp: ts,
	}, nil
}

// SeverityBucket maps the numeric rule level onto the platform severity
// scale used for generic findings import: <=5 low, <=10 medium, else high.
func (a *Alert) SeverityBucket() string {
	switch {
	case a.Severity <= 5:
		return "Low"
	case a.Severity <= 10:
		return "Medium"
	default:
		return "High"
	}
}
