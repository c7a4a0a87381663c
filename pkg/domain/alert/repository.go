package alert

import (
	"context"
	"time"
)

// Repository defines the persistence interface for alerts.
// Upsert keys on AlertID so repeated polls never duplicate records.
type Repository interface {
	Upsert(ctx context.Context, a *Alert) error
	ListSince(ctx context.Context, since time.Time) ([]*Alert, error)
	LinkVulnerability(ctx context.Context, alertID, vulnerabilityID string) error
}
