package report

import "context"

// Repository defines the persistence interface for report summaries.
type Repository interface {
	Create(ctx context.Context, s *Summary) error
	GetByScanID(ctx context.Context, scanID string) (*Summary, error)
}
