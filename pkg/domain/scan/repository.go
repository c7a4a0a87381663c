package scan

import (
	"context"
)

// Repository defines the persistence interface for scans.
type Repository interface {
	Create(ctx context.Context, s *Scan) error
	GetByScanID(ctx context.Context, scanID string) (*Scan, error)
	List(ctx context.Context) ([]*Scan, error)
	Update(ctx context.Context, s *Scan) error
	Delete(ctx context.Context, scanID string) error
}
