package scan

import (
	"time"

	"github.com/openvocio/api/pkg/domain/shared"
)

// Scan represents one execution of the scanner engine against a target,
// tracked alongside its findings-platform engagement handle.
type Scan struct {
	ID shared.ID

	// ScanID is the scanner engine's task identity. Immutable once set.
	ScanID string

	Name    string
	Comment string
	Status  Status

	TargetID   string
	ScheduleID string

	// EngagementID is the findings-platform project handle the scan's
	// results are imported into. Zero means not provisioned; the
	// reconciler treats that as a configuration error for the scan.
	EngagementID int

	CreatedAt  time.Time
	UpdatedAt  time.Time
	FinishedAt *time.Time
}

// NewScan creates a new scan record for a submitted scanner task.
func NewScan(scanID, name string, engagementID int) (*Scan, error) {
	if scanID == "" {
		return nil, shared.NewDomainError("VALIDATION", "scan id is required", shared.ErrValidation)
	}
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION", "name is required", shared.ErrValidation)
	}

	now := time.Now()
	return &Scan{
		ID:           shared.NewID(),
		ScanID:       scanID,
		Name:         name,
		Status:       StatusPending,
		EngagementID: engagementID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// MarkDone transitions the scan into the terminal Done state.
// FinishedAt is set if and only if the scan is Done.
func (s *Scan) MarkDone(at time.Time) {
	s.Status = StatusDone
	s.FinishedAt = &at
	s.UpdatedAt = time.Now()
}

// SyncStatus applies an external scanner status without pipeline side
// effects. Transitioning into Done goes through MarkDone instead.
func (s *Scan) SyncStatus(external Status) {
	s.Status = external
	if external != StatusDone {
		s.FinishedAt = nil
	}
	s.UpdatedAt = time.Now()
}

// IsFinished reports whether the scan reached the terminal Done state.
func (s *Scan) IsFinished() bool {
	return s.Status == StatusDone
}

// ReadyForPipeline reports whether an external Done status should trigger
// the reconciliation pipeline for this scan.
func (s *Scan) ReadyForPipeline(external Status) bool {
	return external == StatusDone && (s.Status == StatusPending || s.Status == StatusRunning)
}
