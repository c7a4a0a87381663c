// Package ticket models remediation tickets that group vulnerabilities
// and track them against their case-platform records.
package ticket

import (
	"time"

	"github.com/openvocio/api/pkg/domain/shared"
)

// Status is the ticket lifecycle state.
type Status string

const (
	StatusNotResolved      Status = "not_resolved"
	StatusResolvedByUser   Status = "resolved_by_user"
	StatusResolvedBySystem Status = "resolved_by_system"
	StatusClosed           Status = "closed"
)

// IsValid reports whether the status is one of the known states.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotResolved, StatusResolvedByUser, StatusResolvedBySystem, StatusClosed:
		return true
	default:
		return false
	}
}

// Ticket groups one or more vulnerabilities for remediation tracking.
type Ticket struct {
	ID shared.ID

	Title      string
	Status     Status
	AssignedTo string

	// VulnerabilityIDs are the tool-native ids of the vulnerabilities the
	// ticket covers. Closing the ticket closes every linked case.
	VulnerabilityIDs []string

	CreatedAt  time.Time
	AffectedAt time.Time
	ResolvedAt *time.Time
}

// New creates a ticket.
func New(title, assignedTo string, vulnerabilityIDs []string) (*Ticket, error) {
	if title == "" {
		return nil, shared.NewDomainError("VALIDATION", "title is required", shared.ErrValidation)
	}
	if vulnerabilityIDs == nil {
		vulnerabilityIDs = []string{}
	}

	now := time.Now()
	return &Ticket{
		ID:               shared.NewID(),
		Title:            title,
		Status:           StatusNotResolved,
		AssignedTo:       assignedTo,
		VulnerabilityIDs: vulnerabilityIDs,
		CreatedAt:        now,
		AffectedAt:       now,
	}, nil
}

// SetStatus applies an analyst-driven status change.
func (t *Ticket) SetStatus(s Status) error {
	if !s.IsValid() {
		return shared.NewDomainError("VALIDATION", "invalid ticket status", shared.ErrValidation)
	}
	t.Status = s
	return nil
}

// Close marks the ticket closed with a resolution timestamp.
func (t *Ticket) Close(at time.Time) {
	t.Status = StatusClosed
	t.ResolvedAt = &at
}
