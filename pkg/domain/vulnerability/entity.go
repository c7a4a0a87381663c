// Package vulnerability holds the canonical, deduplicated record of a
// finding's identity plus the normalization rules that produce it.
package vulnerability

import (
	"time"

	"github.com/openvocio/api/pkg/domain/shared"
)

// Vulnerability is this platform's canonical record of one distinct
// finding identity. The VulnerabilityID uniqueness constraint is the
// dedup boundary for the whole reconciliation pipeline: at most one
// record exists per tool-native finding id, whatever path it arrived by.
type Vulnerability struct {
	ID shared.ID

	// VulnerabilityID is the tool-native finding id. Unique.
	VulnerabilityID string

	// CaseID is the case-platform handle, empty until a case is created.
	CaseID string

	Title       string
	Description string
	Severity    Severity
	CVERefs     []string
	Active      bool
	Source      Source

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a Vulnerability from a normalized finding.
func New(vulnerabilityID string, n Normalized, src Source) (*Vulnerability, error) {
	if vulnerabilityID == "" {
		return nil, shared.NewDomainError("VALIDATION", "vulnerability id is required", shared.ErrValidation)
	}

	now := time.Now()
	return &Vulnerability{
		ID:              shared.NewID(),
		VulnerabilityID: vulnerabilityID,
		Title:           n.Title,
		Description:     n.Description,
		Severity:        n.Severity,
		CVERefs:         n.CVERefs,
		Active:          true,
		Source:          src,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// AttachCase links the vulnerability to its case-platform record.
// This is the only mutation a Vulnerability ever receives.
func (v *Vulnerability) AttachCase(caseID string) {
	v.CaseID = caseID
	v.UpdatedAt = time.Now()
}

// HasCase reports whether a case has been created for this vulnerability.
func (v *Vulnerability) HasCase() bool {
	return v.CaseID != ""
}
