// Package report holds the severity summary produced for a completed scan.
package report

import (
	"time"

	"github.com/openvocio/api/pkg/domain/shared"
)

// SeverityCounts buckets findings by the fixed CVSS thresholds used across
// the platform: >=9.0 critical, >=7.0 high, >=4.0 medium, >0.0 low, else info.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

// Total returns the sum of all buckets.
func (c SeverityCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low + c.Info
}

// Summary is the per-scan severity breakdown recorded once a scan's
// report has been parsed. It is written once and never mutated; a
// reprocessed scan may record a fresh summary.
type Summary struct {
	ID            shared.ID
	ReportID      string
	ScanID        string
	TotalFindings int
	Counts        SeverityCounts
	GeneratedAt   time.Time
}

// NewSummary creates an immutable report summary for a completed scan.
func NewSummary(reportID, scanID string, total int, counts SeverityCounts) *Summary {
	return &Summary{
		ID:            shared.NewID(),
		ReportID:      reportID,
		ScanID:        scanID,
		TotalFindings: total,
		Counts:        counts,
		GeneratedAt:   time.Now(),
	}
}
