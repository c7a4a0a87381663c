package handler

import (
	"time"

	"github.com/openvocio/api/pkg/domain/alert"
	"github.com/openvocio/api/pkg/domain/report"
	"github.com/openvocio/api/pkg/domain/scan"
	"github.com/openvocio/api/pkg/domain/ticket"
	"github.com/openvocio/api/pkg/domain/vulnerability"
)

// ScanResponse is the API representation of a scan.
type ScanResponse struct {
	ID           string     `json:"id"`
	ScanID       string     `json:"scan_id"`
	Name         string     `json:"name"`
	Comment      string     `json:"comment,omitempty"`
	Status       string     `json:"status"`
	TargetID     string     `json:"target_id,omitempty"`
	ScheduleID   string     `json:"schedule_id,omitempty"`
	EngagementID int        `json:"engagement_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

func toScanResponse(s *scan.Scan) ScanResponse {
	return ScanResponse{
		ID:           s.ID.String(),
		ScanID:       s.ScanID,
		Name:         s.Name,
		Comment:      s.Comment,
		Status:       string(s.Status),
		TargetID:     s.TargetID,
		ScheduleID:   s.ScheduleID,
		EngagementID: s.EngagementID,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		FinishedAt:   s.FinishedAt,
	}
}

func toScanResponses(scans []*scan.Scan) []ScanResponse {
	items := make([]ScanResponse, len(scans))
	for i, s := range scans {
		items[i] = toScanResponse(s)
	}
	return items
}

// SummaryResponse is the API representation of a report summary.
type SummaryResponse struct {
	ID            string                `json:"id"`
	ReportID      string                `json:"report_id"`
	ScanID        string                `json:"scan_id"`
	TotalFindings int                   `json:"total_findings"`
	Counts        report.SeverityCounts `json:"counts"`
	GeneratedAt   time.Time             `json:"generated_at"`
}

func toSummaryResponse(s *report.Summary) SummaryResponse {
	return SummaryResponse{
		ID:            s.ID.String(),
		ReportID:      s.ReportID,
		ScanID:        s.ScanID,
		TotalFindings: s.TotalFindings,
		Counts:        s.Counts,
		GeneratedAt:   s.GeneratedAt,
	}
}

// VulnerabilityResponse is the API representation of a vulnerability.
type VulnerabilityResponse struct {
	ID              string    `json:"id"`
	VulnerabilityID string    `json:"vulnerability_id"`
	CaseID          string    `json:"case_id,omitempty"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Severity        string    `json:"severity"`
	CVERefs         []string  `json:"cve_refs,omitempty"`
	Active          bool      `json:"active"`
	SourceKind      string    `json:"source_kind"`
	ScannerResultID string    `json:"scanner_result_id,omitempty"`
	SourceAlertID   string    `json:"source_alert_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toVulnerabilityResponse(v *vulnerability.Vulnerability) VulnerabilityResponse {
	return VulnerabilityResponse{
		ID:              v.ID.String(),
		VulnerabilityID: v.VulnerabilityID,
		CaseID:          v.CaseID,
		Title:           v.Title,
		Description:     v.Description,
		Severity:        string(v.Severity),
		CVERefs:         v.CVERefs,
		Active:          v.Active,
		SourceKind:      string(v.Source.Kind),
		ScannerResultID: v.Source.ScannerResultID,
		SourceAlertID:   v.Source.AlertID,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}

func toVulnerabilityResponses(vulns []*vulnerability.Vulnerability) []VulnerabilityResponse {
	items := make([]VulnerabilityResponse, len(vulns))
	for i, v := range vulns {
		items[i] = toVulnerabilityResponse(v)
	}
	return items
}

// TicketResponse is the API representation of a remediation ticket.
type TicketResponse struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Status           string     `json:"status"`
	AssignedTo       string     `json:"assigned_to,omitempty"`
	VulnerabilityIDs []string   `json:"vulnerability_ids"`
	CreatedAt        time.Time  `json:"created_at"`
	AffectedAt       time.Time  `json:"affected_at"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
}

func toTicketResponse(t *ticket.Ticket) TicketResponse {
	return TicketResponse{
		ID:               t.ID.String(),
		Title:            t.Title,
		Status:           string(t.Status),
		AssignedTo:       t.AssignedTo,
		VulnerabilityIDs: t.VulnerabilityIDs,
		CreatedAt:        t.CreatedAt,
		AffectedAt:       t.AffectedAt,
		ResolvedAt:       t.ResolvedAt,
	}
}

func toTicketResponses(tickets []*ticket.Ticket) []TicketResponse {
	items := make([]TicketResponse, len(tickets))
	for i, t := range tickets {
		items[i] = toTicketResponse(t)
	}
	return items
}

// AlertResponse is the API representation of a SIEM alert.
type AlertResponse struct {
	ID                    string    `json:"id"`
	AlertID               string    `json:"alert_id"`
	RuleID                string    `json:"rule_id,omitempty"`
	Description           string    `json:"description"`
	Severity              int       `json:"severity"`
	SeverityBucket        string    `json:"severity_bucket"`
	Timestamp             time.Time `json:"timestamp"`
	LinkedVulnerabilityID string    `json:"linked_vulnerability_id,omitempty"`
}

func toAlertResponse(a *alert.Alert) AlertResponse {
	return AlertResponse{
		ID:                    a.ID.String(),
		AlertID:               a.AlertID,
		RuleID:                a.RuleID,
		Description:           a.Description,
		Severity:              a.Severity,
		SeverityBucket:        a.SeverityBucket(),
		Timestamp:             a.Timestamp,
		LinkedVulnerabilityID: a.LinkedVulnerabilityID,
	}
}

func toAlertResponses(alerts []*alert.Alert) []AlertResponse {
	items := make([]AlertResponse, len(alerts))
	for i, a := range alerts {
		items[i] = toAlertResponse(a)
	}
	return items
}
