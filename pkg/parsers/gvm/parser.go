package gvm

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors.
var (
	// ErrMalformed indicates the document is not a well-formed report.
	ErrMalformed = errors.New("malformed report document")

	// ErrEmptyReport indicates a well-formed report with no result
	// entries. Callers skip the import step but keep the status sync.
	ErrEmptyReport = errors.New("report contains no results")
)

// Severity bucket thresholds.
const (
	thresholdCritical = 9.0
	thresholdHigh     = 7.0
	thresholdMedium   = 4.0
)

// BucketScore maps a CVSS score onto a severity bucket name. Scores at or
// below zero, including negative ones, bucket as info.
func BucketScore(score float64) string {
	switch {
	case score >= thresholdCritical:
		return "critical"
	case score >= thresholdHigh:
		return "high"
	case score >= thresholdMedium:
		return "medium"
	case score > 0.0:
		return "low"
	default:
		return "info"
	}
}

// Parse converts a raw get_reports_response document into a Report.
//
// Result entries whose severity does not parse as a floating point value
// are skipped; a missing severity counts as 0.0. Malformed XML returns
// ErrMalformed, a report without results returns ErrEmptyReport.
func Parse(raw []byte, reportID string) (*Report, error) {
	var envelope getReportsResponse
	if err := xml.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	effective := envelope.Report
	if effective == nil {
		return nil, fmt.Errorf("%w: no report element", ErrMalformed)
	}
	// Some scanner versions wrap the results one report element deeper.
	if effective.Inner != nil {
		effective = effective.Inner
	}

	if effective.Results == nil || len(effective.Results.Entries) == 0 {
		return nil, ErrEmptyReport
	}

	rep := &Report{
		ReportID: effective.ID,
		Document: reportOnlyDocument(effective),
	}
	if rep.ReportID == "" {
		rep.ReportID = reportID
	}

	for _, entry := range effective.Results.Entries {
		score, ok := parseSeverity(entry.Severity)
		if !ok {
			continue
		}

		switch BucketScore(score) {
		case "critical":
			rep.Counts.Critical++
		case "high":
			rep.Counts.High++
		case "medium":
			rep.Counts.Medium++
		case "low":
			rep.Counts.Low++
		default:
			rep.Counts.Info++
		}
		rep.TotalFindings++
	}

	return rep, nil
}

// parseSeverity parses a result's severity text. An absent value counts
// as 0.0; anything unparseable skips the entry.
func parseSeverity(text string) (float64, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0.0, true
	}

	score, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return score, true
}

// reportOnlyDocument rebuilds the effective <report> element verbatim so
// the importer sees every field, not just the ones this parser reads.
func reportOnlyDocument(el *reportElement) []byte {
	var sb strings.Builder
	sb.WriteString("<report")
	if el.ID != "" {
		sb.WriteString(` id="`)
		xml.EscapeText(&sb, []byte(el.ID))
		sb.WriteString(`"`)
	}
	sb.WriteString(">")
	sb.WriteString(el.Raw)
	sb.WriteString("</report>")
	return []byte(sb.String())
}
