package gvm

import "encoding/xml"

// Counts buckets results by the fixed CVSS thresholds. The thresholds are
// a platform-wide contract: report summaries and dashboards reproduce
// exactly these buckets.
type Counts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

// Total returns the number of bucketed results.
func (c Counts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low + c.Info
}

// Report is the parsed form of one scanner report.
type Report struct {
	// ReportID is the id attribute of the effective report element.
	ReportID string

	// Document is the report-only XML (the effective <report> element and
	// everything below it), suitable for findings-platform import.
	Document []byte

	// TotalFindings counts results whose severity parsed.
	TotalFindings int

	Counts Counts
}

// Wire structures for the get_reports_response envelope.

type getReportsResponse struct {
	XMLName xml.Name       `xml:"get_reports_response"`
	Status  string         `xml:"status,attr"`
	Report  *reportElement `xml:"report"`
}

type reportElement struct {
	ID string `xml:"id,attr"`

	// Inner holds the nested <report> some GVM versions emit one level
	// deeper inside the envelope's report wrapper.
	Inner *reportElement `xml:"report"`

	Results *resultsElement `xml:"results"`

	// Raw preserves the element's verbatim inner XML so the report-only
	// document keeps every field the importer understands.
	Raw string `xml:",innerxml"`
}

type resultsElement struct {
	Entries []resultEntry `xml:"result"`
}

type resultEntry struct {
	ID       string `xml:"id,attr"`
	Name     string `xml:"name"`
	Severity string `xml:"severity"`
}
