package vulnerability

import "strings"

// Tool tag tokens recognized by the source classifier.
const (
	scannerToolToken = "gvm"
	alertToolToken   = "wazuh"
)

// Source records which subsystem produced a vulnerability and that
// subsystem's native identifier. It only selects which observable tags
// get attached to the case later.
type Source struct {
	Kind            Origin `json:"kind"`
	ScannerResultID string `json:"scanner_result_id,omitempty"`
	AlertID         string `json:"alert_id,omitempty"`
}

// ClassifySource tags a finding with its originating subsystem based on
// the tool tag. Unrecognized tools classify as mixed with no native ids.
func ClassifySource(f Finding) Source {
	tool := strings.ToLower(f.Tool)

	switch {
	case strings.Contains(tool, scannerToolToken):
		return Source{Kind: OriginScanner, ScannerResultID: f.NativeID()}
	case strings.Contains(tool, alertToolToken):
		return Source{Kind: OriginAlert, AlertID: f.NativeID()}
	default:
		return Source{Kind: OriginMixed}
	}
}
