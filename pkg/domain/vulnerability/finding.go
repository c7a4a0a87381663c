package vulnerability

import "strconv"

// Origin tags which subsystem a finding came from.
type Origin string

const (
	OriginScanner Origin = "scanner"
	OriginAlert   Origin = "alert"
	OriginMixed   Origin = "mixed"
)

// Finding is one structured finding as retrieved from the findings
// platform after an import batch, tagged with its originating tool.
// Scanner-origin and alert-origin findings populate different subsets of
// these fields; consumers go through NativeID and CandidateFields instead
// of probing fields directly.
type Finding struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`

	// CVE candidate fields, in scan order.
	CVE        string `json:"cve"`
	UnsavedCVE string `json:"unsaved_cve"`
	References string `json:"references"`

	// VulnIDFromTool is the tool's own finding identity when the importer
	// preserved one.
	VulnIDFromTool string `json:"vuln_id_from_tool"`

	// Tool is the origin tag attached when batches are merged ("gvm",
	// "wazuh"). It selects observable tags later and never affects the
	// dedup identity.
	Tool string `json:"tool"`
}

// NativeID returns the tool-native identity used as the dedup key:
// the tool's own finding id when present, the platform id otherwise.
func (f Finding) NativeID() string {
	if f.VulnIDFromTool != "" {
		return f.VulnIDFromTool
	}
	return strconv.Itoa(f.ID)
}

// CandidateFields returns the ordered set of fields scanned for CVE
// references: explicit CVE, candidate CVE, references, title, description.
func (f Finding) CandidateFields() []string {
	return []string{f.CVE, f.UnsavedCVE, f.References, f.Title, f.Description}
}
