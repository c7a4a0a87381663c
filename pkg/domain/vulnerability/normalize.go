package vulnerability

import (
	"regexp"
	"sort"
	"strings"
)

// cvePattern matches CVE identifiers anywhere in free text. Extraction is
// deliberately lenient: a finding without any CVE reference is valid.
var cvePattern = regexp.MustCompile(`(?i)CVE-\d{4}-\d{4,7}`)

// Normalized is the canonical shape shared by scanner-origin and
// alert-origin findings.
type Normalized struct {
	Title       string
	Description string
	Severity    Severity
	CVERefs     []string
}

// Normalize extracts the canonical identity fields from a finding.
func Normalize(f Finding) Normalized {
	return Normalized{
		Title:       f.Title,
		Description: f.Description,
		Severity:    ParseSeverity(f.Severity),
		CVERefs:     ExtractCVEs(f),
	}
}

// ExtractCVEs scans the finding's candidate fields and unions every CVE
// match into a deduplicated, sorted set. Matches are uppercased so the
// same reference found in different casings collapses to one entry.
func ExtractCVEs(f Finding) []string {
	seen := make(map[string]struct{})
	for _, field := range f.CandidateFields() {
		if field == "" {
			continue
		}
		for _, match := range cvePattern.FindAllString(field, -1) {
			seen[strings.ToUpper(match)] = struct{}{}
		}
	}

	refs := make([]string, 0, len(seen))
	for cve := range seen {
		refs = append(refs, cve)
	}
	sort.Strings(refs)
	return refs
}
