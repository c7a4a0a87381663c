package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/openvocio/api/pkg/domain/vulnerability"
	"github.com/openvocio/api/pkg/validator"
)

// VulnerabilityHandler serves deduplicated vulnerability records.
type VulnerabilityHandler struct {
	vulns     vulnerability.Repository
	validator *validator.Validator
}

// NewVulnerabilityHandler creates a new vulnerability handler.
func NewVulnerabilityHandler(vulns vulnerability.Repository, v *validator.Validator) *VulnerabilityHandler {
	return &VulnerabilityHandler{vulns: vulns, validator: v}
}

// ListFilter narrows a vulnerability listing by severity or CVE
// reference. Empty fields match everything.
type ListFilter struct {
	Severity string `validate:"omitempty,severity"`
	CVE      string `validate:"omitempty,cve_id"`
}

// List returns vulnerabilities; ?unlinked=true restricts the result to
// records without a case, ?severity= and ?cve= filter the listing.
func (h *VulnerabilityHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Severity: r.URL.Query().Get("severity"),
		CVE:      r.URL.Query().Get("cve"),
	}
	if err := h.validator.Struct(filter); err != nil {
		respondError(w, err)
		return
	}

	var (
		records []*vulnerability.Vulnerability
		err     error
	)

	if r.URL.Query().Get("unlinked") == "true" {
		records, err = h.vulns.ListUnlinked(r.Context())
	} else {
		records, err = h.vulns.List(r.Context())
	}
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toVulnerabilityResponses(applyFilter(records, filter)))
}

func applyFilter(records []*vulnerability.Vulnerability, f ListFilter) []*vulnerability.Vulnerability {
	if f.Severity == "" && f.CVE == "" {
		return records
	}

	severity := vulnerability.Severity(strings.ToLower(f.Severity))
	cve := strings.ToUpper(f.CVE)

	out := make([]*vulnerability.Vulnerability, 0, len(records))
	for _, v := range records {
		if f.Severity != "" && v.Severity != severity {
			continue
		}
		if cve != "" && !hasCVE(v, cve) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func hasCVE(v *vulnerability.Vulnerability, cve string) bool {
	for _, ref := range v.CVERefs {
		if strings.EqualFold(ref, cve) {
			return true
		}
	}
	return false
}

// Get returns one vulnerability by its tool-native id.
func (h *VulnerabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.vulns.GetByVulnerabilityID(r.Context(), chi.URLParam(r, "vulnerabilityID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toVulnerabilityResponse(v))
}
