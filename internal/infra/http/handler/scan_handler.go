package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openvocio/api/internal/app"
	"github.com/openvocio/api/pkg/domain/report"
	"github.com/openvocio/api/pkg/validator"
)

// ScanHandler serves scan records and their report summaries.
type ScanHandler struct {
	scans     *app.ScanService
	summaries report.Repository
	validator *validator.Validator
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(scans *app.ScanService, summaries report.Repository, v *validator.Validator) *ScanHandler {
	return &ScanHandler{
		scans:     scans,
		summaries: summaries,
		validator: v,
	}
}

// Create registers a scan for a submitted scanner task.
func (h *ScanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req app.CreateScanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondError(w, err)
		return
	}

	sc, err := h.scans.CreateScan(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toScanResponse(sc))
}

// List returns all scans.
func (h *ScanHandler) List(w http.ResponseWriter, r *http.Request) {
	scans, err := h.scans.ListScans(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toScanResponses(scans))
}

// Get returns one scan by its engine-native task id.
func (h *ScanHandler) Get(w http.ResponseWriter, r *http.Request) {
	sc, err := h.scans.GetScan(r.Context(), chi.URLParam(r, "scanID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toScanResponse(sc))
}

// Delete removes a scan record.
func (h *ScanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.scans.DeleteScan(r.Context(), chi.URLParam(r, "scanID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary returns the latest report summary recorded for a scan.
func (h *ScanHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.summaries.GetByScanID(r.Context(), chi.URLParam(r, "scanID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toSummaryResponse(summary))
}
