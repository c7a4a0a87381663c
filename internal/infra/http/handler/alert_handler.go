package handler

import (
	"net/http"

	"github.com/openvocio/api/internal/app"
)

// AlertHandler serves SIEM alerts.
type AlertHandler struct {
	alerts *app.AlertService
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(alerts *app.AlertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// List returns alerts stored within the trailing window.
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alerts.ListRecent(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toAlertResponses(alerts))
}

// Sync pulls the trailing window from the SIEM and stores the hits.
func (h *AlertHandler) Sync(w http.ResponseWriter, r *http.Request) {
	stored, err := h.alerts.SyncRecent(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"stored": stored})
}
