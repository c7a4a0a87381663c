package handler

import (
	"net/http"

	"github.com/openvocio/api/internal/app"
	"github.com/openvocio/api/internal/infra/jobs"
	"github.com/openvocio/api/pkg/logger"
)

// ReconcileHandler triggers reconciliation passes on demand.
type ReconcileHandler struct {
	reconciler *app.ReconcilerService
	jobs       *jobs.Client
	logger     *logger.Logger
}

// NewReconcileHandler creates a new reconcile handler. The jobs client
// may be nil, in which case every trigger runs synchronously.
func NewReconcileHandler(reconciler *app.ReconcilerService, jobClient *jobs.Client, log *logger.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		reconciler: reconciler,
		jobs:       jobClient,
		logger:     log.With("handler", "reconcile"),
	}
}

// Trigger starts a reconciliation pass. By default the pass is queued
// and 202 returned; ?sync=true runs it inline and returns the list of
// newly finished scans.
func (h *ReconcileHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("sync") == "true" || h.jobs == nil {
		result, err := h.reconciler.Pass(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
		return
	}

	if err := h.jobs.EnqueueReconcilePass(r.Context(), "api"); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
