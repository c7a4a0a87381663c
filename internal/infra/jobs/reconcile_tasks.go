// Package jobs provides background job definitions and handlers using Asynq.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/openvocio/api/internal/app"
	"github.com/openvocio/api/pkg/logger"
)

// Task types for reconciliation jobs
const (
	TypeReconcilePass = "reconcile:pass"
	TypeAlertSync     = "alerts:sync"
)

// ReconcilePassPayload carries the trigger context of a queued pass.
type ReconcilePassPayload struct {
	TriggeredBy string    `json:"triggered_by"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewReconcilePassTask creates a queued reconciliation pass task.
func NewReconcilePassTask(payload ReconcilePassPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeReconcilePass, data, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute)), nil
}

// NewAlertSyncTask creates a queued alert sync task.
func NewAlertSyncTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeAlertSync, nil, asynq.MaxRetry(3), asynq.Timeout(2*time.Minute)), nil
}

// ReconcileTaskHandler processes queued reconciliation work.
type ReconcileTaskHandler struct {
	reconciler *app.ReconcilerService
	alerts     *app.AlertService
	logger     *logger.Logger
}

// NewReconcileTaskHandler creates a handler bound to the services.
func NewReconcileTaskHandler(reconciler *app.ReconcilerService, alerts *app.AlertService, log *logger.Logger) *ReconcileTaskHandler {
	return &ReconcileTaskHandler{
		reconciler: reconciler,
		alerts:     alerts,
		logger:     log.With("component", "reconcile_tasks"),
	}
}

// RegisterHandlers wires the handler into the worker mux.
func (h *ReconcileTaskHandler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeReconcilePass, h.HandleReconcilePass)
	mux.HandleFunc(TypeAlertSync, h.HandleAlertSync)
}

// HandleReconcilePass runs one reconciliation pass.
func (h *ReconcileTaskHandler) HandleReconcilePass(ctx context.Context, t *asynq.Task) error {
	var payload ReconcilePassPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	h.logger.Info("queued reconciliation pass starting", "triggered_by", payload.TriggeredBy)

	result, err := h.reconciler.Pass(ctx)
	if err != nil {
		return fmt.Errorf("reconciliation pass failed: %w", err)
	}

	h.logger.Info("queued reconciliation pass finished",
		"finished_scans", len(result.FinishedScanIDs),
	)
	return nil
}

// HandleAlertSync pulls the trailing alert window into storage.
func (h *ReconcileTaskHandler) HandleAlertSync(ctx context.Context, t *asynq.Task) error {
	stored, err := h.alerts.SyncRecent(ctx)
	if err != nil {
		return fmt.Errorf("alert sync failed: %w", err)
	}

	h.logger.Info("queued alert sync finished", "stored", stored)
	return nil
}
