package app

import (
	"context"
	"time"

	"github.com/openvocio/api/pkg/domain/alert"
	"github.com/openvocio/api/pkg/logger"
)

// AlertService syncs and serves SIEM alerts.
type AlertService struct {
	alerts alert.Repository
	source AlertSource
	window time.Duration
	logger *logger.Logger
}

// NewAlertService creates a new AlertService.
func NewAlertService(alerts alert.Repository, source AlertSource, window time.Duration, log *logger.Logger) *AlertService {
	return &AlertService{
		alerts: alerts,
		source: source,
		window: window,
		logger: log.With("service", "alert"),
	}
}

// SyncRecent pulls the trailing alert window from the source and upserts
// each hit. The alert-id upsert keeps repeated syncs idempotent.
func (s *AlertService) SyncRecent(ctx context.Context) (int, error) {
	recent, err := s.source.QueryRecentAlerts(ctx, s.window)
	if err != nil {
		return 0, err
	}

	stored := 0
	for _, a := range recent {
		if err := s.alerts.Upsert(ctx, a); err != nil {
			s.logger.Error("failed to store alert", "alert_id", a.AlertID, "error", err)
			continue
		}
		stored++
	}

	s.logger.Info("alert sync completed", "fetched", len(recent), "stored", stored)
	return stored, nil
}

// ListRecent returns stored alerts from the trailing window.
func (s *AlertService) ListRecent(ctx context.Context) ([]*alert.Alert, error) {
	return s.alerts.ListSince(ctx, time.Now().Add(-s.window))
}
