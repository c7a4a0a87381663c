package app

import (
	"context"
	"time"

	"github.com/openvocio/api/pkg/domain/scan"
	"github.com/openvocio/api/pkg/logger"
)

// ScanService manages scan records for submitted scanner tasks.
type ScanService struct {
	scans    scan.Repository
	importer ImportGateway
	logger   *logger.Logger
}

// NewScanService creates a new ScanService.
func NewScanService(scans scan.Repository, importer ImportGateway, log *logger.Logger) *ScanService {
	return &ScanService{
		scans:    scans,
		importer: importer,
		logger:   log.With("service", "scan"),
	}
}

// CreateScanRequest carries the task identity and metadata of a newly
// submitted scanner task.
type CreateScanRequest struct {
	ScanID     string `json:"scan_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Comment    string `json:"comment"`
	TargetID   string `json:"target_id"`
	ScheduleID string `json:"schedule_id"`
}

// CreateScan registers a scan for a submitted task and provisions a
// findings-platform engagement for it. Engagement provisioning is best
// effort: a scan without one is stored anyway, and the pipeline skips
// its import steps until an operator fixes the engagement.
func (s *ScanService) CreateScan(ctx context.Context, req CreateScanRequest) (*scan.Scan, error) {
	engagementID, err := s.importer.CreateEngagement(ctx, req.Name, time.Now())
	if err != nil {
		s.logger.Warn("failed to create engagement, storing scan without one",
			"scan_id", req.ScanID,
			"error", err,
		)
		engagementID = 0
	}

	sc, err := scan.NewScan(req.ScanID, req.Name, engagementID)
	if err != nil {
		return nil, err
	}
	sc.Comment = req.Comment
	sc.TargetID = req.TargetID
	sc.ScheduleID = req.ScheduleID

	if err := s.scans.Create(ctx, sc); err != nil {
		return nil, err
	}

	s.logger.Info("scan registered",
		"scan_id", sc.ScanID,
		"engagement_id", sc.EngagementID,
	)

	return sc, nil
}

// GetScan returns a scan by its engine-native task id.
func (s *ScanService) GetScan(ctx context.Context, scanID string) (*scan.Scan, error) {
	return s.scans.GetByScanID(ctx, scanID)
}

// ListScans returns all scans.
func (s *ScanService) ListScans(ctx context.Context) ([]*scan.Scan, error) {
	return s.scans.List(ctx)
}

// DeleteScan removes a scan record.
func (s *ScanService) DeleteScan(ctx context.Context, scanID string) error {
	if err := s.scans.Delete(ctx, scanID); err != nil {
		return err
	}
	s.logger.Info("scan deleted", "scan_id", scanID)
	return nil
}
