package unit

import (
	"context"
	"testing"

	"github.com/openvocio/api/internal/app"
	"github.com/openvocio/api/pkg/domain/scan"
	"github.com/openvocio/api/pkg/domain/shared"
	"github.com/openvocio/api/pkg/logger"
)

func newScanFixture() (*app.ScanService, *MockScanRepository, *MockImportGateway) {
	scans := NewMockScanRepository()
	importer := NewMockImportGateway()
	svc := app.NewScanService(scans, importer, logger.NewNop())
	return svc, scans, importer
}

func TestScanService_CreateScanProvisionsEngagement(t *testing.T) {
	svc, scans, importer := newScanFixture()
	importer.engagementID = 42

	created, err := svc.CreateScan(context.Background(), app.CreateScanRequest{
		ScanID: "task-1",
		Name:   "Weekly scan",
	})
	if err != nil {
		t.Fatalf("CreateScan failed: %v", err)
	}

	if created.EngagementID != 42 {
		t.Errorf("expected engagement 42, got %d", created.EngagementID)
	}
	if created.Status != scan.StatusPending {
		t.Errorf("expected pending status, got %s", created.Status)
	}

	if _, err := scans.GetByScanID(context.Background(), "task-1"); err != nil {
		t.Errorf("scan not persisted: %v", err)
	}
}

func TestScanService_CreateScanSurvivesEngagementFailure(t *testing.T) {
	svc, _, importer := newScanFixture()
	importer.engagementErr = shared.ErrTransient

	created, err := svc.CreateScan(context.Background(), app.CreateScanRequest{
		ScanID: "task-1",
		Name:   "Weekly scan",
	})
	if err != nil {
		t.Fatalf("CreateScan failed: %v", err)
	}

	// Zero engagement marks the scan as unprovisioned; the pipeline will
	// flag it instead of importing into a bogus engagement.
	if created.EngagementID != 0 {
		t.Errorf("expected engagement 0 after provisioning failure, got %d", created.EngagementID)
	}
}

func TestScanService_CreateScanRejectsDuplicateTask(t *testing.T) {
	svc, _, _ := newScanFixture()

	req := app.CreateScanRequest{ScanID: "task-1", Name: "Weekly scan"}
	if _, err := svc.CreateScan(context.Background(), req); err != nil {
		t.Fatalf("first CreateScan failed: %v", err)
	}
	if _, err := svc.CreateScan(context.Background(), req); !shared.IsAlreadyExists(err) {
		t.Fatalf("expected already exists, got %v", err)
	}
}

func TestScanService_DeleteScan(t *testing.T) {
	svc, scans, _ := newScanFixture()

	_, _ = svc.CreateScan(context.Background(), app.CreateScanRequest{ScanID: "task-1", Name: "Weekly scan"})

	if err := svc.DeleteScan(context.Background(), "task-1"); err != nil {
		t.Fatalf("DeleteScan failed: %v", err)
	}
	if _, err := scans.GetByScanID(context.Background(), "task-1"); !shared.IsNotFound(err) {
		t.Error("expected scan to be gone")
	}

	if err := svc.DeleteScan(context.Background(), "task-1"); !shared.IsNotFound(err) {
		t.Errorf("expected not found on double delete, got %v", err)
	}
}
