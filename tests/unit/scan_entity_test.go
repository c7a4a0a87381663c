package unit

import (
	"testing"
	"time"

	"github.com/openvocio/api/pkg/domain/scan"
	"github.com/openvocio/api/pkg/domain/shared"
)

func TestStatusFromExternal(t *testing.T) {
	cases := []struct {
		raw  string
		want scan.Status
	}{
		{"New", scan.StatusPending},
		{"Requested", scan.StatusPending},
		{"pending", scan.StatusPending},
		{"Pending", scan.StatusPending},
		{"Running", scan.StatusRunning},
		{"Queued", scan.StatusRunning},
		{"Done", scan.StatusDone},
		{"Stopped", scan.Status("Stopped")},
		{"Interrupted", scan.Status("Interrupted")},
	}
	for _, tc := range cases {
		if got := scan.StatusFromExternal(tc.raw); got != tc.want {
			t.Errorf("StatusFromExternal(%q): expected %s, got %s", tc.raw, tc.want, got)
		}
	}
}

func TestScan_NewScanValidation(t *testing.T) {
	if _, err := scan.NewScan("", "Weekly scan", 7); !shared.IsValidation(err) {
		t.Errorf("expected validation error for empty scan id, got %v", err)
	}
	if _, err := scan.NewScan("task-1", "", 7); !shared.IsValidation(err) {
		t.Errorf("expected validation error for empty name, got %v", err)
	}
}

func TestScan_MarkDone(t *testing.T) {
	s, err := scan.NewScan("task-1", "Weekly scan", 7)
	if err != nil {
		t.Fatalf("NewScan failed: %v", err)
	}
	if s.IsFinished() {
		t.Fatal("new scan must not be finished")
	}

	finished := time.Now().Add(-time.Minute)
	s.MarkDone(finished)

	if !s.IsFinished() {
		t.Error("expected scan to be finished")
	}
	if s.FinishedAt == nil || !s.FinishedAt.Equal(finished) {
		t.Errorf("expected FinishedAt %v, got %v", finished, s.FinishedAt)
	}
}

func TestScan_SyncStatusClearsFinishedAt(t *testing.T) {
	s, _ := scan.NewScan("task-1", "Weekly scan", 7)
	s.MarkDone(time.Now())

	s.SyncStatus(scan.StatusRunning)

	if s.Status != scan.StatusRunning {
		t.Errorf("expected Running, got %s", s.Status)
	}
	if s.FinishedAt != nil {
		t.Error("expected FinishedAt cleared for non-terminal status")
	}
}

func TestScan_ReadyForPipeline(t *testing.T) {
	s, _ := scan.NewScan("task-1", "Weekly scan", 7)

	if !s.ReadyForPipeline(scan.StatusDone) {
		t.Error("pending scan with external Done must be ready")
	}
	if s.ReadyForPipeline(scan.StatusRunning) {
		t.Error("external Running must not trigger the pipeline")
	}

	s.SyncStatus(scan.StatusRunning)
	if !s.ReadyForPipeline(scan.StatusDone) {
		t.Error("running scan with external Done must be ready")
	}

	s.MarkDone(time.Now())
	if s.ReadyForPipeline(scan.StatusDone) {
		t.Error("done scan must not re-enter the pipeline")
	}
}
