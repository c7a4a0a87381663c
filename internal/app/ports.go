package app

import (
	"context"
	"time"

	"github.com/openvocio/api/internal/infra/defectdojo"
	"github.com/openvocio/api/internal/infra/gvm"
	"github.com/openvocio/api/internal/infra/thehive"
	"github.com/openvocio/api/pkg/domain/alert"
	"github.com/openvocio/api/pkg/domain/vulnerability"
)

// ScannerEngine is the scanner-side surface the pipeline needs.
type ScannerEngine interface {
	ListTasks(ctx context.Context) ([]gvm.Task, error)
	GetTaskReportID(ctx context.Context, taskID string) (string, error)
	GetReport(ctx context.Context, reportID, format string) ([]byte, error)
}

// ImportGateway pushes report payloads into the findings platform and
// reads back the findings of an import batch.
type ImportGateway interface {
	ImportScan(ctx context.Context, payload []byte, kind defectdojo.PayloadKind, engagementID int) (int, error)
	GetTestFindings(ctx context.Context, testID int) ([]vulnerability.Finding, error)
	CreateEngagement(ctx context.Context, name string, startDate time.Time) (int, error)
}

// CaseGateway manages cases and their observables on the case platform.
type CaseGateway interface {
	CreateCase(ctx context.Context, req thehive.CaseRequest) (*thehive.Case, error)
	GetCase(ctx context.Context, caseID string) (*thehive.Case, error)
	UpdateCase(ctx context.Context, caseID string, patch map[string]any) error
	DeleteCase(ctx context.Context, caseID string) error
	CloseCase(ctx context.Context, caseID string) error
	CreateObservable(ctx context.Context, caseID string, obs thehive.Observable) (string, error)
}

// AlertSource queries the SIEM for recent alerts.
type AlertSource interface {
	QueryRecentAlerts(ctx context.Context, window time.Duration) ([]*alert.Alert, error)
}

// KnownIDCache is the optional fast path in front of the dedup store.
type KnownIDCache interface {
	Seen(ctx context.Context, vulnerabilityID string) (bool, error)
	MarkSeen(ctx context.Context, vulnerabilityID string) error
}
