package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openvocio/api/internal/app"
	"github.com/openvocio/api/internal/config"
	"github.com/openvocio/api/internal/infra/defectdojo"
	"github.com/openvocio/api/internal/infra/gvm"
	"github.com/openvocio/api/pkg/domain/alert"
	"github.com/openvocio/api/pkg/domain/scan"
	"github.com/openvocio/api/pkg/domain/shared"
	"github.com/openvocio/api/pkg/domain/vulnerability"
	"github.com/openvocio/api/pkg/logger"
)

var sampleReport = []byte(`<get_reports_response status="200">
  <report id="rep-1">
    <results start="1" max="100">
      <result id="res-1">
        <name>Critical finding</name>
        <severity>9.5</severity>
      </result>
      <result id="res-2">
        <name>Low finding</name>
        <severity>2.0</severity>
      </result>
    </results>
  </report>
</get_reports_response>`)

var emptyReport = []byte(`<get_reports_response status="200">
  <report id="rep-empty">
    <results start="1" max="100"></results>
  </report>
</get_reports_response>`)

// reconcilerFixture wires a ReconcilerService against in-memory mocks.
type reconcilerFixture struct {
	svc      *app.ReconcilerService
	scans    *MockScanRepository
	vulns    *MockVulnerabilityRepository
	reports  *MockReportRepository
	alerts   *MockAlertRepository
	engine   *MockScannerEngine
	importer *MockImportGateway
	cases    *MockCaseGateway
	source   *MockAlertSource
	cache    *MockKnownIDCache
}

func newReconcilerFixture() *reconcilerFixture {
	f := &reconcilerFixture{
		scans:    NewMockScanRepository(),
		vulns:    NewMockVulnerabilityRepository(),
		reports:  NewMockReportRepository(),
		alerts:   NewMockAlertRepository(),
		engine:   NewMockScannerEngine(),
		importer: NewMockImportGateway(),
		cases:    NewMockCaseGateway(),
		source:   &MockAlertSource{},
		cache:    NewMockKnownIDCache(),
	}

	cfg := &config.ReconcilerConfig{
		AlertWindow:         time.Hour,
		ExternalCallTimeout: 5 * time.Second,
	}
	f.svc = app.NewReconcilerService(
		f.scans, f.vulns, f.reports, f.alerts,
		f.engine, f.importer, f.cases, f.source,
		f.cache, cfg, logger.NewNop(),
	)
	return f
}

// withFinishedScan seeds a tracked scan whose scanner task just finished,
// including a report and one import batch per source.
func (f *reconcilerFixture) withFinishedScan(t *testing.T) *scan.Scan {
	t.Helper()

	sc, err := scan.NewScan("task-1", "Weekly scan", 7)
	if err != nil {
		t.Fatalf("NewScan failed: %v", err)
	}
	if err := f.scans.Create(context.Background(), sc); err != nil {
		t.Fatalf("seed scan failed: %v", err)
	}

	f.engine.tasks = []gvm.Task{{ID: "task-1", Name: "Weekly scan", Status: "Done"}}
	f.engine.reportIDs["task-1"] = "rep-1"
	f.engine.reports["rep-1"] = sampleReport

	a, _ := alert.New("alert-1", "100002", 7, time.Now())
	f.source.alerts = []*alert.Alert{a}

	// Batch ids are handed out sequentially: 101 for the report import,
	// 102 for the alert import.
	f.importer.findings[101] = []vulnerability.Finding{
		{ID: 1, Title: "Critical finding", Severity: "Critical", VulnIDFromTool: "1.3.6.1.4.1.25623.1.0.1", CVE: "CVE-2024-0001"},
	}
	f.importer.findings[102] = []vulnerability.Finding{
		{ID: 2, Title: "Wazuh Rule 100002", Severity: "Medium", VulnIDFromTool: "alert-1"},
	}

	return sc
}

func TestReconcilerPass_FinishedScanRunsPipeline(t *testing.T) {
	f := newReconcilerFixture()
	f.withFinishedScan(t)

	result, err := f.svc.Pass(context.Background())
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}

	if len(result.FinishedScanIDs) != 1 || result.FinishedScanIDs[0] != "task-1" {
		t.Fatalf("expected task-1 in finished list, got %v", result.FinishedScanIDs)
	}

	sc, _ := f.scans.GetByScanID(context.Background(), "task-1")
	if sc.Status != scan.StatusDone {
		t.Errorf("expected status Done, got %s", sc.Status)
	}
	if sc.FinishedAt == nil {
		t.Error("expected FinishedAt to be set")
	}

	summary, err := f.reports.GetByScanID(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("expected a report summary: %v", err)
	}
	if summary.TotalFindings != 2 {
		t.Errorf("expected 2 findings in summary, got %d", summary.TotalFindings)
	}
	if summary.Counts.Critical != 1 || summary.Counts.Low != 1 {
		t.Errorf("unexpected severity counts: %+v", summary.Counts)
	}

	if len(f.importer.imports) != 2 {
		t.Fatalf("expected 2 import batches, got %d", len(f.importer.imports))
	}
	if f.importer.imports[0] != defectdojo.PayloadXML || f.importer.imports[1] != defectdojo.PayloadJSON {
		t.Errorf("expected XML then JSON import, got %v", f.importer.imports)
	}

	if f.vulns.creates != 2 {
		t.Errorf("expected 2 vulnerabilities created, got %d", f.vulns.creates)
	}

	scannerVuln, err := f.vulns.GetByVulnerabilityID(context.Background(), "1.3.6.1.4.1.25623.1.0.1")
	if err != nil {
		t.Fatalf("scanner vulnerability missing: %v", err)
	}
	if scannerVuln.Source.Kind != vulnerability.OriginScanner {
		t.Errorf("expected scanner origin, got %s", scannerVuln.Source.Kind)
	}
	if !scannerVuln.HasCase() {
		t.Error("expected a case to be attached to the scanner vulnerability")
	}

	alertVuln, err := f.vulns.GetByVulnerabilityID(context.Background(), "alert-1")
	if err != nil {
		t.Fatalf("alert vulnerability missing: %v", err)
	}
	if alertVuln.Source.Kind != vulnerability.OriginAlert {
		t.Errorf("expected alert origin, got %s", alertVuln.Source.Kind)
	}
	if f.alerts.linked["alert-1"] != "alert-1" {
		t.Errorf("expected alert-1 linked to its vulnerability, got %v", f.alerts.linked)
	}

	// CVE observable plus scanner result id observable on the first case.
	obs := f.cases.observables[scannerVuln.CaseID]
	if len(obs) != 2 {
		t.Errorf("expected 2 observables on scanner case, got %d", len(obs))
	}
}

func TestReconcilerPass_SummaryFailureDoesNotBlockImport(t *testing.T) {
	f := newReconcilerFixture()
	f.withFinishedScan(t)
	f.reports.createErr = errors.New("connection reset")

	result, err := f.svc.Pass(context.Background())
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}
	if len(result.FinishedScanIDs) != 1 {
		t.Fatalf("expected one finished scan, got %v", result.FinishedScanIDs)
	}

	// The Done transition already persisted, so the scan never re-enters
	// the pipeline. A failed summary write must not cost it the import.
	if len(f.importer.imports) != 2 {
		t.Errorf("expected both import batches despite summary failure, got %d", len(f.importer.imports))
	}
	if f.vulns.creates != 2 {
		t.Errorf("expected 2 vulnerabilities created, got %d", f.vulns.creates)
	}
	if _, err := f.reports.GetByScanID(context.Background(), "task-1"); !shared.IsNotFound(err) {
		t.Errorf("expected no stored summary, got %v", err)
	}
}

func TestReconcilerPass_SecondPassIsIdempotent(t *testing.T) {
	f := newReconcilerFixture()
	f.withFinishedScan(t)

	if _, err := f.svc.Pass(context.Background()); err != nil {
		t.Fatalf("first pass failed: %v", err)
	}

	result, err := f.svc.Pass(context.Background())
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}

	if len(result.FinishedScanIDs) != 0 {
		t.Errorf("expected no newly finished scans on second pass, got %v", result.FinishedScanIDs)
	}
	if f.vulns.creates != 2 {
		t.Errorf("expected vulnerability count unchanged at 2, got %d", f.vulns.creates)
	}
	if len(f.cases.cases) != 2 {
		t.Errorf("expected case count unchanged at 2, got %d", len(f.cases.cases))
	}
}

func TestReconcilerPass_DedupAcrossSources(t *testing.T) {
	f := newReconcilerFixture()
	f.withFinishedScan(t)

	// A record with the scanner finding's identity already exists; only
	// the alert finding should materialize.
	existing, _ := vulnerability.New("1.3.6.1.4.1.25623.1.0.1",
		vulnerability.Normalized{Title: "Seen before", Severity: vulnerability.SeverityHigh},
		vulnerability.Source{Kind: vulnerability.OriginScanner})
	if err := f.vulns.Create(context.Background(), existing); err != nil {
		t.Fatalf("seed vulnerability failed: %v", err)
	}
	f.vulns.creates = 0

	if _, err := f.svc.Pass(context.Background()); err != nil {
		t.Fatalf("Pass failed: %v", err)
	}

	if f.vulns.creates != 1 {
		t.Errorf("expected only the alert vulnerability created, got %d", f.vulns.creates)
	}
}

func TestReconcilerPass_KnownIDCacheShortCircuits(t *testing.T) {
	f := newReconcilerFixture()
	f.withFinishedScan(t)

	f.cache.seen["1.3.6.1.4.1.25623.1.0.1"] = true

	if _, err := f.svc.Pass(context.Background()); err != nil {
		t.Fatalf("Pass failed: %v", err)
	}

	if _, err := f.vulns.GetByVulnerabilityID(context.Background(), "1.3.6.1.4.1.25623.1.0.1"); !shared.IsNotFound(err) {
		t.Error("cached id must not reach the store")
	}
	if f.vulns.creates != 1 {
		t.Errorf("expected only the alert vulnerability created, got %d", f.vulns.creates)
	}
}

func TestReconcilerPass_EmptyReportSkipsImport(t *testing.T) {
	f := newReconcilerFixture()
	f.withFinishedScan(t)
	f.engine.reports["rep-1"] = emptyReport

	result, err := f.svc.Pass(context.Background())
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}

	// The Done transition sticks even though the import is skipped.
	if len(result.FinishedScanIDs) != 1 {
		t.Fatalf("expected scan in finished list, got %v", result.FinishedScanIDs)
	}
	sc, _ := f.scans.GetByScanID(context.Background(), "task-1")
	if sc.Status != scan.StatusDone {
		t.Errorf("expected status Done, got %s", sc.Status)
	}
	if len(f.importer.imports) != 0 {
		t.Errorf("expected no imports for an empty report, got %d", len(f.importer.imports))
	}
}

func TestReconcilerPass_MissingEngagementSkipsImport(t *testing.T) {
	f := newReconcilerFixture()
	sc := f.withFinishedScan(t)
	sc.EngagementID = 0

	if _, err := f.svc.Pass(context.Background()); err != nil {
		t.Fatalf("Pass failed: %v", err)
	}

	// The summary is still recorded; everything downstream is skipped.
	if _, err := f.reports.GetByScanID(context.Background(), "task-1"); err != nil {
		t.Errorf("expected a report summary despite missing engagement: %v", err)
	}
	if len(f.importer.imports) != 0 {
		t.Errorf("expected no imports without an engagement, got %d", len(f.importer.imports))
	}
	if f.vulns.creates != 0 {
		t.Errorf("expected no vulnerabilities, got %d", f.vulns.creates)
	}
}

func TestReconcilerPass_AlertQueryFailureStopsScanPipeline(t *testing.T) {
	f := newReconcilerFixture()
	f.withFinishedScan(t)
	f.source.queryErr = shared.ErrTransient

	result, err := f.svc.Pass(context.Background())
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}

	// Report import happened, alert import did not, scan stays Done.
	if len(f.importer.imports) != 1 {
		t.Fatalf("expected only the report import, got %d", len(f.importer.imports))
	}
	if f.vulns.creates != 0 {
		t.Errorf("expected no vulnerabilities after alert failure, got %d", f.vulns.creates)
	}
	if len(result.FinishedScanIDs) != 1 {
		t.Errorf("expected scan counted as finished, got %v", result.FinishedScanIDs)
	}
}

func TestReconcilerPass_SyncsNonTerminalStatus(t *testing.T) {
	f := newReconcilerFixture()

	sc, _ := scan.NewScan("task-2", "Nightly scan", 7)
	_ = f.scans.Create(context.Background(), sc)
	f.engine.tasks = []gvm.Task{{ID: "task-2", Status: "Running"}}

	result, err := f.svc.Pass(context.Background())
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}

	if len(result.FinishedScanIDs) != 0 {
		t.Errorf("running scan must not enter the pipeline, got %v", result.FinishedScanIDs)
	}
	got, _ := f.scans.GetByScanID(context.Background(), "task-2")
	if got.Status != scan.StatusRunning {
		t.Errorf("expected status Running, got %s", got.Status)
	}
}

func TestReconcilerPass_SkipsUntrackedTasks(t *testing.T) {
	f := newReconcilerFixture()
	f.engine.tasks = []gvm.Task{{ID: "unknown-task", Status: "Done"}}

	result, err := f.svc.Pass(context.Background())
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}
	if len(result.FinishedScanIDs) != 0 {
		t.Errorf("untracked task must be skipped, got %v", result.FinishedScanIDs)
	}
}

func TestReconcilerPass_ListTasksFailureAbortsPass(t *testing.T) {
	f := newReconcilerFixture()
	f.engine.listErr = errors.New("connection refused")

	if _, err := f.svc.Pass(context.Background()); err == nil {
		t.Fatal("expected Pass to fail when the scanner is unreachable")
	}
}

func TestReconcilerPass_DuplicateObservablesAreTolerated(t *testing.T) {
	f := newReconcilerFixture()
	f.withFinishedScan(t)

	if _, err := f.svc.Pass(context.Background()); err != nil {
		t.Fatalf("Pass failed: %v", err)
	}

	// Force the vulnerabilities back through case creation against case
	// ids that already carry their observables. Attaching the same
	// evidence again must count as success, not fail the pass.
	for id := range f.vulns.vulns {
		f.vulns.vulns[id].CaseID = ""
	}
	sc, _ := f.scans.GetByScanID(context.Background(), "task-1")
	sc.Status = scan.StatusRunning
	f.cases.nextCase = 0

	if _, err := f.svc.Pass(context.Background()); err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	for id := range f.vulns.vulns {
		if !f.vulns.vulns[id].HasCase() {
			t.Errorf("expected %s relinked to its case", id)
		}
	}
}
