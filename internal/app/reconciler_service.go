package app

import (
	"context"
	"errors"
	"time"

	"github.com/openvocio/api/internal/config"
	"github.com/openvocio/api/internal/infra/defectdojo"
	"github.com/openvocio/api/internal/infra/gvm"
	"github.com/openvocio/api/internal/infra/thehive"
	"github.com/openvocio/api/internal/infra/wazuh"
	"github.com/openvocio/api/internal/metrics"
	"github.com/openvocio/api/pkg/domain/alert"
	"github.com/openvocio/api/pkg/domain/report"
	"github.com/openvocio/api/pkg/domain/scan"
	"github.com/openvocio/api/pkg/domain/shared"
	"github.com/openvocio/api/pkg/domain/vulnerability"
	"github.com/openvocio/api/pkg/logger"
	gvmparser "github.com/openvocio/api/pkg/parsers/gvm"
)

// ReconcilerService drives the scan completion pipeline: it detects
// externally finished scans, records their transition, and walks each
// one through report parsing, findings import, alert merge, dedup and
// case creation. One scan failing never stops the pass.
type ReconcilerService struct {
	scans   scan.Repository
	vulns   vulnerability.Repository
	reports report.Repository
	alerts  alert.Repository

	engine      ScannerEngine
	importer    ImportGateway
	cases       CaseGateway
	alertSource AlertSource

	// knownIDs is optional; nil disables the cache fast path.
	knownIDs KnownIDCache

	alertWindow time.Duration
	callTimeout time.Duration
	logger      *logger.Logger
}

// NewReconcilerService creates a new ReconcilerService.
func NewReconcilerService(
	scans scan.Repository,
	vulns vulnerability.Repository,
	reports report.Repository,
	alerts alert.Repository,
	engine ScannerEngine,
	importer ImportGateway,
	cases CaseGateway,
	alertSource AlertSource,
	knownIDs KnownIDCache,
	cfg *config.ReconcilerConfig,
	log *logger.Logger,
) *ReconcilerService {
	return &ReconcilerService{
		scans:       scans,
		vulns:       vulns,
		reports:     reports,
		alerts:      alerts,
		engine:      engine,
		importer:    importer,
		cases:       cases,
		alertSource: alertSource,
		knownIDs:    knownIDs,
		alertWindow: cfg.AlertWindow,
		callTimeout: cfg.ExternalCallTimeout,
		logger:      log.With("service", "reconciler"),
	}
}

// PassResult reports what a reconciliation pass did.
type PassResult struct {
	// FinishedScanIDs lists scans that transitioned to Done during this
	// pass, whether or not their downstream steps succeeded.
	FinishedScanIDs []string `json:"newly_finished"`

	Duration time.Duration `json:"-"`
}

// Pass runs one full reconciliation pass. It returns an error only when
// the pass could not start at all; per-scan failures are logged and
// counted but never abort the remaining scans.
func (s *ReconcilerService) Pass(ctx context.Context) (*PassResult, error) {
	start := time.Now()
	s.logger.Info("reconciliation pass started")

	tasks, err := s.listTasks(ctx)
	if err != nil {
		metrics.ReconcilePassesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	result := &PassResult{FinishedScanIDs: []string{}}
	for _, task := range tasks {
		sc, err := s.scans.GetByScanID(ctx, task.ID)
		if err != nil {
			if shared.IsNotFound(err) {
				s.logger.Debug("no scan record for task, skipping", "task_id", task.ID)
				continue
			}
			s.logger.Error("failed to load scan", "task_id", task.ID, "error", err)
			continue
		}

		external := scan.StatusFromExternal(task.Status)
		if sc.ReadyForPipeline(external) {
			s.processFinishedScan(ctx, sc)
			result.FinishedScanIDs = append(result.FinishedScanIDs, sc.ScanID)
			continue
		}

		if sc.Status != external {
			s.logger.Info("syncing scan status",
				"scan_id", sc.ScanID,
				"from", sc.Status,
				"to", external,
			)
			sc.SyncStatus(external)
			if err := s.scans.Update(ctx, sc); err != nil {
				s.logger.Error("failed to sync scan status", "scan_id", sc.ScanID, "error", err)
			}
		}
	}

	result.Duration = time.Since(start)
	metrics.ReconcilePassesTotal.WithLabelValues("success").Inc()
	metrics.ReconcilePassDuration.Observe(result.Duration.Seconds())
	s.logger.Info("reconciliation pass completed",
		"finished_scans", len(result.FinishedScanIDs),
		"duration_ms", result.Duration.Milliseconds(),
	)

	return result, nil
}

func (s *ReconcilerService) listTasks(ctx context.Context) ([]gvm.Task, error) {
	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	tasks, err := s.engine.ListTasks(cctx)
	if err != nil {
		s.logger.Error("failed to list scanner tasks", "error", err)
		return nil, err
	}

	s.logger.Debug("scanner tasks retrieved", "count", len(tasks))
	return tasks, nil
}

// processFinishedScan walks one newly finished scan through the
// pipeline. The Done transition persists first; everything after is
// best effort for this pass and retried work is deduplicated by the
// storage layer.
func (s *ReconcilerService) processFinishedScan(ctx context.Context, sc *scan.Scan) {
	log := s.logger.With("scan_id", sc.ScanID)
	log.Info("scan finished, starting pipeline")

	sc.MarkDone(time.Now())
	if err := s.scans.Update(ctx, sc); err != nil {
		log.Error("failed to persist finished status", "error", err)
		metrics.ScanStepFailuresTotal.WithLabelValues("persist_done").Inc()
		return
	}
	metrics.ScansFinishedTotal.Inc()

	parsed, ok := s.fetchAndParseReport(ctx, sc, log)
	if !ok {
		return
	}

	summary := report.NewSummary(parsed.ReportID, sc.ScanID, parsed.TotalFindings, report.SeverityCounts{
		Critical: parsed.Counts.Critical,
		High:     parsed.Counts.High,
		Medium:   parsed.Counts.Medium,
		Low:      parsed.Counts.Low,
		Info:     parsed.Counts.Info,
	})
	// Summary persistence is best effort. The Done transition already
	// stuck, so a failed write here must not suppress the import.
	if err := s.reports.Create(ctx, summary); err != nil {
		log.Error("failed to record report summary", "error", err)
		metrics.ScanStepFailuresTotal.WithLabelValues("summary").Inc()
	} else {
		log.Info("report summary recorded",
			"report_id", parsed.ReportID,
			"total_findings", parsed.TotalFindings,
		)
	}

	if sc.EngagementID == 0 {
		log.Warn("scan has no engagement, skipping import")
		metrics.ScanStepFailuresTotal.WithLabelValues("engagement").Inc()
		return
	}

	findings, ok := s.importBatches(ctx, sc, parsed.Document, log)
	if !ok {
		return
	}

	s.materializeFindings(ctx, findings, log)
	s.createCasesForUnlinked(ctx, log)
}

func (s *ReconcilerService) fetchAndParseReport(ctx context.Context, sc *scan.Scan, log *logger.Logger) (*gvmparser.Report, bool) {
	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	reportID, err := s.engine.GetTaskReportID(cctx, sc.ScanID)
	if err != nil {
		log.Warn("failed to resolve report id", "error", err)
		metrics.ScanStepFailuresTotal.WithLabelValues("report_id").Inc()
		return nil, false
	}

	raw, err := s.engine.GetReport(cctx, reportID, "xml")
	if err != nil {
		log.Warn("failed to fetch report", "report_id", reportID, "error", err)
		metrics.ScanStepFailuresTotal.WithLabelValues("fetch_report").Inc()
		return nil, false
	}

	parsed, err := gvmparser.Parse(raw, reportID)
	if err != nil {
		if errors.Is(err, gvmparser.ErrEmptyReport) {
			log.Info("report has no results, skipping import", "report_id", reportID)
		} else {
			log.Warn("failed to parse report", "report_id", reportID, "error", err)
		}
		metrics.ScanStepFailuresTotal.WithLabelValues("parse").Inc()
		return nil, false
	}

	return parsed, true
}

// importBatches pushes the scanner report and the recent-alert batch
// into the scan's engagement, then retrieves both batches' findings
// tagged with their originating tool.
func (s *ReconcilerService) importBatches(ctx context.Context, sc *scan.Scan, document []byte, log *logger.Logger) ([]vulnerability.Finding, bool) {
	scanBatch, err := s.importPayload(ctx, document, defectdojo.PayloadXML, sc.EngagementID)
	if err != nil {
		log.Error("report import failed", "error", err)
		metrics.ScanStepFailuresTotal.WithLabelValues("import_report").Inc()
		return nil, false
	}

	recent, err := s.queryRecentAlerts(ctx)
	if err != nil {
		log.Warn("alert query failed", "error", err)
		metrics.ScanStepFailuresTotal.WithLabelValues("query_alerts").Inc()
		return nil, false
	}
	for _, a := range recent {
		if err := s.alerts.Upsert(ctx, a); err != nil {
			log.Error("failed to store alert", "alert_id", a.AlertID, "error", err)
		}
	}

	payload, err := wazuh.ToGenericFindings(recent)
	if err != nil {
		log.Error("failed to build alert import payload", "error", err)
		metrics.ScanStepFailuresTotal.WithLabelValues("import_alerts").Inc()
		return nil, false
	}

	alertBatch, err := s.importPayload(ctx, payload, defectdojo.PayloadJSON, sc.EngagementID)
	if err != nil {
		log.Error("alert import failed", "error", err)
		metrics.ScanStepFailuresTotal.WithLabelValues("import_alerts").Inc()
		return nil, false
	}

	log.Info("import batches created",
		"scan_batch", scanBatch,
		"alert_batch", alertBatch,
		"alerts", len(recent),
	)

	scanFindings, err := s.batchFindings(ctx, scanBatch, "gvm")
	if err != nil {
		log.Error("failed to retrieve scanner findings", "batch", scanBatch, "error", err)
		metrics.ScanStepFailuresTotal.WithLabelValues("get_findings").Inc()
		return nil, false
	}

	alertFindings, err := s.batchFindings(ctx, alertBatch, "wazuh")
	if err != nil {
		log.Error("failed to retrieve alert findings", "batch", alertBatch, "error", err)
		metrics.ScanStepFailuresTotal.WithLabelValues("get_findings").Inc()
		return nil, false
	}

	return append(scanFindings, alertFindings...), true
}

func (s *ReconcilerService) importPayload(ctx context.Context, payload []byte, kind defectdojo.PayloadKind, engagementID int) (int, error) {
	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return s.importer.ImportScan(cctx, payload, kind, engagementID)
}

func (s *ReconcilerService) queryRecentAlerts(ctx context.Context) ([]*alert.Alert, error) {
	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return s.alertSource.QueryRecentAlerts(cctx, s.alertWindow)
}

func (s *ReconcilerService) batchFindings(ctx context.Context, batchID int, tool string) ([]vulnerability.Finding, error) {
	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	findings, err := s.importer.GetTestFindings(cctx, batchID)
	if err != nil {
		return nil, err
	}
	for i := range findings {
		findings[i].Tool = tool
	}
	return findings, nil
}

// materializeFindings turns the working set into Vulnerability records.
// The storage-layer uniqueness constraint on the tool-native id is the
// dedup boundary; Exists and the known-id cache only save round trips.
func (s *ReconcilerService) materializeFindings(ctx context.Context, findings []vulnerability.Finding, log *logger.Logger) {
	created := 0
	for _, f := range findings {
		vulnID := f.NativeID()
		if vulnID == "" {
			continue
		}

		if s.cachedSeen(ctx, vulnID) {
			metrics.VulnerabilitiesDedupedTotal.Inc()
			continue
		}

		exists, err := s.vulns.Exists(ctx, vulnID)
		if err != nil {
			log.Error("dedup check failed", "vulnerability_id", vulnID, "error", err)
			continue
		}
		if exists {
			metrics.VulnerabilitiesDedupedTotal.Inc()
			s.cacheMark(ctx, vulnID)
			continue
		}

		src := vulnerability.ClassifySource(f)
		v, err := vulnerability.New(vulnID, vulnerability.Normalize(f), src)
		if err != nil {
			log.Error("invalid finding", "vulnerability_id", vulnID, "error", err)
			continue
		}

		if err := s.vulns.Create(ctx, v); err != nil {
			if shared.IsAlreadyExists(err) {
				// Lost a race with a concurrent pass. The constraint did its
				// job, count it as a dedup.
				metrics.VulnerabilitiesDedupedTotal.Inc()
				s.cacheMark(ctx, vulnID)
				continue
			}
			log.Error("failed to create vulnerability", "vulnerability_id", vulnID, "error", err)
			metrics.ScanStepFailuresTotal.WithLabelValues("create_vulnerability").Inc()
			continue
		}

		metrics.VulnerabilitiesCreatedTotal.WithLabelValues(string(src.Kind)).Inc()
		created++

		if src.AlertID != "" {
			if err := s.alerts.LinkVulnerability(ctx, src.AlertID, vulnID); err != nil {
				log.Warn("failed to link alert", "alert_id", src.AlertID, "error", err)
			}
		}

		s.cacheMark(ctx, vulnID)
	}

	log.Info("findings materialized", "working_set", len(findings), "created", created)
}

// createCasesForUnlinked opens a case for every vulnerability that has
// none yet and attaches its evidence. Each vulnerability and each
// observable fails independently.
func (s *ReconcilerService) createCasesForUnlinked(ctx context.Context, log *logger.Logger) {
	unlinked, err := s.vulns.ListUnlinked(ctx)
	if err != nil {
		log.Error("failed to list unlinked vulnerabilities", "error", err)
		return
	}

	for _, v := range unlinked {
		cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
		created, err := s.cases.CreateCase(cctx, thehive.CaseRequest{
			Title:       v.Title,
			Description: v.Description,
			Severity:    thehive.SeverityFor(v.Severity),
		})
		cancel()
		if err != nil {
			log.Error("failed to create case", "vulnerability_id", v.VulnerabilityID, "error", err)
			metrics.ScanStepFailuresTotal.WithLabelValues("create_case").Inc()
			continue
		}

		v.AttachCase(created.ID)
		if err := s.vulns.Update(ctx, v); err != nil {
			log.Error("failed to link case", "vulnerability_id", v.VulnerabilityID, "case_id", created.ID, "error", err)
			continue
		}
		metrics.CasesCreatedTotal.Inc()

		s.attachObservables(ctx, created.ID, v, log)
	}
}

func (s *ReconcilerService) attachObservables(ctx context.Context, caseID string, v *vulnerability.Vulnerability, log *logger.Logger) {
	var observables []thehive.Observable

	for _, cve := range v.CVERefs {
		observables = append(observables, thehive.Observable{
			DataType: "other",
			Data:     cve,
			TLP:      2,
			Tags:     []string{"cve"},
			Message:  "CVE Identifier " + cve,
		})
	}
	if v.Source.ScannerResultID != "" {
		observables = append(observables, thehive.Observable{
			DataType: "other",
			Data:     v.Source.ScannerResultID,
			TLP:      2,
			Tags:     []string{"gvm"},
			Message:  "Scanner result ID for finding " + v.VulnerabilityID,
		})
	}
	if v.Source.AlertID != "" {
		observables = append(observables, thehive.Observable{
			DataType: "other",
			Data:     v.Source.AlertID,
			TLP:      2,
			Tags:     []string{"wazuh"},
			Message:  "Alert ID for finding " + v.VulnerabilityID,
		})
	}

	for _, obs := range observables {
		cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
		_, err := s.cases.CreateObservable(cctx, caseID, obs)
		cancel()

		switch {
		case err == nil:
			metrics.ObservablesAttachedTotal.WithLabelValues("created").Inc()
		case errors.Is(err, shared.ErrDuplicateEvidence):
			// Already attached, same outcome as a fresh attach.
			metrics.ObservablesAttachedTotal.WithLabelValues("duplicate").Inc()
		default:
			log.Warn("failed to attach observable",
				"case_id", caseID,
				"data", obs.Data,
				"error", err,
			)
			metrics.ObservablesAttachedTotal.WithLabelValues("error").Inc()
		}
	}
}

func (s *ReconcilerService) cachedSeen(ctx context.Context, vulnerabilityID string) bool {
	if s.knownIDs == nil {
		return false
	}
	seen, err := s.knownIDs.Seen(ctx, vulnerabilityID)
	if err != nil {
		s.logger.Debug("known-id cache lookup failed", "error", err)
		return false
	}
	return seen
}

func (s *ReconcilerService) cacheMark(ctx context.Context, vulnerabilityID string) {
	if s.knownIDs == nil {
		return
	}
	if err := s.knownIDs.MarkSeen(ctx, vulnerabilityID); err != nil {
		s.logger.Debug("known-id cache mark failed", "error", err)
	}
}
