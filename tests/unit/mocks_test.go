package unit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openvocio/api/internal/app"
	"github.com/openvocio/api/internal/infra/defectdojo"
	"github.com/openvocio/api/internal/infra/gvm"
	"github.com/openvocio/api/internal/infra/thehive"
	"github.com/openvocio/api/pkg/domain/alert"
	"github.com/openvocio/api/pkg/domain/report"
	"github.com/openvocio/api/pkg/domain/scan"
	"github.com/openvocio/api/pkg/domain/shared"
	"github.com/openvocio/api/pkg/domain/ticket"
	"github.com/openvocio/api/pkg/domain/vulnerability"
)

// MockScanRepository implements scan.Repository for testing.
type MockScanRepository struct {
	scans   map[string]*scan.Scan
	updates int
}

func NewMockScanRepository() *MockScanRepository {
	return &MockScanRepository{scans: make(map[string]*scan.Scan)}
}

func (m *MockScanRepository) Create(ctx context.Context, s *scan.Scan) error {
	if _, ok := m.scans[s.ScanID]; ok {
		return shared.ErrAlreadyExists
	}
	m.scans[s.ScanID] = s
	return nil
}

func (m *MockScanRepository) GetByScanID(ctx context.Context, scanID string) (*scan.Scan, error) {
	s, ok := m.scans[scanID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return s, nil
}

func (m *MockScanRepository) List(ctx context.Context) ([]*scan.Scan, error) {
	var result []*scan.Scan
	for _, s := range m.scans {
		result = append(result, s)
	}
	return result, nil
}

func (m *MockScanRepository) Update(ctx context.Context, s *scan.Scan) error {
	if _, ok := m.scans[s.ScanID]; !ok {
		return shared.ErrNotFound
	}
	m.scans[s.ScanID] = s
	m.updates++
	return nil
}

func (m *MockScanRepository) Delete(ctx context.Context, scanID string) error {
	if _, ok := m.scans[scanID]; !ok {
		return shared.ErrNotFound
	}
	delete(m.scans, scanID)
	return nil
}

// MockVulnerabilityRepository implements vulnerability.Repository with the
// same uniqueness guarantee the storage layer gives: Create rejects a
// second record per VulnerabilityID with shared.ErrAlreadyExists.
type MockVulnerabilityRepository struct {
	mu      sync.Mutex
	vulns   map[string]*vulnerability.Vulnerability
	creates int
}

func NewMockVulnerabilityRepository() *MockVulnerabilityRepository {
	return &MockVulnerabilityRepository{vulns: make(map[string]*vulnerability.Vulnerability)}
}

func (m *MockVulnerabilityRepository) Exists(ctx context.Context, vulnerabilityID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.vulns[vulnerabilityID]
	return ok, nil
}

func (m *MockVulnerabilityRepository) Create(ctx context.Context, v *vulnerability.Vulnerability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vulns[v.VulnerabilityID]; ok {
		return shared.ErrAlreadyExists
	}
	m.vulns[v.VulnerabilityID] = v
	m.creates++
	return nil
}

func (m *MockVulnerabilityRepository) GetByVulnerabilityID(ctx context.Context, vulnerabilityID string) (*vulnerability.Vulnerability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vulns[vulnerabilityID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return v, nil
}

func (m *MockVulnerabilityRepository) List(ctx context.Context) ([]*vulnerability.Vulnerability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*vulnerability.Vulnerability
	for _, v := range m.vulns {
		result = append(result, v)
	}
	return result, nil
}

func (m *MockVulnerabilityRepository) ListUnlinked(ctx context.Context) ([]*vulnerability.Vulnerability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*vulnerability.Vulnerability
	for _, v := range m.vulns {
		if !v.HasCase() {
			result = append(result, v)
		}
	}
	return result, nil
}

func (m *MockVulnerabilityRepository) ListByVulnerabilityIDs(ctx context.Context, ids []string) ([]*vulnerability.Vulnerability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*vulnerability.Vulnerability
	for _, id := range ids {
		if v, ok := m.vulns[id]; ok {
			result = append(result, v)
		}
	}
	return result, nil
}

func (m *MockVulnerabilityRepository) Update(ctx context.Context, v *vulnerability.Vulnerability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vulns[v.VulnerabilityID]; !ok {
		return shared.ErrNotFound
	}
	m.vulns[v.VulnerabilityID] = v
	return nil
}

// MockReportRepository implements report.Repository for testing.
type MockReportRepository struct {
	summaries []*report.Summary
	createErr error
}

func NewMockReportRepository() *MockReportRepository {
	return &MockReportRepository{}
}

func (m *MockReportRepository) Create(ctx context.Context, s *report.Summary) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.summaries = append(m.summaries, s)
	return nil
}

func (m *MockReportRepository) GetByScanID(ctx context.Context, scanID string) (*report.Summary, error) {
	for i := len(m.summaries) - 1; i >= 0; i-- {
		if m.summaries[i].ScanID == scanID {
			return m.summaries[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// MockAlertRepository implements alert.Repository for testing.
type MockAlertRepository struct {
	alerts map[string]*alert.Alert
	linked map[string]string
}

func NewMockAlertRepository() *MockAlertRepository {
	return &MockAlertRepository{
		alerts: make(map[string]*alert.Alert),
		linked: make(map[string]string),
	}
}

func (m *MockAlertRepository) Upsert(ctx context.Context, a *alert.Alert) error {
	m.alerts[a.AlertID] = a
	return nil
}

func (m *MockAlertRepository) ListSince(ctx context.Context, since time.Time) ([]*alert.Alert, error) {
	var result []*alert.Alert
	for _, a := range m.alerts {
		if !a.Timestamp.Before(since) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *MockAlertRepository) LinkVulnerability(ctx context.Context, alertID, vulnerabilityID string) error {
	if _, ok := m.alerts[alertID]; !ok {
		return shared.ErrNotFound
	}
	m.linked[alertID] = vulnerabilityID
	return nil
}

// MockTicketRepository implements ticket.Repository for testing.
type MockTicketRepository struct {
	tickets map[string]*ticket.Ticket
}

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{tickets: make(map[string]*ticket.Ticket)}
}

func (m *MockTicketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	m.tickets[t.ID.String()] = t
	return nil
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id shared.ID) (*ticket.Ticket, error) {
	t, ok := m.tickets[id.String()]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return t, nil
}

func (m *MockTicketRepository) List(ctx context.Context) ([]*ticket.Ticket, error) {
	var result []*ticket.Ticket
	for _, t := range m.tickets {
		result = append(result, t)
	}
	return result, nil
}

func (m *MockTicketRepository) Update(ctx context.Context, t *ticket.Ticket) error {
	if _, ok := m.tickets[t.ID.String()]; !ok {
		return shared.ErrNotFound
	}
	m.tickets[t.ID.String()] = t
	return nil
}

// MockScannerEngine implements app.ScannerEngine for testing.
type MockScannerEngine struct {
	tasks       []gvm.Task
	reportIDs   map[string]string
	reports     map[string][]byte
	listErr     error
	reportIDErr error
	reportErr   error
}

func NewMockScannerEngine() *MockScannerEngine {
	return &MockScannerEngine{
		reportIDs: make(map[string]string),
		reports:   make(map[string][]byte),
	}
}

func (m *MockScannerEngine) ListTasks(ctx context.Context) ([]gvm.Task, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.tasks, nil
}

func (m *MockScannerEngine) GetTaskReportID(ctx context.Context, taskID string) (string, error) {
	if m.reportIDErr != nil {
		return "", m.reportIDErr
	}
	id, ok := m.reportIDs[taskID]
	if !ok {
		return "", fmt.Errorf("task %s has no report: %w", taskID, shared.ErrConfiguration)
	}
	return id, nil
}

func (m *MockScannerEngine) GetReport(ctx context.Context, reportID, format string) ([]byte, error) {
	if m.reportErr != nil {
		return nil, m.reportErr
	}
	raw, ok := m.reports[reportID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return raw, nil
}

// MockImportGateway implements app.ImportGateway for testing.
type MockImportGateway struct {
	nextBatch     int
	imports       []defectdojo.PayloadKind
	findings      map[int][]vulnerability.Finding
	importErr     error
	engagementErr error
	engagementID  int
}

func NewMockImportGateway() *MockImportGateway {
	return &MockImportGateway{
		nextBatch:    100,
		findings:     make(map[int][]vulnerability.Finding),
		engagementID: 7,
	}
}

func (m *MockImportGateway) ImportScan(ctx context.Context, payload []byte, kind defectdojo.PayloadKind, engagementID int) (int, error) {
	if m.importErr != nil {
		return 0, m.importErr
	}
	m.nextBatch++
	m.imports = append(m.imports, kind)
	return m.nextBatch, nil
}

func (m *MockImportGateway) GetTestFindings(ctx context.Context, testID int) ([]vulnerability.Finding, error) {
	return m.findings[testID], nil
}

func (m *MockImportGateway) CreateEngagement(ctx context.Context, name string, startDate time.Time) (int, error) {
	if m.engagementErr != nil {
		return 0, m.engagementErr
	}
	return m.engagementID, nil
}

// MockCaseGateway implements app.CaseGateway for testing. CloseCase is
// called from concurrent goroutines, so the mutating paths lock.
type MockCaseGateway struct {
	mu          sync.Mutex
	nextCase    int
	cases       map[string]*thehive.Case
	closed      []string
	observables map[string][]thehive.Observable
	createErr   error
	closeErr    map[string]error
	obsErr      error
}

func NewMockCaseGateway() *MockCaseGateway {
	return &MockCaseGateway{
		cases:       make(map[string]*thehive.Case),
		observables: make(map[string][]thehive.Observable),
		closeErr:    make(map[string]error),
	}
}

func (m *MockCaseGateway) CreateCase(ctx context.Context, req thehive.CaseRequest) (*thehive.Case, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextCase++
	c := &thehive.Case{
		ID:       fmt.Sprintf("~case-%d", m.nextCase),
		Title:    req.Title,
		Severity: req.Severity,
	}
	m.cases[c.ID] = c
	return c, nil
}

func (m *MockCaseGateway) GetCase(ctx context.Context, caseID string) (*thehive.Case, error) {
	c, ok := m.cases[caseID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (m *MockCaseGateway) UpdateCase(ctx context.Context, caseID string, patch map[string]any) error {
	if _, ok := m.cases[caseID]; !ok {
		return shared.ErrNotFound
	}
	return nil
}

func (m *MockCaseGateway) DeleteCase(ctx context.Context, caseID string) error {
	delete(m.cases, caseID)
	return nil
}

func (m *MockCaseGateway) CloseCase(ctx context.Context, caseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.closeErr[caseID]; err != nil {
		return err
	}
	m.closed = append(m.closed, caseID)
	return nil
}

func (m *MockCaseGateway) CreateObservable(ctx context.Context, caseID string, obs thehive.Observable) (string, error) {
	if m.obsErr != nil {
		return "", m.obsErr
	}
	for _, existing := range m.observables[caseID] {
		if existing.Data == obs.Data {
			return "", shared.ErrDuplicateEvidence
		}
	}
	m.observables[caseID] = append(m.observables[caseID], obs)
	return fmt.Sprintf("obs-%d", len(m.observables[caseID])), nil
}

// MockAlertSource implements app.AlertSource for testing.
type MockAlertSource struct {
	alerts   []*alert.Alert
	queryErr error
}

func (m *MockAlertSource) QueryRecentAlerts(ctx context.Context, window time.Duration) ([]*alert.Alert, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.alerts, nil
}

// MockKnownIDCache implements app.KnownIDCache for testing.
type MockKnownIDCache struct {
	seen map[string]bool
}

func NewMockKnownIDCache() *MockKnownIDCache {
	return &MockKnownIDCache{seen: make(map[string]bool)}
}

func (m *MockKnownIDCache) Seen(ctx context.Context, vulnerabilityID string) (bool, error) {
	return m.seen[vulnerabilityID], nil
}

func (m *MockKnownIDCache) MarkSeen(ctx context.Context, vulnerabilityID string) error {
	m.seen[vulnerabilityID] = true
	return nil
}

var _ app.KnownIDCache = (*MockKnownIDCache)(nil)
