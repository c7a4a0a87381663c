package unit

import (
	"context"
	"testing"
	"time"

	"github.com/openvocio/api/internal/app"
	"github.com/openvocio/api/pkg/domain/shared"
	"github.com/openvocio/api/pkg/domain/ticket"
	"github.com/openvocio/api/pkg/domain/vulnerability"
	"github.com/openvocio/api/pkg/logger"
)

type ticketFixture struct {
	svc     *app.TicketService
	tickets *MockTicketRepository
	vulns   *MockVulnerabilityRepository
	cases   *MockCaseGateway
}

func newTicketFixture() *ticketFixture {
	f := &ticketFixture{
		tickets: NewMockTicketRepository(),
		vulns:   NewMockVulnerabilityRepository(),
		cases:   NewMockCaseGateway(),
	}
	f.svc = app.NewTicketService(f.tickets, f.vulns, f.cases, logger.NewNop())
	return f
}

// seedLinkedVulnerability stores a vulnerability with an open case.
func (f *ticketFixture) seedLinkedVulnerability(t *testing.T, vulnID, caseID string) {
	t.Helper()

	v, err := vulnerability.New(vulnID,
		vulnerability.Normalized{Title: "Finding " + vulnID, Severity: vulnerability.SeverityHigh},
		vulnerability.Source{Kind: vulnerability.OriginScanner, ScannerResultID: vulnID})
	if err != nil {
		t.Fatalf("New vulnerability failed: %v", err)
	}
	v.AttachCase(caseID)
	if err := f.vulns.Create(context.Background(), v); err != nil {
		t.Fatalf("seed vulnerability failed: %v", err)
	}
}

func TestTicketService_CreateTicket(t *testing.T) {
	f := newTicketFixture()

	created, err := f.svc.CreateTicket(context.Background(), app.CreateTicketRequest{
		Title:            "Patch mail servers",
		AssignedTo:       "alice",
		VulnerabilityIDs: []string{"vuln-1", "vuln-2"},
	})
	if err != nil {
		t.Fatalf("CreateTicket failed: %v", err)
	}

	if created.Status != ticket.StatusNotResolved {
		t.Errorf("expected new ticket to be not_resolved, got %s", created.Status)
	}
	if len(created.VulnerabilityIDs) != 2 {
		t.Errorf("expected 2 vulnerability ids, got %d", len(created.VulnerabilityIDs))
	}

	stored, err := f.tickets.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("ticket not persisted: %v", err)
	}
	if stored.Title != "Patch mail servers" {
		t.Errorf("unexpected title %q", stored.Title)
	}
}

func TestTicketService_CreateTicketRequiresTitle(t *testing.T) {
	f := newTicketFixture()

	if _, err := f.svc.CreateTicket(context.Background(), app.CreateTicketRequest{}); err == nil {
		t.Fatal("expected validation error for empty title")
	}
}

func TestTicketService_SetTicketStatus(t *testing.T) {
	f := newTicketFixture()

	created, _ := f.svc.CreateTicket(context.Background(), app.CreateTicketRequest{Title: "Triage"})

	updated, err := f.svc.SetTicketStatus(context.Background(), created.ID, ticket.StatusResolvedByUser)
	if err != nil {
		t.Fatalf("SetTicketStatus failed: %v", err)
	}
	if updated.Status != ticket.StatusResolvedByUser {
		t.Errorf("expected resolved_by_user, got %s", updated.Status)
	}

	if _, err := f.svc.SetTicketStatus(context.Background(), created.ID, ticket.Status("bogus")); err == nil {
		t.Error("expected invalid status to be rejected")
	}
}

func TestTicketService_CloseTicketClosesLinkedCases(t *testing.T) {
	f := newTicketFixture()
	f.seedLinkedVulnerability(t, "vuln-1", "~case-1")
	f.seedLinkedVulnerability(t, "vuln-2", "~case-2")

	// A vulnerability without a case must be skipped, not fail the close.
	noCase, _ := vulnerability.New("vuln-3",
		vulnerability.Normalized{Title: "No case yet", Severity: vulnerability.SeverityLow},
		vulnerability.Source{Kind: vulnerability.OriginScanner})
	_ = f.vulns.Create(context.Background(), noCase)

	created, _ := f.svc.CreateTicket(context.Background(), app.CreateTicketRequest{
		Title:            "Close everything",
		VulnerabilityIDs: []string{"vuln-1", "vuln-2", "vuln-3"},
	})

	closed, err := f.svc.CloseTicket(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("CloseTicket failed: %v", err)
	}

	if closed.Status != ticket.StatusClosed {
		t.Errorf("expected closed, got %s", closed.Status)
	}
	if closed.ResolvedAt == nil {
		t.Error("expected ResolvedAt to be set")
	}
	if len(f.cases.closed) != 2 {
		t.Errorf("expected 2 cases closed, got %d (%v)", len(f.cases.closed), f.cases.closed)
	}
}

func TestTicketService_CloseTicketKeepsStatusOnCaseFailure(t *testing.T) {
	f := newTicketFixture()
	f.seedLinkedVulnerability(t, "vuln-1", "~case-1")
	f.seedLinkedVulnerability(t, "vuln-2", "~case-2")
	f.cases.closeErr["~case-2"] = shared.ErrTransient

	created, _ := f.svc.CreateTicket(context.Background(), app.CreateTicketRequest{
		Title:            "Partial failure",
		VulnerabilityIDs: []string{"vuln-1", "vuln-2"},
	})

	if _, err := f.svc.CloseTicket(context.Background(), created.ID); err == nil {
		t.Fatal("expected CloseTicket to fail when a case close fails")
	}

	// The ticket keeps its status so the close can be retried.
	stored, _ := f.tickets.GetByID(context.Background(), created.ID)
	if stored.Status != ticket.StatusNotResolved {
		t.Errorf("expected ticket to stay not_resolved, got %s", stored.Status)
	}
	if stored.ResolvedAt != nil {
		t.Error("expected no resolution timestamp after failed close")
	}

	// Retry succeeds once the case platform recovers.
	delete(f.cases.closeErr, "~case-2")
	closed, err := f.svc.CloseTicket(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("retried CloseTicket failed: %v", err)
	}
	if closed.Status != ticket.StatusClosed {
		t.Errorf("expected closed after retry, got %s", closed.Status)
	}
}

func TestTicketService_CloseTicketUnknownID(t *testing.T) {
	f := newTicketFixture()

	if _, err := f.svc.CloseTicket(context.Background(), shared.NewID()); !shared.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTicketEntity_CloseSetsResolvedAt(t *testing.T) {
	tk, err := ticket.New("Entity check", "", nil)
	if err != nil {
		t.Fatalf("ticket.New failed: %v", err)
	}

	at := time.Now()
	tk.Close(at)

	if tk.Status != ticket.StatusClosed {
		t.Errorf("expected closed, got %s", tk.Status)
	}
	if tk.ResolvedAt == nil || !tk.ResolvedAt.Equal(at) {
		t.Errorf("expected ResolvedAt %v, got %v", at, tk.ResolvedAt)
	}
}
