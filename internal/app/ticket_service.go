package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openvocio/api/pkg/domain/shared"
	"github.com/openvocio/api/pkg/domain/ticket"
	"github.com/openvocio/api/pkg/domain/vulnerability"
	"github.com/openvocio/api/pkg/logger"
)

// TicketService manages remediation tickets and their linked cases.
type TicketService struct {
	tickets ticket.Repository
	vulns   vulnerability.Repository
	cases   CaseGateway
	logger  *logger.Logger
}

// NewTicketService creates a new TicketService.
func NewTicketService(tickets ticket.Repository, vulns vulnerability.Repository, cases CaseGateway, log *logger.Logger) *TicketService {
	return &TicketService{
		tickets: tickets,
		vulns:   vulns,
		cases:   cases,
		logger:  log.With("service", "ticket"),
	}
}

// CreateTicketRequest carries a new ticket's fields.
type CreateTicketRequest struct {
	Title            string   `json:"title" validate:"required"`
	AssignedTo       string   `json:"assigned_to"`
	VulnerabilityIDs []string `json:"vulnerability_ids"`
}

// CreateTicket creates a ticket covering the given vulnerabilities.
func (s *TicketService) CreateTicket(ctx context.Context, req CreateTicketRequest) (*ticket.Ticket, error) {
	t, err := ticket.New(req.Title, req.AssignedTo, req.VulnerabilityIDs)
	if err != nil {
		return nil, err
	}

	if err := s.tickets.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("ticket created", "ticket_id", t.ID, "vulnerabilities", len(t.VulnerabilityIDs))
	return t, nil
}

// GetTicket returns a ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, id shared.ID) (*ticket.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// ListTickets returns all tickets.
func (s *TicketService) ListTickets(ctx context.Context) ([]*ticket.Ticket, error) {
	return s.tickets.List(ctx)
}

// SetTicketStatus applies a manual status change without touching the
// linked cases.
func (s *TicketService) SetTicketStatus(ctx context.Context, id shared.ID, status ticket.Status) (*ticket.Ticket, error) {
	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := t.SetStatus(status); err != nil {
		return nil, err
	}

	if err := s.tickets.Update(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("ticket status changed", "ticket_id", t.ID, "status", t.Status)
	return t, nil
}

// CloseTicket closes every case linked to the ticket's vulnerabilities,
// then marks the ticket closed. Case closes run concurrently; if any of
// them fails the ticket keeps its status so the operation can be
// retried.
func (s *TicketService) CloseTicket(ctx context.Context, id shared.ID) (*ticket.Ticket, error) {
	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	linked, err := s.vulns.ListByVulnerabilityIDs(ctx, t.VulnerabilityIDs)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, v := range linked {
		if !v.HasCase() {
			continue
		}
		caseID := v.CaseID
		g.Go(func() error {
			return s.cases.CloseCase(gctx, caseID)
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to close linked cases", "ticket_id", t.ID, "error", err)
		return nil, err
	}

	t.Close(time.Now())
	if err := s.tickets.Update(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("ticket closed", "ticket_id", t.ID, "cases", len(linked))
	return t, nil
}
