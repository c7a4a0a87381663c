package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/openvocio/api/pkg/domain/shared"
	"github.com/openvocio/api/pkg/domain/ticket"
)

// TicketRepository implements ticket.Repository using PostgreSQL.
type TicketRepository struct {
	db *DB
}

// NewTicketRepository creates a new TicketRepository.
func NewTicketRepository(db *DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// Create persists a new ticket.
func (r *TicketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	query := `
		INSERT INTO tickets (
			id, title, status, assigned_to, vulnerability_ids,
			created_at, affected_at, resolved_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		t.ID.String(),
		t.Title,
		string(t.Status),
		nullString(t.AssignedTo),
		pq.Array(t.VulnerabilityIDs),
		t.CreatedAt,
		t.AffectedAt,
		nullTime(t.ResolvedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	return nil
}

// GetByID retrieves a ticket by id.
func (r *TicketRepository) GetByID(ctx context.Context, id shared.ID) (*ticket.Ticket, error) {
	query := selectTicket + ` WHERE id = $1`

	t, err := r.scanRow(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.NewDomainError("NOT_FOUND", "ticket not found", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	return t, nil
}

// List returns all tickets, newest first.
func (r *TicketRepository) List(ctx context.Context) ([]*ticket.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, selectTicket+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*ticket.Ticket
	for rows.Next() {
		t, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}

// Update persists ticket mutations.
func (r *TicketRepository) Update(ctx context.Context, t *ticket.Ticket) error {
	query := `
		UPDATE tickets
		SET title = $2, status = $3, assigned_to = $4,
		    vulnerability_ids = $5, affected_at = $6, resolved_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		t.ID.String(),
		t.Title,
		string(t.Status),
		nullString(t.AssignedTo),
		pq.Array(t.VulnerabilityIDs),
		t.AffectedAt,
		nullTime(t.ResolvedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return shared.NewDomainError("NOT_FOUND", "ticket not found", shared.ErrNotFound)
	}

	return nil
}

const selectTicket = `
	SELECT id, title, status, assigned_to, vulnerability_ids,
	       created_at, affected_at, resolved_at
	FROM tickets`

func (r *TicketRepository) scanRow(row rowScanner) (*ticket.Ticket, error) {
	var (
		t          ticket.Ticket
		id         string
		status     string
		assignedTo sql.NullString
		vulnIDs    pq.StringArray
		resolvedAt sql.NullTime
	)

	err := row.Scan(
		&id,
		&t.Title,
		&status,
		&assignedTo,
		&vulnIDs,
		&t.CreatedAt,
		&t.AffectedAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := shared.IDFromString(id)
	if err != nil {
		return nil, fmt.Errorf("invalid ticket id %q: %w", id, err)
	}

	t.ID = parsed
	t.Status = ticket.Status(status)
	t.AssignedTo = nullStringValue(assignedTo)
	t.VulnerabilityIDs = []string(vulnIDs)
	t.ResolvedAt = nullTimeValue(resolvedAt)

	return &t, nil
}
