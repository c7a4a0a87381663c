package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openvocio/api/internal/app"
	"github.com/openvocio/api/pkg/apierror"
	"github.com/openvocio/api/pkg/domain/shared"
	"github.com/openvocio/api/pkg/domain/ticket"
	"github.com/openvocio/api/pkg/validator"
)

// TicketHandler serves remediation tickets.
type TicketHandler struct {
	tickets   *app.TicketService
	validator *validator.Validator
}

// NewTicketHandler creates a new ticket handler.
func NewTicketHandler(tickets *app.TicketService, v *validator.Validator) *TicketHandler {
	return &TicketHandler{
		tickets:   tickets,
		validator: v,
	}
}

// Create opens a new ticket.
func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req app.CreateTicketRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondError(w, err)
		return
	}

	t, err := h.tickets.CreateTicket(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toTicketResponse(t))
}

// List returns all tickets.
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.tickets.ListTickets(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTicketResponses(tickets))
}

// Get returns one ticket by id.
func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	t, err := h.tickets.GetTicket(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTicketResponse(t))
}

// UpdateStatusRequest carries a manual ticket status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,ticket_status"`
}

// UpdateStatus applies a manual status change.
func (h *TicketHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondError(w, err)
		return
	}

	t, err := h.tickets.SetTicketStatus(r.Context(), id, ticket.Status(req.Status))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTicketResponse(t))
}

// Close closes the ticket and all cases linked to its vulnerabilities.
// The ticket id comes from the request path; closing never guesses
// which ticket was meant.
func (h *TicketHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	t, err := h.tickets.CloseTicket(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTicketResponse(t))
}

func ticketID(r *http.Request) (shared.ID, error) {
	id, err := shared.IDFromString(chi.URLParam(r, "ticketID"))
	if err != nil {
		return shared.ID{}, apierror.BadRequest("invalid ticket id")
	}
	return id, nil
}
