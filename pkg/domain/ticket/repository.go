package ticket

import (
	"context"

	"github.com/openvocio/api/pkg/domain/shared"
)

// Repository defines the persistence interface for tickets.
type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	GetByID(ctx context.Context, id shared.ID) (*Ticket, error)
	List(ctx context.Context) ([]*Ticket, error)
	Update(ctx context.Context, t *Ticket) error
}
