package vulnerability

import "context"

// Repository is the dedup store adapter. The guarantee is at most one
// stored Vulnerability per VulnerabilityID, enforced by a uniqueness
// constraint at the storage layer. Exists is an optimization to avoid
// duplicate-insert round trips; Create must still reject a racing second
// insert with shared.ErrAlreadyExists.
type Repository interface {
	Exists(ctx context.Context, vulnerabilityID string) (bool, error)
	Create(ctx context.Context, v *Vulnerability) error
	GetByVulnerabilityID(ctx context.Context, vulnerabilityID string) (*Vulnerability, error)
	List(ctx context.Context) ([]*Vulnerability, error)
	ListUnlinked(ctx context.Context) ([]*Vulnerability, error)
	ListByVulnerabilityIDs(ctx context.Context, ids []string) ([]*Vulnerability, error)
	Update(ctx context.Context, v *Vulnerability) error
}
