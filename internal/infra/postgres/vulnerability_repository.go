package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/openvocio/api/pkg/domain/shared"
	"github.com/openvocio/api/pkg/domain/vulnerability"
)

// VulnerabilityRepository implements vulnerability.Repository using
// PostgreSQL. The UNIQUE constraint on vulnerability_id is the dedup
// boundary: concurrent passes racing on the same finding lose the race
// here, never in application code.
type VulnerabilityRepository struct {
	db *DB
}

// NewVulnerabilityRepository creates a new VulnerabilityRepository.
func NewVulnerabilityRepository(db *DB) *VulnerabilityRepository {
	return &VulnerabilityRepository{db: db}
}

// Exists reports whether a vulnerability with the given tool-native id
// is already stored. Callers use it to skip redundant insert attempts;
// Create still enforces uniqueness on its own.
func (r *VulnerabilityRepository) Exists(ctx context.Context, vulnerabilityID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM vulnerabilities WHERE vulnerability_id = $1)`,
		vulnerabilityID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check vulnerability existence: %w", err)
	}
	return exists, nil
}

// Create persists a new vulnerability. Returns shared.ErrAlreadyExists
// when another record already holds the same vulnerability_id.
func (r *VulnerabilityRepository) Create(ctx context.Context, v *vulnerability.Vulnerability) error {
	query := `
		INSERT INTO vulnerabilities (
			id, vulnerability_id, case_id, title, description,
			severity, cve_refs, active,
			source_kind, source_scanner_result_id, source_alert_id,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		v.ID.String(),
		v.VulnerabilityID,
		nullString(v.CaseID),
		v.Title,
		v.Description,
		string(v.Severity),
		pq.Array(v.CVERefs),
		v.Active,
		string(v.Source.Kind),
		nullString(v.Source.ScannerResultID),
		nullString(v.Source.AlertID),
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("CONFLICT", "vulnerability already exists", shared.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create vulnerability: %w", err)
	}

	return nil
}

// GetByVulnerabilityID retrieves a vulnerability by its tool-native id.
func (r *VulnerabilityRepository) GetByVulnerabilityID(ctx context.Context, vulnerabilityID string) (*vulnerability.Vulnerability, error) {
	query := selectVulnerability + ` WHERE vulnerability_id = $1`

	v, err := r.scanRow(r.db.QueryRowContext(ctx, query, vulnerabilityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.NewDomainError("NOT_FOUND", "vulnerability not found", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get vulnerability: %w", err)
	}

	return v, nil
}

// List returns all vulnerabilities, newest first.
func (r *VulnerabilityRepository) List(ctx context.Context) ([]*vulnerability.Vulnerability, error) {
	return r.query(ctx, selectVulnerability+` ORDER BY created_at DESC`)
}

// ListUnlinked returns vulnerabilities with no case yet.
func (r *VulnerabilityRepository) ListUnlinked(ctx context.Context) ([]*vulnerability.Vulnerability, error) {
	return r.query(ctx, selectVulnerability+` WHERE case_id IS NULL ORDER BY created_at`)
}

// ListByVulnerabilityIDs returns the vulnerabilities matching the given
// tool-native ids. Missing ids are simply absent from the result.
func (r *VulnerabilityRepository) ListByVulnerabilityIDs(ctx context.Context, ids []string) ([]*vulnerability.Vulnerability, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.query(ctx, selectVulnerability+` WHERE vulnerability_id = ANY($1)`, pq.Array(ids))
}

// Update persists vulnerability mutations.
func (r *VulnerabilityRepository) Update(ctx context.Context, v *vulnerability.Vulnerability) error {
	query := `
		UPDATE vulnerabilities
		SET case_id = $2, title = $3, description = $4,
		    severity = $5, cve_refs = $6, active = $7, updated_at = $8
		WHERE vulnerability_id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		v.VulnerabilityID,
		nullString(v.CaseID),
		v.Title,
		v.Description,
		string(v.Severity),
		pq.Array(v.CVERefs),
		v.Active,
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update vulnerability: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return shared.NewDomainError("NOT_FOUND", "vulnerability not found", shared.ErrNotFound)
	}

	return nil
}

const selectVulnerability = `
	SELECT id, vulnerability_id, case_id, title, description,
	       severity, cve_refs, active,
	       source_kind, source_scanner_result_id, source_alert_id,
	       created_at, updated_at
	FROM vulnerabilities`

func (r *VulnerabilityRepository) query(ctx context.Context, query string, args ...any) ([]*vulnerability.Vulnerability, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list vulnerabilities: %w", err)
	}
	defer rows.Close()

	var vulns []*vulnerability.Vulnerability
	for rows.Next() {
		v, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		vulns = append(vulns, v)
	}

	return vulns, rows.Err()
}

func (r *VulnerabilityRepository) scanRow(row rowScanner) (*vulnerability.Vulnerability, error) {
	var (
		v               vulnerability.Vulnerability
		id              string
		caseID          sql.NullString
		severity        string
		cveRefs         pq.StringArray
		sourceKind      string
		scannerResultID sql.NullString
		alertID         sql.NullString
	)

	err := row.Scan(
		&id,
		&v.VulnerabilityID,
		&caseID,
		&v.Title,
		&v.Description,
		&severity,
		&cveRefs,
		&v.Active,
		&sourceKind,
		&scannerResultID,
		&alertID,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := shared.IDFromString(id)
	if err != nil {
		return nil, fmt.Errorf("invalid vulnerability id %q: %w", id, err)
	}

	v.ID = parsed
	v.CaseID = nullStringValue(caseID)
	v.Severity = vulnerability.Severity(severity)
	v.CVERefs = []string(cveRefs)
	v.Source = vulnerability.Source{
		Kind:            vulnerability.Origin(sourceKind),
		ScannerResultID: nullStringValue(scannerResultID),
		AlertID:         nullStringValue(alertID),
	}

	return &v, nil
}
