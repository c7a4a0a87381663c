package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/openvocio/api/pkg/domain/scan"
	"github.com/openvocio/api/pkg/domain/shared"
)

// ScanRepository implements scan.Repository using PostgreSQL.
type ScanRepository struct {
	db *DB
}

// NewScanRepository creates a new ScanRepository.
func NewScanRepository(db *DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Create persists a new scan.
func (r *ScanRepository) Create(ctx context.Context, s *scan.Scan) error {
	query := `
		INSERT INTO scans (
			id, scan_id, name, comment, status,
			target_id, schedule_id, engagement_id,
			created_at, updated_at, finished_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID.String(),
		s.ScanID,
		s.Name,
		nullString(s.Comment),
		string(s.Status),
		nullString(s.TargetID),
		nullString(s.ScheduleID),
		s.EngagementID,
		s.CreatedAt,
		s.UpdatedAt,
		nullTime(s.FinishedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("CONFLICT", "scan already exists", shared.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create scan: %w", err)
	}

	return nil
}

// GetByScanID retrieves a scan by its engine-native task id.
func (r *ScanRepository) GetByScanID(ctx context.Context, scanID string) (*scan.Scan, error) {
	query := `
		SELECT id, scan_id, name, comment, status,
		       target_id, schedule_id, engagement_id,
		       created_at, updated_at, finished_at
		FROM scans
		WHERE scan_id = $1
	`

	s, err := r.scanRow(r.db.QueryRowContext(ctx, query, scanID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.NewDomainError("NOT_FOUND", "scan not found", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}

	return s, nil
}

// List returns all scans, newest first.
func (r *ScanRepository) List(ctx context.Context) ([]*scan.Scan, error) {
	query := `
		SELECT id, scan_id, name, comment, status,
		       target_id, schedule_id, engagement_id,
		       created_at, updated_at, finished_at
		FROM scans
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var scans []*scan.Scan
	for rows.Next() {
		s, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		scans = append(scans, s)
	}

	return scans, rows.Err()
}

// Update persists scan mutations keyed on the engine-native task id.
func (r *ScanRepository) Update(ctx context.Context, s *scan.Scan) error {
	query := `
		UPDATE scans
		SET name = $2, comment = $3, status = $4,
		    target_id = $5, schedule_id = $6, engagement_id = $7,
		    updated_at = $8, finished_at = $9
		WHERE scan_id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		s.ScanID,
		s.Name,
		nullString(s.Comment),
		string(s.Status),
		nullString(s.TargetID),
		nullString(s.ScheduleID),
		s.EngagementID,
		s.UpdatedAt,
		nullTime(s.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to update scan: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return shared.NewDomainError("NOT_FOUND", "scan not found", shared.ErrNotFound)
	}

	return nil
}

// Delete removes a scan record.
func (r *ScanRepository) Delete(ctx context.Context, scanID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scans WHERE scan_id = $1`, scanID)
	if err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return shared.NewDomainError("NOT_FOUND", "scan not found", shared.ErrNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ScanRepository) scanRow(row rowScanner) (*scan.Scan, error) {
	var (
		s          scan.Scan
		id         string
		comment    sql.NullString
		status     string
		targetID   sql.NullString
		scheduleID sql.NullString
		finishedAt sql.NullTime
	)

	err := row.Scan(
		&id,
		&s.ScanID,
		&s.Name,
		&comment,
		&status,
		&targetID,
		&scheduleID,
		&s.EngagementID,
		&s.CreatedAt,
		&s.UpdatedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := shared.IDFromString(id)
	if err != nil {
		return nil, fmt.Errorf("invalid scan id %q: %w", id, err)
	}

	s.ID = parsed
	s.Comment = nullStringValue(comment)
	s.Status = scan.Status(status)
	s.TargetID = nullStringValue(targetID)
	s.ScheduleID = nullStringValue(scheduleID)
	s.FinishedAt = nullTimeValue(finishedAt)

	return &s, nil
}
