package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/openvocio/api/pkg/domain/report"
	"github.com/openvocio/api/pkg/domain/shared"
)

// ReportSummaryRepository implements report.Repository using PostgreSQL.
type ReportSummaryRepository struct {
	db *DB
}

// NewReportSummaryRepository creates a new ReportSummaryRepository.
func NewReportSummaryRepository(db *DB) *ReportSummaryRepository {
	return &ReportSummaryRepository{db: db}
}

// Create persists a report summary.
func (r *ReportSummaryRepository) Create(ctx context.Context, s *report.Summary) error {
	query := `
		INSERT INTO report_summaries (
			id, report_id, scan_id, total_findings,
			critical_count, high_count, medium_count, low_count, info_count,
			generated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID.String(),
		s.ReportID,
		s.ScanID,
		s.TotalFindings,
		s.Counts.Critical,
		s.Counts.High,
		s.Counts.Medium,
		s.Counts.Low,
		s.Counts.Info,
		s.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report summary: %w", err)
	}

	return nil
}

// GetByScanID returns the most recent summary recorded for a scan.
func (r *ReportSummaryRepository) GetByScanID(ctx context.Context, scanID string) (*report.Summary, error) {
	query := `
		SELECT id, report_id, scan_id, total_findings,
		       critical_count, high_count, medium_count, low_count, info_count,
		       generated_at
		FROM report_summaries
		WHERE scan_id = $1
		ORDER BY generated_at DESC
		LIMIT 1
	`

	var (
		s  report.Summary
		id string
	)
	err := r.db.QueryRowContext(ctx, query, scanID).Scan(
		&id,
		&s.ReportID,
		&s.ScanID,
		&s.TotalFindings,
		&s.Counts.Critical,
		&s.Counts.High,
		&s.Counts.Medium,
		&s.Counts.Low,
		&s.Counts.Info,
		&s.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.NewDomainError("NOT_FOUND", "report summary not found", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get report summary: %w", err)
	}

	parsed, err := shared.IDFromString(id)
	if err != nil {
		return nil, fmt.Errorf("invalid summary id %q: %w", id, err)
	}
	s.ID = parsed

	return &s, nil
}
