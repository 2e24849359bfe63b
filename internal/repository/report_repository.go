package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/agroflow/agroflow-backend/internal/models"
)

// ErrReportNotFound is returned when no report row matches.
var ErrReportNotFound = errors.New("report not found")

// ReportRepository owns the reports table.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new report.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (reporter_id, reported_admin_id, report_type, title, description, evidence, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		report.ReporterID, report.ReportedAdminID, report.ReportType,
		report.Title, report.Description, report.Evidence, report.Priority,
	).Scan(&report.ID, &report.Status, &report.CreatedAt); err != nil {
		return fmt.Errorf("report repository: create %w", err)
	}

	return nil
}

// GetByID returns a report by identifier.
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	query := `SELECT * FROM reports WHERE id = $1`
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("report repository: get by id %w", err)
	}

	return &report, nil
}

// ListByReporter returns reports filed by one administrator.
func (r *ReportRepository) ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.Report, error) {
	var reports []models.Report
	query := `SELECT * FROM reports WHERE reporter_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &reports, query, reporterID, limit, offset); err != nil {
		return nil, fmt.Errorf("report repository: list by reporter %w", err)
	}
	return reports, nil
}

// ListAll returns every report, optionally narrowed to one status.
// Oldest first so reviewers work the backlog in order.
func (r *ReportRepository) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Report, error) {
	var reports []models.Report
	var err error

	if status != "" {
		query := `SELECT * FROM reports WHERE status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
		err = r.db.SelectContext(ctx, &reports, query, status, limit, offset)
	} else {
		query := `SELECT * FROM reports ORDER BY created_at ASC LIMIT $1 OFFSET $2`
		err = r.db.SelectContext(ctx, &reports, query, limit, offset)
	}

	if err != nil {
		return nil, fmt.Errorf("report repository: list all %w", err)
	}
	return reports, nil
}

// UpdateStatus moves a report to a new status with reviewer attribution.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, resolutionNotes *string, reviewerID uuid.UUID, reviewedAt time.Time) (*models.Report, error) {
	query := `
		UPDATE reports
		SET status = $2, resolution_notes = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1
		RETURNING *
	`

	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id, status, resolutionNotes, reviewerID, reviewedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("report repository: update status %w", err)
	}

	return &report, nil
}
