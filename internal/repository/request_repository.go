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
	"github.com/agroflow/agroflow-backend/internal/workflow"
)

var (
	// ErrRequestNotFound is returned when no request row matches.
	ErrRequestNotFound = errors.New("request not found")

	// ErrRequestStale is returned when a conditional update matched the id
	// but not the expected level statuses: the row changed between the
	// caller's read and the write.
	ErrRequestStale = errors.New("request state changed concurrently")
)

// RequestRepository owns the requests table. All gated mutations are
// single conditional UPDATE statements whose WHERE clauses re-assert the
// workflow preconditions, so two mutually exclusive transitions can never
// both succeed.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository creates the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a new request with every level pending.
func (r *RequestRepository) Create(ctx context.Context, req *models.Request) error {
	query := `
		INSERT INTO requests (farmer_id, product_id, quantity, note, region, zone, woreda, kebele)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, kebele_status, woreda_status, zone_status, region_status, federal_status, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		req.FarmerID, req.ProductID, req.Quantity, req.Note,
		req.Region, req.Zone, req.Woreda, req.Kebele,
	).Scan(
		&req.ID,
		&req.KebeleStatus, &req.WoredaStatus, &req.ZoneStatus, &req.RegionStatus, &req.FederalStatus,
		&req.CreatedAt, &req.UpdatedAt,
	); err != nil {
		return fmt.Errorf("request repository: create %w", err)
	}

	return nil
}

// GetByID returns a request by identifier.
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	var req models.Request
	query := `SELECT * FROM requests WHERE id = $1`
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("request repository: get by id %w", err)
	}

	return &req, nil
}

// ListByFarmer returns every request owned by a farmer, newest first.
func (r *RequestRepository) ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Request, error) {
	var requests []models.Request
	query := `SELECT * FROM requests WHERE farmer_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &requests, query, farmerID); err != nil {
		return nil, fmt.Errorf("request repository: list by farmer %w", err)
	}
	return requests, nil
}

// ListForAdminScope returns the requests an administrator of the given
// tier may see: those whose jurisdiction chain matches the assignment down
// to the tier's granularity. Federal sees everything. An optional kebele
// narrows the result further.
func (r *RequestRepository) ListForAdminScope(ctx context.Context, level workflow.Level, assignment workflow.Jurisdiction, kebele string) ([]models.Request, error) {
	query := `SELECT * FROM requests WHERE 1=1`
	args := []interface{}{}

	appendCond := func(column, value string) {
		args = append(args, value)
		query += fmt.Sprintf(" AND %s = $%d", column, len(args))
	}

	switch level {
	case workflow.LevelKebele:
		appendCond("region", assignment.Region)
		appendCond("zone", assignment.Zone)
		appendCond("woreda", assignment.Woreda)
		appendCond("kebele", assignment.Kebele)
	case workflow.LevelWoreda:
		appendCond("region", assignment.Region)
		appendCond("zone", assignment.Zone)
		appendCond("woreda", assignment.Woreda)
	case workflow.LevelZone:
		appendCond("region", assignment.Region)
		appendCond("zone", assignment.Zone)
	case workflow.LevelRegion:
		appendCond("region", assignment.Region)
	case workflow.LevelFederal:
		// no jurisdiction restriction
	}

	if kebele != "" {
		appendCond("kebele", kebele)
	}

	query += " ORDER BY created_at DESC"

	var requests []models.Request
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("request repository: list for admin scope %w", err)
	}
	return requests, nil
}

// UpdateDetails changes quantity and note, but only while every level is
// still pending. Zero rows affected means the window closed concurrently.
func (r *RequestRepository) UpdateDetails(ctx context.Context, id uuid.UUID, quantity int, note *string) (*models.Request, error) {
	query := `
		UPDATE requests
		SET quantity = $2, note = $3, updated_at = NOW()
		WHERE id = $1
		  AND kebele_status = 'pending' AND woreda_status = 'pending'
		  AND zone_status = 'pending' AND region_status = 'pending'
		  AND federal_status = 'pending'
		RETURNING *
	`

	var req models.Request
	if err := r.db.GetContext(ctx, &req, query, id, quantity, note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestStale
		}
		return nil, fmt.Errorf("request repository: update details %w", err)
	}

	return &req, nil
}

// UpdateLevelStatus records one level's decision. The WHERE clause
// re-asserts the gating rule (own level pending, predecessor approved), so
// a stale read can never overwrite a concurrent decision.
func (r *RequestRepository) UpdateLevelStatus(ctx context.Context, id uuid.UUID, level workflow.Level, decision workflow.Status, adminName string, feedback *string, decidedAt time.Time) (*models.Request, error) {
	prefix := level.String()

	query := fmt.Sprintf(`
		UPDATE requests
		SET %[1]s_status = $2, %[1]s_admin_name = $3, %[1]s_feedback = $4,
		    %[1]s_decided_at = $5, handled_by = $3, updated_at = NOW()
		WHERE id = $1 AND %[1]s_status = 'pending'
	`, prefix)

	if prev, ok := level.Prev(); ok {
		query += fmt.Sprintf(" AND %s_status = 'approved'", prev.String())
	}
	query += " RETURNING *"

	var req models.Request
	if err := r.db.GetContext(ctx, &req, query, id, decision, adminName, feedback, decidedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestStale
		}
		return nil, fmt.Errorf("request repository: update level status %w", err)
	}

	return &req, nil
}

// DeleteUnactioned removes a request owned by the farmer while every level
// is still pending.
func (r *RequestRepository) DeleteUnactioned(ctx context.Context, id, farmerID uuid.UUID) error {
	query := `
		DELETE FROM requests
		WHERE id = $1 AND farmer_id = $2
		  AND kebele_status = 'pending' AND woreda_status = 'pending'
		  AND zone_status = 'pending' AND region_status = 'pending'
		  AND federal_status = 'pending'
	`

	res, err := r.db.ExecContext(ctx, query, id, farmerID)
	if err != nil {
		return fmt.Errorf("request repository: delete unactioned %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRequestStale
	}
	return nil
}

// DeleteRejected removes a request whose given level recorded the
// rejection. Used by the administrator delete path.
func (r *RequestRepository) DeleteRejected(ctx context.Context, id uuid.UUID, level workflow.Level) error {
	query := fmt.Sprintf(`DELETE FROM requests WHERE id = $1 AND %s_status = 'rejected'`, level.String())

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("request repository: delete rejected %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRequestStale
	}
	return nil
}
