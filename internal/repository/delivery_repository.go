package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/agroflow/agroflow-backend/internal/models"
)

var (
	// ErrDeliveryNotFound is returned when no delivery row matches.
	ErrDeliveryNotFound = errors.New("delivery not found")

	// ErrDeliveryExists is returned when a request already has a confirmed
	// delivery. Enforced by a unique constraint on request_id.
	ErrDeliveryExists = errors.New("delivery already confirmed for this request")
)

const uniqueViolation = "23505"

// DeliveryRepository owns the deliveries table.
type DeliveryRepository struct {
	db *sqlx.DB
}

// NewDeliveryRepository creates the repository.
func NewDeliveryRepository(db *sqlx.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// Create inserts the delivery confirmation and decrements the product's
// stock in the same transaction. A second confirmation for the same
// request trips the unique constraint and nothing is written.
func (r *DeliveryRepository) Create(ctx context.Context, d *models.Delivery, productID uuid.UUID, quantity int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delivery repository: begin %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO deliveries (request_id, farmer_id, confirmation_note, accepted_level, accepted_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, confirmed_at
	`

	if err := tx.QueryRowxContext(
		ctx, query,
		d.RequestID, d.FarmerID, d.ConfirmationNote, d.AcceptedLevel, d.AcceptedAdmin,
	).Scan(&d.ID, &d.ConfirmedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDeliveryExists
		}
		return fmt.Errorf("delivery repository: create %w", err)
	}

	// Stock never drops below zero even if the request outsizes it.
	stockQuery := `UPDATE products SET amount = GREATEST(amount - $2, 0), updated_at = NOW() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, stockQuery, productID, quantity); err != nil {
		return fmt.Errorf("delivery repository: decrement stock %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delivery repository: commit %w", err)
	}

	return nil
}

// GetByRequestID returns the delivery confirmed for a request, if any.
func (r *DeliveryRepository) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*models.Delivery, error) {
	var d models.Delivery
	query := `SELECT * FROM deliveries WHERE request_id = $1`
	if err := r.db.GetContext(ctx, &d, query, requestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("delivery repository: get by request %w", err)
	}

	return &d, nil
}

// ListByFarmer returns a farmer's confirmed deliveries, newest first.
func (r *DeliveryRepository) ListByFarmer(ctx context.Context, farmerID uuid.UUID, limit, offset int) ([]models.Delivery, error) {
	var deliveries []models.Delivery
	query := `SELECT * FROM deliveries WHERE farmer_id = $1 ORDER BY confirmed_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &deliveries, query, farmerID, limit, offset); err != nil {
		return nil, fmt.Errorf("delivery repository: list by farmer %w", err)
	}
	return deliveries, nil
}
