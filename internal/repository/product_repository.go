package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/agroflow/agroflow-backend/internal/models"
)

// ErrProductNotFound is returned when no product row matches.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository owns the products table.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates the repository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (name, category, sub_category, amount, unit, price, description, manufacturer, expiry_date, created_by, admin_location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		p.Name, p.Category, p.SubCategory, p.Amount, p.Unit, p.Price,
		p.Description, p.Manufacturer, p.ExpiryDate, p.CreatedBy, p.AdminLocation,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("product repository: create %w", err)
	}

	return nil
}

// GetByID returns a product by identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	query := `SELECT * FROM products WHERE id = $1`
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("product repository: get by id %w", err)
	}

	return &p, nil
}

// List returns all products, newest first. Products are visible
// system-wide regardless of who published them.
func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]models.Product, error) {
	var products []models.Product
	query := `SELECT * FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &products, query, limit, offset); err != nil {
		return nil, fmt.Errorf("product repository: list %w", err)
	}
	return products, nil
}

// ListByOwner returns products published by one administrator.
func (r *ProductRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Product, error) {
	var products []models.Product
	query := `SELECT * FROM products WHERE created_by = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &products, query, ownerID, limit, offset); err != nil {
		return nil, fmt.Errorf("product repository: list by owner %w", err)
	}
	return products, nil
}

// Update rewrites a product's editable fields.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET name = $2, category = $3, sub_category = $4, amount = $5, unit = $6,
		    price = $7, description = $8, manufacturer = $9, expiry_date = $10,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		p.ID, p.Name, p.Category, p.SubCategory, p.Amount, p.Unit, p.Price,
		p.Description, p.Manufacturer, p.ExpiryDate,
	).Scan(&p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("product repository: update %w", err)
	}

	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("product repository: delete %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}
