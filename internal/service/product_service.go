package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agroflow/agroflow-backend/internal/models"
	"github.com/agroflow/agroflow-backend/internal/pkg/apperror"
	"github.com/agroflow/agroflow-backend/internal/repository"
	"github.com/agroflow/agroflow-backend/internal/validation"
	"github.com/agroflow/agroflow-backend/internal/workflow"
)

// ProductRepository describes the storage needed by ProductService.
type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, limit, offset int) ([]models.Product, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Product, error)
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductService owns the product catalog: administrator-published,
// system-wide readable, owner-only writable.
type ProductService struct {
	repo  ProductRepository
	users UserReader
}

// NewProductService creates the product service.
func NewProductService(repo ProductRepository, users UserReader) *ProductService {
	return &ProductService{repo: repo, users: users}
}

// ProductInput carries the fields an administrator may set.
type ProductInput struct {
	Name         string
	Category     string
	SubCategory  *string
	Amount       int
	Unit         string
	Price        float64
	Description  *string
	Manufacturer *string
	ExpiryDate   *string
}

// CreateProduct publishes a product owned by the acting administrator.
func (s *ProductService) CreateProduct(ctx context.Context, actorID uuid.UUID, in ProductInput) (*models.Product, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	if !workflow.IsAdminRole(actor.Role) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "only administrators may publish products")
	}

	if err := validateProductInput(in); err != nil {
		return nil, err
	}

	expiry, err := parseExpiry(in.ExpiryDate)
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:          in.Name,
		Category:      in.Category,
		SubCategory:   in.SubCategory,
		Amount:        in.Amount,
		Unit:          in.Unit,
		Price:         in.Price,
		Description:   in.Description,
		Manufacturer:  in.Manufacturer,
		ExpiryDate:    expiry,
		CreatedBy:     actorID,
		AdminLocation: adminLocation(actor),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProduct returns a product by identifier.
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, apperror.ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListProducts returns the catalog, newest first.
func (s *ProductService) ListProducts(ctx context.Context, limit, offset int) ([]models.Product, error) {
	return s.repo.List(ctx, limit, offset)
}

// ListMyProducts returns products owned by the acting administrator.
func (s *ProductService) ListMyProducts(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]models.Product, error) {
	return s.repo.ListByOwner(ctx, actorID, limit, offset)
}

// UpdateProduct rewrites a product. Owner only.
func (s *ProductService) UpdateProduct(ctx context.Context, actorID, productID uuid.UUID, in ProductInput) (*models.Product, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.CreatedBy != actorID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "products are read-only to everyone but their owner")
	}

	if err := validateProductInput(in); err != nil {
		return nil, err
	}

	expiry, err := parseExpiry(in.ExpiryDate)
	if err != nil {
		return nil, err
	}

	p.Name = in.Name
	p.Category = in.Category
	p.SubCategory = in.SubCategory
	p.Amount = in.Amount
	p.Unit = in.Unit
	p.Price = in.Price
	p.Description = in.Description
	p.Manufacturer = in.Manufacturer
	p.ExpiryDate = expiry

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes a product. Owner only.
func (s *ProductService) DeleteProduct(ctx context.Context, actorID, productID uuid.UUID) error {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if p.CreatedBy != actorID {
		return apperror.New(apperror.ErrCodeForbidden, "products are read-only to everyone but their owner")
	}

	return s.repo.Delete(ctx, productID)
}

func validateProductInput(in ProductInput) error {
	if err := validation.ValidateLength("name", in.Name, validation.MinProductNameLength, validation.MaxProductNameLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.Amount < 0 {
		return apperror.New(apperror.ErrCodeValidation, "amount must not be negative")
	}
	if in.Price < 0 || in.Price > validation.MaxPrice {
		return apperror.New(apperror.ErrCodeValidation, "price is out of range")
	}
	if in.Description != nil {
		if err := validation.ValidateLength("description", *in.Description, 0, validation.MaxDescriptionLength); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	return nil
}

func parseExpiry(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "expiry_date must be YYYY-MM-DD")
	}
	return &t, nil
}

// adminLocation renders the administrator's assignment for display on the
// product card.
func adminLocation(u *models.User) string {
	level, ok := u.AdminLevel()
	if !ok {
		return ""
	}
	switch level {
	case workflow.LevelFederal:
		return "federal"
	case workflow.LevelRegion:
		return u.Region
	case workflow.LevelZone:
		return fmt.Sprintf("%s / %s", u.Region, u.Zone)
	case workflow.LevelWoreda:
		return fmt.Sprintf("%s / %s / %s", u.Region, u.Zone, u.Woreda)
	case workflow.LevelKebele:
		return fmt.Sprintf("%s / %s / %s / %s", u.Region, u.Zone, u.Woreda, u.Kebele)
	}
	return ""
}
