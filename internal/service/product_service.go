package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Lixing-Zhang/handmade-storefront/internal/apperr"
	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
	"github.com/Lixing-Zhang/handmade-storefront/internal/repository"
)

// ProductService handles business logic for products
type ProductService struct {
	repo repository.ProductRepository
	log  *slog.Logger
}

// NewProductService creates a new product service
func NewProductService(repo repository.ProductRepository, log *slog.Logger) *ProductService {
	return &ProductService{
		repo: repo,
		log:  log,
	}
}

// ListProducts returns all available products
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProduct returns a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// CreateProduct adds a product to the catalog
func (s *ProductService) CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	if !req.Price.IsPositive() {
		return nil, apperr.Validation("Price must be positive")
	}
	if req.ShippingCharge.IsNegative() {
		return nil, apperr.Validation("Shipping charge cannot be negative")
	}
	if req.SalePrice != nil && (!req.SalePrice.IsPositive() || !req.SalePrice.LessThan(req.Price)) {
		return nil, apperr.Validation("Sale price must be positive and below the price")
	}

	now := time.Now().UTC()
	p := &models.Product{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		Price:          req.Price,
		SalePrice:      req.SalePrice,
		Stock:          req.Stock,
		ShippingCharge: req.ShippingCharge,
		CODAvailable:   req.CODAvailable,
		Images:         req.Images,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info("product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}
