package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/justinloleng/ecommerce/internal/backend"
	"github.com/justinloleng/ecommerce/internal/domain"
	apperrors "github.com/justinloleng/ecommerce/pkg/errors"
)

// CatalogService is read-only product browsing.
type CatalogService struct {
	products ProductAPI
	logger   *slog.Logger
}

// NewCatalogService creates a catalog service.
func NewCatalogService(products ProductAPI, logger *slog.Logger) *CatalogService {
	return &CatalogService{products: products, logger: logger}
}

// ListProducts returns one page of the catalog.
func (s *CatalogService) ListProducts(ctx context.Context, query domain.ProductQuery) (*domain.ProductPage, error) {
	if query.Sort == "" {
		query.Sort = domain.SortNewest
	}
	if !query.Sort.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid sort: %q", query.Sort))
	}
	if query.MinPrice != nil && *query.MinPrice < 0 {
		return nil, apperrors.InvalidInput("min_price must not be negative")
	}
	if query.MaxPrice != nil && *query.MaxPrice < 0 {
		return nil, apperrors.InvalidInput("max_price must not be negative")
	}
	if query.MinPrice != nil && query.MaxPrice != nil && *query.MinPrice > *query.MaxPrice {
		return nil, apperrors.InvalidInput("min_price must not exceed max_price")
	}

	page, err := s.products.ListProducts(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return page, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		if backend.IsNotFound(err) {
			return nil, apperrors.NotFound("product", strconv.FormatInt(productID, 10))
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.products.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CatalogService) Featured(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.Featured(ctx)
	if err != nil {
		return nil, fmt.Errorf("list featured products: %w", err)
	}
	return products, nil
}
